package splitter

import (
	"strings"
	"unicode/utf8"

	"ragqa/internal/domain"
)

// DefaultChunkSize is the maximum chunk length in characters.
const DefaultChunkSize = 1000

// DefaultSeparators go from the largest semantic boundary to the smallest.
// An empty separator means a hard cut at the chunk size.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text on the largest separator that occurs in it and
// recurses into pieces that are still too long. Separators stay attached to
// the piece they end, so the chunks concatenate back to the input.
type RecursiveSplitter struct {
	chunkSize  int
	separators []string
}

func NewRecursiveSplitter(chunkSize int, separators []string) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &RecursiveSplitter{chunkSize: chunkSize, separators: separators}
}

// ChunkSize returns the configured maximum chunk length.
func (s *RecursiveSplitter) ChunkSize() int { return s.chunkSize }

// Split returns the chunks of text in document order. Every chunk holds at
// most ChunkSize runes.
func (s *RecursiveSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}

	sep, rest, ok := pickSeparator(text, separators)
	if !ok {
		return hardSplit(text, s.chunkSize)
	}

	var (
		out    []string
		buf    strings.Builder
		bufLen int
	)
	flush := func() {
		if bufLen > 0 {
			out = append(out, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		n := utf8.RuneCountInString(piece)
		if n > s.chunkSize {
			flush()
			out = append(out, s.split(piece, rest)...)
			continue
		}
		if bufLen+n > s.chunkSize {
			flush()
		}
		buf.WriteString(piece)
		bufLen += n
	}
	flush()
	return out
}

// pickSeparator returns the first non-empty separator present in text and the
// separators that come after it.
func pickSeparator(text string, separators []string) (string, []string, bool) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil, false
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:], true
		}
	}
	return "", nil, false
}

func hardSplit(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// Chunks turns split parts into domain chunks carrying their position.
func Chunks(source string, parts []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(parts))
	offset := 0
	for i, p := range parts {
		chunks = append(chunks, domain.Chunk{
			Source: source,
			Index:  i,
			Offset: offset,
			Text:   p,
		})
		offset += utf8.RuneCountInString(p)
	}
	return chunks
}
