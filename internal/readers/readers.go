// Package readers extracts text from files imported into the working area.
package readers

// FileReader turns a file into plain text.
type FileReader interface {
	CanRead(path string) bool
	ReadText(path string) (string, error)
}

var registry = []FileReader{
	&PdfFileReader{},
	&TxtFileReader{},
}

// For returns the first reader that accepts path. Anything that is not a
// known document format is read as text.
func For(path string) FileReader {
	for _, r := range registry {
		if r.CanRead(path) {
			return r
		}
	}
	return &TxtFileReader{}
}
