// Package selector decides which source file the CLI works on.
package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ragqa/internal/readers"
)

const (
	FilePrompt   = "Enter a file path (or press enter to use the existing file): "
	ChoicePrompt = "Enter a number: "

	DefaultMaxAttempts = 5
)

// Prompter asks the user one question and returns the raw answer.
// Implementations return ErrAborted when the user cancels.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// Recorder persists the chosen base name.
type Recorder interface {
	UseFile(name string) error
}

type Options struct {
	// Dir is the working area holding {name}.txt files.
	Dir         string
	MaxAttempts int
	// Out receives the user-facing messages.
	Out    io.Writer
	Logger *slog.Logger
}

type Selector struct {
	prompter    Prompter
	recorder    Recorder
	dir         string
	maxAttempts int
	out         io.Writer
	log         *slog.Logger
}

func New(p Prompter, r Recorder, opts Options) *Selector {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Selector{
		prompter:    p,
		recorder:    r,
		dir:         opts.Dir,
		maxAttempts: opts.MaxAttempts,
		out:         opts.Out,
		log:         opts.Logger,
	}
}

// PromptForFile resolves the active source file and records it. Every
// question asked counts against the attempt budget.
func (s *Selector) PromptForFile(ctx context.Context) (string, error) {
	attempts := 0
	ask := func(question string) (string, error) {
		if attempts >= s.maxAttempts {
			return "", ErrTooManyAttempts
		}
		attempts++
		answer, err := s.prompter.Prompt(ctx, question)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(answer), nil
	}

	for {
		path, err := ask(FilePrompt)
		if err != nil {
			return "", err
		}

		if path != "" {
			fmt.Fprintf(s.out, "File path received: %s\n", path)
			name, err := s.Import(path)
			if err != nil {
				return "", err
			}
			return name, s.use(name)
		}

		files, err := s.Candidates()
		if err != nil {
			return "", fmt.Errorf("listing candidates: %w", err)
		}
		switch len(files) {
		case 0:
			nc := &NoCandidateFileError{Dir: s.dir}
			s.log.Debug("no candidate files", "dir", s.dir)
			fmt.Fprintf(s.out, "%v. Please provide a valid file path.\n", nc)
			continue
		case 1:
			name := BaseName(files[0])
			return name, s.use(name)
		}

		fmt.Fprintln(s.out, "Multiple txt files found. Please choose one.")
		for i, f := range files {
			fmt.Fprintf(s.out, "%d: %s\n", i+1, f)
		}
		for {
			answer, err := ask(ChoicePrompt)
			if err != nil {
				return "", err
			}
			idx, err := parseChoice(answer, len(files))
			if err != nil {
				fmt.Fprintf(s.out, "%v, please try again.\n", err)
				continue
			}
			name := BaseName(files[idx])
			return name, s.use(name)
		}
	}
}

// Import copies src into the working area as {base}.txt and returns the base
// name. An existing file of that name is kept as is.
func (s *Selector) Import(src string) (string, error) {
	name := BaseName(src)
	dst := filepath.Join(s.dir, name+".txt")
	if name == "" {
		return "", &CopyError{Src: src, Dst: dst, Err: errors.New("file has no base name")}
	}

	if _, err := os.Stat(dst); err == nil {
		fmt.Fprintf(s.out, "We already have %s.txt, using the existing copy.\n", name)
		s.log.Warn("import skipped, destination exists", "src", src, "dst", dst)
		return name, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", &CopyError{Src: src, Dst: dst, Err: err}
	}

	text, err := readers.For(src).ReadText(src)
	if err != nil {
		return "", &CopyError{Src: src, Dst: dst, Err: err}
	}
	if err := writeNew(dst, text); err != nil {
		return "", &CopyError{Src: src, Dst: dst, Err: err}
	}
	fmt.Fprintln(s.out, "File copied successfully!")
	s.log.Info("imported file", "src", src, "dst", dst, "bytes", len(text))
	return name, nil
}

// Candidates lists the .txt files of the working area in lexical order.
func (s *Selector) Candidates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".txt" {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Selector) use(name string) error {
	fmt.Fprintf(s.out, "Using file and vector store (%s.txt and %s.index)\n", name, name)
	if err := s.recorder.UseFile(name); err != nil {
		return fmt.Errorf("recording active file: %w", err)
	}
	return nil
}

// BaseName strips the directory and the last extension: "a/b.notes.txt" is "b.notes".
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseChoice(answer string, n int) (int, error) {
	choice, err := strconv.Atoi(answer)
	if err != nil || choice < 1 || choice > n {
		return 0, &InvalidSelectionError{Input: answer, Max: n}
	}
	return choice - 1, nil
}

// writeNew writes text to a temp file beside path and renames it into place,
// so an interrupted import never leaves a truncated source behind.
func writeNew(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := io.WriteString(tmp, text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
