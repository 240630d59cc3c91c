package selector

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned when the user cancels a prompt.
	ErrAborted = errors.New("selection aborted")
	// ErrTooManyAttempts is returned once the prompt budget is used up.
	ErrTooManyAttempts = errors.New("too many attempts")
)

// CopyError reports a failed import of an external file.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// InvalidSelectionError is a choice that is not a number in [1, Max].
type InvalidSelectionError struct {
	Input string
	Max   int
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid choice %q: enter a number between 1 and %d", e.Input, e.Max)
}

// NoCandidateFileError means the working area holds no text files.
type NoCandidateFileError struct {
	Dir string
}

func (e *NoCandidateFileError) Error() string {
	return fmt.Sprintf("no .txt files in %s", e.Dir)
}
