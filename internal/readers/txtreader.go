package readers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TxtFileReader returns the file contents unchanged.
type TxtFileReader struct{}

func (r *TxtFileReader) CanRead(path string) bool {
	return !strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (r *TxtFileReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	return string(buf), nil
}
