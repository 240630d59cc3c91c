package selector

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter replays answers in order and records the questions asked.
type scriptedPrompter struct {
	answers   []string
	questions []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, q string) (string, error) {
	p.questions = append(p.questions, q)
	if len(p.answers) == 0 {
		return "", ErrAborted
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type recorder struct {
	names []string
}

func (r *recorder) UseFile(name string) error {
	r.names = append(r.names, name)
	return nil
}

func newSelector(t *testing.T, dir string, answers ...string) (*Selector, *scriptedPrompter, *recorder, *bytes.Buffer) {
	t.Helper()
	p := &scriptedPrompter{answers: answers}
	r := &recorder{}
	out := &bytes.Buffer{}
	return New(p, r, Options{Dir: dir, Out: out}), p, r, out
}

func touch(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPromptForFile_SingleCandidateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt", "hello")

	for i := 0; i < 3; i++ {
		s, _, r, _ := newSelector(t, dir, "")
		name, err := s.PromptForFile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "notes", name)
		assert.Equal(t, []string{"notes"}, r.names)
	}
}

func TestPromptForFile_MultipleCandidates(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.txt", "b")
	touch(t, dir, "a.txt", "a")
	touch(t, dir, "ignored.md", "x")

	s, p, r, out := newSelector(t, dir, "", "2")
	name, err := s.PromptForFile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "b", name)
	assert.Equal(t, []string{"b"}, r.names)
	assert.Equal(t, []string{FilePrompt, ChoicePrompt}, p.questions)
	assert.Contains(t, out.String(), "1: a.txt\n2: b.txt\n")
}

func TestPromptForFile_InvalidChoiceNeverAdvances(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.txt", "a")
	touch(t, dir, "b.txt", "b")

	s, p, r, out := newSelector(t, dir, "", "0", "-1", "abc", "3")
	_, err := s.PromptForFile(context.Background())

	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Empty(t, r.names)
	assert.Equal(t, []string{FilePrompt, ChoicePrompt, ChoicePrompt, ChoicePrompt, ChoicePrompt}, p.questions)
	assert.Contains(t, out.String(), `invalid choice "abc"`)
}

func TestPromptForFile_InvalidThenValid(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.txt", "a")
	touch(t, dir, "b.txt", "b")

	s, _, r, _ := newSelector(t, dir, "", "9", "1")
	name, err := s.PromptForFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, []string{"a"}, r.names)
}

func TestPromptForFile_NoCandidatesReprompts(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, t.TempDir(), "report.txt", "quarterly numbers")

	s, p, r, out := newSelector(t, dir, "", src)
	name, err := s.PromptForFile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "report", name)
	assert.Equal(t, []string{"report"}, r.names)
	assert.Equal(t, []string{FilePrompt, FilePrompt}, p.questions)
	assert.Contains(t, out.String(), "Please provide a valid file path.")

	data, err := os.ReadFile(filepath.Join(dir, "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "quarterly numbers", string(data))
}

func TestPromptForFile_Aborted(t *testing.T) {
	s, _, r, _ := newSelector(t, t.TempDir())
	_, err := s.PromptForFile(context.Background())
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, r.names)
}

func TestImport_ExistingFileIsNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt", "original")
	src := touch(t, t.TempDir(), "notes.txt", "replacement")

	s, _, r, out := newSelector(t, dir, src)
	name, err := s.PromptForFile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "notes", name)
	assert.Equal(t, []string{"notes"}, r.names)
	assert.Contains(t, out.String(), "We already have notes.txt")

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestImport_CopyError(t *testing.T) {
	dir := t.TempDir()
	s, _, r, _ := newSelector(t, dir, filepath.Join(dir, "missing", "ghost.txt"))

	_, err := s.PromptForFile(context.Background())
	var ce *CopyError
	require.ErrorAs(t, err, &ce)
	assert.Empty(t, r.names)

	_, statErr := os.Stat(filepath.Join(dir, "ghost.txt"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestImport_NoBaseName(t *testing.T) {
	s, _, _, _ := newSelector(t, t.TempDir())
	_, err := s.Import("/some/dir/.txt")
	var ce *CopyError
	assert.ErrorAs(t, err, &ce)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "notes", BaseName("notes.txt"))
	assert.Equal(t, "b.notes", BaseName("/a/b.notes.txt"))
	assert.Equal(t, "paper", BaseName("docs/paper.pdf"))
	assert.Equal(t, "README", BaseName("README"))
}
