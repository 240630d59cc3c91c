// Package session keeps the record of the active source file in config.json.
package session

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FileName is the session file kept in the working directory.
const FileName = "config.json"

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://ragqa.local/schemas/session.json"

// Record names the active source file and its index.
type Record struct {
	TxtFilename     string `json:"txtFilename"`
	VectorStorePath string `json:"VECTOR_STORE_PATH"`
}

// ForFile returns the record for base name name.
func ForFile(name string) Record {
	return Record{TxtFilename: name, VectorStorePath: "./" + name + ".index"}
}

// Consistent reports whether both fields describe the same base name. The
// empty record means no file has been chosen yet.
func (r Record) Consistent() bool {
	if r.TxtFilename == "" {
		return r.VectorStorePath == ""
	}
	return r.VectorStorePath == ForFile(r.TxtFilename).VectorStorePath
}

// ConfigLoadError reports a session file that is missing, malformed or does
// not match the schema.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("loading session config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

var ErrInconsistent = errors.New("txtFilename and VECTOR_STORE_PATH name different files")

// Store holds the current record and writes every change back to disk.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Record
}

// Load reads and validates the session file at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	rec, err := decode(data)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return &Store{path: path, current: rec}, nil
}

// Path returns the location of the session file.
func (s *Store) Path() string { return s.path }

// Current returns the active record.
func (s *Store) Current() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update writes rec to disk and then makes it current.
func (s *Store) Update(rec Record) error {
	if !rec.Consistent() {
		return fmt.Errorf("updating session: %w", ErrInconsistent)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	s.current = rec
	return nil
}

// UseFile records name as the active file.
func (s *Store) UseFile(name string) error {
	return s.Update(ForFile(name))
}

func decode(data []byte) (Record, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Record{}, fmt.Errorf("parsing json: %w", err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return Record{}, err
	}
	if err := sch.Validate(doc); err != nil {
		return Record{}, fmt.Errorf("schema validation: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	if !rec.Consistent() {
		return Record{}, ErrInconsistent
	}
	return rec, nil
}

var (
	schemaOnce sync.Once
	compiled   *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parsing session schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("adding session schema: %w", err)
			return
		}
		compiled, schemaErr = c.Compile(schemaURL)
	})
	return compiled, schemaErr
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
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
