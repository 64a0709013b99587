// Package store persists a catalog.Library as a single JSON document.
//
// The document is a JSON array of book objects. It is read fully at load
// time and rewritten fully at save time; nothing is streamed or updated
// incrementally.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"shelf/internal/catalog"
	"shelf/internal/logging"
)

// DefaultPath is the library document used when no path is configured.
const DefaultPath = "library.txt"

// DefaultIndent is the number of spaces used to indent saved documents.
const DefaultIndent = 4

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseError reports a persisted document that exists but cannot be decoded.
// Load returns it alongside an empty library so callers can warn and go on.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode library %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err carries a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// FileStore reads and writes the library document at a fixed path.
type FileStore struct {
	path   string
	indent int
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithIndent sets the number of spaces per indentation level.
func WithIndent(n int) Option {
	return func(s *FileStore) {
		if n > 0 {
			s.indent = n
		}
	}
}

// NewFileStore creates a store for path, falling back to DefaultPath.
func NewFileStore(path string, opts ...Option) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	s := &FileStore{path: path, indent: DefaultIndent}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document. A missing file, an empty or whitespace-only
// file, a bare "" string and a JSON null all yield an empty library with
// no error. Invalid content yields an empty library and a *ParseError.
func (s *FileStore) Load() (catalog.Library, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.StoreDebug("No library at %s, starting empty", s.path)
			return catalog.Library{}, nil
		}
		return catalog.Library{}, fmt.Errorf("failed to read library: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	switch trimmed {
	case "", `""`, "null":
		logging.StoreDebug("Library %s is empty", s.path)
		return catalog.Library{}, nil
	}

	var lib catalog.Library
	if err := json.Unmarshal([]byte(trimmed), &lib); err != nil {
		logging.StoreWarn("Could not decode %s: %v", s.path, err)
		return catalog.Library{}, &ParseError{Path: s.path, Err: err}
	}
	if lib == nil {
		lib = catalog.Library{}
	}

	logging.Store("Loaded %d books from %s", len(lib), s.path)
	return lib, nil
}

// Save overwrites the document with lib. An empty library is written as [].
func (s *FileStore) Save(lib catalog.Library) error {
	if lib == nil {
		lib = catalog.Library{}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create library directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(lib, "", strings.Repeat(" ", s.indent))
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write library: %w", err)
	}

	logging.Store("Saved %d books to %s", len(lib), s.path)
	return nil
}
