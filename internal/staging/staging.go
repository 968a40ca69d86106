// Package staging turns a user supplied OpenAPI file into the normalized JSON
// file handed to the renderer.
//
// A staged file lives in its own temporary directory. Callers must release it
// with Close, or use WithStaged which releases it on every exit path.
package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ariel-frischer/openapi-diagram/internal/specdoc"
)

// StagedFileName is the name of the normalized file inside the staging directory.
const StagedFileName = "openapi_spec.json"

// ErrUnsupportedFileFormat is matched by UnsupportedFileFormatError.
var ErrUnsupportedFileFormat = errors.New("unsupported file format")

// UnsupportedFileFormatError reports a specification file whose extension is
// neither JSON nor YAML.
type UnsupportedFileFormatError struct {
	Suffix string
}

func (e *UnsupportedFileFormatError) Error() string {
	return fmt.Sprintf("File type: *%s is not supported.", e.Suffix)
}

// Is makes errors.Is(err, ErrUnsupportedFileFormat) succeed.
func (e *UnsupportedFileFormatError) Is(target error) bool {
	return target == ErrUnsupportedFileFormat
}

// FormatOf picks the document format from the file extension. Extensions are
// matched exactly, so api.JSON is rejected.
func FormatOf(path string) (specdoc.Format, error) {
	ext := filepath.Ext(path)
	switch ext {
	case ".json":
		return specdoc.FormatJSON, nil
	case ".yaml", ".yml":
		return specdoc.FormatYAML, nil
	default:
		return 0, &UnsupportedFileFormatError{Suffix: ext}
	}
}

// Load reads and parses the file at path. Documents in the 3.1 dialect are
// normalized; anything else is returned as parsed.
func Load(path string) (*specdoc.Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading specification: %w", err)
	}
	return LoadBytes(data, format)
}

// LoadBytes parses data in the given format and normalizes it when needed.
func LoadBytes(data []byte, format specdoc.Format) (*specdoc.Document, error) {
	doc, err := specdoc.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing specification: %w", err)
	}
	if specdoc.NeedsNormalization(doc) {
		specdoc.Normalize(doc)
	}
	return doc, nil
}

// Staged is a normalized specification written to a temporary directory.
type Staged struct {
	// Path is the staged JSON file.
	Path string
	// Document is the normalized document that was written.
	Document *specdoc.Document

	dir      string
	once     sync.Once
	closeErr error
}

// Stage loads the specification at path and writes it as JSON to
// <tmpdir>/openapi_spec.json. Nothing is left on disk when Stage fails.
func Stage(path string) (*Staged, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return StageDocument(doc)
}

// StageDocument writes an already loaded document to a fresh staging directory.
func StageDocument(doc *specdoc.Document) (*Staged, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("serializing specification: %w", err)
	}

	dir, err := os.MkdirTemp("", "openapi-diagram-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}

	staged := &Staged{
		Path:     filepath.Join(dir, StagedFileName),
		Document: doc,
		dir:      dir,
	}
	if err := os.WriteFile(staged.Path, data, 0o644); err != nil {
		_ = staged.Close()
		return nil, fmt.Errorf("writing staged specification: %w", err)
	}
	return staged, nil
}

// Dir returns the staging directory.
func (s *Staged) Dir() string {
	return s.dir
}

// Close removes the staged file and its directory. Later calls return the
// result of the first.
func (s *Staged) Close() error {
	s.once.Do(func() {
		if err := os.RemoveAll(s.dir); err != nil {
			s.closeErr = fmt.Errorf("removing staging directory: %w", err)
		}
	})
	return s.closeErr
}

// WithStaged stages the specification at path, calls fn with the staged file
// and releases it afterwards, including when fn fails or panics. A cleanup
// failure is reported only when fn succeeded.
func WithStaged(path string, fn func(staged *Staged) error) (err error) {
	staged, err := Stage(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := staged.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(staged)
}
