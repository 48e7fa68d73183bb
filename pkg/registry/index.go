package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/observability"
)

// Index summarizes the store files under a root directory.
//
// Its JSON form is the artifact the UI reads:
//
//	{
//	  "base_dir": "/srv/custom_kv_stores",
//	  "files": {
//	    "characters.json": {"keys": ["alice", "bob"]}
//	  }
//	}
//
// Files keep the order in which the scanner found them, which is the
// lexicographic directory listing.
type Index struct {
	BaseDir string
	Files   []FileEntry
}

// FileEntry lists the sorted top-level keys of one store file.
type FileEntry struct {
	Name string
	Keys []string
}

// Lookup returns the entry for a store file name.
func (ix *Index) Lookup(name string) (FileEntry, bool) {
	for _, f := range ix.Files {
		if f.Name == name {
			return f, true
		}
	}
	return FileEntry{}, false
}

// Names returns the store file names in index order.
func (ix *Index) Names() []string {
	names := make([]string, len(ix.Files))
	for i, f := range ix.Files {
		names[i] = f.Name
	}
	return names
}

type entryJSON struct {
	Keys []string `json:"keys"`
}

// MarshalJSON encodes the index with files as an ordered JSON object.
func (ix *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"base_dir":`)
	if err := encodeCompact(&buf, ix.BaseDir); err != nil {
		return nil, err
	}
	buf.WriteString(`,"files":{`)
	for i, f := range ix.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeCompact(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		keys := f.Keys
		if keys == nil {
			keys = []string{}
		}
		if err := encodeCompact(&buf, entryJSON{Keys: keys}); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the index, preserving the order of files.
func (ix *Index) UnmarshalJSON(data []byte) error {
	var raw struct {
		BaseDir string          `json:"base_dir"`
		Files   json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ix.BaseDir = raw.BaseDir
	ix.Files = nil
	if len(raw.Files) == 0 || string(raw.Files) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Files))
	if tok, err := dec.Token(); err != nil {
		return err
	} else if tok != json.Delim('{') {
		return fmt.Errorf("files: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var e entryJSON
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("files[%s]: %w", name, err)
		}
		if e.Keys == nil {
			e.Keys = []string{}
		}
		ix.Files = append(ix.Files, FileEntry{Name: name, Keys: e.Keys})
	}
	_, err := dec.Token()
	return err
}

func encodeCompact(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // trailing newline
	return nil
}

// EncodeIndex renders the index as human-readable JSON, indented by two
// spaces and without escaping non-ASCII or HTML characters.
func EncodeIndex(ix *Index) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ix); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeIndex parses an index artifact.
func DecodeIndex(data []byte) (*Index, error) {
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &ix, nil
}

// =============================================================================
// Index Stores
// =============================================================================

// Publisher persists a registry index and reports where it went.
type Publisher interface {
	Publish(ctx context.Context, ix *Index) (string, error)
}

// Loader reads a previously published index.
type Loader interface {
	Load(ctx context.Context) (*Index, error)
}

// IndexStore both publishes and loads an index.
type IndexStore interface {
	Publisher
	Loader
}

// FileIndexStore publishes the index as a JSON file at a fixed path.
type FileIndexStore struct {
	path string
}

// NewFileIndexStore creates a store writing to path.
func NewFileIndexStore(path string) *FileIndexStore {
	return &FileIndexStore{path: path}
}

// Path returns the artifact location.
func (s *FileIndexStore) Path() string {
	return s.path
}

// Publish overwrites the artifact with ix. The content is written to a
// temporary file next to the target and renamed over it, so readers see
// either the old or the new document.
func (s *FileIndexStore) Publish(ctx context.Context, ix *Index) (string, error) {
	err := s.publish(ix)
	observability.Registry().OnPublish(ctx, s.path, err)
	if err != nil {
		return "", err
	}
	return s.path, nil
}

func (s *FileIndexStore) publish(ix *Index) error {
	data, err := EncodeIndex(ix)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "create index dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".kv_registry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Load reads the artifact back.
func (s *FileIndexStore) Load(ctx context.Context) (*Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kverrors.New(kverrors.ErrCodeNotFound, "index not published: %s", s.path)
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	return DecodeIndex(data)
}

var _ IndexStore = (*FileIndexStore)(nil)

// MultiPublisher publishes to every publisher in order. It reports the
// location of the first one and stops at the first error.
type MultiPublisher []Publisher

// Publish implements Publisher.
func (m MultiPublisher) Publish(ctx context.Context, ix *Index) (string, error) {
	var first string
	for i, p := range m {
		loc, err := p.Publish(ctx, ix)
		if err != nil {
			return first, err
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}

var _ Publisher = MultiPublisher(nil)
