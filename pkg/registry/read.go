package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/kv"
	"github.com/matzehuels/kvtools/pkg/observability"
)

// Reader reads store files from the root directory only.
type Reader struct {
	cfg Config
	box sandbox
}

// NewReader creates a reader for cfg.
func NewReader(cfg Config) *Reader {
	return &Reader{cfg: cfg, box: sandbox{root: cfg.RootDir}}
}

// ReadValue returns the value of key in the store file fileName as text.
// A missing key or a null value yields "". Objects and arrays are rendered
// as single-line JSON in document order, other values in their natural
// text form. Errors are those of [Reader.Load].
func (r *Reader) ReadValue(ctx context.Context, fileName, key string) (string, error) {
	obj, err := r.readRaw(fileName)
	observability.Registry().OnRead(ctx, fileName, err)
	if err != nil {
		return "", err
	}
	return kv.FormatRaw(obj[key]), nil
}

// Load reads and decodes a whole store file. It returns the store and the
// file's path.
//
// fileName is reduced to its base name and must end in ".json". Errors
// carry a code:
//   - FILE_NOT_FOUND: invalid file name, or no regular file of that name
//   - FORBIDDEN: the file resolves outside the root
//   - MALFORMED_STORE: the file is not valid JSON
//   - VALIDATION: the top-level JSON value is not an object
func (r *Reader) Load(ctx context.Context, fileName string) (kv.Store, string, error) {
	store, path, err := r.load(fileName)
	observability.Registry().OnRead(ctx, fileName, err)
	return store, path, err
}

func (r *Reader) load(fileName string) (kv.Store, string, error) {
	f, name, path, err := r.open(fileName)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	store, err := kv.DecodeObject(f)
	if err != nil {
		return nil, path, decodeError(name, err)
	}
	return store, path, nil
}

func (r *Reader) readRaw(fileName string) (map[string]json.RawMessage, error) {
	f, name, _, err := r.open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obj, err := kv.DecodeRawObject(f)
	if err != nil {
		return nil, decodeError(name, err)
	}
	return obj, nil
}

// open validates fileName, enforces the sandbox and opens the regular file
// it names. It returns the file, its base name and its path under the root.
func (r *Reader) open(fileName string) (*os.File, string, string, error) {
	name := baseName(fileName)
	if name == "" || name == "." || name == ".." || !kverrors.HasJSONExt(name) {
		return nil, name, "", kverrors.New(kverrors.ErrCodeFileNotFound, "invalid file name")
	}

	path := r.cfg.StorePath(name)
	canonical, ok, err := r.box.contain(path)
	if err != nil {
		return nil, name, path, kverrors.Wrap(kverrors.ErrCodeInternal, err, "canonicalize %s", name)
	}
	if !ok {
		return nil, name, path, kverrors.New(kverrors.ErrCodeForbidden, "file resolves outside root: %s", name)
	}

	f, err := os.Open(canonical)
	if err != nil {
		if isMissing(err) {
			return nil, name, path, kverrors.New(kverrors.ErrCodeFileNotFound, "file not found: %s", name)
		}
		return nil, name, path, kverrors.Wrap(kverrors.ErrCodeInternal, err, "open %s", name)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, name, path, kverrors.Wrap(kverrors.ErrCodeInternal, err, "stat %s", name)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, name, path, kverrors.New(kverrors.ErrCodeFileNotFound, "not a regular file: %s", name)
	}
	return f, name, path, nil
}

func decodeError(name string, err error) error {
	if errors.Is(err, kv.ErrNotObject) {
		return kverrors.New(kverrors.ErrCodeValidation, "not an object")
	}
	return kverrors.Wrap(kverrors.ErrCodeMalformedStore, err, "parse %s", name)
}

// StoreNames lists the "*.json" file names directly under the root, sorted.
// The root is created when missing. It does not parse the files.
func (r *Reader) StoreNames() ([]string, error) {
	if err := os.MkdirAll(r.cfg.RootDir, 0o755); err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "create root %s", r.cfg.RootDir)
	}
	entries, err := os.ReadDir(r.cfg.RootDir)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "list root %s", r.cfg.RootDir)
	}

	var names []string
	for _, e := range entries {
		if kverrors.HasJSONExt(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// baseName trims s and keeps its final path segment, treating both "/" and
// "\" as separators.
func baseName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	return s
}
