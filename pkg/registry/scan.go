package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/kv"
	"github.com/matzehuels/kvtools/pkg/observability"
)

// Skipped records a candidate store file left out of the index.
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ScanResult is the outcome of a scan: the index plus diagnostics for the
// files that were skipped.
type ScanResult struct {
	Index   *Index
	Skipped []Skipped
}

// Scanner builds a registry index from the store files under the root.
type Scanner struct {
	cfg Config
}

// NewScanner creates a scanner for cfg.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan lists the root directory (without recursing) and indexes every
// "*.json" file whose top-level value is an object.
//
// The root is created if missing; failing to create or list it is a
// CONFIGURATION error. Files that cannot be read, are not valid JSON, are
// not objects or resolve outside the root are skipped and reported in
// ScanResult.Skipped; they never abort the scan.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	res, err := s.scan()

	files, skipped := 0, 0
	if res != nil {
		files, skipped = len(res.Index.Files), len(res.Skipped)
	}
	observability.Registry().OnScanComplete(ctx, files, skipped, time.Since(start), err)
	return res, err
}

func (s *Scanner) scan() (*ScanResult, error) {
	root := s.cfg.RootDir
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "create root %s", root)
	}

	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "list root %s", root)
	}

	box := sandbox{root: root}
	res := &ScanResult{Index: &Index{BaseDir: root, Files: []FileEntry{}}}
	for _, e := range entries {
		name := e.Name()
		if !kverrors.HasJSONExt(name) {
			continue
		}

		keys, err := readKeys(box, filepath.Join(root, name))
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Name: name, Reason: skipReason(err)})
			continue
		}
		res.Index.Files = append(res.Index.Files, FileEntry{Name: name, Keys: keys})
	}
	return res, nil
}

// Skip reasons reported in [Skipped]. They carry no paths or OS detail so
// they can be shown to clients as is.
const (
	ReasonInvalidJSON = "invalid JSON"
	ReasonNotObject   = "not an object"
	ReasonNotFile     = "not a regular file"
	ReasonOutsideRoot = "outside root"
	ReasonUnreadable  = "unreadable"
)

var (
	errOutsideRoot = errors.New("resolves outside the root directory")
	errNotRegular  = errors.New("not a regular file")
	errInvalidJSON = errors.New("invalid JSON")
)

func skipReason(err error) string {
	switch {
	case errors.Is(err, errOutsideRoot):
		return ReasonOutsideRoot
	case errors.Is(err, errNotRegular):
		return ReasonNotFile
	case errors.Is(err, kv.ErrNotObject):
		return ReasonNotObject
	case errors.Is(err, errInvalidJSON):
		return ReasonInvalidJSON
	default:
		return ReasonUnreadable
	}
}

// readKeys returns the sorted top-level keys of the store file at path.
func readKeys(box sandbox, path string) ([]string, error) {
	canonical, ok, err := box.contain(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errOutsideRoot
	}

	f, err := os.Open(canonical)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, errNotRegular
	}

	obj, err := kv.DecodeObject(f)
	if err != nil {
		if errors.Is(err, kv.ErrNotObject) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return obj.Keys(), nil
}

// Refresh scans the root and publishes the resulting index. It returns the
// scan result and the location reported by the publisher.
func Refresh(ctx context.Context, s *Scanner, p Publisher) (*ScanResult, string, error) {
	res, err := s.Scan(ctx)
	if err != nil {
		return nil, "", err
	}
	loc, err := p.Publish(ctx, res.Index)
	if err != nil {
		return res, "", err
	}
	return res, loc, nil
}
