package registry

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

func TestScan(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "a.json"), `{"y": 2, "x": 1}`)
	writeFile(t, filepath.Join(cfg.RootDir, "b.json"), `not json`)

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []FileEntry{{Name: "a.json", Keys: []string{"x", "y"}}}
	if !reflect.DeepEqual(res.Index.Files, want) {
		t.Errorf("Files = %+v, want %+v", res.Index.Files, want)
	}
	if res.Index.BaseDir != cfg.RootDir {
		t.Errorf("BaseDir = %q, want %q", res.Index.BaseDir, cfg.RootDir)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != "b.json" {
		t.Errorf("Skipped = %+v, want b.json", res.Skipped)
	}
}

func TestScanSkipsNonStores(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "list.json"), `[1, 2]`)
	writeFile(t, filepath.Join(cfg.RootDir, "scalar.json"), `42`)
	writeFile(t, filepath.Join(cfg.RootDir, "empty.json"), ``)
	writeFile(t, filepath.Join(cfg.RootDir, "notes.txt"), `{"a": 1}`)
	writeFile(t, filepath.Join(cfg.RootDir, "nested", "deep.json"), `{"a": 1}`)
	writeFile(t, filepath.Join(cfg.RootDir, "UPPER.JSON"), `{"k": true}`)
	if err := os.Mkdir(filepath.Join(cfg.RootDir, "dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if got := res.Index.Names(); !reflect.DeepEqual(got, []string{"UPPER.JSON"}) {
		t.Errorf("Names() = %v, want [UPPER.JSON]", got)
	}

	skipped := map[string]bool{}
	for _, s := range res.Skipped {
		skipped[s.Name] = true
	}
	for _, name := range []string{"list.json", "scalar.json", "empty.json", "dir.json"} {
		if !skipped[name] {
			t.Errorf("%s should be reported as skipped", name)
		}
	}
	if skipped["notes.txt"] {
		t.Error("non-json files should be ignored, not skipped")
	}
}

func TestScanSkipReasons(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "broken.json"), `{"a": `)
	writeFile(t, filepath.Join(cfg.RootDir, "empty.json"), ``)
	writeFile(t, filepath.Join(cfg.RootDir, "list.json"), `[1, 2]`)
	if err := os.Mkdir(filepath.Join(cfg.RootDir, "dir.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(t.TempDir(), "secret.json")
	writeFile(t, outside, `{"k": 1}`)
	symlink(t, outside, filepath.Join(cfg.RootDir, "leak.json"))

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := map[string]string{
		"broken.json": ReasonInvalidJSON,
		"empty.json":  ReasonInvalidJSON,
		"list.json":   ReasonNotObject,
		"dir.json":    ReasonNotFile,
		"leak.json":   ReasonOutsideRoot,
	}
	got := map[string]string{}
	for _, s := range res.Skipped {
		got[s.Name] = s.Reason
		if strings.Contains(s.Reason, cfg.RootDir) || strings.Contains(s.Reason, string(filepath.Separator)) {
			t.Errorf("reason for %s leaks a path: %q", s.Name, s.Reason)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("skip reasons = %v, want %v", got, want)
	}
}

func TestScanOrderAndKeys(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "zeta.json"), `{"b": 1, "a": 2}`)
	writeFile(t, filepath.Join(cfg.RootDir, "alpha.json"), `{"10": 1, "2": 2, "nested": {"z": 1}}`)
	writeFile(t, filepath.Join(cfg.RootDir, "mid.json"), `{}`)

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []FileEntry{
		{Name: "alpha.json", Keys: []string{"10", "2", "nested"}},
		{Name: "mid.json", Keys: []string{}},
		{Name: "zeta.json", Keys: []string{"a", "b"}},
	}
	if !reflect.DeepEqual(res.Index.Files, want) {
		t.Errorf("Files = %+v, want %+v", res.Index.Files, want)
	}
}

func TestScanCreatesRoot(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing", "stores"), "")
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(res.Index.Files) != 0 {
		t.Errorf("Files = %v, want empty", res.Index.Files)
	}
	if info, err := os.Stat(cfg.RootDir); err != nil || !info.IsDir() {
		t.Errorf("root %s should have been created", cfg.RootDir)
	}
}

func TestScanRootCreationFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "i am a file")

	cfg, err := NewConfig(filepath.Join(blocker, "stores"), "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = NewScanner(cfg).Scan(context.Background())
	if !kverrors.Is(err, kverrors.ErrCodeConfiguration) {
		t.Errorf("Scan() error = %v, want CONFIGURATION", err)
	}
}

func TestScanSkipsSymlinkOutsideRoot(t *testing.T) {
	cfg := testConfig(t)
	outside := filepath.Join(t.TempDir(), "secret.json")
	writeFile(t, outside, `{"password": "hunter2"}`)
	symlink(t, outside, filepath.Join(cfg.RootDir, "leak.json"))

	res, err := NewScanner(cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if _, ok := res.Index.Lookup("leak.json"); ok {
		t.Error("symlink escaping the root must not be indexed")
	}
}

func TestScanIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "a.json"), `{"x": 1, "y": 2}`)
	writeFile(t, filepath.Join(cfg.RootDir, "c.json"), `{"ü": "unicode", "<tag>": 1}`)

	s := NewScanner(cfg)
	first, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	a, err := EncodeIndex(first.Index)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeIndex(second.Index)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("rescans differ:\n%s\n%s", a, b)
	}
}

func TestRefresh(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.RootDir, "a.json"), `{"x": 1}`)

	store := NewFileIndexStore(cfg.IndexPath)
	res, written, err := Refresh(context.Background(), NewScanner(cfg), store)
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if written != cfg.IndexPath {
		t.Errorf("written = %q, want %q", written, cfg.IndexPath)
	}
	if len(res.Index.Files) != 1 {
		t.Errorf("Files = %v, want one entry", res.Index.Files)
	}
	if _, err := os.Stat(cfg.IndexPath); err != nil {
		t.Errorf("index not written: %v", err)
	}
}
