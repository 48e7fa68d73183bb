package registry

import (
	"os"
	"path/filepath"
	"testing"
)

// testConfig returns a Config rooted in a fresh temp directory.
func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := NewConfig(filepath.Join(dir, "stores"), filepath.Join(dir, "web", DefaultIndexName))
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}
	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		t.Fatalf("mkdir images: %v", err)
	}
	return cfg
}

// writeFile creates path (and its parents) with content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// symlink creates a symlink or skips the test where that is not permitted.
func symlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(link), err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}
