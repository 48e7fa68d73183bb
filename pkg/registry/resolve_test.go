package registry

import (
	"context"
	"path/filepath"
	"testing"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

func TestResolveImage(t *testing.T) {
	cfg := testConfig(t)
	alice := filepath.Join(cfg.ImagesDir, "characters", "alice.png")
	portrait := filepath.Join(cfg.ImagesDir, "characters", "portrait.jpg")
	writeFile(t, alice, "png")
	writeFile(t, portrait, "jpg")

	r := NewResolver(cfg)
	ctx := context.Background()

	tests := []struct {
		name     string
		ref      string
		key      string
		ext      string
		wantPath string
	}{
		{"plain", "characters.json", "alice", "png", alice},
		{"default ext", "characters.json", "alice", "", alice},
		{"ref without json", "characters", "alice", "png", alice},
		{"ref as path", "/somewhere/else/characters.json", "alice", "png", alice},
		{"embedded ext wins", "characters.json", "portrait.jpg", "png", portrait},
		{"embedded ext any case", "characters.json", "portrait.JPG", "webp", portrait},
		{"padded key", "characters.json", "  alice ", "png", alice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveImage(ctx, tt.ref, tt.key, tt.ext)
			if err != nil {
				t.Fatalf("ResolveImage() error: %v", err)
			}
			if got != tt.wantPath {
				t.Errorf("ResolveImage() = %q, want %q", got, tt.wantPath)
			}
		})
	}
}

func TestResolveImageNotFound(t *testing.T) {
	cfg := testConfig(t)
	r := NewResolver(cfg)

	path, err := r.ResolveImage(context.Background(), "characters.json", "nobody", "webp")
	if !kverrors.Is(err, kverrors.ErrCodeFileNotFound) {
		t.Fatalf("ResolveImage() error = %v, want FILE_NOT_FOUND", err)
	}
	want := filepath.Join(cfg.ImagesDir, "characters", "nobody.webp")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestResolveImageDirectoryIsNotFound(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, filepath.Join(cfg.ImagesDir, "characters", "dir.png", "inner"), "x")

	_, err := NewResolver(cfg).ResolveImage(context.Background(), "characters.json", "dir", "png")
	if !kverrors.Is(err, kverrors.ErrCodeFileNotFound) {
		t.Errorf("ResolveImage() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestResolveImageTraversalStaysInside(t *testing.T) {
	cfg := testConfig(t)
	r := NewResolver(cfg)

	inputs := []struct{ ref, key string }{
		{"characters.json", "../../etc/passwd"},
		{"../../../etc.json", "passwd"},
		{`..\..\x.json`, `..\..\boot`},
		{"characters.json", ".."},
		{"..", "alice"},
	}

	for _, in := range inputs {
		path, err := r.ResolveImage(context.Background(), in.ref, in.key, "png")
		if kverrors.Is(err, kverrors.ErrCodeForbidden) {
			continue
		}
		if path == "" {
			continue
		}
		if !within(cfg.ImagesDir, path) {
			t.Errorf("ResolveImage(%q, %q) = %q escapes %s", in.ref, in.key, path, cfg.ImagesDir)
		}
	}
}

func TestResolveImageSymlinkEscape(t *testing.T) {
	cfg := testConfig(t)
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.png"), "png")
	symlink(t, outside, filepath.Join(cfg.ImagesDir, "characters"))

	path, err := NewResolver(cfg).ResolveImage(context.Background(), "characters.json", "secret", "png")
	if !kverrors.Is(err, kverrors.ErrCodeForbidden) {
		t.Fatalf("ResolveImage() error = %v, want FORBIDDEN", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for forbidden", path)
	}
}

func TestResolveImageSymlinkToOutsideFile(t *testing.T) {
	cfg := testConfig(t)
	outside := filepath.Join(t.TempDir(), "passwd")
	writeFile(t, outside, "root:x:0:0")
	symlink(t, outside, filepath.Join(cfg.ImagesDir, "chars"))

	r := NewResolver(cfg)
	path, err := r.ResolveImage(context.Background(), "chars.json", "alice", "png")
	if !kverrors.Is(err, kverrors.ErrCodeForbidden) {
		t.Errorf("ResolveImage() error = %v, want FORBIDDEN", err)
	}
	if path != "" {
		t.Errorf("ResolveImage() path = %q, want empty", path)
	}

	path, err = r.ImagePath(context.Background(), "chars.json", "alice", "png")
	if !kverrors.Is(err, kverrors.ErrCodeForbidden) {
		t.Errorf("ImagePath() error = %v, want FORBIDDEN", err)
	}
	if path != "" {
		t.Errorf("ImagePath() path = %q, want empty", path)
	}
}

func TestResolveImageDanglingSymlinkOutside(t *testing.T) {
	cfg := testConfig(t)
	target := filepath.Join(t.TempDir(), "gone", "x.png")
	symlink(t, target, filepath.Join(cfg.ImagesDir, "dang"))

	r := NewResolver(cfg)
	if _, err := r.ImagePath(context.Background(), "dang.json", "k", "png"); !kverrors.Is(err, kverrors.ErrCodeForbidden) {
		t.Errorf("ImagePath() error = %v, want FORBIDDEN", err)
	}
	if _, err := r.ResolveImage(context.Background(), "dang.json", "k", "png"); !kverrors.Is(err, kverrors.ErrCodeForbidden) {
		t.Errorf("ResolveImage() error = %v, want FORBIDDEN", err)
	}
}

func TestResolveImageDanglingSymlinkInside(t *testing.T) {
	cfg := testConfig(t)
	symlink(t, filepath.Join(cfg.ImagesDir, "later"), filepath.Join(cfg.ImagesDir, "soon"))

	path, err := NewResolver(cfg).ResolveImage(context.Background(), "soon.json", "k", "png")
	if !kverrors.Is(err, kverrors.ErrCodeFileNotFound) {
		t.Errorf("ResolveImage() error = %v, want FILE_NOT_FOUND", err)
	}
	if want := filepath.Join(cfg.ImagesDir, "soon", "k.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestResolveImageSymlinkInside(t *testing.T) {
	cfg := testConfig(t)
	target := filepath.Join(cfg.ImagesDir, "shared", "alice.png")
	writeFile(t, target, "png")
	symlink(t, filepath.Join(cfg.ImagesDir, "shared"), filepath.Join(cfg.ImagesDir, "characters"))

	if _, err := NewResolver(cfg).ResolveImage(context.Background(), "characters.json", "alice", "png"); err != nil {
		t.Errorf("ResolveImage() error = %v, want nil for in-root symlink", err)
	}
}

func TestResolveImageInvalid(t *testing.T) {
	cfg := testConfig(t)
	r := NewResolver(cfg)

	tests := []struct {
		name string
		ref  string
		key  string
		ext  string
		code kverrors.Code
	}{
		{"empty ref", "", "alice", "png", kverrors.ErrCodeInvalidReference},
		{"blank key", "characters.json", "   ", "png", kverrors.ErrCodeInvalidReference},
		{"ref sanitizes away", "dir/", "alice", "png", kverrors.ErrCodeInvalidReference},
		{"bad ext", "characters.json", "alice", "gif", kverrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := r.ResolveImage(context.Background(), tt.ref, tt.key, tt.ext)
			if !kverrors.Is(err, tt.code) {
				t.Errorf("ResolveImage() error = %v, want %s", err, tt.code)
			}
			if path != "" {
				t.Errorf("path = %q, want empty", path)
			}
		})
	}
}

func TestResolveImageDeterministic(t *testing.T) {
	cfg := testConfig(t)
	r := NewResolver(cfg)
	ctx := context.Background()

	first, _ := r.ImagePath(ctx, "styles.json", "noir?", "jpeg")
	for i := 0; i < 5; i++ {
		got, err := r.ImagePath(ctx, "styles.json", "noir?", "jpeg")
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("ImagePath() = %q, then %q", first, got)
		}
	}
	if want := filepath.Join(cfg.ImagesDir, "styles", "noir_.jpeg"); first != want {
		t.Errorf("ImagePath() = %q, want %q", first, want)
	}
}

func TestSplitImageKey(t *testing.T) {
	tests := []struct {
		key, fallback, name, ext string
	}{
		{"alice", "png", "alice", "png"},
		{"alice", "", "alice", "png"},
		{"alice", ".WEBP", "alice", "webp"},
		{"photo.jpeg", "png", "photo", "jpeg"},
		{"v1.2", "png", "v1.2", "png"},
		{".png", "jpg", ".png", "jpg"},
		{"a.b.png", "jpg", "a.b", "png"},
	}
	for _, tt := range tests {
		name, ext, err := SplitImageKey(tt.key, tt.fallback)
		if err != nil {
			t.Errorf("SplitImageKey(%q, %q) error: %v", tt.key, tt.fallback, err)
			continue
		}
		if name != tt.name || ext != tt.ext {
			t.Errorf("SplitImageKey(%q, %q) = (%q, %q), want (%q, %q)", tt.key, tt.fallback, name, ext, tt.name, tt.ext)
		}
	}
}

func TestStoreBaseName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"characters.json", "characters"},
		{"characters.JSON", "characters"},
		{"characters", "characters"},
		{"/a/b/characters.json", "characters"},
		{`C:\stores\styles.json`, "styles"},
		{"my store (v2).json", "my store _v2_"},
		{"../../../etc.json", "etc"},
		{"dir/", ""},
	}
	for _, tt := range tests {
		if got := StoreBaseName(tt.in); got != tt.want {
			t.Errorf("StoreBaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
