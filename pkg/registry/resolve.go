package registry

import (
	"context"
	"path/filepath"
	"strings"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/observability"
)

// DefaultImageExt is used when neither the key nor the caller names an
// image extension.
const DefaultImageExt = "png"

// ImageExts lists the image extensions a key may carry.
var ImageExts = []string{"png", "jpg", "jpeg", "webp"}

// Resolution outcomes reported to observability hooks.
const (
	OutcomeFound     = "found"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeInvalid   = "invalid"
)

// IsImageExt reports whether ext (without dot, any case) is supported.
func IsImageExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range ImageExts {
		if e == ext {
			return true
		}
	}
	return false
}

// NormalizeExt lowercases ext, strips a leading dot and defaults an empty
// value to png. Unsupported extensions are an INVALID_INPUT error.
func NormalizeExt(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return DefaultImageExt, nil
	}
	if !IsImageExt(ext) {
		return "", kverrors.New(kverrors.ErrCodeInvalidInput, "unsupported image extension: %q", ext)
	}
	return ext, nil
}

// SplitImageKey separates an image extension carried by key. A key such as
// "portrait.JPG" yields ("portrait", "jpg") whatever the fallback is; a key
// without a supported extension yields (key, normalized fallback).
func SplitImageKey(key, fallback string) (name, ext string, err error) {
	key = strings.TrimSpace(key)
	if dot := strings.LastIndexByte(key, '.'); dot > 0 {
		if e := strings.ToLower(key[dot+1:]); IsImageExt(e) {
			return key[:dot], e, nil
		}
	}
	ext, err = NormalizeExt(fallback)
	if err != nil {
		return "", "", err
	}
	return key, ext, nil
}

// StoreBaseName reduces a store reference ("characters.json" or a full
// path to it) to its sanitized base name without the .json extension.
func StoreBaseName(ref string) string {
	base := baseName(ref)
	if kverrors.HasJSONExt(base) {
		base = base[:len(base)-len(".json")]
	}
	return SanitizeName(base)
}

// Resolver maps (store reference, key) pairs to image files under the
// images sub-root.
type Resolver struct {
	cfg Config
	box sandbox
}

// NewResolver creates a resolver for cfg.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg, box: sandbox{root: cfg.ImagesDir}}
}

// ResolveImage returns the path of the image for key in the store named by
// ref, following <images>/<store>/<key>.<ext>.
//
// Errors carry a code:
//   - INVALID_REFERENCE: empty ref or key; no path is computed
//   - INVALID_INPUT: unsupported fallback extension
//   - FORBIDDEN: the canonical path escapes the images root
//   - FILE_NOT_FOUND: no regular file there; the computed path is still
//     returned so callers can report where it looked
func (r *Resolver) ResolveImage(ctx context.Context, ref, key, fallbackExt string) (string, error) {
	path, canonical, err := r.locate(ref, key, fallbackExt)
	if err != nil {
		observability.Registry().OnResolve(ctx, ref, outcomeOf(err))
		return "", err
	}

	if !isRegularFile(canonical) {
		observability.Registry().OnResolve(ctx, ref, OutcomeNotFound)
		return path, kverrors.New(kverrors.ErrCodeFileNotFound, "image not found: %s", path)
	}

	observability.Registry().OnResolve(ctx, ref, OutcomeFound)
	return path, nil
}

// ImagePath computes the image path for key without requiring the file to
// exist. Sandbox violations are still rejected.
func (r *Resolver) ImagePath(ctx context.Context, ref, key, fallbackExt string) (string, error) {
	path, _, err := r.locate(ref, key, fallbackExt)
	if err != nil {
		observability.Registry().OnResolve(ctx, ref, outcomeOf(err))
		return "", err
	}
	return path, nil
}

// locate computes the candidate path and its canonical form, enforcing the
// images sandbox.
func (r *Resolver) locate(ref, key, fallbackExt string) (path, canonical string, err error) {
	if err := kverrors.ValidateReference("store reference", ref); err != nil {
		return "", "", err
	}
	if err := kverrors.ValidateReference("key", key); err != nil {
		return "", "", err
	}

	store := StoreBaseName(ref)
	if store == "" {
		return "", "", kverrors.New(kverrors.ErrCodeInvalidReference, "unusable store reference: %q", ref)
	}

	name, ext, err := SplitImageKey(key, fallbackExt)
	if err != nil {
		return "", "", err
	}
	name = SanitizeName(name)
	if name == "" {
		return "", "", kverrors.New(kverrors.ErrCodeInvalidReference, "unusable key: %q", key)
	}

	path = filepath.Join(r.cfg.ImagesDir, store, name+"."+ext)

	canonical, ok, err := r.box.contain(path)
	if err != nil {
		return "", "", kverrors.Wrap(kverrors.ErrCodeInternal, err, "canonicalize %s", path)
	}
	if !ok {
		return "", "", kverrors.New(kverrors.ErrCodeForbidden, "image path escapes images root")
	}
	return path, canonical, nil
}

func outcomeOf(err error) string {
	switch {
	case kverrors.Is(err, kverrors.ErrCodeForbidden):
		return OutcomeForbidden
	case kverrors.IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeInvalid
	}
}
