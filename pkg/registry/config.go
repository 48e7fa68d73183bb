package registry

import (
	"os"
	"path/filepath"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

const (
	// DefaultRootName is the directory, relative to the working directory,
	// holding store files when no root is configured.
	DefaultRootName = "custom_kv_stores"

	// ImagesDirName is the sub-directory of the root holding per-store images.
	ImagesDirName = "images"

	// DefaultIndexName is the file name of the published registry index.
	DefaultIndexName = "kv_registry.json"

	// EnvRoot overrides the root directory.
	EnvRoot = "KVTOOLS_ROOT"
)

// Config locates the registry on disk. It is built once at startup and
// passed by value to every component; nothing mutates it afterwards.
type Config struct {
	// RootDir is the absolute directory holding store files.
	RootDir string

	// ImagesDir is the absolute images sub-root, RootDir/images.
	ImagesDir string

	// IndexPath is the absolute path the registry index is published to.
	IndexPath string
}

// NewConfig builds a Config. An empty root defaults to
// <cwd>/custom_kv_stores and an empty indexPath to <cwd>/web/kv_registry.json.
// Relative paths are made absolute against the working directory.
func NewConfig(root, indexPath string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "get working directory")
	}

	if root == "" {
		root = filepath.Join(cwd, DefaultRootName)
	}
	if indexPath == "" {
		indexPath = filepath.Join(cwd, "web", DefaultIndexName)
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return Config{}, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "resolve root %s", root)
	}
	indexPath, err = filepath.Abs(indexPath)
	if err != nil {
		return Config{}, kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "resolve index path %s", indexPath)
	}

	return Config{
		RootDir:   root,
		ImagesDir: filepath.Join(root, ImagesDirName),
		IndexPath: indexPath,
	}, nil
}

// StorePath returns the path of a store file directly under the root.
// name is not validated; use [Reader] for untrusted input.
func (c Config) StorePath(name string) string {
	return filepath.Join(c.RootDir, name)
}
