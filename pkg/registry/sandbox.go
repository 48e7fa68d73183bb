package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxSymlinks bounds how many links canonicalPath follows before giving up.
const maxSymlinks = 255

var errSymlinkLoop = errors.New("too many levels of symbolic links")

// canonicalPath makes path absolute and resolves every symlink in it, the
// way realpath does. A link is followed even when its target is missing.
// Once a component does not exist, or its parent is not a directory, the
// remaining components are appended as they are.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, pending := splitRoot(abs)
	links := 0
	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]
		switch c {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, c)
		info, err := os.Lstat(next)
		if err != nil {
			if isMissing(err) {
				return filepath.Join(append([]string{next}, pending...)...), nil
			}
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxSymlinks {
			return "", fmt.Errorf("%s: %w", path, errSymlinkLoop)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		var rest []string
		if filepath.IsAbs(target) {
			resolved, rest = splitRoot(filepath.Clean(target))
		} else {
			rest = splitPath(target)
		}
		pending = append(rest, pending...)
	}
	return resolved, nil
}

// splitRoot splits an absolute path into its root and its components.
func splitRoot(abs string) (string, []string) {
	vol := filepath.VolumeName(abs)
	return vol + string(filepath.Separator), splitPath(abs[len(vol):])
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// within reports whether path is root or one of its descendants. Both must
// be canonical.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// sandbox confines paths to a root directory.
type sandbox struct {
	root string
}

// contain canonicalizes path and checks it against the canonical root.
// It returns the canonical path when contained.
func (s sandbox) contain(path string) (canonical string, ok bool, err error) {
	root, err := canonicalPath(s.root)
	if err != nil {
		return "", false, err
	}
	canonical, err = canonicalPath(path)
	if err != nil {
		return "", false, err
	}
	return canonical, within(root, canonical), nil
}

// isRegularFile reports whether path names an existing regular file.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isMissing reports whether err means the path does not exist, including
// the case where a parent component is a regular file.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
