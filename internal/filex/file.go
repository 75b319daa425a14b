// Package filex contains filesystem helpers.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a name would resolve outside its root.
var ErrOutsideRoot = errors.New("path escapes root directory")

// ErrNotRegular is returned by StatRegular for directories, devices and the like.
var ErrNotRegular = errors.New("not a regular file")

// SafeJoin joins name onto root and guarantees the result stays inside root.
// Absolute names and names containing ".." segments that climb out of root
// are rejected.
func SafeJoin(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", root, err)
	}

	full := filepath.Join(absRoot, filepath.FromSlash(name))
	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, name)
	}

	return full, nil
}

// StatRegular stats path and fails unless it is a regular file.
func StatRegular(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	return fi, nil
}
