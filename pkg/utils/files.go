// Package utils holds small filesystem helpers for the g0cc command-line
// driver.
package utils

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// GetPathInfo resolves relPath to an absolute path and returns it together
// with its parent directory. g0cc reads the source file through the
// absolute path; it does not use the parent directory.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", errors.Wrapf(err, "resolving path %s", relPath)
	}
	parentDir = filepath.Dir(fullPath)
	return fullPath, parentDir, nil
}
