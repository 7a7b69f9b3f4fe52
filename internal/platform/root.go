package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileName marks the root of an mdxdb project.
const ConfigFileName = ".mdxdb.json"

// ErrRootNotFound is returned by FindRoot when no ancestor holds a project file.
var ErrRootNotFound = errors.New("project root not found")

// FindRoot walks up from startDir looking for a directory containing
// ConfigFileName and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
