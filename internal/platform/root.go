package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/facet/pkg/adapters/fs"
)

// FindRoot looks upwards from startDir for a directory holding
// repository.yaml and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.InfoFile) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s found above %s", fs.InfoFile, abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
