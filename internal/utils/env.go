package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// FindProjectRoot walks up from start until it finds a directory holding one
// of the markers (a .git directory, a package.json or a quickedit config).
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{".git", "package.json", "quickedit-config.yaml"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads .env from the working directory and, when different, from the
// project root. Variables that are already set are never overwritten and
// missing files are not an error.
func LoadEnv() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	paths := []string{filepath.Join(cwd, ".env")}
	if root, err := FindProjectRoot(cwd); err == nil && root != cwd {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
