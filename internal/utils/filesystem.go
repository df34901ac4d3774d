package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func HasGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

// WithinRoot reports whether the slash-separated relative path rel stays
// inside root once joined and cleaned.
func WithinRoot(root, rel string) bool {
	if rel == "" || filepath.IsAbs(filepath.FromSlash(rel)) {
		return false
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	back, err := filepath.Rel(filepath.Clean(root), target)
	if err != nil {
		return false
	}
	return back != ".." && !strings.HasPrefix(back, ".."+string(filepath.Separator))
}

// WriteFiles writes each relative path under root, creating parent
// directories as needed. Paths escaping root are refused before anything is
// written.
func WriteFiles(root string, files map[string]string) error {
	for rel := range files {
		if !WithinRoot(root, rel) {
			return fmt.Errorf("refusing to write %q outside %s", rel, root)
		}
	}
	for rel, content := range files {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
