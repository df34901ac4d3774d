package services

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yargevad/filepathx"

	"quickedit/internal/relevance"
	"quickedit/internal/utils"
)

const (
	// IgnoreFileName lists extra patterns to leave out of a loaded project.
	IgnoreFileName = ".quickeditignore"

	projectFileLimit   = 500
	maxProjectFileSize = 512 << 10
)

// DefaultProjectPatterns selects every stylesheet, markup and component file.
var DefaultProjectPatterns = []string{
	"**/*.css", "**/*.scss", "**/*.less",
	"**/*.html", "**/*.htm",
	"**/*.tsx", "**/*.jsx", "**/*.ts", "**/*.js", "**/*.vue", "**/*.svelte",
}

var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".quickedit":   true,
	"coverage":     true,
}

// ProjectService loads a project file set from disk.
type ProjectService struct {
	log logrus.FieldLogger
}

func NewProjectService(log logrus.FieldLogger) *ProjectService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProjectService{log: log}
}

// IsProjectFile reports whether a slash-separated relative path is an
// editable source outside generated or vendored directories.
func IsProjectFile(rel string) bool {
	for _, dir := range strings.Split(path.Dir(rel), "/") {
		if skippedDirs[dir] {
			return false
		}
	}
	return relevance.KindOf(rel) != relevance.KindOther
}

// LoadDir reads the files under root matching patterns (DefaultProjectPatterns
// when empty), keyed by slash-separated path relative to root.
func (s *ProjectService) LoadDir(root string, patterns []string) (map[string]string, error) {
	if !utils.DirectoryExists(root) {
		return nil, fmt.Errorf("project directory %s does not exist", root)
	}
	if len(patterns) == 0 {
		patterns = DefaultProjectPatterns
	}
	ignored, err := loadIgnorePatterns(root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var rels []string
	for _, pattern := range patterns {
		absPattern := pattern
		if !filepath.IsAbs(pattern) {
			absPattern = filepath.Join(root, pattern)
		}
		matches, err := filepathx.Glob(absPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			rel, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if seen[rel] || !IsProjectFile(rel) || isIgnored(rel, ignored) {
				continue
			}
			seen[rel] = true
			rels = append(rels, rel)
		}
	}
	sort.Strings(rels)

	files := make(map[string]string, len(rels))
	for _, rel := range rels {
		if len(files) >= projectFileLimit {
			s.log.WithFields(logrus.Fields{"root": root, "limit": projectFileLimit}).Warn("project file limit reached, remaining files skipped")
			break
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > maxProjectFileSize {
			s.log.WithField("file", rel).Debug("skipping oversized file")
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		files[rel] = string(data)
	}
	s.log.WithFields(logrus.Fields{"root": root, "files": len(files)}).Debug("project loaded")
	return files, nil
}

func loadIgnorePatterns(root string) ([]string, error) {
	lines, err := utils.ReadNonEmptyLines(filepath.Join(root, IgnoreFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFileName, err)
	}
	return lines, nil
}

// isIgnored matches gitignore-like patterns: "dir/" excludes a directory,
// patterns with a slash match the whole path, others match any base name.
func isIgnored(rel string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimPrefix(p, "/")
		switch {
		case strings.HasSuffix(p, "/"):
			if strings.HasPrefix(rel, p) || strings.Contains(rel, "/"+p) {
				return true
			}
		case strings.Contains(p, "/"):
			if ok, _ := path.Match(p, rel); ok {
				return true
			}
		default:
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
