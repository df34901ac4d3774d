package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// maxGitFileSize skips blobs that are too large to be hand-edited sources.
const maxGitFileSize = 1 << 20

type GitService struct {
	context context.Context
}

func (g *GitService) Startup(ctx context.Context) {
	g.context = ctx
}

func NewGitService() *GitService {
	return &GitService{}
}

// Open an existing repo
func (g *GitService) Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// ValidateRepository checks if the given path is a valid git repository
func (g *GitService) ValidateRepository(repoPath string) error {
	if repoPath == "" {
		return fmt.Errorf("repository path cannot be empty")
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("not a valid git repository: %w", err)
	}

	// Try to get HEAD to ensure repository is in a valid state
	_, err = repo.Head()
	if err != nil {
		return fmt.Errorf("repository is in an invalid state: %w", err)
	}

	return nil
}

// LatestCommit returns the latest commit hash for the given repository path
func (g *GitService) LatestCommit(repoPath string) (string, error) {
	if err := g.ValidateRepository(repoPath); err != nil {
		return "", fmt.Errorf("invalid repository: %w", err)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	return ref.Hash().String(), nil
}

// ReadFilesAtRef loads the project file set as it exists at a revision
// (branch, tag, hash or expressions such as HEAD~1). Binary and oversized
// blobs are skipped, and include filters the remaining paths when non-nil.
func (g *GitService) ReadFilesAtRef(repoPath, rev string, include func(path string) bool) (map[string]string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	repo, err := g.Open(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	files := make(map[string]string)
	err = tree.Files().ForEach(func(f *object.File) error {
		if include != nil && !include(f.Name) {
			return nil
		}
		if f.Size > maxGitFileSize {
			return nil
		}
		binary, err := f.IsBinary()
		if err != nil || binary {
			return err
		}
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		files[f.Name] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ChangedFiles lists the paths that differ between two revisions.
func (g *GitService) ChangedFiles(repoPath, from, to string) ([]string, error) {
	repo, err := g.Open(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}
	trees := make([]*object.Tree, 0, 2)
	for _, rev := range []string{from, to} {
		hash, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", rev, err)
		}
		tree, err := commit.Tree()
		if err != nil {
			return nil, fmt.Errorf("failed to get tree for %s: %w", rev, err)
		}
		trees = append(trees, tree)
	}

	changes, err := trees[0].Diff(trees[1])
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}
	seen := make(map[string]bool)
	var paths []string
	for _, ch := range changes {
		for _, name := range []string{ch.From.Name, ch.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
