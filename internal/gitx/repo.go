// Package gitx finds the enclosing git worktree of a path. The worktree root
// is treated as a protected container: no output may swallow it.
package gitx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when no enclosing worktree exists.
var ErrNotRepository = errors.New("not in a git repository")

// Repo provides an abstraction for repository lookups.
type Repo interface {
	// Discover finds the worktree root starting from start.
	Discover(start string) (root string, err error)

	// RelPath computes the path of absPath relative to root.
	RelPath(root, absPath string) (string, error)
}

// RealRepo implements Repo against the filesystem.
type RealRepo struct{}

// NewRealRepo creates a new RealRepo.
func NewRealRepo() *RealRepo {
	return &RealRepo{}
}

// Discover walks up from start looking for a .git entry. start may be a
// file, in which case the search begins at its directory.
func (g *RealRepo) Discover(start string) (string, error) {
	absPath, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	current := absPath
	for {
		gitDir := filepath.Join(current, ".git")
		if info, err := os.Stat(gitDir); err == nil {
			// .git can be a directory or a file (for worktrees/submodules)
			if info.IsDir() || info.Mode().IsRegular() {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNotRepository
		}
		current = parent
	}
}

// RelPath computes the relative path from root to absPath.
func (g *RealRepo) RelPath(root, absPath string) (string, error) {
	return relPath(root, absPath)
}

func relPath(root, absPath string) (string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path is outside repository")
	}
	return rel, nil
}

// FakeRepo implements Repo with a predetermined root for testing.
type FakeRepo struct {
	root string
	err  error
}

// NewFakeRepo creates a new FakeRepo.
func NewFakeRepo(root string) *FakeRepo {
	return &FakeRepo{root: root}
}

// SetError sets an error to be returned by Discover.
func (g *FakeRepo) SetError(err error) {
	g.err = err
}

// Discover returns the predetermined root.
func (g *FakeRepo) Discover(string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.root, nil
}

// RelPath works like the real implementation.
func (g *FakeRepo) RelPath(root, absPath string) (string, error) {
	return relPath(root, absPath)
}
