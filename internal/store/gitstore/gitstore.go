// Package gitstore backs the fragment store with a local git repository via
// go-git. It serves air-gapped deployments and tests; the GitHub backend is
// the production path.
package gitstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bookforge/bookforge/internal/store"
)

// Store adapts a non-bare local repository to the store interface. Writes go
// through the worktree, so concurrent writers are the caller's problem, which
// matches the single-writer contract of the pipeline.
type Store struct {
	repo *git.Repository
	path string
}

// Open opens an existing repository at path.
func Open(path string) (*Store, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", path, err)
	}
	return &Store{repo: repo, path: path}, nil
}

// ReadFile returns the blob content of path at ref.
func (s *Store) ReadFile(_ context.Context, path, ref string) ([]byte, error) {
	hash, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve ref %s: %w", ref, err)
	}
	commit, err := s.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree for %s: %w", hash, err)
	}
	file, err := tree.File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return nil, fmt.Errorf("%s@%s: %w", path, ref, store.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup %s at %s: %w", path, ref, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", path, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// WriteFile checks out ref, writes content and commits. Existing files are
// overwritten, so re-publishing the same path is idempotent.
func (s *Store) WriteFile(_ context.Context, path string, content []byte, message, ref string) (*store.CommitInfo, error) {
	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(ref)}); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", ref, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := wt.Filesystem.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := util.WriteFile(wt.Filesystem, path, content, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := wt.Add(path); err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}
	sha, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "bookforge", Email: "bookforge@localhost", When: time.Now()},
	})
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", path, err)
	}
	return &store.CommitInfo{SHA: sha.String(), Message: message}, nil
}

// ListBranches returns the short names of all local branches.
func (s *Store) ListBranches(_ context.Context) ([]string, error) {
	iter, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	return names, nil
}

// CreateBranch creates name pointing at fromRef.
func (s *Store) CreateBranch(_ context.Context, name, fromRef string) error {
	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := s.repo.Reference(branchRef, true); err == nil {
		return fmt.Errorf("%s: %w", name, store.ErrBranchExists)
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(fromRef))
	if err != nil {
		return fmt.Errorf("resolve ref %s: %w", fromRef, err)
	}
	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, *hash)); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}
