// Package store defines the narrow interface through which the pipeline sees
// the versioned object repository holding fragments and receiving artifacts.
// Backends live in subpackages; the pipeline never depends on a concrete one.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a path does not exist at the requested ref.
// Callers distinguish a miss from an infrastructure failure with IsNotFound;
// for probed fragments and support files a miss is routine.
var ErrNotFound = errors.New("store: not found")

// ErrBranchExists is returned by CreateBranch when the branch already exists.
// Publishing treats it as success (idempotent create).
var ErrBranchExists = errors.New("store: branch already exists")

// CommitInfo describes the commit produced by a write.
type CommitInfo struct {
	SHA     string
	Message string
}

// Store is read/write access to named objects under a branch/ref.
// Payloads are raw bytes end to end; backends must not apply any text
// transformation so binary artifacts survive a round trip.
type Store interface {
	// ReadFile returns the content of path at ref, or ErrNotFound.
	ReadFile(ctx context.Context, path, ref string) ([]byte, error)

	// WriteFile creates or overwrites path on ref with the given commit
	// message. Re-writing the same path overwrites rather than duplicates.
	WriteFile(ctx context.Context, path string, content []byte, message, ref string) (*CommitInfo, error)

	// ListBranches returns all branch names.
	ListBranches(ctx context.Context) ([]string, error)

	// CreateBranch creates name from fromRef, returning ErrBranchExists if it
	// is already present.
	CreateBranch(ctx context.Context, name, fromRef string) error
}

// IsNotFound reports whether err is a store miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
