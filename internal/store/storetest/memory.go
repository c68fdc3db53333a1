// Package storetest provides an in-memory store implementation for tests.
package storetest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/bookforge/bookforge/internal/store"
)

// WriteRecord captures one WriteFile call for assertions.
type WriteRecord struct {
	Path    string
	Content []byte
	Message string
	Ref     string
}

// MemoryStore is a branch-aware map-backed store.
type MemoryStore struct {
	mu       sync.Mutex
	branches map[string]map[string][]byte

	// Writes records every successful WriteFile in call order.
	Writes []WriteRecord

	// WriteErr, when set, fails every WriteFile with this error.
	WriteErr error

	// ReadErr, when set, fails every ReadFile with this error.
	ReadErr error

	// CreateBranchErr, when set, fails CreateBranch with this error.
	CreateBranchErr error
}

// NewMemoryStore creates a store with the given branches pre-created.
func NewMemoryStore(branches ...string) *MemoryStore {
	s := &MemoryStore{branches: make(map[string]map[string][]byte)}
	for _, b := range branches {
		s.branches[b] = make(map[string][]byte)
	}
	return s
}

// Seed places content at path on ref, creating the branch if needed.
func (s *MemoryStore) Seed(ref, path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.branches[ref] == nil {
		s.branches[ref] = make(map[string][]byte)
	}
	s.branches[ref][path] = content
}

// Get returns content at path on ref, for assertions.
func (s *MemoryStore) Get(ref, path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.branches[ref]
	if !ok {
		return nil, false
	}
	content, ok := files[path]
	return content, ok
}

func (s *MemoryStore) ReadFile(_ context.Context, path, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	files, ok := s.branches[ref]
	if !ok {
		return nil, fmt.Errorf("ref %s: %w", ref, store.ErrNotFound)
	}
	content, ok := files[path]
	if !ok {
		return nil, fmt.Errorf("%s@%s: %w", path, ref, store.ErrNotFound)
	}
	return content, nil
}

func (s *MemoryStore) WriteFile(_ context.Context, path string, content []byte, message, ref string) (*store.CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	files, ok := s.branches[ref]
	if !ok {
		return nil, fmt.Errorf("write to unknown ref %s", ref)
	}
	files[path] = content
	s.Writes = append(s.Writes, WriteRecord{Path: path, Content: content, Message: message, Ref: ref})
	return &store.CommitInfo{SHA: fmt.Sprintf("commit-%d", len(s.Writes)), Message: message}, nil
}

func (s *MemoryStore) ListBranches(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.branches))
	for name := range s.branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) CreateBranch(_ context.Context, name, fromRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateBranchErr != nil {
		return s.CreateBranchErr
	}
	if _, exists := s.branches[name]; exists {
		return fmt.Errorf("%s: %w", name, store.ErrBranchExists)
	}
	base, ok := s.branches[fromRef]
	if !ok {
		return fmt.Errorf("base ref %s not found", fromRef)
	}
	s.branches[name] = maps.Clone(base)
	return nil
}

var _ store.Store = (*MemoryStore)(nil)
