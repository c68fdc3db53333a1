// Package githubstore backs the fragment store with the GitHub contents and
// git-data APIs. This is the production backend; the book repository lives on
// GitHub and receives the compiled artifact on a dedicated branch.
package githubstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/bookforge/bookforge/internal/store"
)

// requestTimeout bounds each API round trip.
const requestTimeout = 30 * time.Second

// Store adapts one GitHub repository to the store interface.
type Store struct {
	gh    *gh.Client
	owner string
	repo  string
}

// New creates a GitHub-backed store for owner/repo. An empty token yields an
// unauthenticated client, good enough for public read-only use.
func New(owner, repo, token string) *Store {
	httpClient := &http.Client{Timeout: requestTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = requestTimeout
	}
	return &Store{gh: gh.NewClient(httpClient), owner: owner, repo: repo}
}

// NewWithClient wires an existing go-github client, used by tests against a
// httptest server.
func NewWithClient(client *gh.Client, owner, repo string) *Store {
	return &Store{gh: client, owner: owner, repo: repo}
}

// ReadFile fetches path at ref through the contents API. Files above the
// contents-API size cap come back without inline content; those are re-read
// as blobs, which also keeps binary payloads intact.
func (s *Store) ReadFile(ctx context.Context, path, ref string) ([]byte, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s@%s: %w", path, ref, store.ErrNotFound)
		}
		return nil, fmt.Errorf("get contents %s@%s: %w", path, ref, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s@%s is a directory, not a file", path, ref)
	}

	// The contents API omits the payload above its size cap (encoding "none").
	// Re-read those as raw blobs, which also keeps binary payloads intact.
	if file.GetEncoding() == "none" || (file.Content == nil && file.GetSize() > 0) {
		blob, _, err := s.gh.Git.GetBlobRaw(ctx, s.owner, s.repo, file.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("get blob %s@%s: %w", path, ref, err)
		}
		return blob, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode contents %s@%s: %w", path, ref, err)
	}
	return []byte(content), nil
}

// WriteFile creates or updates path on ref. Updates carry the current blob
// SHA so re-publishing overwrites instead of failing on conflict.
func (s *Store) WriteFile(ctx context.Context, path string, content []byte, message, ref string) (*store.CommitInfo, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		Branch:  gh.Ptr(ref),
	}

	existing, _, resp, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	switch {
	case err == nil && existing != nil:
		opts.SHA = gh.Ptr(existing.GetSHA())
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		// New file.
	case err != nil:
		return nil, fmt.Errorf("probe %s@%s before write: %w", path, ref, err)
	}

	var result *gh.RepositoryContentResponse
	if opts.SHA != nil {
		result, _, err = s.gh.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		result, _, err = s.gh.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("write %s@%s: %w", path, ref, err)
	}
	return &store.CommitInfo{SHA: result.GetSHA(), Message: message}, nil
}

// ListBranches returns all branch names, following pagination.
func (s *Store) ListBranches(ctx context.Context) ([]string, error) {
	opts := &gh.BranchListOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	var names []string
	for {
		branches, resp, err := s.gh.Repositories.ListBranches(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		for _, b := range branches {
			names = append(names, b.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateBranch creates refs/heads/name pointing at the head of fromRef.
func (s *Store) CreateBranch(ctx context.Context, name, fromRef string) error {
	base, _, err := s.gh.Git.GetRef(ctx, s.owner, s.repo, "refs/heads/"+fromRef)
	if err != nil {
		return fmt.Errorf("resolve base ref %s: %w", fromRef, err)
	}

	newRef := gh.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: base.Object.GetSHA(),
	}
	_, resp, err := s.gh.Git.CreateRef(ctx, s.owner, s.repo, newRef)
	if err != nil {
		if isAlreadyExists(resp, err) {
			return fmt.Errorf("%s: %w", name, store.ErrBranchExists)
		}
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// isAlreadyExists detects the 422 "Reference already exists" response.
func isAlreadyExists(resp *gh.Response, err error) bool {
	if resp == nil || resp.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
