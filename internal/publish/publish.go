// Package publish stages a successful build's artifact and reconstructed
// sources onto a dedicated output branch of the store.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ferrors "github.com/bookforge/bookforge/internal/foundation/errors"
	"github.com/bookforge/bookforge/internal/logfields"
	"github.com/bookforge/bookforge/internal/store"
)

// File is one object to transfer.
type File struct {
	Path    string
	Content []byte
}

// Request describes one publish operation.
type Request struct {
	// Branch is the output branch; created from the default branch if absent.
	Branch string
	// BuildID tags commit messages so published commits trace back to a build.
	BuildID string
	// ArtifactPath is the store path of the compiled artifact.
	ArtifactPath string
	// Artifact is the raw compiled output. Transferred byte for byte; the
	// store adapters own any transport encoding.
	Artifact []byte
	// Sources are the reconstructed master document and fragment tree.
	Sources []File
}

// Publisher transfers build outputs to the store.
type Publisher struct {
	store         store.Store
	defaultBranch string
}

// New creates a Publisher. defaultBranch is the ref new output branches are
// created from.
func New(st store.Store, defaultBranch string) *Publisher {
	return &Publisher{store: st, defaultBranch: defaultBranch}
}

// Publish ensures the output branch exists and writes the artifact followed
// by the sources. Re-publishing overwrites, so a partial failure is recovered
// by re-invocation. Any store error aborts publishing; the caller keeps the
// local artifact for manual recovery.
func (p *Publisher) Publish(ctx context.Context, req Request) error {
	if err := p.ensureBranch(ctx, req.Branch); err != nil {
		return err
	}

	message := fmt.Sprintf("bookforge build %s: %s", req.BuildID, req.ArtifactPath)
	if _, err := p.store.WriteFile(ctx, req.ArtifactPath, req.Artifact, message, req.Branch); err != nil {
		return ferrors.Wrap(err, ferrors.CategoryPublish, "write artifact "+req.ArtifactPath)
	}
	slog.Info("Published artifact", logfields.Branch(req.Branch), logfields.Path(req.ArtifactPath), slog.Int("bytes", len(req.Artifact)))

	for _, src := range req.Sources {
		message := fmt.Sprintf("bookforge build %s: %s", req.BuildID, src.Path)
		if _, err := p.store.WriteFile(ctx, src.Path, src.Content, message, req.Branch); err != nil {
			return ferrors.Wrap(err, ferrors.CategoryPublish, "write source "+src.Path)
		}
		slog.Debug("Published source", logfields.Branch(req.Branch), logfields.Path(src.Path))
	}

	slog.Info("Publish completed", logfields.Branch(req.Branch), slog.Int("sources", len(req.Sources)))
	return nil
}

// ensureBranch creates the output branch from the default branch. A branch
// that already exists is success: create is idempotent.
func (p *Publisher) ensureBranch(ctx context.Context, name string) error {
	err := p.store.CreateBranch(ctx, name, p.defaultBranch)
	if err == nil {
		slog.Info("Created output branch", logfields.Branch(name), logfields.Ref(p.defaultBranch))
		return nil
	}
	if errors.Is(err, store.ErrBranchExists) {
		slog.Debug("Output branch already exists", logfields.Branch(name))
		return nil
	}
	return ferrors.Wrap(err, ferrors.CategoryPublish, "create branch "+name)
}
