// Package pipeline wires discovery, assembly, the toolchain passes and
// publishing into one sequential build. Stages report status instead of
// panicking across boundaries; the pipeline short-circuits on unrecoverable
// failures and absorbs the rest.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/discovery"
	"github.com/bookforge/bookforge/internal/document"
	ferrors "github.com/bookforge/bookforge/internal/foundation/errors"
	"github.com/bookforge/bookforge/internal/logfields"
	"github.com/bookforge/bookforge/internal/publish"
	"github.com/bookforge/bookforge/internal/store"
	"github.com/bookforge/bookforge/internal/texbuild"
	"github.com/bookforge/bookforge/internal/workspace"
)

// Result is the outcome of one pipeline invocation.
type Result struct {
	BuildID    string
	Manifest   *discovery.Manifest
	MasterText string // the reconstructed master document
	Build      *texbuild.Result
	Published  bool
	PublishErr error

	// SalvagedArtifact is where the artifact was copied when publishing
	// failed, since the working area does not survive the pipeline.
	SalvagedArtifact string
}

// Succeeded reports the single pass/fail outcome of the invocation: the
// build produced its artifact and, when publishing ran, it completed.
func (r *Result) Succeeded() bool {
	return r.Build != nil && r.Build.Success && r.PublishErr == nil
}

// Describe returns a one-line human summary for CLI output.
func (r *Result) Describe() string {
	switch {
	case r.Build == nil:
		return fmt.Sprintf("build %s: aborted before toolchain", r.BuildID)
	case !r.Build.Success:
		return fmt.Sprintf("build %s: failed, artifact absent after %d passes (%d with errors)",
			r.BuildID, len(r.Build.Passes), len(r.Build.Failures()))
	case r.PublishErr != nil:
		return fmt.Sprintf("build %s: compiled, publish failed: %v", r.BuildID, r.PublishErr)
	default:
		return fmt.Sprintf("build %s: compiled and published (%d passes, %d absorbed failures)",
			r.BuildID, len(r.Build.Passes), len(r.Build.Failures()))
	}
}

// Pipeline runs one build per invocation. Instances are not safe for
// concurrent use; each Run owns its working area exclusively.
type Pipeline struct {
	cfg           *config.Config
	store         store.Store
	runner        texbuild.Runner
	workspaceBase string
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithRunner injects the command runner, used by tests to stand in a fake
// compiler.
func WithRunner(r texbuild.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithWorkspaceBase roots working areas under dir instead of os.TempDir().
func WithWorkspaceBase(dir string) Option {
	return func(p *Pipeline) { p.workspaceBase = dir }
}

// New creates a pipeline over the given store.
func New(cfg *config.Config, st store.Store, options ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, store: st}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run executes the full pipeline against the given source ref. The returned
// Result is always non-nil; the error covers failures that abort the build
// before the toolchain runs. A failed build or failed publish is reported on
// the Result, not as an error.
func (p *Pipeline) Run(ctx context.Context, ref string) (*Result, error) {
	result := &Result{BuildID: uuid.NewString()[:8]}
	slog.Info("Starting build", logfields.BuildID(result.BuildID), logfields.Ref(ref))

	assembler, err := document.NewAssembler(p.cfg.Book.IncludePattern, p.cfg.Book.FragmentPath)
	if err != nil {
		return result, ferrors.Wrap(err, ferrors.CategoryConfig, "directive pattern")
	}

	ws := workspace.NewManager(p.workspaceBase)
	if err := ws.Create(); err != nil {
		return result, ferrors.Wrap(err, ferrors.CategoryInternal, "create working area")
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up working area", logfields.Error(err))
		}
	}()

	slog.Info("Stage discovery", logfields.BuildID(result.BuildID), logfields.Stage("discovery"))
	manifest, err := discovery.New(p.store, assembler, p.cfg.Book).Discover(ctx, ref)
	if err != nil {
		return result, err
	}
	result.Manifest = manifest

	// Structural errors abort here, before any external command runs.
	slog.Info("Stage assembly", logfields.BuildID(result.BuildID), logfields.Stage("assembly"),
		slog.Int("fragments", len(manifest.Fragments)))
	assembled, err := assembler.Assemble(manifest.Master, manifest.Ordinals())
	if err != nil {
		return result, err
	}
	result.MasterText = assembled

	if err := p.materialize(ws, assembled, manifest); err != nil {
		return result, ferrors.Wrap(err, ferrors.CategoryInternal, "materialize working area")
	}

	slog.Info("Stage build", logfields.BuildID(result.BuildID), logfields.Stage("build"))
	result.Build = texbuild.New(p.cfg.Build, p.runner).Run(ctx, ws.Path(), p.cfg.Book.MainFile)
	if !result.Build.Success {
		// Failed builds publish nothing.
		return result, nil
	}

	slog.Info("Stage publish", logfields.BuildID(result.BuildID), logfields.Stage("publish"),
		logfields.Branch(p.cfg.Publish.Branch))
	artifact, err := os.ReadFile(result.Build.ArtifactPath)
	if err != nil {
		return result, ferrors.Wrap(err, ferrors.CategoryInternal, "read artifact")
	}

	req := publish.Request{
		Branch:       p.cfg.Publish.Branch,
		BuildID:      result.BuildID,
		ArtifactPath: filepath.Base(result.Build.ArtifactPath),
		Artifact:     artifact,
		Sources:      p.sources(assembled, manifest),
	}
	if err := publish.New(p.store, p.cfg.Store.DefaultBranch).Publish(ctx, req); err != nil {
		result.PublishErr = err
		result.SalvagedArtifact = salvageArtifact(result.Build.ArtifactPath, artifact)
		return result, nil
	}
	result.Published = true

	slog.Info("Build completed", logfields.BuildID(result.BuildID), logfields.Branch(p.cfg.Publish.Branch))
	return result, nil
}

// materialize writes the reconstructed document tree into the working area.
func (p *Pipeline) materialize(ws *workspace.Manager, master string, manifest *discovery.Manifest) error {
	if err := ws.WriteFile(p.cfg.Book.MainFile, []byte(master)); err != nil {
		return err
	}
	for _, f := range manifest.Fragments {
		if err := ws.WriteFile(f.Path, f.Content); err != nil {
			return err
		}
	}
	for _, s := range manifest.Support {
		if err := ws.WriteFile(s.Path, s.Content); err != nil {
			return err
		}
	}
	return nil
}

// sources lists the reconstructed master and fragment tree for publishing.
// Support files are published as fetched from the source branch.
func (p *Pipeline) sources(master string, manifest *discovery.Manifest) []publish.File {
	files := []publish.File{{Path: p.cfg.Book.MainFile, Content: []byte(master)}}
	for _, f := range manifest.Fragments {
		files = append(files, publish.File{Path: f.Path, Content: f.Content})
	}
	for _, s := range manifest.Support {
		files = append(files, publish.File{Path: s.Path, Content: s.Content})
	}
	return files
}

// salvageArtifact copies the artifact out of the doomed working area so a
// failed publish can still be recovered manually. Best effort.
func salvageArtifact(artifactPath string, artifact []byte) string {
	dest := filepath.Base(artifactPath)
	if err := os.WriteFile(dest, artifact, 0o644); err != nil {
		slog.Warn("Failed to salvage artifact", logfields.Path(dest), logfields.Error(err))
		return ""
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}
	slog.Warn("Publish failed, artifact kept for manual recovery", logfields.Path(abs))
	return abs
}
