package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/pipeline"
)

// CompileCmd implements the 'compile' command: one full build, exit zero only
// when the artifact was produced and published.
type CompileCmd struct {
	Branch    string `short:"b" help:"Source branch or ref to build (defaults to the configured default branch)"`
	Workspace string `short:"w" help:"Base directory for the ephemeral working area (defaults to the system temp dir)"`
}

func (b *CompileCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := OpenStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := pipeline.New(cfg, st, pipeline.WithWorkspaceBase(b.Workspace))
	result, err := p.Run(ctx, resolveRef(b.Branch, cfg))
	if err != nil {
		return err
	}

	fmt.Println(result.Describe())
	if !result.Succeeded() {
		return fmt.Errorf("build %s did not complete", result.BuildID)
	}
	return nil
}
