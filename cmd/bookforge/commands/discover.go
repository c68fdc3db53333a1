package commands

import (
	"context"
	"fmt"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/discovery"
	"github.com/bookforge/bookforge/internal/document"
)

// DiscoverCmd implements the 'discover' command: a dry run that prints the
// build's input set without touching the toolchain or the output branch.
type DiscoverCmd struct {
	Branch string `short:"b" help:"Source branch or ref to inspect (defaults to the configured default branch)"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := OpenStore(cfg)
	if err != nil {
		return err
	}

	assembler, err := document.NewAssembler(cfg.Book.IncludePattern, cfg.Book.FragmentPath)
	if err != nil {
		return err
	}

	ref := resolveRef(d.Branch, cfg)
	manifest, err := discovery.New(st, assembler, cfg.Book).Discover(context.Background(), ref)
	if err != nil {
		return err
	}

	fmt.Printf("Build inputs on %s:\n", ref)
	fmt.Printf("  master: %s\n", cfg.Book.MainFile)
	for _, f := range manifest.Fragments {
		fmt.Printf("  fragment %d: %s (%s, %d bytes)\n", f.Ordinal, f.Path, f.Source, len(f.Content))
	}
	for _, s := range manifest.Support {
		fmt.Printf("  support: %s (%d bytes)\n", s.Path, len(s.Content))
	}
	for _, path := range manifest.MissingSupport {
		fmt.Printf("  support: %s (missing)\n", path)
	}
	if manifest.Overflow {
		fmt.Printf("  warning: fragment exists at the probe bound (%d); raise book.probe_limit if more exist\n", cfg.Book.ProbeLimit)
	}
	return nil
}
