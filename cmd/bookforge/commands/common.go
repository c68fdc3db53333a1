package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/store"
	"github.com/bookforge/bookforge/internal/store/githubstore"
	"github.com/bookforge/bookforge/internal/store/gitstore"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bookforge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compile  CompileCmd  `cmd:"" help:"Assemble the book and run the typesetting toolchain"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Discover DiscoverCmd `cmd:"" help:"List the fragments and support files a build would use, without building"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(c.Verbose)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel resolves the log level from the verbose flag and the
// BOOKFORGE_LOG_LEVEL environment variable. The env var wins.
func parseLogLevel(verbose bool) slog.Level {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	switch os.Getenv("BOOKFORGE_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return level
}

// OpenStore builds the store adapter the configuration names.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case "github":
		return githubstore.New(cfg.Store.Owner, cfg.Store.Repo, cfg.Store.Token), nil
	case "git":
		return gitstore.Open(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// resolveRef picks the source ref: the flag when given, otherwise the
// configured default branch.
func resolveRef(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Store.DefaultBranch
}
