package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Book    BookConfig    `yaml:"book"`
	Build   BuildConfig   `yaml:"build"`
	Publish PublishConfig `yaml:"publish"`
}

// StoreConfig selects and parameterizes the fragment store backend.
type StoreConfig struct {
	Type          string `yaml:"type"`                     // "github" or "git"
	Owner         string `yaml:"owner,omitempty"`          // github: repository owner
	Repo          string `yaml:"repo,omitempty"`           // github: repository name
	Token         string `yaml:"token,omitempty"`          // github: API token, usually ${GITHUB_TOKEN}
	Path          string `yaml:"path,omitempty"`           // git: filesystem path to the repository
	DefaultBranch string `yaml:"default_branch,omitempty"` // branch new output branches fork from
}

// BookConfig describes the master document and its fragment layout.
type BookConfig struct {
	MainFile       string   `yaml:"main_file"`
	IncludePattern string   `yaml:"include_pattern"` // regexp with one ordinal capture group
	FragmentPath   string   `yaml:"fragment_path"`   // printf template with one %d verb
	ProbeLimit     int      `yaml:"probe_limit"`     // highest ordinal probed for unlinked fragments
	SupportFiles   []string `yaml:"support_files,omitempty"`
}

// BuildConfig describes the external toolchain passes.
type BuildConfig struct {
	Command             string `yaml:"command"`              // {main_file}/{main_name} substituted
	BibliographyCommand string `yaml:"bibliography_command"` // {main_name} substituted
	RunBibliography     *bool  `yaml:"run_bibliography,omitempty"`
	ResolutionPasses    int    `yaml:"resolution_passes"`
}

// BibliographyEnabled reports whether the bibliography pass runs (default true).
func (b *BuildConfig) BibliographyEnabled() bool {
	return b.RunBibliography == nil || *b.RunBibliography
}

// PublishConfig describes where the compiled artifact is handed off.
type PublishConfig struct {
	Branch string `yaml:"branch"`
}

// Load loads configuration from the specified file, expanding ${VAR}
// references from the environment after merging a .env file if one exists.
func Load(configPath string) (*Config, error) {
	// Missing .env is the common case, not an error.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "github"
	}
	if c.Store.DefaultBranch == "" {
		c.Store.DefaultBranch = "main"
	}
	if c.Book.MainFile == "" {
		c.Book.MainFile = "main.tex"
	}
	if c.Book.IncludePattern == "" {
		c.Book.IncludePattern = `\\include\{chapters/chapter(\d+)\}`
	}
	if c.Book.FragmentPath == "" {
		c.Book.FragmentPath = "chapters/chapter%d.tex"
	}
	if c.Book.ProbeLimit == 0 {
		c.Book.ProbeLimit = 20
	}
	if c.Book.SupportFiles == nil {
		c.Book.SupportFiles = []string{
			"preamble.tex",
			"macros/algebra.tex",
			"macros/analysis.tex",
			"bibliography.bib",
		}
	}
	if c.Build.Command == "" {
		c.Build.Command = "pdflatex -interaction=nonstopmode {main_file}"
	}
	if c.Build.BibliographyCommand == "" {
		c.Build.BibliographyCommand = "bibtex {main_name}"
	}
	if c.Build.ResolutionPasses == 0 {
		c.Build.ResolutionPasses = 2
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = "compiled-output"
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing mid-pipeline failures.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "github":
		if c.Store.Owner == "" || c.Store.Repo == "" {
			return fmt.Errorf("store type github requires owner and repo")
		}
	case "git":
		if c.Store.Path == "" {
			return fmt.Errorf("store type git requires path")
		}
	default:
		return fmt.Errorf("unknown store type: %s", c.Store.Type)
	}

	re, err := regexp.Compile(c.Book.IncludePattern)
	if err != nil {
		return fmt.Errorf("invalid include_pattern: %w", err)
	}
	if re.NumSubexp() != 1 {
		return fmt.Errorf("include_pattern must capture exactly one ordinal group, has %d", re.NumSubexp())
	}

	if strings.Count(c.Book.FragmentPath, "%d") != 1 {
		return fmt.Errorf("fragment_path must contain exactly one %%d verb: %s", c.Book.FragmentPath)
	}

	if c.Book.ProbeLimit < 0 {
		return fmt.Errorf("probe_limit must not be negative")
	}
	if c.Build.ResolutionPasses < 0 {
		return fmt.Errorf("resolution_passes must not be negative")
	}
	return nil
}
