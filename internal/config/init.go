package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# bookforge configuration
store:
  type: github            # "github" or "git" (local repository path)
  owner: example
  repo: math-book-project
  token: ${GITHUB_TOKEN}
  default_branch: main
  # path: /srv/books/math-book-project   # used when type is "git"

book:
  main_file: main.tex
  include_pattern: '\\include\{chapters/chapter(\d+)\}'
  fragment_path: chapters/chapter%d.tex
  probe_limit: 20
  support_files:
    - preamble.tex
    - macros/algebra.tex
    - macros/analysis.tex
    - bibliography.bib

build:
  command: 'pdflatex -interaction=nonstopmode {main_file}'
  bibliography_command: 'bibtex {main_name}'
  run_bibliography: true
  resolution_passes: 2

publish:
  branch: compiled-output
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
