// Package texbuild drives the external typesetting toolchain through the
// fixed pass sequence a cross-referenced document needs: a primary pass, an
// optional bibliography pass, and a configured number of resolution passes.
//
// The toolchain is noisy: early passes legitimately exit non-zero on
// unresolved references that later passes fix. No pass failure therefore
// halts the sequence; the one authoritative success signal is whether the
// expected artifact exists on disk after the final pass (success by artifact
// presence).
package texbuild

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/logfields"
)

// Pass names. Resolution passes are numbered resolution-1..resolution-k.
const (
	PassPrimary      = "primary"
	PassBibliography = "bibliography"
)

// artifactExt is the extension of the compiled artifact the toolchain is
// expected to produce next to the main file.
const artifactExt = ".pdf"

// Pass is one named invocation of an external command.
type Pass struct {
	Name    string
	Command []string
}

// PassResult records one executed pass. Exit codes and captured output are
// kept for diagnostics only; they carry no pass/fail semantics.
type PassResult struct {
	Name     string
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error // process start/execution failure, not a non-zero exit
	Duration time.Duration
}

// Result aggregates the pass outcomes of one build.
type Result struct {
	Passes       []PassResult
	ArtifactPath string

	// Success is true iff the artifact exists after all passes, regardless
	// of individual pass exit codes.
	Success bool
}

// Failures returns the passes that exited non-zero or failed to run.
func (r *Result) Failures() []PassResult {
	var failed []PassResult
	for _, p := range r.Passes {
		if p.ExitCode != 0 || p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// Orchestrator plans and runs the pass sequence inside a working directory.
type Orchestrator struct {
	cfg    config.BuildConfig
	runner Runner
}

// New creates an orchestrator. A nil runner defaults to executing real
// processes; tests inject a fake.
func New(cfg config.BuildConfig, runner Runner) *Orchestrator {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &Orchestrator{cfg: cfg, runner: runner}
}

// MainName returns the main file's base name without extension, the stem the
// toolchain derives its side files and the artifact from.
func MainName(mainFile string) string {
	base := filepath.Base(mainFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ArtifactPath returns the deterministic location of the compiled artifact
// for mainFile inside workDir.
func ArtifactPath(workDir, mainFile string) string {
	return filepath.Join(workDir, MainName(mainFile)+artifactExt)
}

// Plan expands the configured command templates into the ordered pass
// sequence for mainFile.
func (o *Orchestrator) Plan(mainFile string) []Pass {
	mainName := MainName(mainFile)

	passes := []Pass{{
		Name:    PassPrimary,
		Command: expandTemplate(o.cfg.Command, mainFile, mainName),
	}}
	if o.cfg.BibliographyEnabled() {
		passes = append(passes, Pass{
			Name:    PassBibliography,
			Command: expandTemplate(o.cfg.BibliographyCommand, mainFile, mainName),
		})
	}
	for k := 1; k <= o.cfg.ResolutionPasses; k++ {
		passes = append(passes, Pass{
			Name:    "resolution-" + strconv.Itoa(k),
			Command: expandTemplate(o.cfg.Command, mainFile, mainName),
		})
	}
	return passes
}

// Run executes the planned passes sequentially inside workDir and applies
// the success-by-artifact-presence rule. Transitions between passes are
// unconditional; a failing pass is recorded and the sequence continues.
func (o *Orchestrator) Run(ctx context.Context, workDir, mainFile string) *Result {
	result := &Result{ArtifactPath: ArtifactPath(workDir, mainFile)}

	for _, pass := range o.Plan(mainFile) {
		start := time.Now()
		out := o.runner.Run(ctx, workDir, pass.Command)
		elapsed := time.Since(start)

		pr := PassResult{
			Name:     pass.Name,
			Command:  pass.Command,
			ExitCode: out.ExitCode,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			Err:      out.Err,
			Duration: elapsed,
		}
		result.Passes = append(result.Passes, pr)

		if out.Err != nil {
			slog.Warn("Pass could not run, continuing sequence",
				logfields.Pass(pass.Name), logfields.Error(out.Err))
		} else if out.ExitCode != 0 {
			slog.Warn("Pass exited non-zero, continuing sequence",
				logfields.Pass(pass.Name),
				logfields.ExitCode(out.ExitCode),
				logfields.DurationMS(float64(elapsed.Milliseconds())))
		} else {
			slog.Info("Pass completed",
				logfields.Pass(pass.Name),
				logfields.DurationMS(float64(elapsed.Milliseconds())))
		}
	}

	result.Success = artifactProduced(result.ArtifactPath)
	if result.Success {
		slog.Info("Build succeeded by artifact presence", logfields.Path(result.ArtifactPath))
	} else {
		slog.Error("Build failed, artifact absent after all passes",
			logfields.Path(result.ArtifactPath),
			slog.Int("failed_passes", len(result.Failures())))
	}
	return result
}

// artifactProduced is the success-by-artifact-presence rule: the build
// succeeded iff the expected output file exists, independent of pass exit
// codes.
func artifactProduced(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandTemplate substitutes {main_file} and {main_name} in a command
// template and splits it into argv. Commands run without a shell.
func expandTemplate(template, mainFile, mainName string) []string {
	expanded := strings.ReplaceAll(template, "{main_file}", filepath.Base(mainFile))
	expanded = strings.ReplaceAll(expanded, "{main_name}", mainName)
	return strings.Fields(expanded)
}
