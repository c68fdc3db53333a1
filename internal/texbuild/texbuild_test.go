package texbuild

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/config"
)

func boolPtr(v bool) *bool { return &v }

// fakeRunner scripts pass outcomes and records every invocation.
type fakeRunner struct {
	calls  [][]string
	dirs   []string
	script func(call int, dir string, command []string) RunOutput
}

func (f *fakeRunner) Run(_ context.Context, dir string, command []string) RunOutput {
	call := len(f.calls)
	f.calls = append(f.calls, command)
	f.dirs = append(f.dirs, dir)
	if f.script == nil {
		return RunOutput{}
	}
	return f.script(call, dir, command)
}

func buildCfg(bib bool, resolution int) config.BuildConfig {
	return config.BuildConfig{
		Command:             "pdflatex -interaction=nonstopmode {main_file}",
		BibliographyCommand: "bibtex {main_name}",
		RunBibliography:     boolPtr(bib),
		ResolutionPasses:    resolution,
	}
}

func TestPlanWithBibliography(t *testing.T) {
	o := New(buildCfg(true, 2), &fakeRunner{})
	passes := o.Plan("main.tex")

	require.Len(t, passes, 4)
	assert.Equal(t, PassPrimary, passes[0].Name)
	assert.Equal(t, PassBibliography, passes[1].Name)
	assert.Equal(t, "resolution-1", passes[2].Name)
	assert.Equal(t, "resolution-2", passes[3].Name)

	assert.Equal(t, []string{"pdflatex", "-interaction=nonstopmode", "main.tex"}, passes[0].Command)
	assert.Equal(t, []string{"bibtex", "main"}, passes[1].Command)
}

func TestPlanWithoutBibliography(t *testing.T) {
	o := New(buildCfg(false, 1), &fakeRunner{})
	passes := o.Plan("main.tex")

	require.Len(t, passes, 2)
	assert.Equal(t, PassPrimary, passes[0].Name)
	assert.Equal(t, "resolution-1", passes[1].Name)
}

func TestMainNameAndArtifactPath(t *testing.T) {
	assert.Equal(t, "main", MainName("main.tex"))
	assert.Equal(t, "book", MainName("src/book.tex"))
	assert.Equal(t, filepath.Join("/work", "main.pdf"), ArtifactPath("/work", "main.tex"))
}

func TestRunSucceedsByArtifactPresenceDespiteFailures(t *testing.T) {
	workDir := t.TempDir()

	// Primary pass exits non-zero (unresolved references), the resolution
	// pass writes the artifact. The build must still succeed.
	runner := &fakeRunner{script: func(call int, dir string, _ []string) RunOutput {
		if call == 0 {
			return RunOutput{ExitCode: 1, Stderr: "undefined references"}
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.pdf"), []byte("%PDF"), 0o600))
		return RunOutput{}
	}}

	o := New(buildCfg(false, 1), runner)
	result := o.Run(context.Background(), workDir, "main.tex")

	assert.True(t, result.Success)
	require.Len(t, result.Passes, 2, "exactly primary + one resolution pass")
	assert.Len(t, result.Failures(), 1)
	assert.Equal(t, 1, result.Passes[0].ExitCode)
	assert.Equal(t, "undefined references", result.Passes[0].Stderr)
	assert.Equal(t, []string{workDir, workDir}, runner.dirs, "every pass runs inside the working area")
}

func TestRunFailsWhenArtifactAbsent(t *testing.T) {
	runner := &fakeRunner{} // all passes exit zero but nothing writes the artifact
	o := New(buildCfg(false, 1), runner)

	result := o.Run(context.Background(), t.TempDir(), "main.tex")
	assert.False(t, result.Success)
	assert.Len(t, result.Passes, 2)
	assert.Empty(t, result.Failures())
}

func TestRunContinuesAfterExecutionError(t *testing.T) {
	workDir := t.TempDir()
	runner := &fakeRunner{script: func(call int, dir string, _ []string) RunOutput {
		if call == 1 {
			return RunOutput{Err: os.ErrNotExist} // bibtex binary missing
		}
		if call == 3 {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "main.pdf"), []byte("%PDF"), 0o600))
		}
		return RunOutput{}
	}}

	o := New(buildCfg(true, 2), runner)
	result := o.Run(context.Background(), workDir, "main.tex")

	require.Len(t, result.Passes, 4, "a pass that cannot run must not halt the sequence")
	assert.True(t, result.Success)
	assert.Len(t, result.Failures(), 1)
}

func TestExecRunnerCapturesOutputAndExitCode(t *testing.T) {
	r := &ExecRunner{}

	out := r.Run(context.Background(), t.TempDir(), []string{"sh", "-c", "echo typeset; echo warn >&2; exit 3"})
	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.ExitCode)
	assert.Equal(t, "typeset\n", out.Stdout)
	assert.Equal(t, "warn\n", out.Stderr)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &ExecRunner{}
	out := r.Run(context.Background(), t.TempDir(), []string{"bookforge-no-such-binary"})
	assert.Error(t, out.Err)
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := &ExecRunner{}
	out := r.Run(context.Background(), t.TempDir(), nil)
	assert.Error(t, out.Err)
}
