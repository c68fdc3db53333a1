package texbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// RunOutput is the raw outcome of one command execution.
type RunOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error // set when the process could not run at all
}

// Runner executes one external toolchain command synchronously. Abstracting
// the execution lets tests stand in a fake compiler without touching the
// orchestration logic.
type Runner interface {
	Run(ctx context.Context, dir string, command []string) RunOutput
}

// ExecRunner runs real processes. The working directory is set per
// invocation; process-wide state is never mutated, so a failing pass cannot
// leave the process stranded in the working area.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command []string) RunOutput {
	if len(command) == 0 {
		return RunOutput{Err: fmt.Errorf("empty command")}
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := RunOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.Err = err
		}
	}
	return out
}
