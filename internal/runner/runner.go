// Package runner compiles and executes user code and captures its output.
//
// The local runners execute code directly on the host with the privileges
// of the calling user. There is no isolation, no resource limit and no
// network restriction: they are meant for a single trusted local user. The
// Docker runtime is the isolated alternative.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"codereviewer/internal/api"
)

const (
	unsupportedMessage = "Unsupported language."
	compileErrorPrefix = "Compilation Error:\n"
	execErrorPrefix    = "Execution Error: "
)

type Runner interface {
	Run(ctx context.Context, source string) api.ExecutionResult
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, source string) api.ExecutionResult

func (f RunnerFunc) Run(ctx context.Context, source string) api.ExecutionResult {
	return f(ctx, source)
}

// preferStdout returns stdout when the program printed anything, stderr
// otherwise. Errors raised after some output was produced are not shown.
func preferStdout(stdout, stderr string) string {
	if stdout != "" {
		return stdout
	}
	return stderr
}

func programResult(stdout, stderr string, exitCode int) api.ExecutionResult {
	outcome := api.OutcomeSuccess
	if exitCode != 0 {
		outcome = api.OutcomeRuntimeFailure
	}
	return api.ExecutionResult{
		Output:   preferStdout(stdout, stderr),
		Outcome:  outcome,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
	}
}

func compileFailure(stderr string, exitCode int) api.ExecutionResult {
	return api.ExecutionResult{
		Output:   compileErrorPrefix + stderr,
		Outcome:  api.OutcomeCompileFailure,
		Stderr:   stderr,
		ExitCode: exitCode,
	}
}

func launchError(err error) api.ExecutionResult {
	return api.ExecutionResult{
		Output:   execErrorPrefix + err.Error(),
		Outcome:  api.OutcomeInternalError,
		ExitCode: -1,
	}
}

func unsupported() api.ExecutionResult {
	return api.ExecutionResult{
		Output:   unsupportedMessage,
		Outcome:  api.OutcomeInternalError,
		ExitCode: -1,
	}
}

// capture runs name with args and returns both streams and the exit code.
// err is only set when the process could not be started or was cut short
// by ctx; a non-zero exit is reported through exitCode.
func capture(ctx context.Context, name string, args ...string) (stdout, stderr string, exitCode int, err error) {
	var outBuf, errBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout, stderr = outBuf.String(), errBuf.String()

	if ctx.Err() != nil {
		return stdout, stderr, -1, fmt.Errorf("%s: %w", name, ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return stdout, stderr, 0, nil
	case errors.As(runErr, &exitErr):
		return stdout, stderr, exitErr.ExitCode(), nil
	default:
		return stdout, stderr, -1, runErr
	}
}
