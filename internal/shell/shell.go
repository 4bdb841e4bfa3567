// Package shell dispatches rendered commands to the host shell interpreter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Options narrows how a command is dispatched. Zero values inherit the
// parent process environment and standard streams.
type Options struct {
	Shell  string
	Dir    string
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the terminal state of one dispatched command.
type Result struct {
	ExitCode int
	Canceled bool
	Stdout   string
	Stderr   string
}

// Run executes the command text through the host shell, mirroring its
// output to the configured streams while collecting it for reporting. A
// non-zero exit is reported in the Result, not as an error; the returned
// error is reserved for dispatch faults (no shell, start failure) and
// context cancellation.
func Run(ctx context.Context, command string, opts Options) (Result, error) {
	interp, interpArgs, err := determineShell(opts.Shell)
	if err != nil {
		return Result{}, err
	}

	args := append(interpArgs, command)
	cmd := exec.CommandContext(ctx, interp, args...)
	cmd.Env = buildEnv(opts.Env)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	cmd.Stdin = os.Stdin

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	cmd.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	runErr := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if ctx.Err() != nil {
		res.Canceled = true
		return res, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, runErr
	}

	return res, nil
}

func determineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
