package shell

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}
}

func TestRunSuccess(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var stdout bytes.Buffer
	res, err := Run(context.Background(), "echo hello", Options{Stdout: &stdout})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Canceled)
	assert.Equal(t, "hello", res.Stdout)
	assert.Equal(t, "hello\n", stdout.String())
}

func TestRunNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var stdout, stderr bytes.Buffer
	res, err := Run(context.Background(), "echo oops >&2; exit 3", Options{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err, "a non-zero exit is a result, not a dispatch error")
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", res.Stderr)
}

func TestRunCanceled(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	var stdout bytes.Buffer
	res, err := Run(ctx, "sleep 10", Options{Stdout: &stdout, Stderr: &stdout})
	require.Error(t, err)
	assert.True(t, res.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWorkDir(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	dir := t.TempDir()
	var stdout bytes.Buffer
	res, err := Run(context.Background(), "pwd", Options{Dir: dir, Stdout: &stdout})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, filepath.Base(dir))
}

func TestRunCustomEnv(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	var stdout bytes.Buffer
	res, err := Run(context.Background(), "echo $GREETING", Options{
		Env:    map[string]string{"GREETING": "hi there"},
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Stdout)
}

func TestDetermineShellExplicit(t *testing.T) {
	t.Parallel()

	interp, args, err := determineShell("/bin/zsh")
	require.NoError(t, err)
	assert.Equal(t, "/bin/zsh", interp)
	assert.Equal(t, []string{"-c"}, args)
}
