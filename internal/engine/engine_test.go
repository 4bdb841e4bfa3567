package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulerun/rulerun/internal/model"
	"github.com/rulerun/rulerun/internal/rules"
	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

const helloRulefile = `
rules:
  - name: hello_world
    output: config.output
    params:
      text: config.text
      times: config.times
    threads: config.threads
    shell: |
      for i in {{1..{params.times}}}; do
        echo "{params.text}"
        echo "{params.text}" >> "{output}"
      done

  - name: error
    shell: |
      exit 1
`

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}
}

func newTestEngine(t *testing.T, configYAML, rulesYAML string, opts Options) (*Engine, *bytes.Buffer) {
	t.Helper()

	rf, err := rules.ParseRules([]byte(rulesYAML))
	require.NoError(t, err)

	var stdout bytes.Buffer
	if opts.Stdout == nil {
		opts.Stdout = &stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = &stdout
	}

	return New(mustConfig(t, configYAML), rf, opts), &stdout
}

func TestRunHelloWorld(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	dir := t.TempDir()
	eng, stdout := newTestEngine(t, `
output: "out.txt"
text: "hi"
times: 2
threads: null
`, helloRulefile, Options{WorkDir: dir})

	res, err := eng.Run(context.Background(), "hello_world")
	require.NoError(t, err)

	assert.Equal(t, model.StatusSucceeded, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 2, strings.Count(stdout.String(), "hi"), "echoes the text twice to stdout")

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\nhi\n", string(data), "appends the text twice to the output file")

	assert.Equal(t, []string{
		model.StatusPending,
		model.StatusParamsResolved,
		model.StatusRendered,
		model.StatusDispatched,
		model.StatusSucceeded,
	}, res.States)
}

func TestRunRenderedCommandIsRecorded(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	eng, _ := newTestEngine(t, "output: out.txt\ntext: hi\ntimes: 3\nthreads: null\n", helloRulefile, Options{WorkDir: t.TempDir()})

	res, err := eng.Run(context.Background(), "hello_world")
	require.NoError(t, err)
	assert.Contains(t, res.Command, "for i in {1..3}; do")
	assert.Contains(t, res.Command, `echo "hi"`)
}

func TestRunFailure(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	eng, _ := newTestEngine(t, "x: 1", helloRulefile, Options{WorkDir: t.TempDir()})

	res, err := eng.Run(context.Background(), "error")
	require.Error(t, err)

	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Equal(t, 1, res.ExitCode)

	var execErr *runerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "error", execErr.Rule)
	assert.Equal(t, 1, execErr.ExitCode)
}

func TestRunAllHaltsAtFirstFailure(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	dir := t.TempDir()
	eng, _ := newTestEngine(t, "output: out.txt\ntext: hi\ntimes: 1\nthreads: null\n", helloRulefile, Options{WorkDir: dir})

	results, err := eng.RunAll(context.Background(), []string{"error", "hello_world"})
	require.Error(t, err)
	require.Len(t, results, 1, "the rule after the failure is never dispatched")
	assert.Equal(t, "error", results[0].Rule)

	_, statErr := os.Stat(filepath.Join(dir, "out.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunAllContinueOnError(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	dir := t.TempDir()
	eng, _ := newTestEngine(t, "output: out.txt\ntext: hi\ntimes: 1\nthreads: null\n", helloRulefile, Options{
		WorkDir:         dir,
		ContinueOnError: true,
	})

	results, err := eng.RunAll(context.Background(), []string{"error", "hello_world"})
	require.Error(t, err, "the first failure is still reported")
	require.Len(t, results, 2)
	assert.Equal(t, model.StatusFailed, results[0].Status)
	assert.Equal(t, model.StatusSucceeded, results[1].Status)

	var execErr *runerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "error", execErr.Rule)
}

func TestRunAllDefaultsToDeclarationOrder(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	eng, _ := newTestEngine(t, "x: 1", `
rules:
  - name: first
    shell: "true"
  - name: second
    shell: "true"
`, Options{WorkDir: t.TempDir()})

	results, err := eng.RunAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Rule)
	assert.Equal(t, "second", results[1].Rule)
}

func TestRunUnknownRule(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t, "x: 1", helloRulefile, Options{})

	res, err := eng.Run(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, res.Status)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "nonexistent", defErr.Rule)
}

func TestRunMissingConfigKeyAbortsBeforeDispatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	eng, _ := newTestEngine(t, "x: 1", `
rules:
  - name: needs_key
    params:
      text: config.text
    shell: |
      touch "{output}/marker"
`, Options{WorkDir: dir})

	res, err := eng.Run(context.Background(), "needs_key")
	require.Error(t, err)

	var keyErr *runerrors.ConfigKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "needs_key", keyErr.Rule)
	assert.Equal(t, "text", keyErr.Key)

	assert.Equal(t, []string{model.StatusPending, model.StatusFailed}, res.States)

	_, statErr := os.Stat(filepath.Join(dir, "marker"))
	assert.True(t, os.IsNotExist(statErr), "no shell command runs on a structural fault")
}

func TestRunUnboundPlaceholderAbortsBeforeDispatch(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t, "text: hi", `
rules:
  - name: bad_template
    params:
      text: config.text
    shell: |
      echo {params.text} {params.missing}
`, Options{})

	res, err := eng.Run(context.Background(), "bad_template")
	require.Error(t, err)

	var bindErr *runerrors.TemplateBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "bad_template", bindErr.Rule)
	assert.Equal(t, "params.missing", bindErr.Placeholder)

	assert.Equal(t, []string{
		model.StatusPending,
		model.StatusParamsResolved,
		model.StatusFailed,
	}, res.States)
	assert.Empty(t, res.Command)
}

func TestRunCanceled(t *testing.T) {
	skipOnWindows(t)
	t.Parallel()

	eng, _ := newTestEngine(t, "x: 1", `
rules:
  - name: slow
    shell: "sleep 10"
`, Options{WorkDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res, err := eng.Run(ctx, "slow")
	require.Error(t, err)
	assert.Equal(t, model.StatusCanceled, res.Status)
	assert.ErrorIs(t, err, context.Canceled)
}
