package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.yaml"), []byte(testRulefile), 0o644))

	cmd := newListCmd(&rootFlags{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Flags().Set("pipeline", dir))

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "hello_world")
	assert.Contains(t, out.String(), "error")
	assert.Contains(t, out.String(), "config.output")
	assert.Contains(t, out.String(), "latest")
}

func TestListCommandMissingRulefile(t *testing.T) {
	t.Parallel()

	cmd := newListCmd(&rootFlags{})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Flags().Set("pipeline", t.TempDir()))

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rulefile found")
}
