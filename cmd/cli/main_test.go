package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/packgrid/internal/cli"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestRun_Build(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{
		"packgrid.hcl": `
entry = ["./app/data.special"]
output {
  path     = "./build"
  filename = "[name].json"
}
rule {
  include = "*.special"
  use "json" {}
  use "quote" {}
}
`,
		"app/data.special": "",
	})
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-log-level", "error", filepath.Join(dir, "packgrid.hcl")})
	require.NoError(t, err)
	require.Contains(t, out.String(), "succeeded")

	data, err := os.ReadFile(filepath.Join(dir, "build", "data.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"author":"Louanne Johnson"}`, string(data))
}

func TestRun_StartupError(t *testing.T) {
	t.Parallel()

	invalidHCL := `
		rule {
			use "json" {
		// Missing closing brace here
	`
	dir := writeProject(t, map[string]string{"main.hcl": invalidHCL})
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{filepath.Join(dir, "main.hcl")})
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, err.Error(), "startup failed")
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_BuildFailureExitsWithOne(t *testing.T) {
	t.Parallel()

	dir := writeProject(t, map[string]string{
		"packgrid.hcl": `
entry = ["./y.unknown"]
rule {
  include = "*.special"
  use "json" {}
}
`,
		"y.unknown": "RAW",
	})
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-log-level", "error", filepath.Join(dir, "packgrid.hcl")})
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, out.String(), "failed")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
