package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/failure"
	"github.com/specialistvlad/packgrid/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project writes files relative to a fresh directory and returns it.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const buildHCL = `
entry = ["./app/data.special", "./app/notes.txt"]

output {
  path     = "./build"
  filename = "[name].out"
}

rule {
  test = "\\.special$"
  use "json" {}
  use "quote" {
    options = { author = env.AUTHOR }
  }
}

rule {
  include = "*.txt"
  use "banner" {
    options = { text = format("// %s", lower(env.AUTHOR)) }
  }
}

plugin "copy" {
  options = {
    patterns = [{ from = "./app/index.html", to = "index.html" }]
  }
}
`

func TestApp_BuildFromHCL(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.hcl":     buildHCL,
		"app/data.special": "ignored",
		"app/notes.txt":    "hello",
		"app/index.html":   "<html/>",
	})

	a, logs, err := SetupAppTest(t, &Config{
		ConfigPath: filepath.Join(dir, "packgrid.hcl"),
		Env:        map[string]string{"AUTHOR": "Louanne Johnson"},
	})
	require.NoError(t, err)

	comp, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"data.out", "index.html", "notes.out"}, comp.AssetNames())

	data, err := os.ReadFile(filepath.Join(dir, "build", "data.out"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"author":"Louanne Johnson"}`, string(data))

	notes, err := os.ReadFile(filepath.Join(dir, "build", "notes.out"))
	require.NoError(t, err)
	assert.Contains(t, string(notes), "// louanne johnson")
	assert.Contains(t, string(notes), "hello")

	index, err := os.ReadFile(filepath.Join(dir, "build", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(index))

	m, ok := comp.Module(filepath.Join(dir, "app", "data.special"))
	require.True(t, ok)
	assert.True(t, m.Cacheable)

	assert.Equal(t, orchestrator.PhaseDone, a.Status().Phase)
	assert.Contains(t, logs.String(), "Build phase finished.")
}

func TestApp_BuildFromYAML(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.yml": `
entry: [./src/config.yaml]
output:
  path: ./dist
  filename: "[name].json"
rules:
  - include: "*.yaml"
    use:
      - loader: stringify
      - loader: yaml
`,
		"src/config.yaml": "name: packgrid\nworkers: 3\n",
	})

	a, _, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.yml")})
	require.NoError(t, err)
	_, err = a.Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "dist", "config.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"packgrid","workers":3}`, string(got))
}

func TestApp_UnmatchedEntryFailsTheBuild(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.hcl": `
entry = ["./y.unknown"]
rule {
  include = "*.special"
  use "json" {}
}
`,
		"y.unknown": "RAW",
	})
	a, _, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.hcl")})
	require.NoError(t, err)

	_, err = a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrNoMatchingRule)
	assert.Equal(t, orchestrator.PhaseFailed, a.Status().Phase)
}

func TestNewApp_RejectsUnknownModules(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.hcl": `
entry = ["./a.special"]
rule {
  include = "*.special"
  use "coffee" {}
}
plugin "teleport" {}
`,
	})
	_, _, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.hcl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry validation failed")
	assert.Contains(t, err.Error(), "coffee")
	assert.Contains(t, err.Error(), "teleport")
}

func TestNewApp_ConfigErrors(t *testing.T) {
	_, _, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(t.TempDir(), "build.toml")})
	assert.ErrorContains(t, err, "unsupported configuration file")

	dir := project(t, map[string]string{"packgrid.hcl": `entry = [`})
	_, _, err = SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.hcl")})
	assert.ErrorContains(t, err, "failed to load configuration")
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigPath: "packgrid.hcl", Workers: 1})
	require.NoError(t, err)
	assert.NotNil(t, cfg.Env)

	_, err = NewConfig(Config{Workers: 0, HookTimeout: -time.Second, StatusPort: 70000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ConfigPath is a required")
	assert.Contains(t, err.Error(), "workers must be at least 1")
	assert.Contains(t, err.Error(), "hook timeout must not be negative")
	assert.Contains(t, err.Error(), "out of range")
}

func TestLoaderFor(t *testing.T) {
	for _, path := range []string{"a.hcl", "a.yaml", "A.YML"} {
		l, err := LoaderFor(path, nil)
		require.NoError(t, err, path)
		assert.NotNil(t, l)
	}
	_, err := LoaderFor("a.json", nil)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	buf := &SafeBuffer{}
	newLogger("warn", "json", buf).Info("hidden")
	assert.Empty(t, buf.String())

	newLogger("warn", "json", buf).Warn("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &line))
	assert.Equal(t, "shown", line["msg"])
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestStatusServer(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.hcl": `
entry = ["./a.special"]
rule {
  include = "*.special"
  use "quote" {}
}
`,
		"a.special": "",
	})
	port := freePort(t)
	a, logs, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.hcl"), StatusPort: port})
	require.NoError(t, err)

	ctx := ctxlog.WithLogger(context.Background(), a.logger)
	require.NoError(t, a.startStatusServer(ctx))
	defer a.closeStatusServer(ctx)

	get := func(path string) (int, string) {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK\n", body)

	code, body = get("/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"phase":"idle"}`, body)

	require.NoError(t, a.closeStatusServer(ctx))
	assert.Contains(t, logs.String(), "Status server starting")
}

func TestStatusHandler_ReportsCompilation(t *testing.T) {
	dir := project(t, map[string]string{
		"packgrid.hcl": `
entry = ["./a.special"]
rule {
  include = "*.special"
  use "quote" {}
}
`,
		"a.special": "",
	})
	a, _, err := SetupAppTest(t, &Config{ConfigPath: filepath.Join(dir, "packgrid.hcl")})
	require.NoError(t, err)
	comp, err := a.Run(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var status orchestrator.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, orchestrator.PhaseDone, status.Phase)
	require.NotNil(t, status.Stats)
	assert.Equal(t, comp.ID, status.Stats.ID)
	assert.Equal(t, 1, status.Stats.Modules)
	assert.Equal(t, 1, status.Stats.Cacheable)
}
