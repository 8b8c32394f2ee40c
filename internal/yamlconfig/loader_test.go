package yamlconfig

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
entry: ./app/data.special
output:
  path: ./build
  filename: "[name].json"
rules:
  - test: '\.special$'
    use:
      - loader: json
      - loader: quote
        options:
          author: ${AUTHOR}
          tags: [a, b]
plugins:
  - name: pause
    events: emit
    options:
      duration: 5ms
      nested: {deep: true}
`)
	baseDir := filepath.Dir(path)

	model, conv, err := NewLoader(map[string]string{"AUTHOR": "Louanne Johnson"}).Load(testContext(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(baseDir, "app/data.special")}, model.Entries)
	assert.Equal(t, filepath.Join(baseDir, "build"), model.Output.Path)
	assert.Equal(t, "[name].json", model.Output.Filename)

	require.Len(t, model.Rules, 1)
	rule := model.Rules[0]
	assert.Equal(t, `\.special$`, rule.Test)
	require.Len(t, rule.Use, 2)
	assert.Equal(t, "json", rule.Use[0].Name)
	assert.Equal(t, "quote", rule.Use[1].Name)
	assert.Equal(t, "Louanne Johnson", rule.Use[1].Options["author"].AsString())

	tags, err := conv.ToNative(rule.Use[1].Options["tags"])
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, tags)

	require.Len(t, model.Plugins, 1)
	assert.Equal(t, []string{"emit"}, model.Plugins[0].Events)

	var opts struct {
		Duration string         `pg:"duration"`
		Nested   map[string]any `pg:"nested"`
	}
	require.NoError(t, conv.DecodeOptions(testContext(), &opts, model.Plugins[0].Options))
	assert.Equal(t, "5ms", opts.Duration)
	assert.Equal(t, map[string]any{"deep": true}, opts.Nested)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown field", content: "entry: a\nbogus: 1\n", wantErr: "field bogus not found"},
		{name: "undefined variable", content: "entry: ${NOPE}\n", wantErr: "undefined variables: [NOPE]"},
		{name: "empty document", content: "", wantErr: "at least one entry is required"},
		{name: "bad entry type", content: "entry: {a: b}\n", wantErr: "expected a string or a list of strings"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NewLoader(nil).Load(testContext(), writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
