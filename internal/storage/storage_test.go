package storage

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

func TestReader_Read(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.special")
	require.NoError(t, os.WriteFile(path, []byte("RAW"), 0o644))

	res, err := NewReader().Read(testContext(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path())
	assert.Equal(t, dir, res.Dir())
	assert.Equal(t, []byte("RAW"), res.Content())
}

func TestReader_Missing(t *testing.T) {
	_, err := NewReader().Read(testContext(), filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestEmitter_Emit(t *testing.T) {
	base := filepath.Join(t.TempDir(), "build")
	em := NewEmitter(base)

	require.NoError(t, em.Emit(testContext(), "index.html", []byte("<html/>")))
	require.NoError(t, em.Emit(testContext(), "nested/dir/data.json", []byte(`{"a":1}`)))

	got, err := os.ReadFile(filepath.Join(base, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html/>", string(got))

	got, err = os.ReadFile(filepath.Join(base, "nested", "dir", "data.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestEmitter_RejectsEscapingNames(t *testing.T) {
	em := NewEmitter(t.TempDir())
	for _, name := range []string{"../outside.txt", "nested/../../outside.txt", "..", "/etc/outside.txt"} {
		err := em.Emit(testContext(), name, []byte("x"))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "escapes the output location", name)
	}
}

func TestEmitter_AcceptsDotsInsideNames(t *testing.T) {
	base := t.TempDir()
	em := NewEmitter(base)
	require.NoError(t, em.Emit(testContext(), "app..min.js", []byte("min")))
	require.NoError(t, em.Emit(testContext(), "nested/../flat.txt", []byte("flat")))

	got, err := os.ReadFile(filepath.Join(base, "app..min.js"))
	require.NoError(t, err)
	assert.Equal(t, "min", string(got))
	got, err = os.ReadFile(filepath.Join(base, "flat.txt"))
	require.NoError(t, err)
	assert.Equal(t, "flat", string(got))
}
