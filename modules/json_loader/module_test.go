package json_loader

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoad(t *testing.T) {
	chain := loader.NewChain(loader.Link{Name: "json", Stage: loader.StageFunc(Load)})
	out, err := chain.Run(testContext(), model.NewResource("/app/data.json", []byte(`{"author":"Louanne Johnson","n":[1,2]}`)))
	require.NoError(t, err)
	assert.True(t, out.Cacheable)
	assert.Equal(t, map[string]any{"author": "Louanne Johnson", "n": []any{float64(1), float64(2)}}, out.Value)
}

func TestLoad_InvalidJSON(t *testing.T) {
	chain := loader.NewChain(loader.Link{Name: "json", Stage: loader.StageFunc(Load)})
	_, err := chain.Run(testContext(), model.NewResource("/app/bad.json", []byte(`{`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON in /app/bad.json")
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	_, ok := r.Stage("json")
	assert.True(t, ok)
}
