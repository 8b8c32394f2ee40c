// Package json_loader provides the "json" stage, which decodes JSON content
// into plain Go values.
package json_loader

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Load decodes its byte input. The result is always cacheable.
func Load(lc *loader.Context, input any) loader.Result {
	lc.Cacheable()
	data, err := loader.Bytes(input)
	if err != nil {
		return loader.Fail(err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return loader.Fail(fmt.Errorf("invalid JSON in %s: %w", lc.ResourcePath, err))
	}
	lc.Logger().Debug("Decoded JSON.", "bytes", len(data))
	return loader.Return(v)
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("json", loader.StageFunc(Load))
}
