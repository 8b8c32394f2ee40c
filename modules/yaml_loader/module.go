// Package yaml_loader provides the "yaml" stage, which decodes YAML content
// into plain Go values.
package yaml_loader

import (
	"fmt"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
	"gopkg.in/yaml.v3"
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
	if err := yaml.Unmarshal(data, &v); err != nil {
		return loader.Fail(fmt.Errorf("invalid YAML in %s: %w", lc.ResourcePath, err))
	}
	return loader.Return(v)
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("yaml", loader.StageFunc(Load))
}
