// Package stringify provides the "stringify" stage, which encodes any value
// as JSON bytes.
package stringify

import (
	"encoding/json"
	"strings"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Stringify encodes its input. Query "indent" sets the number of spaces per
// indentation level; zero produces compact output.
func Stringify(lc *loader.Context, input any) loader.Result {
	lc.Cacheable()
	if b, ok := input.([]byte); ok {
		input = string(b)
	}
	indent := lc.QueryInt("indent", 0)
	var (
		out []byte
		err error
	)
	if indent > 0 {
		out, err = json.MarshalIndent(input, "", strings.Repeat(" ", indent))
	} else {
		out, err = json.Marshal(input)
	}
	if err != nil {
		return loader.Fail(err)
	}
	return loader.Return(out)
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("stringify", loader.StageFunc(Stringify))
}
