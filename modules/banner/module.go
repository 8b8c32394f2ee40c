// Package banner provides the "banner" stage, which adds a line of text to
// the top or bottom of byte content.
package banner

import (
	"bytes"
	"fmt"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Banner inserts query "text" at query "position" ("top" or "bottom").
func Banner(lc *loader.Context, input any) loader.Result {
	data, err := loader.Bytes(input)
	if err != nil {
		return loader.Fail(err)
	}
	text := lc.QueryString("text", "")
	if text == "" {
		return loader.Return(data)
	}

	var buf bytes.Buffer
	switch pos := lc.QueryString("position", "top"); pos {
	case "top":
		buf.WriteString(text)
		buf.WriteByte('\n')
		buf.Write(data)
	case "bottom":
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	default:
		return loader.Fail(fmt.Errorf("unknown position %q, expected top or bottom", pos))
	}
	return loader.Return(buf.Bytes())
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("banner", loader.StageFunc(Banner))
}
