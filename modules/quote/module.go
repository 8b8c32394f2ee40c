// Package quote provides the "quote" stage. It ignores its input and
// produces a small JSON document, logging the loader context it was invoked
// with. Query "delay" makes it complete asynchronously.
package quote

import (
	"encoding/json"
	"time"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
)

// DefaultAuthor is used when query "author" is absent.
const DefaultAuthor = "Louanne Johnson"

// Module implements the registry.Module interface for this package.
type Module struct{}

type document struct {
	Author string `json:"author"`
}

// Quote returns {"author": ...} as JSON bytes. The result is cacheable.
func Quote(lc *loader.Context, input any) loader.Result {
	lc.Cacheable()
	lc.Logger().Debug("Quote stage invoked.",
		"source_bytes", sizeOf(input),
		"query", lc.Query,
		"context", lc.ResourceDirectory,
		"resource_path", lc.ResourcePath,
	)

	out, err := json.Marshal(document{Author: lc.QueryString("author", DefaultAuthor)})
	if err != nil {
		return loader.Fail(err)
	}

	delay, err := time.ParseDuration(lc.QueryString("delay", "0s"))
	if err != nil {
		return loader.Fail(err)
	}
	if delay <= 0 {
		return loader.Return(out)
	}
	done := lc.Async()
	time.AfterFunc(delay, func() { done(out, nil) })
	return loader.Detach()
}

func sizeOf(input any) int {
	if b, err := loader.Bytes(input); err == nil {
		return len(b)
	}
	return -1
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("quote", loader.StageFunc(Quote))
}
