// Package include provides the "include" stage, which appends the content of
// other files to a resource. Files are read on a separate goroutine and the
// stage completes through its completion handle.
package include

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/viant/afs"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Stage reads the files listed in query "files", resolved against the
// resource directory, and appends them joined by query "separator".
type Stage struct {
	fs afs.Service
}

// New creates the stage backed by the default afs service.
func New() *Stage {
	return &Stage{fs: afs.New()}
}

// Run implements loader.Stage.
func (s *Stage) Run(lc *loader.Context, input any) loader.Result {
	data, err := loader.Bytes(input)
	if err != nil {
		return loader.Fail(err)
	}
	files := lc.QueryStrings("files")
	sep := lc.QueryString("separator", "\n")
	dir := lc.ResourceDirectory
	ctx := lc.Context()
	logger := lc.Logger()

	done := lc.Async()
	go func() {
		var buf bytes.Buffer
		buf.Write(data)
		for _, f := range files {
			location := f
			if !filepath.IsAbs(location) {
				location = filepath.Join(dir, f)
			}
			content, err := s.fs.DownloadWithURL(ctx, location)
			if err != nil {
				done(nil, fmt.Errorf("failed to include %s: %w", f, err))
				return
			}
			if buf.Len() > 0 {
				buf.WriteString(sep)
			}
			buf.Write(content)
			logger.Debug("Included file.", "file", location, "bytes", len(content))
		}
		done(buf.Bytes(), nil)
	}()
	return loader.Detach()
}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("include", New())
}
