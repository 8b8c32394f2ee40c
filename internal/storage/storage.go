// Package storage reads resources and writes emitted assets through afs, so
// entries and output locations may be local paths or any afs URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Reader loads resources.
type Reader struct {
	fs afs.Service
}

// NewReader creates a Reader backed by the default afs service.
func NewReader() *Reader {
	return &Reader{fs: afs.New()}
}

// Read loads the resource at location.
func (r *Reader) Read(ctx context.Context, location string) (*model.Resource, error) {
	ctxlog.FromContext(ctx).Debug("Reading resource.", "location", location)
	ok, err := r.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", location, err)
	}
	if !ok {
		return nil, fmt.Errorf("resource %s does not exist", location)
	}
	data, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return model.NewResource(location, data), nil
}

// Emitter writes assets under a base location.
type Emitter struct {
	fs   afs.Service
	base string
}

// NewEmitter creates an Emitter writing under base.
func NewEmitter(base string) *Emitter {
	return &Emitter{fs: afs.New(), base: base}
}

// Base returns the output location.
func (e *Emitter) Base() string { return e.base }

// Emit writes content to name, relative to the base location. Missing parent
// directories are created.
func (e *Emitter) Emit(ctx context.Context, name string, content []byte) error {
	name = path.Clean(filepath.ToSlash(name))
	if name == ".." || strings.HasPrefix(name, "../") || path.IsAbs(name) {
		return fmt.Errorf("asset name %q escapes the output location", name)
	}
	dest := url.Join(e.base, name)
	parent, _ := url.Split(dest, file.Scheme)
	if strings.TrimSpace(parent) != "" {
		exists, err := e.fs.Exists(ctx, parent)
		if err != nil {
			return err
		}
		if !exists {
			if err := e.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
				return fmt.Errorf("failed to create %s: %w", parent, err)
			}
		}
	}
	if err := e.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write asset %s: %w", dest, err)
	}
	ctxlog.FromContext(ctx).Debug("Asset written.", "name", name, "location", dest, "bytes", len(content))
	return nil
}
