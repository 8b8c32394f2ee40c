// Package copy_files provides the "copy" plugin, which adds static files to
// the compilation assets while the emit hook runs.
package copy_files

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/viant/afs"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Pattern copies one file. To is relative to the output location and
// defaults to the base name of From.
type Pattern struct {
	From string `pg:"from"`
	To   string `pg:"to"`
}

// Options defines the arguments of the copy plugin.
type Options struct {
	Patterns []Pattern `pg:"patterns"`
}

// Plugin copies its patterns into the compilation on each subscribed event.
type Plugin struct {
	env  registry.PluginEnv
	opts *Options
	fs   afs.Service
}

// New validates opts and creates the plugin.
func New(ctx context.Context, env registry.PluginEnv, opts *Options) (*Plugin, error) {
	if len(opts.Patterns) == 0 {
		return nil, errors.New("at least one pattern is required")
	}
	for i, p := range opts.Patterns {
		if p.From == "" {
			return nil, fmt.Errorf("pattern #%d: 'from' is required", i)
		}
	}
	ctxlog.FromContext(ctx).Debug("Copy plugin configured.", "patterns", len(opts.Patterns))
	return &Plugin{env: env, opts: opts, fs: afs.New()}, nil
}

// Apply implements hooks.Plugin.
func (p *Plugin) Apply(r hooks.Registrar) error {
	for _, event := range p.env.Events {
		r.Register(event, hooks.AsyncCallback(p.env.Name, p.copy))
	}
	return nil
}

func (p *Plugin) copy(ctx context.Context, payload any, done hooks.Done) {
	comp, ok := payload.(*model.Compilation)
	if !ok {
		done(fmt.Errorf("unexpected payload %T", payload))
		return
	}
	logger := ctxlog.FromContext(ctx)

	go func() {
		for _, pat := range p.opts.Patterns {
			src := pat.From
			if !filepath.IsAbs(src) {
				src = filepath.Join(p.env.BaseDir, src)
			}
			data, err := p.fs.DownloadWithURL(ctx, src)
			if err != nil {
				done(fmt.Errorf("failed to copy %s: %w", pat.From, err))
				return
			}
			to := pat.To
			if to == "" {
				to = filepath.Base(pat.From)
			}
			comp.SetAsset(to, data)
			logger.Debug("Copied file into assets.", "from", src, "to", to, "bytes", len(data))
		}
		done(nil)
	}()
}

// Register registers the plugin with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("copy", &registry.RegisteredPlugin{
		Events:     []string{"emit"},
		NewOptions: func() any { return new(Options) },
		New: func(ctx context.Context, env registry.PluginEnv, options any) (hooks.Plugin, error) {
			return New(ctx, env, options.(*Options))
		},
	})
}
