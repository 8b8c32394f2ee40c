package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/loader"
)

// BuildChain binds each loader reference to its registered stage. The
// reference's options become the stage's query.
func (r *Registry) BuildChain(refs []*config.LoaderRef, conv config.Converter) (*loader.Chain, error) {
	links := make([]loader.Link, 0, len(refs))
	for _, ref := range refs {
		stage, ok := r.stages[ref.Name]
		if !ok {
			return nil, fmt.Errorf("unknown loader '%s'", ref.Name)
		}
		query := make(map[string]any, len(ref.Options))
		for name, val := range ref.Options {
			native, err := conv.ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("loader '%s', option '%s': %w", ref.Name, name, err)
			}
			query[name] = native
		}
		links = append(links, loader.Link{Name: ref.Name, Stage: stage, Query: query})
	}
	return loader.NewChain(links...), nil
}

// BuildPlugins decodes the options of every configured plugin and constructs
// it, in configuration order.
func (r *Registry) BuildPlugins(ctx context.Context, m *config.Model, conv config.Converter) ([]hooks.NamedPlugin, error) {
	logger := ctxlog.FromContext(ctx)
	plugins := make([]hooks.NamedPlugin, 0, len(m.Plugins))

	for _, ref := range m.Plugins {
		def, ok := r.plugins[ref.Name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin '%s'", ref.Name)
		}

		var opts any
		if def.NewOptions != nil {
			opts = def.NewOptions()
			if err := conv.DecodeOptions(ctx, opts, ref.Options); err != nil {
				return nil, fmt.Errorf("plugin '%s': %w", ref.Name, err)
			}
		} else if len(ref.Options) > 0 {
			return nil, fmt.Errorf("plugin '%s' takes no options", ref.Name)
		}

		events := ref.Events
		if len(events) == 0 {
			events = def.Events
		}
		env := PluginEnv{Name: ref.Name, BaseDir: m.BaseDir, Events: append([]string(nil), events...)}

		p, err := def.New(ctxlog.WithLogger(ctx, logger.With("plugin", ref.Name)), env, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create plugin '%s': %w", ref.Name, err)
		}
		logger.Debug("Plugin created.", "plugin", ref.Name, "events", events)
		plugins = append(plugins, hooks.NamedPlugin{Name: ref.Name, Plugin: p})
	}
	return plugins, nil
}
