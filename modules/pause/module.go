// Package pause provides the "pause" plugin: an async hook callback that
// waits for a while, logs a message and completes.
package pause

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Options defines the arguments of the pause plugin.
type Options struct {
	Duration time.Duration  `pg:"duration"`
	Message  string         `pg:"message"`
	Data     map[string]any `pg:"data"`
}

// Plugin waits Duration on each subscribed event.
type Plugin struct {
	env  registry.PluginEnv
	opts *Options
}

// New creates the plugin. Its options are logged once, at construction.
func New(ctx context.Context, env registry.PluginEnv, opts *Options) (*Plugin, error) {
	if opts.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative, got %s", opts.Duration)
	}
	ctxlog.FromContext(ctx).Info("Pause plugin configured.", "duration", opts.Duration, "data", opts.Data)
	return &Plugin{env: env, opts: opts}, nil
}

// Apply implements hooks.Plugin.
func (p *Plugin) Apply(r hooks.Registrar) error {
	for _, event := range p.env.Events {
		r.Register(event, hooks.AsyncCallback(p.env.Name, p.wait))
	}
	return nil
}

func (p *Plugin) wait(ctx context.Context, _ any, done hooks.Done) {
	logger := ctxlog.FromContext(ctx)
	timer := time.NewTimer(p.opts.Duration)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			logger.Info(p.opts.Message)
			done(nil)
		case <-ctx.Done():
			done(ctx.Err())
		}
	}()
}

// Register registers the plugin with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlugin("pause", &registry.RegisteredPlugin{
		Events: []string{"emit"},
		NewOptions: func() any {
			return &Options{Duration: time.Second, Message: "Done with async work..."}
		},
		New: func(ctx context.Context, env registry.PluginEnv, options any) (hooks.Plugin, error) {
			return New(ctx, env, options.(*Options))
		},
	})
}
