package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/loader"
)

// Module is the interface that all compiled-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// PluginEnv is what a plugin factory knows about its configuration site.
type PluginEnv struct {
	// Name is the name the plugin was configured under.
	Name string
	// BaseDir is the configuration file directory.
	BaseDir string
	// Events are the events the plugin subscribes to.
	Events []string
}

// RegisteredPlugin holds the compiled Go parts of a plugin.
type RegisteredPlugin struct {
	// Events are subscribed when the configuration names none.
	Events []string
	// NewOptions returns a pointer to an options struct holding defaults.
	// Nil means the plugin takes no options.
	NewOptions func() any
	// New builds the plugin from its decoded options.
	New func(ctx context.Context, env PluginEnv, options any) (hooks.Plugin, error)
}

// Registry holds the registered stages and plugins of one application
// instance.
type Registry struct {
	stages  map[string]loader.Stage
	plugins map[string]*RegisteredPlugin
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		stages:  make(map[string]loader.Stage),
		plugins: make(map[string]*RegisteredPlugin),
	}
}

// RegisterStage registers a loader stage under name.
func (r *Registry) RegisterStage(name string, stage loader.Stage) {
	if _, exists := r.stages[name]; exists {
		panic(fmt.Sprintf("stage with name '%s' already registered", name))
	}
	if stage == nil {
		panic(fmt.Sprintf("stage '%s' is nil", name))
	}
	slog.Debug("Registering stage.", "name", name)
	r.stages[name] = stage
}

// RegisterPlugin registers a plugin factory under name.
func (r *Registry) RegisterPlugin(name string, plugin *RegisteredPlugin) {
	if _, exists := r.plugins[name]; exists {
		panic(fmt.Sprintf("plugin with name '%s' already registered", name))
	}
	if plugin == nil || plugin.New == nil {
		panic(fmt.Sprintf("plugin '%s' has no constructor", name))
	}
	slog.Debug("Registering plugin.", "name", name)
	r.plugins[name] = plugin
}

// Stage returns the stage registered under name.
func (r *Registry) Stage(name string) (loader.Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Plugin returns the plugin registered under name.
func (r *Registry) Plugin(name string) (*RegisteredPlugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// StageNames returns the names of all registered stages, sorted.
func (r *Registry) StageNames() []string {
	return sortedKeys(r.stages)
}

// PluginNames returns the names of all registered plugins, sorted.
func (r *Registry) PluginNames() []string {
	return sortedKeys(r.plugins)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
