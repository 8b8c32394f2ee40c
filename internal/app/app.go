package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/hooks"
	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/orchestrator"
	"github.com/specialistvlad/packgrid/internal/registry"
	"github.com/specialistvlad/packgrid/internal/rules"
	"github.com/specialistvlad/packgrid/internal/storage"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW         io.Writer
	logger       *slog.Logger
	config       *Config
	model        *config.Model
	registry     *registry.Registry
	hooks        *hooks.Registry
	orchestrator *orchestrator.Orchestrator
	statusServer *http.Server
	statusAddr   string
}

// NewApp loads the build file named by cfg, registers modules, validates the
// configuration against them and assembles the orchestrator. With no modules
// given, the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgLoader, err := LoaderFor(cfg.ConfigPath, cfg.Env)
	if err != nil {
		return nil, err
	}
	cfgModel, converter, err := cfgLoader.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "entries", len(cfgModel.Entries), "rules", len(cfgModel.Rules), "plugins", len(cfgModel.Plugins))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "stages", reg.StageNames(), "plugins", reg.PluginNames())

	if err := reg.Validate(ctx, cfgModel); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	resolver, err := rules.New(cfgModel.Rules)
	if err != nil {
		return nil, err
	}
	chains := make([]*loader.Chain, len(cfgModel.Rules))
	for i, rule := range cfgModel.Rules {
		if chains[i], err = reg.BuildChain(rule.Use, converter); err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i, err)
		}
	}

	hookReg := hooks.New()
	plugins, err := reg.BuildPlugins(ctx, cfgModel, converter)
	if err != nil {
		return nil, err
	}
	if err := hookReg.Apply(ctx, plugins...); err != nil {
		return nil, err
	}

	deps := orchestrator.Deps{
		Resolver: resolver,
		Chains:   chains,
		Hooks:    hookReg,
		Reader:   storage.NewReader(),
	}
	opts := orchestrator.DefaultOptions()
	opts.Workers = cfg.Workers
	opts.HookTimeout = cfg.HookTimeout
	opts.StageTimeout = cfg.StageTimeout
	opts.KeepGoing = cfg.KeepGoing
	if out := cfgModel.Output; out != nil {
		opts.PassThroughUnmatched = out.PassThroughUnmatched
		opts.Filename = out.Filename
		if out.Path != "" {
			deps.Emitter = storage.NewEmitter(out.Path)
		}
	}
	orch, err := orchestrator.New(deps, opts)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:         outW,
		logger:       logger,
		config:       cfg,
		model:        cfgModel,
		registry:     reg,
		hooks:        hookReg,
		orchestrator: orch,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Hooks returns the application's hook registry.
func (a *App) Hooks() *hooks.Registry {
	return a.hooks
}

// Model returns the loaded build configuration.
func (a *App) Model() *config.Model {
	return a.model
}

// Status returns the orchestrator's current status.
func (a *App) Status() orchestrator.Status {
	return a.orchestrator.Status()
}
