package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/failure"
	"github.com/specialistvlad/packgrid/internal/loader"
	"github.com/specialistvlad/packgrid/internal/model"
	"github.com/specialistvlad/packgrid/internal/rules"
	"golang.org/x/sync/errgroup"
)

// Reader loads a resource by location.
type Reader interface {
	Read(ctx context.Context, location string) (*model.Resource, error)
}

// Emitter writes an asset under the output location.
type Emitter interface {
	Emit(ctx context.Context, name string, content []byte) error
}

// Resolver selects the rule for a resource path.
type Resolver interface {
	Resolve(path string) (*rules.Rule, error)
}

// Hooks fires lifecycle events.
type Hooks interface {
	Fire(ctx context.Context, event string, payload any) error
}

// Deps are the collaborators of an Orchestrator. Chains is indexed by rule
// index. Emitter may be nil, in which case no assets are written.
type Deps struct {
	Resolver Resolver
	Chains   []*loader.Chain
	Hooks    Hooks
	Reader   Reader
	Emitter  Emitter
}

// Orchestrator drives build phases.
type Orchestrator struct {
	deps   Deps
	opts   Options
	status tracker
}

// New creates an Orchestrator.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Resolver == nil || deps.Hooks == nil || deps.Reader == nil {
		return nil, errors.New("orchestrator requires a resolver, hooks and a reader")
	}
	if opts.Filename == "" {
		opts.Filename = DefaultOptions().Filename
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{deps: deps, opts: opts}, nil
}

// Status returns the current phase and compilation summary.
func (o *Orchestrator) Status() Status {
	return o.status.snapshot()
}

// Run executes one build phase over entries. The Compilation is returned
// even when the phase fails; partial results are kept.
func (o *Orchestrator) Run(ctx context.Context, entries []string) (*model.Compilation, error) {
	comp := model.NewCompilation()
	ctx, logger := ctxlog.With(ctx, "compilation", comp.ID)
	o.status.start(comp)
	logger.Info("Starting build phase.", "entries", len(entries), "workers", o.opts.Workers)

	err := o.run(ctx, comp, entries)
	o.status.finish(err)
	stats := comp.Stats()
	if err != nil {
		logger.Error("Build phase failed.", "modules", stats.Modules, "failed", stats.Failed, "error", err)
		return comp, err
	}
	logger.Info("Build phase finished.", "modules", stats.Modules, "assets", stats.Assets, "duration", time.Since(comp.StartedAt))
	return comp, nil
}

func (o *Orchestrator) run(ctx context.Context, comp *model.Compilation, entries []string) error {
	failures, err := o.process(ctx, comp, entries)
	if err != nil {
		return err
	}
	if len(failures) > 0 && !o.opts.KeepGoing {
		return newPhaseError(failures)
	}

	if err := o.renderAssets(ctx, comp); err != nil {
		return err
	}
	for _, event := range Events {
		if event == EventAfterEmit {
			if err := o.writeAssets(ctx, comp); err != nil {
				return err
			}
		}
		if err := o.fire(ctx, comp, event); err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		return newPhaseError(failures)
	}
	return nil
}

// process runs the chain of every entry, at most Workers at a time. Without
// KeepGoing the first failure cancels the executions still in flight; those
// are not recorded.
func (o *Orchestrator) process(ctx context.Context, comp *model.Compilation, entries []string) ([]*model.Module, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, entry := range entries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			m := o.build(gctx, entry)
			if m == nil {
				return nil
			}
			comp.SetModule(m.Path, m)
			if m.Failed() && !o.opts.KeepGoing {
				return m.Err
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build phase interrupted: %w", err)
	}
	return comp.Failures(), nil
}

// build resolves the rule for one entry, reads it and executes its chain. An
// entry no rule matches is never read unless it passes through. It returns
// nil when the execution was aborted by a sibling failure.
func (o *Orchestrator) build(ctx context.Context, entry string) *model.Module {
	logger := ctxlog.FromContext(ctx).With("resource", entry)
	start := time.Now()
	m := &model.Module{Path: filepath.Clean(entry)}
	finish := func(err error) *model.Module {
		m.Err = err
		m.Duration = time.Since(start)
		if err != nil {
			logger.Error("Resource failed.", "error", err)
		}
		return m
	}

	rule, err := o.deps.Resolver.Resolve(m.Path)
	passThrough := false
	if err != nil {
		if !o.opts.PassThroughUnmatched || !errors.Is(err, failure.ErrNoMatchingRule) {
			return finish(err)
		}
		passThrough = true
	}

	res, err := o.deps.Reader.Read(ctx, entry)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return finish(fmt.Errorf("%s: %w", m.Path, err))
	}
	m.Resource = res
	m.Path = res.Path()

	if passThrough {
		logger.Warn("No rule matches resource, passing raw content through.")
		m.Value = res.Content()
		return finish(nil)
	}
	if rule.Index >= len(o.deps.Chains) || o.deps.Chains[rule.Index] == nil {
		return finish(fmt.Errorf("%s: no chain built for rule #%d", m.Path, rule.Index))
	}
	logger.Debug("Resolved rule.", "rule", rule.Index)

	chainCtx := ctx
	if o.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		chainCtx, cancel = context.WithTimeout(ctx, o.opts.StageTimeout)
		defer cancel()
	}
	out, err := o.deps.Chains[rule.Index].Run(chainCtx, res)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Resource aborted.", "error", err)
			return nil
		}
		return finish(err)
	}
	m.Value = out.Value
	m.Cacheable = out.Cacheable
	return finish(nil)
}

// fire dispatches one lifecycle event within the hook timeout.
func (o *Orchestrator) fire(ctx context.Context, comp *model.Compilation, event string) error {
	o.status.set(PhaseHook, event)
	ctxlog.FromContext(ctx).Info("Firing hook.", "event", event)

	if o.opts.HookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.HookTimeout)
		defer cancel()
	}
	if err := o.deps.Hooks.Fire(ctx, event, comp); err != nil {
		return &HookError{Event: event, Err: err}
	}
	return nil
}
