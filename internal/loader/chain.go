package loader

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/failure"
	"github.com/specialistvlad/packgrid/internal/model"
)

// Link binds a stage to the query options of one loader reference.
type Link struct {
	Name  string
	Stage Stage
	Query map[string]any
}

// Chain is an ordered, immutable sequence of links.
type Chain struct {
	links []Link
}

// NewChain creates a chain. Links are listed in configuration order; the
// last one runs first.
func NewChain(links ...Link) *Chain {
	return &Chain{links: append([]Link(nil), links...)}
}

// Len returns the number of stages in the chain.
func (c *Chain) Len() int { return len(c.links) }

// Names returns the stage names in configuration order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.links))
	for i, l := range c.links {
		names[i] = l.Name
	}
	return names
}

// Output is the result of one chain execution.
type Output struct {
	Value     any
	Cacheable bool
	Duration  time.Duration
}

// Run applies the chain to res and returns the final value. The first stage
// error stops the chain; no later stage runs. Run is safe to call
// concurrently on different resources.
func (c *Chain) Run(ctx context.Context, res *model.Resource) (*Output, error) {
	ctx, logger := ctxlog.With(ctx, "resource", res.Path())
	logger.Debug("Starting loader chain.", "stages", c.Names())
	start := time.Now()

	exec := &execution{}
	var current any = res.Content()
	for i := len(c.links) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, abortErr(res.Path(), c.links[i].Name, err)
		}
		next, err := c.invoke(ctx, exec, i, res, current)
		if err != nil {
			logger.Error("Loader chain failed.", "stage", c.links[i].Name, "error", err)
			return nil, err
		}
		current = next
	}

	out := &Output{Value: current, Cacheable: exec.cacheable.Load(), Duration: time.Since(start)}
	logger.Debug("Loader chain finished.", "cacheable", out.Cacheable, "duration", out.Duration)
	return out, nil
}

// invoke runs the stage at index i and waits for it if it detached.
func (c *Chain) invoke(ctx context.Context, exec *execution, i int, res *model.Resource, input any) (any, error) {
	link := c.links[i]
	ctx, logger := ctxlog.With(ctx, "stage", link.Name)

	inv := newInvocation(logger, link.Name)
	lc := &Context{
		Stage:             link.Name,
		Query:             maps.Clone(link.Query),
		ResourcePath:      res.Path(),
		ResourceDirectory: res.Dir(),
		ctx:               ctx,
		exec:              exec,
		inv:               inv,
	}

	logger.Debug("Invoking stage.", "index", i)
	result := call(link.Stage, lc, input)
	detached := inv.detached.Load()

	switch result.kind {
	case resultValue:
		if detached {
			return nil, violation(res, link, "stage detached and also returned a value")
		}
		logger.Debug("Stage completed immediately.")
		return result.value, nil

	case resultError:
		if detached && !result.panicked {
			return nil, violation(res, link, "stage detached and also returned an error")
		}
		return nil, failure.New(failure.StageFailure, res.Path(), &StageError{Stage: link.Name, Index: i, Err: result.err})

	case resultDeferred:
		if !detached {
			return nil, violation(res, link, "stage returned Detach without requesting a completion handle")
		}
		logger.Debug("Stage detached, waiting for completion.")
		select {
		case comp := <-inv.done:
			if comp.err != nil {
				return nil, failure.New(failure.StageFailure, res.Path(), &StageError{Stage: link.Name, Index: i, Err: comp.err})
			}
			logger.Debug("Deferred stage completed.")
			return comp.value, nil
		case <-ctx.Done():
			return nil, abortErr(res.Path(), link.Name, ctx.Err())
		}

	default:
		return nil, violation(res, link, "stage neither returned a value nor detached")
	}
}

// call invokes the stage, converting a panic into a failed result.
func call(stage Stage, lc *Context, input any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{kind: resultError, err: fmt.Errorf("panic: %v", r), panicked: true}
		}
	}()
	return stage.Run(lc, input)
}

func violation(res *model.Resource, link Link, msg string) error {
	return failure.Errorf(failure.ProtocolViolation, res.Path(), "stage %q: %s", link.Name, msg)
}

// abortErr reports a wait that ended because the execution context is done.
// Deadlines are timeouts; cancellations are passed through.
func abortErr(path, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.New(failure.Timeout, path, fmt.Errorf("waiting for stage %q: %w", stage, err))
	}
	return fmt.Errorf("chain for %s aborted at stage %q: %w", path, stage, err)
}
