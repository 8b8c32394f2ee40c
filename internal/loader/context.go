package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
)

// Callback is the single-shot completion handle of a detached stage.
// Only the first call counts; later calls are dropped and logged.
type Callback func(value any, err error)

// execution is the state shared by all stage invocations of one chain run.
type execution struct {
	cacheable atomic.Bool
}

type completion struct {
	value any
	err   error
}

// invocation tracks how a single stage call chose to complete.
type invocation struct {
	detached atomic.Bool
	fired    atomic.Bool
	done     chan completion
	callback Callback
}

func newInvocation(logger *slog.Logger, stage string) *invocation {
	inv := &invocation{done: make(chan completion, 1)}
	inv.callback = func(value any, err error) {
		if !inv.fired.CompareAndSwap(false, true) {
			logger.Warn("Completion handle invoked more than once, signal dropped.", "stage", stage)
			return
		}
		inv.done <- completion{value: value, err: err}
	}
	return inv
}

// Context is created for every stage invocation. Query is a copy of the
// loader reference's options owned by this invocation; the cacheable flag
// belongs to the whole chain run.
type Context struct {
	Stage             string
	Query             map[string]any
	ResourcePath      string
	ResourceDirectory string

	ctx  context.Context
	exec *execution
	inv  *invocation
}

// Context returns the context of the chain execution. Detached stages should
// stop their work when it is done.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Logger returns the logger scoped to this resource and stage.
func (c *Context) Logger() *slog.Logger {
	return ctxlog.FromContext(c.ctx)
}

// Cacheable marks the chain's output as cacheable. The flag never goes back
// to false within the same execution.
func (c *Context) Cacheable() {
	c.exec.cacheable.Store(true)
}

// IsCacheable reports whether any stage so far marked the output cacheable.
func (c *Context) IsCacheable() bool {
	return c.exec.cacheable.Load()
}

// Async switches the invocation to deferred completion and returns its
// completion handle. The stage must then return Detach().
func (c *Context) Async() Callback {
	c.inv.detached.Store(true)
	return c.inv.callback
}

// QueryString returns the string option name, or fallback when it is absent.
func (c *Context) QueryString(name, fallback string) string {
	v, ok := c.Query[name]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// QueryStrings returns the list option name. A single string is treated as a
// one-element list.
func (c *Context) QueryStrings(name string) []string {
	switch v := c.Query[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// QueryInt returns the integer option name, or fallback when it is absent
// or not a number.
func (c *Context) QueryInt(name string, fallback int) int {
	switch v := c.Query[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
