package hooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/failure"
)

// State is the lifecycle of a single Fire call.
type State int32

const (
	Idle State = iota
	Dispatching
	AwaitingCompletions
	Resolved
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	case AwaitingCompletions:
		return "awaiting_completions"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Failure aggregates the callback errors of one Fire call.
type Failure struct {
	Event    string
	Callback string
	First    error
	Failed   int
	Total    int
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%d of %d callbacks failed, first %q: %v", f.Failed, f.Total, f.Callback, f.First)
}

// Unwrap returns the first recorded callback error.
func (f *Failure) Unwrap() error { return f.First }

// firing is one dispatch of an event. It is used once.
type firing struct {
	event     string
	callbacks []Callback
	state     atomic.Int32
	wg        sync.WaitGroup
	pending   atomic.Int32

	mu        sync.Mutex
	first     error
	firstName string
	failed    int
}

func newFiring(event string, callbacks []Callback) *firing {
	return &firing{event: event, callbacks: callbacks}
}

func (f *firing) transition(from, to State) {
	if !f.state.CompareAndSwap(int32(from), int32(to)) {
		panic(fmt.Sprintf("hooks: fire %q cannot move from %s to %s", f.event, State(f.state.Load()), to))
	}
}

func (f *firing) record(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed++
	if f.first == nil {
		f.first = err
		f.firstName = name
	}
}

func (f *firing) run(ctx context.Context, payload any) error {
	ctx, logger := ctxlog.With(ctx, "event", f.event)
	f.transition(Idle, Dispatching)
	logger.Debug("Dispatching hook callbacks.", "count", len(f.callbacks))

	f.wg.Add(len(f.callbacks))
	f.pending.Store(int32(len(f.callbacks)))
	for i, cb := range f.callbacks {
		cbCtx, cbLogger := ctxlog.With(ctx, "callback", cb.Name, "index", i)
		cbLogger.Debug("Invoking hook callback.", "mode", cb.mode)
		switch cb.mode {
		case Sync:
			f.invokeSync(cbCtx, cb, payload)
		case Async:
			f.invokeAsync(cbCtx, cbLogger, cb, payload)
		}
	}

	f.transition(Dispatching, AwaitingCompletions)
	waitCh := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-ctx.Done():
		pending := f.pending.Load()
		logger.Error("Hook barrier abandoned.", "pending", pending, "error", ctx.Err())
		f.state.Store(int32(Failed))
		err := fmt.Errorf("%d of %d callbacks still pending: %w", pending, len(f.callbacks), ctx.Err())
		if errors.Is(err, context.DeadlineExceeded) {
			return failure.New(failure.Timeout, f.event, err)
		}
		return fmt.Errorf("fire %q interrupted: %w", f.event, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.first != nil {
		f.transition(AwaitingCompletions, Failed)
		logger.Error("Hook failed.", "failed", f.failed, "total", len(f.callbacks), "callback", f.firstName, "error", f.first)
		return failure.New(failure.HookFailure, f.event, &Failure{
			Event:    f.event,
			Callback: f.firstName,
			First:    f.first,
			Failed:   f.failed,
			Total:    len(f.callbacks),
		})
	}
	f.transition(AwaitingCompletions, Resolved)
	logger.Debug("Hook resolved.", "count", len(f.callbacks))
	return nil
}

func (f *firing) complete() {
	f.pending.Add(-1)
	f.wg.Done()
}

func (f *firing) invokeSync(ctx context.Context, cb Callback, payload any) {
	defer f.complete()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return cb.sync(ctx, payload)
	}()
	if err != nil {
		f.record(cb.Name, err)
	}
}

func (f *firing) invokeAsync(ctx context.Context, logger *slog.Logger, cb Callback, payload any) {
	var signaled atomic.Bool
	done := func(err error) {
		if !signaled.CompareAndSwap(false, true) {
			logger.Warn("Done invoked more than once, signal dropped.")
			return
		}
		if err != nil {
			f.record(cb.Name, err)
		}
		f.complete()
	}

	defer func() {
		if r := recover(); r != nil {
			done(fmt.Errorf("panic: %v", r))
		}
	}()
	cb.async(ctx, payload, done)
}
