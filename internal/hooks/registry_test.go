package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/packgrid/internal/ctxlog"
	"github.com/specialistvlad/packgrid/internal/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// recorder collects callback names in the order they complete.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestFire_SyncCallbacksRunInRegistrationOrder(t *testing.T) {
	reg := New()
	rec := &recorder{}
	for _, name := range []string{"one", "two", "three"} {
		name := name
		reg.Register("emit", SyncCallback(name, func(ctx context.Context, payload any) error {
			rec.add(name)
			return nil
		}))
	}

	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	assert.Equal(t, []string{"one", "two", "three"}, rec.get())
}

func TestFire_NoRegistrationsResolvesImmediately(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Fire(testContext(), "beforeEmit", nil))
	assert.Equal(t, 0, reg.Count("beforeEmit"))
}

func TestRegister_DuplicatesBothFire(t *testing.T) {
	reg := New()
	var calls atomic.Int32
	cb := SyncCallback("dup", func(ctx context.Context, payload any) error {
		calls.Add(1)
		return nil
	})
	reg.Register("emit", cb)
	reg.Register("emit", cb)

	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, reg.Count("emit"))
}

func TestRegister_InvalidCallbackPanics(t *testing.T) {
	reg := New()
	assert.Panics(t, func() { reg.Register("emit", Callback{Name: "empty"}) })
	assert.Panics(t, func() { reg.Register("", SyncCallback("x", func(context.Context, any) error { return nil })) })
}

func TestFire_PayloadIsPassedToEveryCallback(t *testing.T) {
	reg := New()
	payload := &struct{ Name string }{Name: "compilation"}
	var seen []any
	var mu sync.Mutex
	reg.Register("emit", SyncCallback("s", func(ctx context.Context, p any) error {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		return nil
	}))
	reg.Register("emit", AsyncCallback("a", func(ctx context.Context, p any, done Done) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
		done(nil)
	}))

	require.NoError(t, reg.Fire(testContext(), "emit", payload))
	require.Len(t, seen, 2)
	assert.Same(t, payload, seen[0])
	assert.Same(t, payload, seen[1])
}

// TestFire_TwoAsyncPluginsResolveAfterTheLaterSignal mirrors two plugins doing
// independent async work on "emit".
func TestFire_TwoAsyncPluginsResolveAfterTheLaterSignal(t *testing.T) {
	reg := New()
	rec := &recorder{}
	delays := map[string]time.Duration{"slow": 120 * time.Millisecond, "fast": 20 * time.Millisecond}
	for _, name := range []string{"slow", "fast"} {
		name := name
		reg.Register("emit", AsyncCallback(name, func(ctx context.Context, payload any, done Done) {
			time.AfterFunc(delays[name], func() {
				rec.add(name)
				done(nil)
			})
		}))
	}

	start := time.Now()
	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, delays["slow"])
	assert.Less(t, elapsed, delays["slow"]+delays["fast"]+200*time.Millisecond, "async callbacks must run concurrently")
	assert.Equal(t, []string{"fast", "slow"}, rec.get(), "completion order is independent of registration order")
}

func TestFire_WaitsForSyncAndAsync(t *testing.T) {
	reg := New()
	var completed atomic.Int32
	const k, m = 3, 4
	for i := 0; i < k; i++ {
		reg.Register("emit", SyncCallback("sync", func(ctx context.Context, payload any) error {
			completed.Add(1)
			return nil
		}))
	}
	for i := 0; i < m; i++ {
		i := i
		reg.Register("emit", AsyncCallback("async", func(ctx context.Context, payload any, done Done) {
			go func() {
				time.Sleep(time.Duration(i*10) * time.Millisecond)
				completed.Add(1)
				done(nil)
			}()
		}))
	}

	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	assert.Equal(t, int32(k+m), completed.Load())
}

func TestFire_NeverCompletingAsyncCallbackStallsFire(t *testing.T) {
	reg := New()
	reg.Register("emit", SyncCallback("ok", func(ctx context.Context, payload any) error { return nil }))
	reg.Register("emit", AsyncCallback("forgetful", func(ctx context.Context, payload any, done Done) {}))

	resolved := make(chan struct{})
	go func() {
		_ = reg.Fire(testContext(), "emit", nil)
		close(resolved)
	}()

	select {
	case <-resolved:
		t.Fatal("fire must not resolve while a completion signal is missing")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFire_ContextDeadlineReportsTimeout(t *testing.T) {
	reg := New()
	reg.Register("emit", AsyncCallback("forgetful", func(ctx context.Context, payload any, done Done) {}))

	ctx, cancel := context.WithTimeout(testContext(), 30*time.Millisecond)
	defer cancel()

	err := reg.Fire(ctx, "emit", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "1 of 1 callbacks still pending")
}

func TestFire_CancellationIsNotATimeout(t *testing.T) {
	reg := New()
	reg.Register("emit", AsyncCallback("forgetful", func(ctx context.Context, payload any, done Done) {}))

	ctx, cancel := context.WithCancel(testContext())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := reg.Fire(ctx, "emit", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, failure.ErrTimeout)
	_, ok := failure.KindOf(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), `fire "emit" interrupted`)
}

func TestFire_FailureWaitsForSiblings(t *testing.T) {
	reg := New()
	var siblingDone atomic.Bool
	reg.Register("emit", AsyncCallback("slow-sibling", func(ctx context.Context, payload any, done Done) {
		time.AfterFunc(80*time.Millisecond, func() {
			siblingDone.Store(true)
			done(nil)
		})
	}))
	reg.Register("emit", SyncCallback("broken", func(ctx context.Context, payload any) error {
		return errors.New("first failure")
	}))
	reg.Register("emit", AsyncCallback("also-broken", func(ctx context.Context, payload any, done Done) {
		go done(errors.New("second failure"))
	}))

	err := reg.Fire(testContext(), "emit", nil)
	require.Error(t, err)
	assert.True(t, siblingDone.Load(), "fire must wait for in-flight siblings before failing")
	assert.ErrorIs(t, err, failure.ErrHookFailure)

	var hf *Failure
	require.ErrorAs(t, err, &hf)
	assert.Equal(t, "emit", hf.Event)
	assert.Equal(t, "broken", hf.Callback)
	assert.EqualError(t, hf.First, "first failure")
	assert.Equal(t, 2, hf.Failed)
	assert.Equal(t, 3, hf.Total)
}

func TestFire_SyncPanicIsRecorded(t *testing.T) {
	reg := New()
	reg.Register("emit", SyncCallback("panicky", func(ctx context.Context, payload any) error {
		panic("nope")
	}))
	err := reg.Fire(testContext(), "emit", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nope")
}

func TestFire_DoneIsSingleShot(t *testing.T) {
	reg := New()
	reg.Register("emit", AsyncCallback("twice", func(ctx context.Context, payload any, done Done) {
		done(nil)
		done(errors.New("late"))
	}))
	reg.Register("emit", AsyncCallback("other", func(ctx context.Context, payload any, done Done) {
		go done(nil)
	}))
	require.NoError(t, reg.Fire(testContext(), "emit", nil))
}

func TestFire_RegistrationsDuringFireAreNotDispatched(t *testing.T) {
	reg := New()
	var lateCalls atomic.Int32
	reg.Register("emit", SyncCallback("registers-more", func(ctx context.Context, payload any) error {
		reg.Register("emit", SyncCallback("late", func(ctx context.Context, payload any) error {
			lateCalls.Add(1)
			return nil
		}))
		return nil
	}))

	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	assert.Equal(t, int32(0), lateCalls.Load())

	require.NoError(t, reg.Fire(testContext(), "emit", nil))
	assert.Equal(t, int32(1), lateCalls.Load())
}

func TestApply_PluginsRegisterCallbacks(t *testing.T) {
	reg := New()
	plugin := PluginFunc(func(r Registrar) error {
		r.Register("emit", SyncCallback("p", func(ctx context.Context, payload any) error { return nil }))
		r.Register("afterEmit", SyncCallback("p", func(ctx context.Context, payload any) error { return nil }))
		return nil
	})
	require.NoError(t, reg.Apply(testContext(), NamedPlugin{Name: "p", Plugin: plugin}))
	assert.Equal(t, []string{"afterEmit", "emit"}, reg.Events())

	broken := PluginFunc(func(r Registrar) error { return errors.New("bad options") })
	err := reg.Apply(testContext(), NamedPlugin{Name: "broken", Plugin: broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `plugin "broken"`)
}

func TestFiring_StateMachine(t *testing.T) {
	f := newFiring("emit", nil)
	assert.Equal(t, Idle, State(f.state.Load()))
	require.NoError(t, f.run(testContext(), nil))
	assert.Equal(t, Resolved, State(f.state.Load()))
	assert.Panics(t, func() { _ = f.run(testContext(), nil) }, "a fire may not re-enter dispatching")
}
