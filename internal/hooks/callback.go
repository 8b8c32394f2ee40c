package hooks

import (
	"context"
	"fmt"
)

// Mode tells the dispatcher how a callback signals completion.
type Mode int

const (
	Sync Mode = iota + 1
	Async
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SyncFunc completes when it returns.
type SyncFunc func(ctx context.Context, payload any) error

// Done is the completion handle of an async callback. Only the first call
// counts.
type Done func(err error)

// AsyncFunc completes when it calls done, which may happen after it returns.
type AsyncFunc func(ctx context.Context, payload any, done Done)

// Callback is a registered callback variant. Name identifies the subscriber
// in logs and failure reports, usually the plugin name.
type Callback struct {
	Name  string
	mode  Mode
	sync  SyncFunc
	async AsyncFunc
}

// SyncCallback wraps fn as a sync callback.
func SyncCallback(name string, fn SyncFunc) Callback {
	return Callback{Name: name, mode: Sync, sync: fn}
}

// AsyncCallback wraps fn as an async callback.
func AsyncCallback(name string, fn AsyncFunc) Callback {
	return Callback{Name: name, mode: Async, async: fn}
}

// Mode returns the callback's completion mode.
func (c Callback) Mode() Mode { return c.mode }

func (c Callback) valid() bool {
	switch c.mode {
	case Sync:
		return c.sync != nil
	case Async:
		return c.async != nil
	default:
		return false
	}
}

// Registrar is the handle plugins receive while they are applied.
type Registrar interface {
	Register(event string, cb Callback)
}

// Plugin subscribes callbacks to lifecycle events. Apply is called once at
// setup time.
type Plugin interface {
	Apply(r Registrar) error
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(r Registrar) error

// Apply implements Plugin.
func (f PluginFunc) Apply(r Registrar) error { return f(r) }
