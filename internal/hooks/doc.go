// Package hooks implements the lifecycle hook registry: named events to which
// independent plugins attach callbacks, and a dispatcher that fires an event
// as a fan-out/fan-in barrier.
//
// Callbacks come in two variants. A sync callback runs to completion before
// the next registration is invoked. An async callback receives a Done handle
// and may return right away; the dispatcher starts the next registration
// without waiting for it. Fire resolves only once every sync callback has
// returned and every async callback has called Done, in whatever order they
// finish.
//
// A failing callback does not cancel its siblings. Fire records the first
// error, waits for everything still in flight and then reports a HookFailure
// carrying that error and the number of failed callbacks.
//
// The registry has no timeout of its own. A callback that never calls Done
// stalls Fire until the caller's context ends; the orchestrator applies a
// bounded wait for that reason.
package hooks
