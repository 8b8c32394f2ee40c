// Package orchestrator drives one build phase: it resolves and runs the loader
// chain of every entry resource concurrently, records the results in a
// Compilation, and then fires the lifecycle hooks beforeEmit, emit and
// afterEmit, each as a full barrier. Assets are written between emit and
// afterEmit.
//
// The hook registry and the loader chain have no timeouts of their own. The
// orchestrator bounds every hook fire and, optionally, every chain execution
// with a context deadline; an expired deadline is reported as a Timeout.
package orchestrator
