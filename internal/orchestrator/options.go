package orchestrator

import (
	"errors"
	"time"

	"github.com/specialistvlad/packgrid/internal/config"
)

// Lifecycle event names, fired in this order.
const (
	EventBeforeEmit = "beforeEmit"
	EventEmit       = "emit"
	EventAfterEmit  = "afterEmit"
)

// Events is the fixed hook sequence of a build phase.
var Events = []string{EventBeforeEmit, EventEmit, EventAfterEmit}

// Options tune a build phase.
type Options struct {
	// Workers bounds concurrent chain executions.
	Workers int
	// HookTimeout bounds each hook fire. Zero waits forever.
	HookTimeout time.Duration
	// StageTimeout bounds each chain execution. Zero waits forever.
	StageTimeout time.Duration
	// KeepGoing collects resource failures instead of aborting the phase at
	// the first one.
	KeepGoing bool
	// PassThroughUnmatched stores the raw content of resources no rule
	// matches instead of failing them.
	PassThroughUnmatched bool
	// Filename is the asset name template.
	Filename string
}

// DefaultOptions returns the options used when none are set.
func DefaultOptions() Options {
	return Options{
		Workers:     10,
		HookTimeout: 60 * time.Second,
		Filename:    config.DefaultFilename,
	}
}

func (o Options) validate() error {
	if o.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if o.HookTimeout < 0 || o.StageTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}
