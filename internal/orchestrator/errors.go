package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/packgrid/internal/model"
)

// PhaseError reports the resources that failed in a build phase.
type PhaseError struct {
	Failures []*model.Module
	err      error
}

func newPhaseError(failures []*model.Module) *PhaseError {
	errs := make([]error, len(failures))
	for i, m := range failures {
		errs[i] = m.Err
	}
	return &PhaseError{Failures: failures, err: errors.Join(errs...)}
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	lines := make([]string, len(e.Failures))
	for i, m := range e.Failures {
		lines[i] = m.Err.Error()
	}
	return fmt.Sprintf("%d resource(s) failed:\n- %s", len(e.Failures), strings.Join(lines, "\n- "))
}

// Unwrap exposes the joined resource errors to errors.Is and errors.As.
func (e *PhaseError) Unwrap() error {
	return e.err
}

// HookError reports the hook fire that aborted the phase sequence.
type HookError struct {
	Event string
	Err   error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("build phase aborted at hook %q: %v", e.Event, e.Err)
}

// Unwrap returns the fire error.
func (e *HookError) Unwrap() error {
	return e.Err
}
