package orchestrator

import (
	"sync"
	"time"

	"github.com/specialistvlad/packgrid/internal/model"
)

// Phase is the step of the build an orchestrator is in.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseHook       Phase = "hook"
	PhaseWriting    Phase = "writing"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Phase     Phase        `json:"phase"`
	Event     string       `json:"event,omitempty"`
	StartedAt time.Time    `json:"started_at,omitzero"`
	Stats     *model.Stats `json:"stats,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type tracker struct {
	mu    sync.RWMutex
	phase Phase
	event string
	comp  *model.Compilation
	err   error
}

func (t *tracker) set(phase Phase, event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
	t.event = event
}

func (t *tracker) start(comp *model.Compilation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase, t.event, t.comp, t.err = PhaseProcessing, "", comp, nil
}

func (t *tracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.event = ""
	t.err = err
	if err != nil {
		t.phase = PhaseFailed
	} else {
		t.phase = PhaseDone
	}
}

func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Status{Phase: t.phase, Event: t.event}
	if s.Phase == "" {
		s.Phase = PhaseIdle
	}
	if t.comp != nil {
		stats := t.comp.Stats()
		s.Stats = &stats
		s.StartedAt = t.comp.StartedAt
	}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	return s
}
