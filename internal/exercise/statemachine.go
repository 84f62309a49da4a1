package exercise

import (
	"fmt"
	"log"
)

// PhaseMachine tracks the current motion phase of an exercise, driven by the
// exercise's driving angle. Transitions are taken from the config's table in
// order, with a minimum dwell time between consecutive transitions to reject
// landmark jitter. The machine cycles for the lifetime of a session; there is
// no terminal phase.
type PhaseMachine struct {
	phases      map[Phase]bool
	transitions []Transition
	rest        Phase
	dwellMs     int64

	current      Phase
	lastChangeMs int64
	changed      bool
}

// NewPhaseMachine builds a phase machine from an exercise config. It fails
// if the config has no phases, no rest phase, or a transition that names an
// unregistered phase.
func NewPhaseMachine(cfg Config) (*PhaseMachine, error) {
	if len(cfg.Phases) == 0 {
		return nil, fmt.Errorf("exercise %q has no phases", cfg.Type)
	}

	phases := make(map[Phase]bool, len(cfg.Phases))
	for _, p := range cfg.Phases {
		phases[p] = true
	}

	if !phases[cfg.RestPhase] {
		return nil, fmt.Errorf("exercise %q rest phase %q is not in the phase list", cfg.Type, cfg.RestPhase)
	}

	for _, t := range cfg.Transitions {
		if !phases[t.From] {
			return nil, fmt.Errorf("exercise %q transition from unregistered phase %q", cfg.Type, t.From)
		}
		if !phases[t.To] {
			return nil, fmt.Errorf("exercise %q transition to unregistered phase %q", cfg.Type, t.To)
		}
	}

	dwell := cfg.DwellMs
	if dwell <= 0 {
		dwell = DefaultDwellMs
	}

	return &PhaseMachine{
		phases:      phases,
		transitions: cfg.Transitions,
		rest:        cfg.RestPhase,
		dwellMs:     dwell,
		current:     cfg.RestPhase,
	}, nil
}

// Current returns the current phase.
func (m *PhaseMachine) Current() Phase {
	return m.current
}

// Advance feeds one driving-angle sample into the machine. It applies the
// first transition in table order whose From matches the current phase and
// whose condition the angle satisfies. A candidate transition inside the
// dwell window is ignored, not queued. Returns whether a transition fired
// and whether it completed a rep.
func (m *PhaseMachine) Advance(angle float64, nowMs int64) (transitioned, completedRep bool) {
	for _, t := range m.transitions {
		if t.From != m.current {
			continue
		}
		if !t.When.Met(angle) {
			continue
		}

		if m.changed && nowMs-m.lastChangeMs < m.dwellMs {
			return false, false
		}

		m.current = t.To
		m.lastChangeMs = nowMs
		m.changed = true
		return true, t.CompletesRep
	}

	return false, false
}

// Force moves the machine to the given phase directly. An unregistered phase
// is logged and ignored.
func (m *PhaseMachine) Force(p Phase, nowMs int64) {
	if !m.phases[p] {
		log.Printf("phase machine: ignoring unregistered phase %q", p)
		return
	}
	m.current = p
	m.lastChangeMs = nowMs
	m.changed = true
}

// Reset returns the machine to the rest phase and clears the dwell window.
// Call between sessions, never mid-session.
func (m *PhaseMachine) Reset() {
	m.current = m.rest
	m.lastChangeMs = 0
	m.changed = false
}
