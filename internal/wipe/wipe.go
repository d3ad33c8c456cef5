// Package wipe gates the irreversible "clear all history" action behind a
// timed second press.
package wipe

import (
	"context"
	"time"
)

const DefaultWindow = 3 * time.Second

type Phase int

const (
	Idle Phase = iota
	Confirming
	// Wiping is held while the store call is in flight so that no second
	// wipe can start.
	Wiping
	Wiped
)

func (p Phase) String() string {
	switch p {
	case Confirming:
		return "confirming"
	case Wiping:
		return "wiping"
	case Wiped:
		return "wiped"
	default:
		return "idle"
	}
}

type State struct {
	Phase    Phase
	Deadline time.Time
}

type Action int

const (
	ActionNone Action = iota
	// ActionArm means a countdown to Deadline should be scheduled.
	ActionArm
	// ActionWipe means the caller must run the wipe and report back via Resolve.
	ActionWipe
)

type Wiper interface {
	Wipe(ctx context.Context) error
}

// Machine is owned by one goroutine; it does no locking.
type Machine struct {
	wiper  Wiper
	window time.Duration
	now    func() time.Time
	state  State
}

func New(w Wiper, window time.Duration) *Machine {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Machine{wiper: w, window: window, now: time.Now}
}

// SetClock replaces the time source.
func (m *Machine) SetClock(now func() time.Time) { m.now = now }

func (m *Machine) Window() time.Duration { return m.window }

// State reports the current state. A confirmation whose deadline has passed
// reads as Idle even if its countdown callback has not fired yet.
func (m *Machine) State() State {
	if m.state.Phase == Confirming && !m.now().Before(m.state.Deadline) {
		return State{Phase: Idle}
	}
	return m.state
}

// Trigger advances the machine on a button press.
func (m *Machine) Trigger() Action {
	switch m.State().Phase {
	case Idle:
		m.state = State{Phase: Confirming, Deadline: m.now().Add(m.window)}
		return ActionArm
	case Confirming:
		m.state = State{Phase: Wiping}
		return ActionWipe
	default:
		return ActionNone
	}
}

// Resolve records the outcome of the wipe started by ActionWipe. Failure
// returns the machine to Idle with nothing assumed wiped.
func (m *Machine) Resolve(err error) State {
	if m.state.Phase != Wiping {
		return m.State()
	}
	if err != nil {
		m.state = State{Phase: Idle}
	} else {
		m.state = State{Phase: Wiped}
	}
	return m.state
}

// Expire is the countdown callback for the confirmation armed with
// deadline. It only disarms that same confirmation; a newer arm or a wipe
// in progress makes it a no-op. It reports whether anything changed.
func (m *Machine) Expire(deadline time.Time) bool {
	if m.state.Phase != Confirming || !m.state.Deadline.Equal(deadline) {
		return false
	}
	m.state = State{Phase: Idle}
	return true
}

// Press is Trigger plus, when confirmed, a synchronous wipe.
func (m *Machine) Press(ctx context.Context) (State, error) {
	if m.Trigger() != ActionWipe {
		return m.State(), nil
	}
	err := m.wiper.Wipe(ctx)
	return m.Resolve(err), err
}
