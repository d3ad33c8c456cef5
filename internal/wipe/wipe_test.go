package wipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingWiper struct {
	calls int
	err   error
}

func (w *countingWiper) Wipe(context.Context) error {
	w.calls++
	return w.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newMachine(w Wiper) (*Machine, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m := New(w, DefaultWindow)
	m.SetClock(clock.now)
	return m, clock
}

func TestTriggerArmsConfirmation(t *testing.T) {
	m, clock := newMachine(&countingWiper{})
	assert.Equal(t, Idle, m.State().Phase)

	assert.Equal(t, ActionArm, m.Trigger())
	st := m.State()
	assert.Equal(t, Confirming, st.Phase)
	assert.Equal(t, clock.t.Add(3*time.Second), st.Deadline)
}

func TestConfirmationLapsesAfterWindow(t *testing.T) {
	w := &countingWiper{}
	m, clock := newMachine(w)

	m.Trigger()
	deadline := m.State().Deadline
	clock.advance(3100 * time.Millisecond)
	assert.Equal(t, Idle, m.State().Phase)

	assert.True(t, m.Expire(deadline))
	assert.Equal(t, Idle, m.State().Phase)
	assert.Zero(t, w.calls)
}

func TestSecondTriggerWithinWindowWipesOnce(t *testing.T) {
	w := &countingWiper{}
	m, clock := newMachine(w)

	m.Trigger()
	clock.advance(time.Second)
	st, err := m.Press(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Wiped, st.Phase)
	assert.Equal(t, 1, w.calls)
}

func TestTenRapidTriggersWipeExactlyOnce(t *testing.T) {
	w := &countingWiper{}
	m, clock := newMachine(w)

	for i := 0; i < 10; i++ {
		_, err := m.Press(context.Background())
		require.NoError(t, err)
		clock.advance(100 * time.Millisecond)
	}
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, Wiped, m.State().Phase)
}

func TestTriggerAfterDeadlineRearms(t *testing.T) {
	w := &countingWiper{}
	m, clock := newMachine(w)

	m.Trigger()
	first := m.State().Deadline
	clock.advance(4 * time.Second)

	// The countdown callback has not run yet; the press still must not wipe.
	assert.Equal(t, ActionArm, m.Trigger())
	second := m.State().Deadline
	assert.True(t, second.After(first))
	assert.Zero(t, w.calls)

	// The stale callback for the first arm must not disarm the second.
	assert.False(t, m.Expire(first))
	assert.Equal(t, Confirming, m.State().Phase)
}

func TestExpireIgnoredOnceWiping(t *testing.T) {
	m, _ := newMachine(&countingWiper{})
	m.Trigger()
	deadline := m.State().Deadline

	assert.Equal(t, ActionWipe, m.Trigger())
	assert.False(t, m.Expire(deadline))
	assert.Equal(t, Wiping, m.State().Phase)
	assert.Equal(t, ActionNone, m.Trigger(), "no second wipe while one is in flight")

	assert.Equal(t, Wiped, m.Resolve(nil).Phase)
	assert.False(t, m.Expire(deadline))
	assert.Equal(t, ActionNone, m.Trigger())
}

func TestWipeFailureReturnsToIdle(t *testing.T) {
	w := &countingWiper{err: errors.New("store rejected wipe")}
	m, _ := newMachine(w)

	m.Trigger()
	st, err := m.Press(context.Background())
	require.Error(t, err)
	assert.Equal(t, Idle, st.Phase)

	// A later confirmation can still wipe.
	w.err = nil
	m.Trigger()
	st, err = m.Press(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Wiped, st.Phase)
	assert.Equal(t, 2, w.calls)
}

func TestResolveWithoutWipeIsNoop(t *testing.T) {
	m, _ := newMachine(&countingWiper{})
	assert.Equal(t, Idle, m.Resolve(nil).Phase)
}

func TestNewDefaultsWindow(t *testing.T) {
	assert.Equal(t, DefaultWindow, New(&countingWiper{}, 0).Window())
}

func TestStyleLabels(t *testing.T) {
	now := time.Unix(100, 0)
	confirming := State{Phase: Confirming, Deadline: now.Add(2600 * time.Millisecond)}

	assert.Equal(t, "clear clipboard", ButtonStyle.Label(State{}, now))
	assert.Equal(t, "yes", ButtonStyle.Label(confirming, now))
	assert.Equal(t, "press again to confirm (3s)", PromptStyle.Label(confirming, now))
	assert.Equal(t, "wiping history...", PromptStyle.Label(State{Phase: Wiping}, now))
}

func TestStyleByName(t *testing.T) {
	s, err := StyleByName("")
	require.NoError(t, err)
	assert.Equal(t, ButtonStyle, s)

	s, err = StyleByName("Prompt")
	require.NoError(t, err)
	assert.Equal(t, PromptStyle, s)

	_, err = StyleByName("modal")
	assert.Error(t, err)
}
