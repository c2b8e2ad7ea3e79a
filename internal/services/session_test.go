package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	sm := NewSessionManager()

	assert.False(t, sm.Has("5511999"))

	session := sm.Create("5511999")
	require.NotNil(t, session)
	assert.True(t, sm.Has("5511999"))
	assert.False(t, session.Greeted)
	assert.Equal(t, FlowNone, session.CurrentFlow)
	assert.Equal(t, -1, session.QuestionIndex)
	assert.NotEmpty(t, session.ConversationID)

	got, err := sm.Get("5511999")
	require.NoError(t, err)
	assert.Same(t, session, got)

	sm.Reset("5511999")
	assert.False(t, sm.Has("5511999"))

	_, err = sm.Get("5511999")
	assert.Error(t, err)

	// Reset of a missing session is a no-op
	sm.Reset("5511999")
}

func TestSessionCreateOverwrites(t *testing.T) {
	sm := NewSessionManager()

	first := sm.Create("5511999")
	first.Greeted = true

	second := sm.Create("5511999")
	assert.False(t, second.Greeted)
	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestSessionResetAll(t *testing.T) {
	sm := NewSessionManager()
	sm.Create("a")
	sm.Create("b")
	require.Equal(t, 2, sm.ActiveCount())

	sm.ResetAll()
	assert.Equal(t, 0, sm.ActiveCount())
}

func TestSweepExpired(t *testing.T) {
	sm := NewSessionManager()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	old := sm.Create("old")
	fresh := sm.Create("fresh")

	// "old" crossed the 15 minute threshold, "fresh" is one second shy
	old.LastInteraction = now.Add(-15*time.Minute - time.Second)
	fresh.LastInteraction = now.Add(-15*time.Minute + time.Second)

	sm.sweepExpired()

	assert.False(t, sm.Has("old"))
	assert.True(t, sm.Has("fresh"))
}

func TestTouchUpdatesLastInteraction(t *testing.T) {
	sm := NewSessionManager()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return base }

	session := sm.Create("5511999")
	assert.Equal(t, base, session.LastInteraction)

	later := base.Add(5 * time.Minute)
	sm.now = func() time.Time { return later }
	sm.Touch("5511999")
	assert.Equal(t, later, session.LastInteraction)

	// Touch on a missing session is a no-op
	sm.Touch("unknown")
}

func TestSweeperStop(t *testing.T) {
	sm := NewSessionManager()
	sm.sweepEvery = time.Millisecond
	sm.StartSweeper()

	time.Sleep(5 * time.Millisecond)
	sm.Stop()
	// Idempotent
	sm.Stop()
}
