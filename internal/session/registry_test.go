package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/telemetry"
)

func TestRegistry_StartGetEndRoundTrip(t *testing.T) {
	r := NewRegistry()
	s := telemetry.Session{SessionID: uuid.New(), TrackName: "Road America"}

	r.StartSession(s)
	got, ok := r.GetCurrentSession()
	require.True(t, ok)
	require.Equal(t, s, got)
	require.True(t, r.HasActiveSession())

	r.EndSession(s.SessionID)
	require.False(t, r.HasActiveSession())
	_, ok = r.GetCurrentSession()
	require.False(t, ok)

	// Historical lookup by id still works after the session ends.
	got, ok = r.GetSession(s.SessionID)
	require.True(t, ok)
	require.Equal(t, s, got)
}

func TestRegistry_EndSessionMismatchIsNoOp(t *testing.T) {
	r := NewRegistry()
	s := telemetry.Session{SessionID: uuid.New()}
	r.StartSession(s)

	r.EndSession(uuid.New()) // different id
	require.True(t, r.HasActiveSession())
}

func TestRegistry_StartWhileActiveReplacesCurrent(t *testing.T) {
	r := NewRegistry()
	first := telemetry.Session{SessionID: uuid.New()}
	second := telemetry.Session{SessionID: uuid.New()}

	r.StartSession(first)
	r.StartSession(second)

	current, ok := r.GetCurrentSession()
	require.True(t, ok)
	require.Equal(t, second.SessionID, current.SessionID)

	// The replaced session is still queryable historically.
	_, ok = r.GetSession(first.SessionID)
	require.True(t, ok)
}
