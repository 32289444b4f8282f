package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_PerIdentityIsolation(t *testing.T) {
	t.Parallel()

	m := NewManager(2, time.Minute)

	require.True(t, m.Allow("alice"))
	require.True(t, m.Allow("alice"))
	require.False(t, m.Allow("alice"))

	// Bob's window is untouched by Alice's exhaustion.
	require.Equal(t, 2, m.Remaining("bob"))
	require.True(t, m.Allow("bob"))
	require.True(t, m.Allow("bob"))
	require.False(t, m.Allow("bob"))
}

func TestManager_DefaultsApplied(t *testing.T) {
	t.Parallel()

	m := NewManager(0, 0)
	require.Equal(t, DefaultMaxCalls, m.Remaining("anyone"))
}

func TestManager_UpdateLimitResetsHistory(t *testing.T) {
	t.Parallel()

	m := NewManager(1, time.Hour)

	require.True(t, m.Allow("carol"))
	require.False(t, m.Allow("carol"))
	require.Positive(t, m.RetryAfter("carol"))

	m.UpdateLimit("carol", 5, time.Hour)

	// Exhausted history is gone; the fresh limiter allows immediately.
	require.True(t, m.Allow("carol"))
	require.Equal(t, 4, m.Remaining("carol"))
}

func TestManager_RetryAfterZeroWhenUnderLimit(t *testing.T) {
	t.Parallel()

	m := NewManager(10, time.Minute)
	require.Equal(t, time.Duration(0), m.RetryAfter("dave"))
}
