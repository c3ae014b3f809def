package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlidingWindowCounterCountsWithinWindow(t *testing.T) {
	c := NewSlidingWindowCounter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, 1, c.Observe("k", now, time.Minute))
	require.Equal(t, 2, c.Observe("k", now.Add(10*time.Second), time.Minute))
	require.Equal(t, 3, c.Observe("k", now.Add(20*time.Second), time.Minute))
}

func TestSlidingWindowCounterExpiresOldEvents(t *testing.T) {
	c := NewSlidingWindowCounter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Observe("k", now, time.Minute)
	c.Observe("k", now.Add(5*time.Second), time.Minute)
	count := c.Observe("k", now.Add(90*time.Second), time.Minute)
	require.Equal(t, 1, count)
}

func TestSlidingWindowCounterKeysIndependent(t *testing.T) {
	c := NewSlidingWindowCounter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Observe("a", now, time.Minute)
	count := c.Observe("b", now, time.Minute)
	require.Equal(t, 1, count)
}
