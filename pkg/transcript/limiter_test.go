package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiter_PerClient(t *testing.T) {
	l := NewLimiter(0, 2)

	require.True(t, l.Allow("10.0.0.1:1000"))
	require.True(t, l.Allow("10.0.0.1:2000"))
	require.False(t, l.Allow("10.0.0.1:3000"))

	require.True(t, l.Allow("10.0.0.2:1000"))
	require.True(t, l.Allow("not-an-address"))
}

func TestLimiter_PrunesIdleClients(t *testing.T) {
	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	l := NewLimiter(rate.Every(time.Hour), 1)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1:1000"))
	require.False(t, l.Allow("10.0.0.1:1000"))
	require.Len(t, l.clients, 1)

	now = now.Add(clientIdleTimeout + time.Minute)
	require.True(t, l.Allow("10.0.0.2:1000"))
	require.Len(t, l.clients, 1)
	require.Contains(t, l.clients, "10.0.0.2")
}
