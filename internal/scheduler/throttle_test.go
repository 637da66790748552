package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateSpacing(t *testing.T) {
	g := newGate(60 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, g.wait(ctx))
	require.Less(t, time.Since(start), 30*time.Millisecond, "first wait should not block")

	require.NoError(t, g.wait(ctx))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond, "second wait should be spaced out")
}

func TestGateZeroDelay(t *testing.T) {
	g := newGate(0)
	start := time.Now()
	for range 5 {
		require.NoError(t, g.wait(context.Background()))
	}
	require.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestGateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, newGate(time.Second).wait(ctx))
	require.Error(t, newGate(0).wait(ctx))
}
