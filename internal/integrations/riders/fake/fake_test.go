package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSource_Deterministic(t *testing.T) {
	s := New()
	a, err := s.Snapshot(context.Background(), "MKD-CORE")
	require.NoError(t, err)
	b, _ := s.Snapshot(context.Background(), "MKD-CORE")
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a.ActiveRiders, 1)
	require.Less(t, a.QueuedJobs, 12)
}
