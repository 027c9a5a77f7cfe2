package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pankaj085/lotuslynx/internal/config"
)

func TestSamplerBounds(t *testing.T) {
	require.Contains(t, sampler(1.0).Description(), "AlwaysOn")
	require.Contains(t, sampler(2.5).Description(), "AlwaysOn")
	require.Contains(t, sampler(0).Description(), "AlwaysOff")
	require.Contains(t, sampler(-1).Description(), "AlwaysOff")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	p, err := New(context.Background(), config.Config{ServiceName: "lotuslynx-test"}, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}
