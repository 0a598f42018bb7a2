package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
)

type downStore struct {
	repo.Store
}

func (downStore) Ping(context.Context) error { return repo.ErrUnavailable }

func check(t *testing.T, hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: WorkOrderService})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestProbeReportsStoreHealth(t *testing.T) {
	hs := health.NewServer()
	ctx := context.Background()

	Probe(ctx, hs, repo.NewMemoryStore(10), zap.NewNop())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, hs))

	Probe(ctx, hs, downStore{}, zap.NewNop())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, hs))
}

func TestPingSeesThroughInstrumentation(t *testing.T) {
	err := repo.Ping(context.Background(), repo.Instrument(downStore{}, "mongo"))
	assert.True(t, errors.Is(err, repo.ErrUnavailable))
}
