package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/entity"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
)

type brokenStore struct {
	repo.Store
}

func (brokenStore) Create(context.Context, *entity.WorkOrder) (*entity.WorkOrder, error) {
	return nil, repo.ErrUnavailable
}

func TestWorkOrdersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore(10)
	s := New(store, zap.NewNop())

	inserted, err := s.WorkOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = s.WorkOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "665599", records[0].Order.OrderID)
}

func TestWorkOrdersStopsOnStoreError(t *testing.T) {
	_, err := New(brokenStore{}, nil).WorkOrders(context.Background())
	assert.True(t, errors.Is(err, repo.ErrUnavailable))
}

func TestSamplesAreValid(t *testing.T) {
	for _, o := range Samples(fixed) {
		assert.NoError(t, o.Validate(), o.OrderID)
	}
}

var fixed = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
