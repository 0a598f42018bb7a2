package workorder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/database"
	"github.com/Additional-Code/orderdesk/internal/entity"
)

func newSQLiteStore(t *testing.T, limit int) *SQLStore {
	t.Helper()

	conns, err := database.OpenSQL(config.Database{
		Driver:       "sqlite",
		WriterDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	_, err = conns.Writer.NewCreateTable().Model((*entity.WorkOrder)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)

	return NewSQLStore(conns, limit, zap.NewNop())
}

func TestSQLStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t, 10)
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	order := sampleOrder("665599", ts)
	created, err := store.Create(ctx, &order)
	require.NoError(t, err)
	assert.Equal(t, "665599", created.OrderID)

	_, err = store.Create(ctx, &order)
	assert.ErrorIs(t, err, ErrConflict)

	rec, err := store.GetByID(ctx, "665599")
	require.NoError(t, err)
	assert.Equal(t, order, *rec.Order)

	order.Size = "5"
	order.LastModified = ts.Add(time.Minute)
	updated, err := store.Update(ctx, &order)
	require.NoError(t, err)
	assert.Equal(t, "5", updated.Size)
	assert.Equal(t, ts.Add(time.Minute), updated.LastModified)

	missing := sampleOrder("404", ts)
	_, err = store.Update(ctx, &missing)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "665599"))
	require.NoError(t, store.Delete(ctx, "665599"))

	_, err = store.GetByID(ctx, "665599")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t, 3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		o := sampleOrder(fmt.Sprintf("ord-%d", i), base.Add(time.Duration(i)*time.Hour))
		_, err := store.Create(ctx, &o)
		require.NoError(t, err)
	}

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ord-4", records[0].Order.OrderID)
	assert.Equal(t, "ord-3", records[1].Order.OrderID)
	assert.Equal(t, "ord-2", records[2].Order.OrderID)
}
