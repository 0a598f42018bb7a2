package migration

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
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
)

type indexedStore struct {
	repo.Store
	ensured int
}

func (s *indexedStore) EnsureIndexes(context.Context) error {
	s.ensured++
	return nil
}

func TestSQLiteUpAndDown(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Store: config.Store{Driver: "sqlite"},
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
			MaxOpenConns: 1,
		},
	}
	conns, err := database.OpenSQL(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	store := repo.NewSQLStore(conns, 10, zap.NewNop())
	m, err := New(cfg, repo.Instrument(store, "sqlite"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	_, err = store.Create(ctx, &entity.WorkOrder{
		OrderID: "665599", Size: "1", Filled: "0", Status: "Accepted",
		Ticker: "BTCUSD", MIC: "LIQD", Action: "BUY",
		Timestamp: ts, LastModified: ts,
	})
	require.NoError(t, err)

	require.NoError(t, m.Down(ctx, 0, true))
	_, err = store.List(ctx)
	assert.Error(t, err)
}

func TestDocumentStoreEnsuresIndexes(t *testing.T) {
	store := &indexedStore{}
	m, err := New(config.Config{Store: config.Store{Driver: "mongo"}}, repo.Instrument(store, "mongo"), nil)
	require.NoError(t, err)

	require.NoError(t, m.Up(context.Background()))
	assert.Equal(t, 1, store.ensured)
	assert.ErrorIs(t, m.Down(context.Background(), 1, false), ErrUnsupported)
}

func TestMemoryStoreHasNothingToMigrate(t *testing.T) {
	m, err := New(config.Config{Store: config.Store{Driver: "memory"}}, repo.NewMemoryStore(10), nil)
	require.NoError(t, err)

	assert.NoError(t, m.Up(context.Background()))
	_, err = m.Version(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"postgres": "postgres", "pg": "postgres", "mysql": "mysql", "sqlite": "sqlite3"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}
