package seeder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/entity"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs store seeding for local/dev setups.
type Seeder struct {
	store  repo.Store
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder writing through the configured work order store.
func New(store repo.Store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, logger: logger, now: time.Now}
}

// Samples returns the demo work orders, newest last.
func Samples(now time.Time) []entity.WorkOrder {
	now = now.UTC().Truncate(time.Millisecond)
	return []entity.WorkOrder{
		{OrderID: "665597", Size: "2", Filled: "2", Status: "Filled", Ticker: "ETHUSD", MIC: "LIQD", Action: "SELL",
			Timestamp: now.Add(-2 * time.Hour), LastModified: now.Add(-time.Hour)},
		{OrderID: "665598", Size: "0.5", Filled: "0", Status: "Cancelled", Ticker: "BTCUSD", MIC: "XNAS", Action: "BUY",
			Timestamp: now.Add(-time.Hour), LastModified: now.Add(-time.Hour)},
		{OrderID: "665599", Size: "1", Filled: "0", Status: "Accepted", Ticker: "BTCUSD", MIC: "LIQD", Action: "BUY",
			Timestamp: now, LastModified: now},
	}
}

// WorkOrders seeds example work orders if they are missing.
func (s *Seeder) WorkOrders(ctx context.Context) (int, error) {
	inserted := 0
	for _, sample := range Samples(s.now()) {
		order := sample
		if _, err := s.store.Create(ctx, &order); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				continue
			}
			return inserted, err
		}
		inserted++
	}

	s.logger.Info("seeded work orders", zap.Int("inserted", inserted))
	return inserted, nil
}
