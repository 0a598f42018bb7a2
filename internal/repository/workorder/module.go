package workorder

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/database"
)

// Module provides the configured work order Store to Fx.
var Module = fx.Provide(NewStore)

// IndexEnsurer is implemented by stores that manage their own indexes.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// Pinger is implemented by stores backed by a remote connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports whether the backend behind s is reachable. Stores without a
// connection are always healthy.
func Ping(ctx context.Context, s Store) error {
	if p, ok := Base(s).(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// NewStore opens the backend selected by STORE_DRIVER.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	var store Store

	switch cfg.Store.Driver {
	case "memory":
		logger.Info("using in-memory work order store")
		store = NewMemoryStore(cfg.Store.ListLimit)
	case "mongo":
		conn, err := database.NewMongo(lc, cfg, logger)
		if err != nil {
			return nil, err
		}
		mongoStore := NewMongoStore(conn.Collection(), cfg.Store.ListLimit, logger)
		if cfg.Mongo.EnsureIndexes {
			lc.Append(fx.Hook{OnStart: mongoStore.EnsureIndexes})
		}
		store = mongoStore
	case "postgres", "mysql", "sqlite":
		conns, err := database.NewSQL(lc, cfg, logger)
		if err != nil {
			return nil, err
		}
		store = NewSQLStore(conns, cfg.Store.ListLimit, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	return Instrument(store, cfg.Store.Driver), nil
}
