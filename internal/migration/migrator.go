package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
)

//go:embed sql
var migrations embed.FS

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// ErrUnsupported is returned for operations the configured store cannot perform.
var ErrUnsupported = errors.New("migration: unsupported for store driver")

// Migrator applies schema changes for the configured work order store. SQL
// stores run embedded goose migrations; the document store ensures its indexes.
type Migrator struct {
	driver  string
	db      *bun.DB
	dir     string
	indexes repo.IndexEnsurer
	logger  *zap.Logger
}

// New constructs a migrator for store.
func New(cfg config.Config, store repo.Store, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Migrator{driver: cfg.Store.Driver, logger: logger.Named("migration")}

	switch base := repo.Base(store).(type) {
	case *repo.SQLStore:
		dialect, err := gooseDialect(cfg.Database.Driver)
		if err != nil {
			return nil, err
		}
		if err := goose.SetDialect(dialect); err != nil {
			return nil, err
		}
		goose.SetBaseFS(migrations)
		goose.SetLogger(gooseLogger{m.logger.Sugar()})
		m.db = base.DB()
		m.dir = path.Join("sql", dialect)
	case repo.IndexEnsurer:
		m.indexes = base
	}

	return m, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	switch {
	case m.indexes != nil:
		if err := m.indexes.EnsureIndexes(ctx); err != nil {
			return err
		}
		m.logger.Info("indexes ensured", zap.String("driver", m.driver))
		return nil
	case m.db == nil:
		m.logger.Info("no migrations for store", zap.String("driver", m.driver))
		return nil
	}

	if err := goose.UpContext(ctx, m.db.DB, m.dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return err
	}

	m.logger.Info("migrations applied")

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if m.db == nil {
		return fmt.Errorf("%w: %s", ErrUnsupported, m.driver)
	}

	if all {
		if err := goose.DownToContext(ctx, m.db.DB, m.dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))

		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, m.db.DB, m.dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))

	return nil
}

// Version reports the current schema version of a SQL store.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	if m.db == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, m.driver)
	}
	return goose.GetDBVersionContext(ctx, m.db.DB)
}

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSpace(format), v...)
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migrations")
}
