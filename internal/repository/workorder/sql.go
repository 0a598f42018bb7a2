package workorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/database"
	"github.com/Additional-Code/orderdesk/internal/entity"
)

var sqlTracer = otel.Tracer("github.com/Additional-Code/orderdesk/repository/workorder/sql")

// SQLStore keeps work orders in the work_orders table through bun.
type SQLStore struct {
	writer *bun.DB
	reader *bun.DB
	limit  int
	logger *zap.Logger
}

// NewSQLStore wires a store backed by configured database connections.
func NewSQLStore(conns *database.Connections, limit int, logger *zap.Logger) *SQLStore {
	if limit <= 0 {
		limit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{
		writer: conns.Writer,
		reader: conns.Reader,
		limit:  limit,
		logger: logger.Named("workorder.sql"),
	}
}

// DB exposes the writer connection, used by migrations.
func (s *SQLStore) DB() *bun.DB {
	return s.writer
}

// Ping checks the writer connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.writer.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	ctx, span := sqlTracer.Start(ctx, "WorkOrderSQL.List")
	defer span.End()

	var orders []entity.WorkOrder
	err := s.reader.NewSelect().
		Model(&orders).
		OrderExpr("? DESC", bun.Ident("timestamp")).
		Limit(s.limit).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		s.logger.Error("list work orders failed", zap.Error(err))
		return nil, classifySQL(err)
	}

	records := make([]Record, len(orders))
	for i := range orders {
		o := orders[i]
		o.Normalize()
		records[i] = Record{Order: &o}
	}
	return records, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	ctx, span := sqlTracer.Start(ctx, "WorkOrderSQL.GetByID", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	o, err := s.find(ctx, s.reader, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "select failed")
			s.logger.Error("find work order failed", zap.String("order_id", id), zap.Error(err))
		}
		return Record{}, err
	}
	return Record{Order: o}, nil
}

func (s *SQLStore) Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	ctx, span := sqlTracer.Start(ctx, "WorkOrderSQL.Create", trace.WithAttributes(attribute.String("order.id", w.OrderID)))
	defer span.End()

	if _, err := s.writer.NewInsert().Model(&w).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.logger.Error("insert work order failed", zap.Stringer("work_order", w), zap.Error(err))
		return nil, classifySQL(err)
	}
	return &w, nil
}

func (s *SQLStore) Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	w := *order
	w.Normalize()

	ctx, span := sqlTracer.Start(ctx, "WorkOrderSQL.Update", trace.WithAttributes(attribute.String("order.id", w.OrderID)))
	defer span.End()

	res, err := s.writer.NewUpdate().Model(&w).WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		s.logger.Error("update work order failed", zap.String("order_id", w.OrderID), zap.Error(err))
		return nil, classifySQL(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// mysql reports zero rows when nothing changed, so confirm the row exists
		exists, err := s.writer.NewSelect().Model((*entity.WorkOrder)(nil)).Where("order_id = ?", w.OrderID).Exists(ctx)
		if err != nil {
			return nil, classifySQL(err)
		}
		if !exists {
			return nil, ErrNotFound
		}
	}

	// read back from the writer to avoid replica lag
	return s.find(ctx, s.writer, w.OrderID)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	ctx, span := sqlTracer.Start(ctx, "WorkOrderSQL.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	res, err := s.writer.NewDelete().Model((*entity.WorkOrder)(nil)).Where("order_id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		s.logger.Error("delete work order failed", zap.String("order_id", id), zap.Error(err))
		return classifySQL(err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("deleted work order", zap.String("order_id", id), zap.Int64("deleted", n))
	return nil
}

func (s *SQLStore) find(ctx context.Context, db *bun.DB, id string) (*entity.WorkOrder, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	o := new(entity.WorkOrder)
	err := db.NewSelect().Model(o).Where("order_id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifySQL(err)
	}
	o.Normalize()
	return o, nil
}

func classifySQL(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
