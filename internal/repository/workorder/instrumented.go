package workorder

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Additional-Code/orderdesk/internal/entity"
)

const meterName = "github.com/Additional-Code/orderdesk/repository/workorder"

// instrumented records per-operation counts and latency for any Store.
type instrumented struct {
	next     Store
	driver   string
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// Instrument wraps next with OpenTelemetry metrics. It falls back to next when
// the instruments cannot be created.
func Instrument(next Store, driver string) Store {
	meter := otel.Meter(meterName)
	calls, err := meter.Int64Counter("workorder.store.calls",
		metric.WithDescription("Work order store operations by outcome"))
	if err != nil {
		return next
	}
	duration, err := meter.Float64Histogram("workorder.store.duration",
		metric.WithDescription("Work order store operation latency"),
		metric.WithUnit("s"))
	if err != nil {
		return next
	}
	return &instrumented{next: next, driver: driver, calls: calls, duration: duration}
}

func (i *instrumented) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String("store.driver", i.driver),
		attribute.String("store.operation", op),
		attribute.String("store.outcome", outcome(err)),
	)
	i.calls.Add(ctx, 1, attrs)
	i.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func (i *instrumented) List(ctx context.Context) ([]Record, error) {
	start := time.Now()
	records, err := i.next.List(ctx)
	i.record(ctx, "list", start, err)
	return records, err
}

func (i *instrumented) GetByID(ctx context.Context, id string) (Record, error) {
	start := time.Now()
	rec, err := i.next.GetByID(ctx, id)
	i.record(ctx, "get", start, err)
	return rec, err
}

func (i *instrumented) Create(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	start := time.Now()
	created, err := i.next.Create(ctx, order)
	i.record(ctx, "create", start, err)
	return created, err
}

func (i *instrumented) Update(ctx context.Context, order *entity.WorkOrder) (*entity.WorkOrder, error) {
	start := time.Now()
	updated, err := i.next.Update(ctx, order)
	i.record(ctx, "update", start, err)
	return updated, err
}

func (i *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := i.next.Delete(ctx, id)
	i.record(ctx, "delete", start, err)
	return err
}

// Unwrap returns the decorated store.
func (i *instrumented) Unwrap() Store {
	return i.next
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, entity.ErrInvalidWorkOrder):
		return "invalid"
	default:
		return "error"
	}
}

// Base strips decorators so callers can reach backend specific methods.
func Base(s Store) Store {
	for {
		u, ok := s.(interface{ Unwrap() Store })
		if !ok {
			return s
		}
		s = u.Unwrap()
	}
}
