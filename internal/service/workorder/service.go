package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/cache"
	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/entity"
	"github.com/Additional-Code/orderdesk/internal/messaging"
	repo "github.com/Additional-Code/orderdesk/internal/repository/workorder"
	"github.com/Additional-Code/orderdesk/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/orderdesk/service/workorder")

// Service encapsulates business logic around work orders.
type Service struct {
	store     repo.Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     repo.Store
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     p.Store,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
		},
		now: time.Now,
	}
}

// List returns the most recent work orders, newest first.
func (s *Service) List(ctx context.Context) ([]repo.Record, error) {
	ctx, span := serviceTracer.Start(ctx, "WorkOrderService.List")
	defer span.End()

	records, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, translate(err, "failed to list work orders")
	}
	span.SetAttributes(attribute.Int("workorder.count", len(records)))
	return records, nil
}

// Get retrieves a work order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id string) (repo.Record, error) {
	id = strings.TrimSpace(id)
	ctx, span := serviceTracer.Start(ctx, "WorkOrderService.Get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	// a blank id matches nothing, as in the store
	if id == "" {
		return repo.Record{}, errorbank.NotFound("work order not found", errorbank.WithDetail("order_id", id))
	}

	if order, err := s.getFromCache(ctx, id); err == nil {
		return repo.Record{Order: order}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("work order cache read failed", zap.String("order_id", id), zap.Error(err))
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store error")
		}
		return repo.Record{}, translate(err, "failed to load work order", errorbank.WithDetail("order_id", id))
	}

	// degraded reads are not cached so a repaired record shows up immediately
	if !rec.Degraded() {
		s.storeInCache(ctx, rec.Order)
	}
	return rec, nil
}

// Create persists a new work order, defaulting its timestamps to now. The
// argument is not modified.
func (s *Service) Create(ctx context.Context, in *entity.WorkOrder) (*entity.WorkOrder, error) {
	if in == nil {
		return nil, errorbank.BadRequest("work order payload is required")
	}
	w := *in
	order := &w
	if order.Timestamp.IsZero() {
		order.Timestamp = s.now()
	}
	if order.LastModified.IsZero() {
		order.LastModified = order.Timestamp
	}
	order.Normalize()

	ctx, span := serviceTracer.Start(ctx, "WorkOrderService.Create", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	created, err := s.store.Create(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, translate(err, "failed to create work order", errorbank.WithDetail("order_id", order.OrderID))
	}

	s.storeInCache(ctx, created)
	s.publish(ctx, EventCreated, created.OrderID, created)
	return created, nil
}

// Update replaces the stored work order and returns what was stored. A zero
// Timestamp keeps the original creation time. The argument is not modified.
func (s *Service) Update(ctx context.Context, in *entity.WorkOrder) (*entity.WorkOrder, error) {
	if in == nil {
		return nil, errorbank.BadRequest("work order payload is required")
	}
	w := *in
	order := &w
	order.Normalize()

	ctx, span := serviceTracer.Start(ctx, "WorkOrderService.Update", trace.WithAttributes(attribute.String("order.id", order.OrderID)))
	defer span.End()

	if order.OrderID == "" {
		return nil, errorbank.BadRequest("order id is required")
	}

	if order.Timestamp.IsZero() {
		current, err := s.store.GetByID(ctx, order.OrderID)
		if err != nil {
			return nil, translate(err, "failed to load work order", errorbank.WithDetail("order_id", order.OrderID))
		}
		order.Timestamp = current.Order.Timestamp
	}
	order.Touch(s.now())

	updated, err := s.store.Update(ctx, order)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store error")
		}
		return nil, translate(err, "failed to update work order", errorbank.WithDetail("order_id", order.OrderID))
	}

	s.evict(ctx, updated.OrderID)
	s.publish(ctx, EventUpdated, updated.OrderID, updated)
	return updated, nil
}

// Delete removes a work order. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	ctx, span := serviceTracer.Start(ctx, "WorkOrderService.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if id == "" {
		return errorbank.BadRequest("order id is required")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return translate(err, "failed to delete work order", errorbank.WithDetail("order_id", id))
	}

	s.evict(ctx, id)
	s.publish(ctx, EventDeleted, id, nil)
	return nil
}

func (s *Service) publish(ctx context.Context, kind EventType, id string, order *entity.WorkOrder) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := Event{
		ID:         uuid.NewString(),
		Type:       kind,
		OrderID:    id,
		Order:      order,
		OccurredAt: s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal work order event", zap.String("type", string(kind)), zap.Error(err))
		return
	}
	headers := map[string]string{messaging.HeaderEventType: string(kind)}
	if err := s.publisher.Publish(ctx, []byte(id), payload, headers); err != nil {
		s.logger.Error("publish work order event", zap.String("type", string(kind)), zap.String("order_id", id), zap.Error(err))
	}
}

func (s *Service) getFromCache(ctx context.Context, id string) (*entity.WorkOrder, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, CacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.WorkOrder
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.WorkOrder) {
	if s.cache == nil || order == nil {
		return
	}
	bytes, err := json.Marshal(order)
	if err == nil {
		err = s.cache.Set(ctx, CacheKey(order.OrderID), bytes, s.cacheTTL)
	}
	if err != nil {
		s.logger.Warn("work order cache write failed", zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (s *Service) evict(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey(id)); err != nil {
		s.logger.Warn("work order cache evict failed", zap.String("order_id", id), zap.Error(err))
	}
}

// CacheKey is the cache entry for a work order id.
func CacheKey(id string) string {
	return cache.Key("workorders", id)
}

func translate(err error, message string, opts ...errorbank.Option) error {
	opts = append(opts, errorbank.WithCause(err))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("work order not found", opts...)
	case errors.Is(err, repo.ErrConflict):
		return errorbank.Conflict("work order already exists", opts...)
	case errors.Is(err, entity.ErrInvalidWorkOrder):
		return errorbank.BadRequest(err.Error(), opts...)
	case errors.Is(err, repo.ErrMalformedRecord):
		return errorbank.Unprocessable("stored work order is unreadable", opts...)
	case errors.Is(err, repo.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return errorbank.Unavailable("work order store unavailable", opts...)
	default:
		return errorbank.Internal(message, opts...)
	}
}
