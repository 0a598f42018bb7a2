package workorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/cache"
	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/messaging"
	ordersvc "github.com/Additional-Code/orderdesk/internal/service/workorder"
	"github.com/Additional-Code/orderdesk/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/orderdesk/worker/workorder")

// Module registers work order event handlers.
var Module = fx.Module("worker_workorder",
	fx.Provide(
		fx.Annotate(
			NewCacheSyncHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// CacheSync keeps cached work orders in line with published changes.
type CacheSync struct {
	cache  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCacheSyncHandler registers CacheSync for every event on the work order topic.
func NewCacheSyncHandler(store cache.Store, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	h := &CacheSync{cache: store, ttl: cfg.Cache.DefaultTTL, logger: logger}
	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: h.Handle,
	}
}

// Handle applies one work order event to the cache.
func (c *CacheSync) Handle(ctx context.Context, msg messaging.Message) error {
	ctx, span := workerTracer.Start(ctx, "worker.workorders.process", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.String("messaging.event_type", msg.EventType()),
	))
	defer span.End()

	var event ordersvc.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("failed to decode work order event", zap.Error(err))

		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return err
	}

	key := ordersvc.CacheKey(event.OrderID)
	var err error
	switch event.Type {
	case ordersvc.EventCreated, ordersvc.EventUpdated:
		if event.Order == nil {
			err = c.cache.Delete(ctx, key)
			break
		}
		var payload []byte
		payload, err = json.Marshal(event.Order)
		if err == nil {
			err = c.cache.Set(ctx, key, payload, c.ttl)
		}
	case ordersvc.EventDeleted:
		err = c.cache.Delete(ctx, key)
	default:
		c.logger.Warn("unknown work order event", zap.String("type", string(event.Type)))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache sync failed")
		return fmt.Errorf("sync cache for %s: %w", event.OrderID, err)
	}

	c.logger.Info("work order event processed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID),
	)
	return nil
}
