package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/messaging"
)

// HandlerRegistration binds an event type (or, when empty, a whole topic) to a handler.
type HandlerRegistration struct {
	Topic     string
	EventType string
	Handler   messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	cfg      config.Config
	byEvent  map[string]messaging.Handler
	byTopic  map[string]messaging.Handler
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	maxDelay time.Duration
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	e := &Engine{
		client:   p.Client,
		logger:   p.Logger,
		cfg:      p.Config,
		byEvent:  make(map[string]messaging.Handler),
		byTopic:  make(map[string]messaging.Handler),
		maxDelay: 30 * time.Second,
	}
	for _, r := range p.Registrations {
		if r.Handler == nil {
			continue
		}
		switch {
		case r.EventType != "":
			e.byEvent[r.EventType] = r.Handler
		case r.Topic != "":
			e.byTopic[r.Topic] = r.Handler
		}
	}
	return e
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

// Dispatch routes msg to the handler registered for its event type, falling
// back to the topic handler. Unrouted messages are acknowledged.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	handler, ok := e.byEvent[msg.EventType()]
	if !ok {
		handler, ok = e.byTopic[msg.Topic]
	}
	if !ok {
		e.logger.Warn("no handler for message",
			zap.String("topic", msg.Topic),
			zap.String("event_type", msg.EventType()),
		)
		return nil
	}
	return handler(ctx, msg)
}

func (e *Engine) start(ctx context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.byEvent)+len(e.byTopic) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.cfg.Messaging.Workers.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("topic", msg.Topic),
				zap.String("event_type", msg.EventType()),
				zap.Int("worker", workerID),
			)
			return e.Dispatch(msgCtx, msg)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}

		if backoff < e.maxDelay {
			backoff *= 2
		}
	}
}
