package workorder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
	"github.com/Additional-Code/orderdesk/internal/entity"
	"github.com/Additional-Code/orderdesk/internal/messaging"
	ordersvc "github.com/Additional-Code/orderdesk/internal/service/workorder"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(key).Error(0)
}

func eventMessage(t *testing.T, event ordersvc.Event) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{
		Topic:   "workorders.events",
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: string(event.Type)},
	}
}

func newHandler(c *mockCache) messaging.Handler {
	cfg := config.Config{
		Cache:     config.Cache{DefaultTTL: time.Minute},
		Messaging: config.Messaging{Kafka: config.Kafka{Topic: "workorders.events"}},
	}
	return NewCacheSyncHandler(c, zap.NewNop(), cfg).Handler
}

func TestCacheSyncWarmsOnUpdate(t *testing.T) {
	c := new(mockCache)
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	order := &entity.WorkOrder{OrderID: "665599", Size: "5", Timestamp: ts, LastModified: ts}

	c.On("Set", "workorders:665599", mock.AnythingOfType("[]uint8"), time.Minute).Return(nil).Once()

	err := newHandler(c)(context.Background(), eventMessage(t, ordersvc.Event{
		ID: "evt-1", Type: ordersvc.EventUpdated, OrderID: "665599", Order: order,
	}))
	require.NoError(t, err)
	c.AssertExpectations(t)

	var cached entity.WorkOrder
	require.NoError(t, json.Unmarshal(c.Calls[0].Arguments.Get(1).([]byte), &cached))
	assert.Equal(t, "5", cached.Size)
}

func TestCacheSyncEvictsOnDelete(t *testing.T) {
	c := new(mockCache)
	c.On("Delete", "workorders:665599").Return(nil).Once()

	err := newHandler(c)(context.Background(), eventMessage(t, ordersvc.Event{
		ID: "evt-2", Type: ordersvc.EventDeleted, OrderID: "665599",
	}))
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestCacheSyncErrors(t *testing.T) {
	c := new(mockCache)
	c.On("Delete", "workorders:1").Return(errors.New("redis down")).Once()

	handler := newHandler(c)

	err := handler(context.Background(), eventMessage(t, ordersvc.Event{Type: ordersvc.EventDeleted, OrderID: "1"}))
	assert.Error(t, err)

	err = handler(context.Background(), messaging.Message{Value: []byte("{not json")})
	assert.Error(t, err)

	err = handler(context.Background(), eventMessage(t, ordersvc.Event{Type: "workorder.archived", OrderID: "1"}))
	assert.NoError(t, err)
	c.AssertExpectations(t)
}
