package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
)

func TestKafkaMessageHeaders(t *testing.T) {
	msg := toKafkaMessage("workorders.events", []byte("665599"), []byte(`{}`), map[string]string{
		HeaderEventType: "workorder.created",
	})
	assert.Equal(t, "workorders.events", msg.Topic)
	require.Len(t, msg.Headers, 1)

	msg.Offset = 12
	msg.Time = time.Unix(1700000000, 0)
	wrapped := fromKafkaMessage(msg)

	assert.Equal(t, "workorder.created", wrapped.EventType())
	assert.Equal(t, []byte("665599"), wrapped.Key)
	assert.Equal(t, int64(12), wrapped.Offset)
}

func TestFromKafkaMessageWithoutHeaders(t *testing.T) {
	wrapped := fromKafkaMessage(kafka.Message{Topic: "t", Value: []byte("v")})
	assert.Nil(t, wrapped.Headers)
	assert.Equal(t, "", wrapped.EventType())
}

func TestNewClientNoopWhenDisabled(t *testing.T) {
	cfg := config.Config{Messaging: config.Messaging{Enabled: false, Kafka: config.Kafka{Topic: "workorders.events"}}}
	client, err := NewClient(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "workorders.events", client.Topic())
	assert.NoError(t, client.Publish(context.Background(), nil, nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Consume(ctx, nil), context.Canceled)
}
