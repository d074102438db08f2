package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/errors"
)

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status   ConnectionStatus
		expected string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusCircuitOpen, "circuit_open"},
		{ConnectionStatus(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", c.URL())
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.False(t, c.IsHealthy())
	assert.Equal(t, time.Second, c.Backoff())
	assert.Zero(t, c.Failures())
}

func TestNewClient_Options(t *testing.T) {
	var disconnects int
	c, err := NewClient("nats://localhost:4222",
		WithName("outlander-test"),
		WithTimeout(2*time.Second),
		WithMaxReconnects(-1),
		WithReconnectWait(500*time.Millisecond),
		WithPingInterval(time.Minute),
		WithDrainTimeout(3*time.Second),
		WithToken("secret"),
		WithHealthInterval(0),
		WithDisconnectCallback(func(error) { disconnects++ }),
	)
	require.NoError(t, err)

	assert.Equal(t, "outlander-test", c.clientName)
	assert.Equal(t, 2*time.Second, c.timeout)
	assert.Equal(t, -1, c.maxReconnects)
	assert.Equal(t, 500*time.Millisecond, c.reconnectWait)
	assert.Equal(t, time.Minute, c.pingInterval)
	assert.Equal(t, 3*time.Second, c.drainTimeout)
	assert.Equal(t, "secret", c.token)
	assert.Zero(t, c.healthInterval)
	require.NotNil(t, c.onDisconnect)
	c.onDisconnect(nil)
	assert.Equal(t, 1, disconnects)
}

func TestNewClient_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []ClientOption
	}{
		{"zero timeout", []ClientOption{WithTimeout(0)}},
		{"max reconnects below -1", []ClientOption{WithMaxReconnects(-2)}},
		{"negative reconnect wait", []ClientOption{WithReconnectWait(-time.Second)}},
		{"zero ping interval", []ClientOption{WithPingInterval(0)}},
		{"zero drain timeout", []ClientOption{WithDrainTimeout(0)}},
		{"zero circuit threshold", []ClientOption{WithCircuitBreakerThreshold(0)}},
		{"sub-second max backoff", []ClientOption{WithMaxBackoff(100 * time.Millisecond)}},
		{"negative health interval", []ClientOption{WithHealthInterval(-time.Second)}},
		{"token then credentials", []ClientOption{WithToken("t"), WithCredentials("u", "p")}},
		{"credentials then token", []ClientOption{WithCredentials("u", "p"), WithToken("t")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient("nats://localhost:4222", tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	c, err := NewClient("nats://localhost:4222",
		WithCircuitBreakerThreshold(3),
		WithMaxBackoff(4*time.Second),
	)
	require.NoError(t, err)

	c.recordFailure()
	c.recordFailure()
	assert.Equal(t, StatusDisconnected, c.Status())

	c.recordFailure()
	assert.Equal(t, StatusCircuitOpen, c.Status())
	assert.Equal(t, 2*time.Second, c.Backoff())

	err = c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, errors.IsTransient(err))

	for i := 0; i < 6; i++ {
		c.recordFailure()
	}
	assert.Equal(t, 4*time.Second, c.Backoff(), "backoff is capped")

	c.resetCircuit()
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, time.Second, c.Backoff())
	assert.Zero(t, c.Failures())
}

func TestClient_NotConnected(t *testing.T) {
	c, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, c.Publish(ctx, "outlander.tags", []byte("x")), ErrNotConnected)
	sub, err := c.Subscribe(ctx, "outlander.nodes", func(context.Context, []byte) {})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, sub)

	_, err = c.RTT()
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = c.GetKeyValueBucket(ctx, "OUTLANDER_STATE")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, c.Close(ctx))
	assert.NoError(t, c.Close(ctx), "close is idempotent")
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"roomtitle", "roomtitle"},
		{"Skinning.Ranks", "Skinning.Ranks"},
		{"Large_Edged.LearningRate", "Large_Edged.LearningRate"},
		{"room title", "room_title"},
		{"spell*", "spell_"},
		{".hidden.", "hidden"},
		{"", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, SanitizeKey(tt.in))
		})
	}
}
