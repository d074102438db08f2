package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
)

var testType = Type{Domain: "test", Category: "payload", Version: "v1"}

type testPayload struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

func (p *testPayload) Schema() Type { return testType }

func (p *testPayload) Validate() error {
	if !p.Valid {
		return assert.AnError
	}
	return nil
}

func (p *testPayload) MarshalJSON() ([]byte, error) {
	type alias testPayload
	return json.Marshal((*alias)(p))
}

func (p *testPayload) UnmarshalJSON(data []byte) error {
	type alias testPayload
	return json.Unmarshal(data, (*alias)(p))
}

func init() {
	if err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      testType.Domain,
		Category:    testType.Category,
		Version:     testType.Version,
		Description: "message package test payload",
		Factory:     func() any { return &testPayload{} },
	}); err != nil {
		panic(err)
	}
}

func TestBaseMessage_Creation(t *testing.T) {
	payload := &testPayload{Value: "test-data", Valid: true}

	msg := NewBaseMessage(testType, payload, "stormfront")

	require.NotNil(t, msg)
	assert.Len(t, msg.ID(), 36)
	assert.Equal(t, testType, msg.Type())
	assert.Equal(t, payload, msg.Payload())
	assert.Equal(t, "stormfront", msg.Meta().Source())
	assert.WithinDuration(t, time.Now(), msg.Meta().CreatedAt(), time.Second)
}

func TestBaseMessage_UniqueIDs(t *testing.T) {
	a := NewBaseMessage(testType, &testPayload{Valid: true}, "src")
	b := NewBaseMessage(testType, &testPayload{Valid: true}, "src")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.Hash(), b.Hash(), "hash covers content, not identity")
}

func TestBaseMessage_WithTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := NewBaseMessage(testType, &testPayload{Valid: true}, "replay", WithTime(at))
	assert.True(t, at.Equal(msg.Meta().CreatedAt()))
	assert.Equal(t, "replay", msg.Meta().Source())
}

func TestBaseMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *BaseMessage
		wantErr bool
	}{
		{"valid", NewBaseMessage(testType, &testPayload{Valid: true}, "src"), false},
		{"invalid type", NewBaseMessage(Type{Domain: "test"}, &testPayload{Valid: true}, "src"), true},
		{"nil payload", NewBaseMessage(testType, nil, "src"), true},
		{"invalid payload", NewBaseMessage(testType, &testPayload{}, "src"), true},
		{"nil meta", NewBaseMessage(testType, &testPayload{Valid: true}, "src", WithMeta(nil)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBaseMessage_JSONRoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	orig := NewBaseMessage(testType, &testPayload{Value: "hello", Valid: true}, "stormfront", WithTime(at))

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	meta := wire["meta"].(map[string]any)
	assert.Equal(t, float64(1700000000123), meta["created_at"])
	assert.Equal(t, "test", wire["type"].(map[string]any)["domain"])

	var decoded BaseMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig.ID(), decoded.ID())
	assert.Equal(t, orig.Type(), decoded.Type())
	assert.Equal(t, orig.Payload(), decoded.Payload())
	assert.True(t, at.Equal(decoded.Meta().CreatedAt()))
	assert.Equal(t, "stormfront", decoded.Meta().Source())
}

func TestBaseMessage_UnmarshalUnknownType(t *testing.T) {
	data := []byte(`{"id":"x","type":{"domain":"nope","category":"nope","version":"v9"},"payload":{},"meta":{}}`)

	var msg BaseMessage
	err := json.Unmarshal(data, &msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownPayload)
	assert.True(t, errors.IsInvalid(err))
}

func TestType(t *testing.T) {
	assert.Equal(t, "test.payload.v1", testType.Key())
	assert.Equal(t, testType.Key(), testType.String())
	assert.True(t, testType.IsValid())
	assert.False(t, Type{Domain: "a", Category: "b"}.IsValid())
	assert.True(t, testType.Equal(Type{Domain: "test", Category: "payload", Version: "v1"}))
	assert.False(t, testType.Equal(Type{Domain: "test", Category: "payload", Version: "v2"}))
}

func TestParseUnixMs(t *testing.T) {
	assert.Equal(t, int64(1700000000000), parseUnixMs(float64(1700000000000)))
	assert.Equal(t, int64(1700000000000), parseUnixMs("2023-11-14T22:13:20Z"))
	assert.Equal(t, int64(0), parseUnixMs("garbage"))
	assert.Equal(t, int64(0), parseUnixMs(nil))
}
