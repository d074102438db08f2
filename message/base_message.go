package message

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
)

// BaseMessage is the standard Message implementation. It is immutable after
// construction.
//
//	// Simple message
//	msg := NewBaseMessage(msgType, payload, "stormfront")
//
//	// With a fixed timestamp (replays, tests)
//	msg := NewBaseMessage(msgType, payload, "stormfront", WithTime(recordedAt))
type BaseMessage struct {
	id      string
	msgType Type
	payload Payload
	meta    Meta
}

// Option configures BaseMessage construction.
type Option func(*BaseMessage)

// WithTime sets the creation timestamp instead of time.Now().
func WithTime(createdAt time.Time) Option {
	return func(m *BaseMessage) {
		if defaultMeta, ok := m.meta.(*DefaultMeta); ok {
			m.meta = NewDefaultMeta(createdAt, defaultMeta.Source())
		}
	}
}

// WithMeta replaces the default metadata.
func WithMeta(meta Meta) Option {
	return func(m *BaseMessage) {
		m.meta = meta
	}
}

// NewBaseMessage creates a message with a fresh UUID.
func NewBaseMessage(msgType Type, payload Payload, source string, opts ...Option) *BaseMessage {
	m := &BaseMessage{
		id:      uuid.New().String(),
		msgType: msgType,
		payload: payload,
		meta:    NewDefaultMeta(time.Now(), source),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ID returns the unique message identifier.
func (m *BaseMessage) ID() string {
	return m.id
}

// Type returns the payload schema.
func (m *BaseMessage) Type() Type {
	return m.msgType
}

// Payload returns the message payload.
func (m *BaseMessage) Payload() Payload {
	return m.payload
}

// Meta returns the message metadata.
func (m *BaseMessage) Meta() Meta {
	return m.meta
}

// Hash returns a SHA256 hash over the message type and payload JSON.
func (m *BaseMessage) Hash() string {
	h := sha256.New()
	h.Write([]byte(m.msgType.String()))
	if m.payload != nil {
		if data, err := m.payload.MarshalJSON(); err == nil {
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the type, payload and metadata.
func (m *BaseMessage) Validate() error {
	if !m.msgType.IsValid() {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate",
			fmt.Sprintf("invalid message type: %s", m.msgType.String()))
	}

	if m.payload == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "payload cannot be nil")
	}

	if err := m.payload.Validate(); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "Validate", "invalid payload")
	}

	if m.meta == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "Validate", "meta cannot be nil")
	}

	return nil
}

type wireFormat struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Meta    map[string]any  `json:"meta"`
}

// MarshalJSON implements json.Marshaler.
func (m *BaseMessage) MarshalJSON() ([]byte, error) {
	if m.payload == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "MarshalJSON", "payload presence check")
	}
	payloadData, err := m.payload.MarshalJSON()
	if err != nil {
		return nil, errors.WrapInvalid(err, "BaseMessage", "MarshalJSON", "payload marshal")
	}

	wire := wireFormat{
		ID:      m.id,
		Type:    m.msgType,
		Payload: json.RawMessage(payloadData),
		Meta: map[string]any{
			"created_at":  toUnixMs(m.meta.CreatedAt()),
			"received_at": toUnixMs(m.meta.ReceivedAt()),
			"source":      m.meta.Source(),
		},
	}

	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler. The payload type must be
// registered with component.RegisterPayload.
func (m *BaseMessage) UnmarshalJSON(data []byte) error {
	var wire wireFormat
	if err := json.Unmarshal(data, &wire); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "wire format unmarshal")
	}

	m.id = wire.ID
	m.msgType = wire.Type

	source, _ := wire.Meta["source"].(string)
	m.meta = NewDefaultMetaWithReceivedAt(
		fromUnixMs(parseUnixMs(wire.Meta["created_at"])),
		fromUnixMs(parseUnixMs(wire.Meta["received_at"])),
		source,
	)

	created := component.CreatePayload(m.msgType.Domain, m.msgType.Category, m.msgType.Version)
	if created == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrUnknownPayload, m.msgType.String()),
			"BaseMessage", "UnmarshalJSON", "payload type lookup")
	}

	payload, ok := created.(Payload)
	if !ok {
		return errors.WrapInvalid(errors.ErrInvalidData, "BaseMessage", "UnmarshalJSON",
			"payload interface check")
	}
	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return errors.WrapInvalid(err, "BaseMessage", "UnmarshalJSON", "payload unmarshal")
	}
	m.payload = payload

	return nil
}
