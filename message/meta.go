package message

import "time"

// Meta describes where and when a message was produced.
type Meta interface {
	CreatedAt() time.Time
	ReceivedAt() time.Time
	// Source is the name of the component that produced the message.
	Source() string
}

// DefaultMeta stores timestamps as Unix milliseconds, matching the wire format.
type DefaultMeta struct {
	createdAt  int64
	receivedAt int64
	source     string
}

// NewDefaultMeta creates metadata received now.
func NewDefaultMeta(createdAt time.Time, source string) *DefaultMeta {
	return NewDefaultMetaWithReceivedAt(createdAt, time.Now(), source)
}

// NewDefaultMetaWithReceivedAt creates metadata with both timestamps given.
func NewDefaultMetaWithReceivedAt(createdAt, receivedAt time.Time, source string) *DefaultMeta {
	return &DefaultMeta{
		createdAt:  toUnixMs(createdAt),
		receivedAt: toUnixMs(receivedAt),
		source:     source,
	}
}

func (m *DefaultMeta) CreatedAt() time.Time {
	return fromUnixMs(m.createdAt)
}

func (m *DefaultMeta) ReceivedAt() time.Time {
	return fromUnixMs(m.receivedAt)
}

func (m *DefaultMeta) Source() string {
	return m.source
}

// toUnixMs returns 0 for the zero time.
func toUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// parseUnixMs reads a wire timestamp. JSON numbers decode as float64; RFC3339
// strings are accepted from older transcripts.
func parseUnixMs(v any) int64 {
	switch ts := v.(type) {
	case float64:
		return int64(ts)
	case int64:
		return ts
	case string:
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
