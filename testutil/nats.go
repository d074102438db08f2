package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/c360/outlander/natsclient"
)

// MockNATSClient is an in-memory stand-in for natsclient.Client's Subscribe and
// Publish. Publish delivers synchronously to matching subscribers, which may use
// the '*' and '>' wildcards.
type MockNATSClient struct {
	mu            sync.RWMutex
	messages      map[string][][]byte
	subscriptions map[string][]*MockSubscription
	publishErr    error
	closed        bool
}

// MockSubscription is returned by MockNATSClient.Subscribe.
type MockSubscription struct {
	client  *MockNATSClient
	subject string
	handler func(context.Context, []byte)
}

// Unsubscribe removes the handler; later calls are no-ops.
func (s *MockSubscription) Unsubscribe() error {
	c := s.client
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.subscriptions[s.subject]
	if i := slices.Index(subs, s); i >= 0 {
		c.subscriptions[s.subject] = slices.Delete(subs, i, i+1)
	}
	return nil
}

// NewMockNATSClient creates a new mock NATS client.
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{
		messages:      make(map[string][][]byte),
		subscriptions: make(map[string][]*MockSubscription),
	}
}

// Publish records data and hands it to every matching subscriber.
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client is closed")
	}
	if c.publishErr != nil {
		err := c.publishErr
		c.mu.Unlock()
		return err
	}

	c.messages[subject] = append(c.messages[subject], data)

	var handlers []func(context.Context, []byte)
	for pattern, subs := range c.subscriptions {
		if SubjectMatches(pattern, subject) {
			for _, sub := range subs {
				handlers = append(handlers, sub.handler)
			}
		}
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		handler(msgCtx, data)
		cancel()
	}
	return nil
}

// Subscribe registers handler for subject.
func (c *MockNATSClient) Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("client is closed")
	}
	sub := &MockSubscription{client: c, subject: subject, handler: handler}
	c.subscriptions[subject] = append(c.subscriptions[subject], sub)
	return sub, nil
}

// SubscriptionCount returns the number of live subscriptions on subject.
func (c *MockNATSClient) SubscriptionCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions[subject])
}

// FailPublish makes every following Publish return err; nil restores delivery.
func (c *MockNATSClient) FailPublish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// GetMessages returns a copy of the messages published on subject.
func (c *MockNATSClient) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.messages[subject])
}

// GetMessageCount returns the number of messages on a subject.
func (c *MockNATSClient) GetMessageCount(subject string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages[subject])
}

// Subjects returns every subject that has seen a message, sorted.
func (c *MockNATSClient) Subjects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.messages))
}

// ClearAll clears all messages from all subjects.
func (c *MockNATSClient) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make(map[string][][]byte)
}

// Close closes the mock client.
func (c *MockNATSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// SubjectMatches reports whether subject matches a NATS subscription pattern.
func SubjectMatches(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")
	for i, tok := range p {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) {
			return false
		}
		if tok != "*" && tok != s[i] {
			return false
		}
	}
	return len(p) == len(s)
}

// MockKVStore is an in-memory stand-in for natsclient.KVStore's Put, Get and Keys.
type MockKVStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	revision uint64
	failures []error
}

// NewMockKVStore creates a new mock KV store.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{
		data: make(map[string][]byte),
	}
}

// Put stores a value and returns its revision, unless a queued failure is pending.
func (kv *MockKVStore) Put(_ context.Context, key string, value []byte) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if len(kv.failures) > 0 {
		err := kv.failures[0]
		kv.failures = kv.failures[1:]
		return 0, err
	}

	kv.revision++
	kv.data[key] = slices.Clone(value)
	return kv.revision, nil
}

// FailNext queues errors returned by the following Put calls, in order.
func (kv *MockKVStore) FailNext(errs ...error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.failures = append(kv.failures, errs...)
}

// Value returns the stored value as a string.
func (kv *MockKVStore) Value(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.data[key]
	return string(v), ok
}

// Get returns the stored entry or natsclient.ErrKVKeyNotFound.
func (kv *MockKVStore) Get(_ context.Context, key string) (*natsclient.KVEntry, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	v, ok := kv.data[key]
	if !ok {
		return nil, natsclient.ErrKVKeyNotFound
	}
	return &natsclient.KVEntry{Key: key, Value: slices.Clone(v), Revision: kv.revision}, nil
}

// Keys lists the stored keys, sorted.
func (kv *MockKVStore) Keys(context.Context) ([]string, error) {
	return kv.StoredKeys(), nil
}

// StoredKeys returns all keys, sorted.
func (kv *MockKVStore) StoredKeys() []string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return slices.Sorted(maps.Keys(kv.data))
}

// WaitForMessageCount waits until subject has at least count messages.
func WaitForMessageCount(t *testing.T, client *MockNATSClient, subject string, count int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if client.GetMessageCount(subject) >= count {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d messages on subject %s (got %d)",
		count, subject, client.GetMessageCount(subject))
}
