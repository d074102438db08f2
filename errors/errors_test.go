package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(7).String())
	assert.Equal(t, "unknown", ErrorClass(-1).String())
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		class ErrorClass
	}{
		{"connection lost", ErrConnectionLost, ErrorTransient},
		{"circuit open", fmt.Errorf("publish: %w", ErrCircuitOpen), ErrorTransient},
		{"deadline", context.DeadlineExceeded, ErrorTransient},
		{"canceled", context.Canceled, ErrorTransient},
		{"timeout text", errors.New("i/o timeout"), ErrorTransient},
		{"bucket missing", ErrBucketNotFound, ErrorFatal},
		{"bad config", fmt.Errorf("load: %w", ErrInvalidConfig), ErrorFatal},
		{"panic text", errors.New("panic in handler"), ErrorFatal},
		{"empty batch", ErrEmptyBatch, ErrorInvalid},
		{"unknown command", fmt.Errorf("parse: %w", ErrUnknownCommand), ErrorInvalid},
		{"unknown payload", ErrUnknownPayload, ErrorInvalid},
		{"explicit invalid beats text", WrapInvalid(errors.New("connection reset"), "c", "m", "a"), ErrorInvalid},
		{"explicit fatal beats sentinel", WrapFatal(ErrConnectionLost, "c", "m", "a"), ErrorFatal},
		{"explicit transient beats sentinel", WrapTransient(ErrInvalidConfig, "c", "m", "a"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, Classify(tt.err))
			assert.Equal(t, tt.class == ErrorTransient, IsTransient(tt.err))
			if tt.class == ErrorFatal {
				assert.True(t, IsFatal(tt.err))
			}
			if tt.class == ErrorInvalid {
				assert.True(t, IsInvalid(tt.err))
			}
		})
	}
}

func TestClassification_Nil(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsFatal(nil))
	assert.False(t, IsInvalid(nil))
	assert.Equal(t, ErrorTransient, Classify(nil))
}

func TestClassify_UnrecognisedIsRetried(t *testing.T) {
	err := errors.New("something odd")
	assert.False(t, IsTransient(err))
	assert.False(t, IsFatal(err))
	assert.False(t, IsInvalid(err))
	assert.Equal(t, ErrorTransient, Classify(err))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "c", "m", "a"))
	assert.Nil(t, WrapTransient(nil, "c", "m", "a"))
	assert.Nil(t, WrapInvalid(nil, "c", "m", "a"))
	assert.Nil(t, WrapFatal(nil, "c", "m", "a"))

	err := Wrap(ErrEmptyBatch, "StormfrontProcessor", "handleMessage", "validate batch")
	assert.EqualError(t, err, "StormfrontProcessor.handleMessage: validate batch failed: empty node batch")
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestWrapClassified(t *testing.T) {
	err := WrapTransient(ErrConnectionLost, "natsclient", "Publish", "publish to outlander.tags")
	assert.EqualError(t, err, "natsclient.Publish: publish to outlander.tags failed: connection lost")
	assert.ErrorIs(t, err, ErrConnectionLost)

	var ce *ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Equal(t, "natsclient", ce.Component)
	assert.Equal(t, "Publish", ce.Operation)

	// The class survives further wrapping.
	outer := fmt.Errorf("batch 7: %w", WrapFatal(ErrBucketNotFound, "kv", "Open", "open bucket"))
	assert.True(t, IsFatal(outer))
	assert.ErrorIs(t, outer, ErrBucketNotFound)
}

func TestRetryConfig_Delay(t *testing.T) {
	rc := RetryConfig{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, BackoffFactor: 2}
	assert.Equal(t, 10*time.Millisecond, rc.delay(0))
	assert.Equal(t, 20*time.Millisecond, rc.delay(1))
	assert.Equal(t, 40*time.Millisecond, rc.delay(2))
	assert.Equal(t, 50*time.Millisecond, rc.delay(3))
	assert.Equal(t, 50*time.Millisecond, rc.delay(10))
}

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestRetryConfig_Retry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := fastRetry(3).Retry(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return ErrStorageUnavailable
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := fastRetry(2).Retry(context.Background(), func(context.Context) error {
			calls++
			return ErrConnectionLost
		})
		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.ErrorIs(t, err, ErrConnectionLost)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		calls := 0
		err := fastRetry(5).Retry(context.Background(), func(context.Context) error {
			calls++
			return WrapInvalid(ErrInvalidData, "c", "m", "a")
		})
		assert.True(t, IsInvalid(err))
		assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		rc := RetryConfig{MaxRetries: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}
		err := rc.Retry(ctx, func(context.Context) error {
			cancel()
			return ErrConnectionTimeout
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDefaultRetryConfig(t *testing.T) {
	rc := DefaultRetryConfig()
	assert.Equal(t, 3, rc.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, time.Second, rc.MaxDelay)
	assert.Equal(t, 2.0, rc.BackoffFactor)
}
