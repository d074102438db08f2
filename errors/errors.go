package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrorClass tells a component what to do with a failure.
type ErrorClass int

const (
	// ErrorTransient failures are retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid failures drop the offending message or request.
	ErrorInvalid
	// ErrorFatal failures stop the component.
	ErrorFatal
)

var classNames = [...]string{
	ErrorTransient: "transient",
	ErrorInvalid:   "invalid",
	ErrorFatal:     "fatal",
}

// String returns the lower-case class name.
func (ec ErrorClass) String() string {
	if ec < 0 || int(ec) >= len(classNames) {
		return "unknown"
	}
	return classNames[ec]
}

// Lifecycle
var (
	ErrAlreadyStarted = errors.New("component already started")
)

// Bus and state store
var (
	ErrConnectionLost     = errors.New("connection lost")
	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrKeyNotFound        = errors.New("key not found")
)

// Game stream
var (
	ErrInvalidData    = errors.New("invalid data format")
	ErrUnknownPayload = errors.New("unknown payload type")
	ErrEmptyBatch     = errors.New("empty node batch")
	ErrUnknownCommand = errors.New("unknown command")
)

// Configuration
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ErrMaxRetriesExceeded is joined with the last failure when retries run out.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")

// Sentinels with a fixed class. Anything else is classified by its message.
var (
	transientSentinels = []error{
		ErrConnectionLost, ErrConnectionTimeout, ErrCircuitOpen, ErrStorageUnavailable,
		context.DeadlineExceeded, context.Canceled,
	}
	fatalSentinels   = []error{ErrInvalidConfig, ErrMissingConfig, ErrBucketNotFound}
	invalidSentinels = []error{ErrInvalidData, ErrUnknownPayload, ErrEmptyBatch, ErrUnknownCommand}

	transientWords = []string{"timeout", "connection", "temporary", "unavailable", "retry"}
	fatalWords     = []string{"fatal", "panic", "invalid config", "missing config"}
)

// ClassifiedError carries a class and the component operation that failed.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

func explicitClass(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	return 0, false
}

func isAny(err error, targets []error) bool {
	return slices.ContainsFunc(targets, func(target error) bool { return errors.Is(err, target) })
}

func mentions(err error, words []string) bool {
	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(words, func(w string) bool { return strings.Contains(msg, w) })
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := explicitClass(err); ok {
		return class == ErrorTransient
	}
	return isAny(err, transientSentinels) || mentions(err, transientWords)
}

// IsFatal reports whether err should stop the component.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := explicitClass(err); ok {
		return class == ErrorFatal
	}
	return isAny(err, fatalSentinels) || mentions(err, fatalWords)
}

// IsInvalid reports whether err was caused by bad input.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	if class, ok := explicitClass(err); ok {
		return class == ErrorInvalid
	}
	return isAny(err, invalidSentinels)
}

// Classify returns the class of err. Unrecognised errors are transient.
func Classify(err error) ErrorClass {
	switch {
	case err == nil, IsTransient(err):
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// Wrap adds context in the form "component.method: action failed: err".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err and marks it transient.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err and marks it invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err and marks it fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// RetryConfig is an exponential backoff policy for transient failures.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig is the policy for bus publishes and game state writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// delay returns the wait before retry number attempt (0-based).
func (rc RetryConfig) delay(attempt int) time.Duration {
	d := rc.InitialDelay
	for range attempt {
		d = time.Duration(float64(d) * rc.BackoffFactor)
		if d >= rc.MaxDelay {
			return rc.MaxDelay
		}
	}
	return d
}

// Retry runs op until it succeeds, fails with a non-transient error, the
// retries run out, or ctx ends.
func (rc RetryConfig) Retry(ctx context.Context, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt >= rc.MaxRetries {
			return fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
		}

		timer := time.NewTimer(rc.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
