// Package errors provides standardized error handling for Outlander components.
//
// # Classification
//
// Errors fall into three classes:
//
//   - Transient: connection loss, timeouts, an unavailable game state bucket (retry)
//   - Invalid: undecodable node batches, unknown payload types, bad commands (drop)
//   - Fatal: bad configuration, missing buckets (stop the component)
//
// Classification survives wrapping, so callers can check any error in a chain:
//
//	if errors.IsTransient(err) {
//	    // retry with backoff
//	}
//
// # Wrapping
//
// All wrapping follows the format
//
//	"component.method: action failed: %w"
//
// via Wrap, WrapTransient, WrapInvalid and WrapFatal:
//
//	return errors.WrapInvalid(err, "stormfront-processor", "handleMessage", "decode node batch")
//
// # Retry
//
// RetryConfig drives exponential backoff for transient failures:
//
//	cfg := errors.DefaultRetryConfig()
//	err := cfg.Retry(ctx, func(ctx context.Context) error {
//	    _, err := kv.Put(ctx, key, value)
//	    return err
//	})
package errors
