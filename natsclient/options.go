package natsclient

import (
	"fmt"
	"log/slog"
	"time"
)

// ClientOption configures a Client. NewClient fails on the first option that
// returns an error.
type ClientOption func(*Client) error

func positive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, d)
	}
	return nil
}

// Connection

// WithName sets the client name shown in NATS server monitoring.
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if err := positive("timeout", d); err != nil {
			return err
		}
		c.timeout = d
		return nil
	}
}

// WithMaxReconnects caps reconnection attempts; -1 retries forever.
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) error {
		if n < -1 {
			return fmt.Errorf("max reconnects must be -1 or more, got %d", n)
		}
		c.maxReconnects = n
		return nil
	}
}

// WithReconnectWait sets the pause between reconnection attempts.
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) error {
		if err := positive("reconnect wait", d); err != nil {
			return err
		}
		c.reconnectWait = d
		return nil
	}
}

// WithPingInterval sets how often the server connection is pinged.
func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		if err := positive("ping interval", d); err != nil {
			return err
		}
		c.pingInterval = d
		return nil
	}
}

// WithDrainTimeout bounds how long Close waits for subscriptions to drain.
func WithDrainTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if err := positive("drain timeout", d); err != nil {
			return err
		}
		c.drainTimeout = d
		return nil
	}
}

// Authentication. Credentials and token are mutually exclusive.

// WithCredentials authenticates with a username and password.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		if c.token != "" {
			return fmt.Errorf("credentials and token are mutually exclusive")
		}
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken authenticates with a token.
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		if c.username != "" {
			return fmt.Errorf("credentials and token are mutually exclusive")
		}
		c.token = token
		return nil
	}
}

// Circuit breaker and health

// WithCircuitBreakerThreshold sets how many consecutive connect failures open
// the circuit.
func WithCircuitBreakerThreshold(threshold int32) ClientOption {
	return func(c *Client) error {
		if threshold < 1 {
			return fmt.Errorf("circuit breaker threshold must be at least 1, got %d", threshold)
		}
		c.circuitThreshold = threshold
		return nil
	}
}

// WithMaxBackoff caps the circuit breaker backoff. It may not be below one
// second, the initial backoff.
func WithMaxBackoff(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < time.Second {
			return fmt.Errorf("max backoff must be at least 1s, got %v", d)
		}
		c.maxBackoff = d
		return nil
	}
}

// WithHealthInterval sets the health check period; 0 disables the monitor.
func WithHealthInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("health interval cannot be negative, got %v", d)
		}
		c.healthInterval = d
		return nil
	}
}

// Observability

// WithLogger sets the logger for connection events.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger.With("component", "natsclient")
		}
		return nil
	}
}

// WithDisconnectCallback is called with the cause whenever the connection drops.
func WithDisconnectCallback(fn func(error)) ClientOption {
	return func(c *Client) error {
		c.onDisconnect = fn
		return nil
	}
}

// WithReconnectCallback is called after every successful reconnect.
func WithReconnectCallback(fn func()) ClientOption {
	return func(c *Client) error {
		c.onReconnect = fn
		return nil
	}
}

// WithHealthChangeCallback is called when the health monitor sees the
// connection become healthy or unhealthy.
func WithHealthChangeCallback(fn func(healthy bool)) ClientOption {
	return func(c *Client) error {
		c.onHealthChange = fn
		return nil
	}
}
