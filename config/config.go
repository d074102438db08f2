package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/types"
)

// ComponentConfigs holds component instance configurations.
// The map key is the instance name (e.g., "stormfront-main").
// Components are only created if both:
// 1. Their factory has been registered via componentregistry
// 2. They have an entry in this config map with enabled=true
type ComponentConfigs map[string]types.ComponentConfig

// Config represents the complete application configuration
type Config struct {
	Version    string           `json:"version,omitempty"` // Semantic version (e.g., "1.0.0")
	Platform   PlatformConfig   `json:"platform"`
	NATS       NATSConfig       `json:"nats"`
	Metrics    MetricsConfig    `json:"metrics"`
	Components ComponentConfigs `json:"components"`
}

// PlatformConfig identifies this client instance on the bus
type PlatformConfig struct {
	Org       string `json:"org"`                 // Deployment namespace (e.g., "c360")
	ID        string `json:"id"`                  // Instance identifier (e.g., "arneth-dr")
	Character string `json:"character,omitempty"` // Informational; the game reports the real one
	Game      string `json:"game,omitempty"`      // e.g., "DR"
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Validate checks if the config is valid. Org is normalized to lowercase.
func (c *Config) Validate() error {
	if c.Version != "" {
		if _, _, _, err := parseSemVer(c.Version); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
				"Config", "Validate", "version check")
		}
	}

	if c.Platform.Org == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: platform.org", errors.ErrMissingConfig),
			"Config", "Validate", "platform check")
	}
	c.Platform.Org = strings.ToLower(c.Platform.Org)

	if !isValidNATSSubjectPart(c.Platform.Org) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: platform.org %q is not valid for NATS subjects", errors.ErrInvalidConfig, c.Platform.Org),
			"Config", "Validate", "platform check")
	}

	if c.Platform.ID == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: platform.id", errors.ErrMissingConfig),
			"Config", "Validate", "platform check")
	}

	if len(c.NATS.URLs) == 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: nats.urls", errors.ErrMissingConfig),
			"Config", "Validate", "nats check")
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: metrics.port %d out of range", errors.ErrInvalidConfig, c.Metrics.Port),
			"Config", "Validate", "metrics check")
	}

	for instanceName, config := range c.Components {
		if instanceName == "" {
			return errors.WrapInvalid(fmt.Errorf("%w: empty component instance name", errors.ErrInvalidConfig),
				"Config", "Validate", "component check")
		}
		if err := config.Validate(); err != nil {
			return fmt.Errorf("component %s: %w", instanceName, err)
		}
	}

	return nil
}

// PlatformMeta returns the identity handed to components.
func (c *Config) PlatformMeta() types.PlatformMeta {
	return types.PlatformMeta{
		Org:      c.Platform.Org,
		Platform: c.Platform.ID,
	}
}

// NATSURL joins the configured server URLs into the form nats.Connect accepts.
func (c *Config) NATSURL() string {
	return strings.Join(c.NATS.URLs, ",")
}

// EnabledComponents returns the instance names with enabled=true.
func (c *Config) EnabledComponents() []string {
	names := make([]string, 0, len(c.Components))
	for name, cc := range c.Components {
		if cc.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// isValidNATSSubjectPart checks if a string is valid for use in NATS subjects.
// Valid characters are alphanumeric, dots, dashes, and underscores.
func isValidNATSSubjectPart(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) &&
			r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// parseSemVer parses a semantic version string (e.g., "1.2.3")
func parseSemVer(version string) (int, int, int, error) {
	version = strings.TrimPrefix(version, "v")

	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("version must be in format 'major.minor.patch', got '%s'", version)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid version part '%s': %w", part, err)
		}
		nums[i] = n
	}

	return nums[0], nums[1], nums[2], nil
}
