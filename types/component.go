// Package types holds configuration types shared by config and component,
// kept separate to avoid an import cycle between them.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/c360/outlander/errors"
)

// ComponentType is the role of a component in the flow.
type ComponentType string

const (
	ComponentTypeInput     ComponentType = "input"
	ComponentTypeProcessor ComponentType = "processor"
	ComponentTypeOutput    ComponentType = "output"
)

// ComponentConfig describes one component instance in the config file.
type ComponentConfig struct {
	Type    ComponentType   `json:"type"`    // input/processor/output
	Name    string          `json:"name"`    // factory name (e.g., "stormfront", "websocket")
	Enabled bool            `json:"enabled"` // disabled instances are not created
	Config  json.RawMessage `json:"config"`  // component-specific configuration
}

// Validate checks the type and factory name.
func (c ComponentConfig) Validate() error {
	if c.Type == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component type cannot be empty")
	}
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "ComponentConfig", "Validate",
			"component factory name cannot be empty")
	}

	switch c.Type {
	case ComponentTypeInput, ComponentTypeProcessor, ComponentTypeOutput:
		return nil
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ComponentConfig", "Validate",
			fmt.Sprintf("invalid component type: %s", c.Type))
	}
}

func (ct ComponentType) String() string {
	return string(ct)
}

// PlatformMeta identifies the client instance publishing on the bus.
type PlatformMeta struct {
	Org      string // Deployment namespace (e.g., "c360")
	Platform string // Client instance (e.g., "arneth-dr")
}
