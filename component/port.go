package component

import (
	"encoding/json"
	"fmt"

	"github.com/c360/outlander/errors"
)

// Direction is the flow direction of a port.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Port is a named connection point of a component.
type Port struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Required    bool      `json:"required"`
	Description string    `json:"description"`
	Config      Portable  `json:"config"`
}

// Portable is implemented by every port configuration type.
type Portable interface {
	ResourceID() string // Unique identifier for conflict detection
	IsExclusive() bool  // Whether only one component may hold the resource
	Type() string       // Port type identifier
}

// InterfaceContract names the payload type a port carries.
type InterfaceContract struct {
	Type    string `json:"type"`              // e.g. "outlander.tags.v1"
	Version string `json:"version,omitempty"` // e.g. "v1"
}

// MarshalJSON writes Config as {"type": ..., "data": ...}.
func (p Port) MarshalJSON() ([]byte, error) {
	type PortAlias Port

	wrapper := struct {
		PortAlias
		Config json.RawMessage `json:"config"`
	}{
		PortAlias: (PortAlias)(p),
	}

	if p.Config != nil {
		configBytes, err := json.Marshal(struct {
			Type string `json:"type"`
			Data any    `json:"data"`
		}{
			Type: p.Config.Type(),
			Data: p.Config,
		})
		if err != nil {
			return nil, errors.Wrap(err, "Port", "MarshalJSON", "config marshaling")
		}
		wrapper.Config = configBytes
	}

	return json.Marshal(wrapper)
}

// UnmarshalJSON restores the concrete Config type from its type tag.
func (p *Port) UnmarshalJSON(data []byte) error {
	type PortAlias Port

	temp := struct {
		*PortAlias
		Config json.RawMessage `json:"config"`
	}{
		PortAlias: (*PortAlias)(p),
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if len(temp.Config) == 0 || string(temp.Config) == "null" {
		return nil
	}

	var configWrapper struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(temp.Config, &configWrapper); err != nil {
		return errors.Wrap(err, "Port", "UnmarshalJSON", "config wrapper unmarshaling")
	}

	decode, ok := portDecoders[configWrapper.Type]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("unknown config type: %s", configWrapper.Type),
			"Port", "UnmarshalJSON", "config type validation")
	}
	cfg, err := decode(configWrapper.Data)
	if err != nil {
		return errors.Wrap(err, "Port", "UnmarshalJSON", configWrapper.Type+" config unmarshaling")
	}

	p.Config = cfg
	return nil
}
