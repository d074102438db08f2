package component

import (
	"fmt"
	"sync"

	"github.com/c360/outlander/errors"
)

// PayloadFactory creates an empty payload for decoding. It returns any so this
// package does not import message; the value implements message.Payload.
type PayloadFactory func() any

// PayloadRegistration describes one payload type.
type PayloadRegistration struct {
	Factory     PayloadFactory `json:"-"`
	Domain      string         `json:"domain"`   // "outlander"
	Category    string         `json:"category"` // "tags", "setting", ...
	Version     string         `json:"version"`  // "v1"
	Description string         `json:"description"`
}

// MessageType returns "domain.category.version".
func (pr *PayloadRegistration) MessageType() string {
	return fmt.Sprintf("%s.%s.%s", pr.Domain, pr.Category, pr.Version)
}

// PayloadRegistry maps message types to payload factories so
// BaseMessage.UnmarshalJSON can rebuild typed payloads.
type PayloadRegistry struct {
	registrations map[string]*PayloadRegistration
	mu            sync.RWMutex
}

// NewPayloadRegistry creates an empty registry.
func NewPayloadRegistry() *PayloadRegistry {
	return &PayloadRegistry{
		registrations: make(map[string]*PayloadRegistration),
	}
}

// RegisterPayload adds a registration. Duplicate types are rejected.
func (pr *PayloadRegistry) RegisterPayload(registration *PayloadRegistration) error {
	switch {
	case registration == nil:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload", "registration validation")
	case registration.Factory == nil:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload", "factory function validation")
	case registration.Domain == "":
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload", "domain validation")
	case registration.Category == "":
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload", "category validation")
	case registration.Version == "":
		return errors.WrapInvalid(errors.ErrInvalidConfig, "PayloadRegistry", "RegisterPayload", "version validation")
	}

	msgType := registration.MessageType()

	pr.mu.Lock()
	defer pr.mu.Unlock()

	if _, exists := pr.registrations[msgType]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("payload type '%s' is already registered", msgType),
			"PayloadRegistry",
			"RegisterPayload",
			"duplicate payload check",
		)
	}

	pr.registrations[msgType] = registration
	return nil
}

// CreatePayload returns a new payload for the type, or nil if unregistered.
func (pr *PayloadRegistry) CreatePayload(domain, category, version string) any {
	typeStr := fmt.Sprintf("%s.%s.%s", domain, category, version)

	pr.mu.RLock()
	registration, exists := pr.registrations[typeStr]
	pr.mu.RUnlock()

	if !exists {
		return nil
	}
	return registration.Factory()
}

// ListPayloads returns copies of all registrations, without factories.
func (pr *PayloadRegistry) ListPayloads() map[string]*PayloadRegistration {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	result := make(map[string]*PayloadRegistration, len(pr.registrations))
	for msgType, registration := range pr.registrations {
		result[msgType] = &PayloadRegistration{
			Domain:      registration.Domain,
			Category:    registration.Category,
			Version:     registration.Version,
			Description: registration.Description,
		}
	}
	return result
}

var globalPayloadRegistry = NewPayloadRegistry()

// RegisterPayload registers a payload type process-wide. Payload packages call
// it from init.
func RegisterPayload(registration *PayloadRegistration) error {
	return globalPayloadRegistry.RegisterPayload(registration)
}

// CreatePayload creates a payload from the process-wide registry.
func CreatePayload(domain, category, version string) any {
	return globalPayloadRegistry.CreatePayload(domain, category, version)
}

// ListPayloads lists the process-wide registrations.
func ListPayloads() map[string]*PayloadRegistration {
	return globalPayloadRegistry.ListPayloads()
}
