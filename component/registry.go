package component

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/types"
)

// Factory creates a component from its raw JSON configuration.
type Factory func(rawConfig json.RawMessage, deps Dependencies) (Discoverable, error)

// Registration describes a component factory.
type Registration struct {
	Name        string       `json:"name"`     // Factory name (e.g., "stormfront")
	Type        string       `json:"type"`     // input/processor/output
	Protocol    string       `json:"protocol"` // nats, websocket, file
	Domain      string       `json:"domain"`   // game, network, storage
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Schema      ConfigSchema `json:"schema"`
	Factory     Factory      `json:"-"`
}

// RegistrationConfig is the argument to RegisterWithConfig.
type RegistrationConfig struct {
	Name        string
	Factory     Factory
	Schema      ConfigSchema
	Type        string
	Protocol    string
	Domain      string
	Description string
	Version     string
}

// Registry holds component factories and the instances created from them.
type Registry struct {
	factories       map[string]*Registration
	instances       map[string]Discoverable
	resourceTracker map[string]string // resource ID -> instance name
	mu              sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:       make(map[string]*Registration),
		instances:       make(map[string]Discoverable),
		resourceTracker: make(map[string]string),
	}
}

// RegisterWithConfig registers a factory.
func (r *Registry) RegisterWithConfig(config RegistrationConfig) error {
	return r.RegisterFactory(config.Name, &Registration{
		Name:        config.Name,
		Factory:     config.Factory,
		Schema:      config.Schema,
		Type:        config.Type,
		Protocol:    config.Protocol,
		Domain:      config.Domain,
		Description: config.Description,
		Version:     config.Version,
	})
}

// RegisterFactory registers a factory under name.
func (r *Registry) RegisterFactory(name string, registration *Registration) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory name validation")
	}
	if registration == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}
	if registration.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}
	if registration.Type == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "component type validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		msg := fmt.Errorf("factory '%s' is already registered", name)
		return errors.WrapInvalid(msg, "Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[name] = registration
	return nil
}

// CreateComponent builds an instance with the factory named by config.Name
// and registers it as instanceName.
func (r *Registry) CreateComponent(
	instanceName string, config types.ComponentConfig, deps Dependencies,
) (Discoverable, error) {
	if err := ValidateComponentName(instanceName); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance name validation")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "component config validation")
	}
	if deps.NATSClient == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "CreateComponent", "NATS client validation")
	}
	if err := ValidateFactoryConfig(config.Config); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "config validation")
	}

	r.mu.RLock()
	registration, exists := r.factories[config.Name]
	r.mu.RUnlock()

	if !exists {
		msg := fmt.Errorf("unknown component factory '%s'", config.Name)
		return nil, errors.WrapInvalid(msg, "Registry", "CreateComponent", "factory lookup")
	}

	if registration.Type != string(config.Type) {
		msg := fmt.Errorf("component '%s' is type '%s', not '%s'",
			config.Name, registration.Type, config.Type)
		return nil, errors.WrapInvalid(msg, "Registry", "CreateComponent", "type validation")
	}

	rawConfig := config.Config
	if len(rawConfig) == 0 {
		rawConfig = json.RawMessage("{}")
	}

	comp, err := registration.Factory(rawConfig, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "factory execution")
	}

	if err := r.RegisterInstance(instanceName, comp); err != nil {
		return nil, errors.Wrap(err, "Registry", "CreateComponent", "instance registration")
	}

	return comp, nil
}

// RegisterInstance records a created component, rejecting name and exclusive
// resource conflicts.
func (r *Registry) RegisterInstance(name string, comp Discoverable) error {
	if name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterInstance", "instance name validation")
	}
	if comp == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterInstance", "component validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[name]; exists {
		msg := fmt.Errorf("instance '%s' is already registered", name)
		return errors.WrapInvalid(msg, "Registry", "RegisterInstance", "duplicate instance check")
	}

	if err := r.checkResourceConflicts(comp); err != nil {
		return errors.Wrap(err, "Registry", "RegisterInstance", "resource conflict check")
	}

	r.instances[name] = comp
	r.trackComponentResources(name, comp)
	return nil
}

// UnregisterInstance removes an instance and releases its resources.
func (r *Registry) UnregisterInstance(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comp, exists := r.instances[name]; exists {
		r.untrackComponentResources(name, comp)
	}
	delete(r.instances, name)
}

// ListComponents returns a copy of the instance map.
func (r *Registry) ListComponents() map[string]Discoverable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Discoverable, len(r.instances))
	maps.Copy(result, r.instances)
	return result
}

// Component returns the instance named name, or nil.
func (r *Registry) Component(name string) Discoverable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// ListComponentTypes returns the registered factory names, sorted.
func (r *Registry) ListComponentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// GetComponentSchema returns the schema registered with a factory.
func (r *Registry) GetComponentSchema(name string) (ConfigSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, exists := r.factories[name]
	if !exists {
		return ConfigSchema{}, errors.WrapInvalid(
			fmt.Errorf("component type %q not found", name),
			"Registry", "GetComponentSchema", "type lookup")
	}
	return registration.Schema, nil
}

func (r *Registry) checkResourceConflicts(comp Discoverable) error {
	for _, port := range allPorts(comp) {
		if port.Config == nil || !port.Config.IsExclusive() {
			continue
		}
		if networkPort, ok := port.Config.(NetworkPort); ok {
			if err := ValidatePortNumber(networkPort.Port); err != nil {
				return errors.Wrap(err, "Registry", "checkResourceConflicts", "network port validation")
			}
		}
		resourceID := port.Config.ResourceID()
		if existing, exists := r.resourceTracker[resourceID]; exists {
			msg := fmt.Errorf("resource conflict: %s already used by component '%s'", resourceID, existing)
			return errors.WrapInvalid(msg, "Registry", "checkResourceConflicts", "exclusive resource check")
		}
	}
	return nil
}

func (r *Registry) trackComponentResources(instanceName string, comp Discoverable) {
	for _, port := range allPorts(comp) {
		if port.Config != nil && port.Config.IsExclusive() {
			r.resourceTracker[port.Config.ResourceID()] = instanceName
		}
	}
}

func (r *Registry) untrackComponentResources(instanceName string, comp Discoverable) {
	for _, port := range allPorts(comp) {
		if port.Config == nil || !port.Config.IsExclusive() {
			continue
		}
		resourceID := port.Config.ResourceID()
		if r.resourceTracker[resourceID] == instanceName {
			delete(r.resourceTracker, resourceID)
		}
	}
}

func allPorts(comp Discoverable) []Port {
	return append(slices.Clone(comp.InputPorts()), comp.OutputPorts()...)
}
