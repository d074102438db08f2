// Package component provides the component model of the Outlander service:
// self-describing inputs, processors and outputs, created from configuration
// by registered factories and driven through a common lifecycle.
//
// # Registration
//
// Components are registered explicitly. Each component package exports a
// Register(*Registry) error function, componentregistry.Register calls them
// all, and cmd/outlander calls componentregistry.Register once at startup:
//
//	func Register(registry *component.Registry) error {
//		return registry.RegisterWithConfig(component.RegistrationConfig{
//			Name:        "stormfront",
//			Factory:     NewComponent,
//			Schema:      stormfrontSchema,
//			Type:        "processor",
//			Protocol:    "nats",
//			Domain:      "game",
//			Description: "Turns StormFront node batches into text tags and game events",
//			Version:     "0.1.0",
//		})
//	}
//
// # Creating Instances
//
//	comp, err := registry.CreateComponent("stormfront", types.ComponentConfig{
//		Type:    types.ComponentTypeProcessor,
//		Name:    "stormfront",
//		Enabled: true,
//		Config:  rawConfig,
//	}, deps)
//
// Raw configuration is checked by ValidateFactoryConfig before the factory
// sees it. Exclusive resources (listening sockets, transcript files) are
// tracked so that two instances cannot claim the same one.
//
// # Lifecycle
//
// Components that implement LifecycleComponent are initialized, started with
// the service context and stopped with a timeout, in configuration order.
//
// # Payloads
//
// Payload packages register their message payload factories with
// RegisterPayload from init, so that message.BaseMessage can decode them.
package component
