package component

// PortDefinition is the configuration-file form of a port.
type PortDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`    // "nats" (default), "kv-write", "file"
	Subject     string `json:"subject,omitempty"` // subject, bucket name or file path
	Interface   string `json:"interface,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// PortConfig holds the input and output port definitions of a component.
type PortConfig struct {
	Inputs  []PortDefinition `json:"inputs,omitempty"`
	Outputs []PortDefinition `json:"outputs,omitempty"`
}

// Subjects returns the subjects of all NATS definitions in defs.
func Subjects(defs []PortDefinition) []string {
	var subjects []string
	for _, def := range defs {
		if (def.Type == "" || def.Type == "nats") && def.Subject != "" {
			subjects = append(subjects, def.Subject)
		}
	}
	return subjects
}

// FindPort returns the definition named name.
func FindPort(defs []PortDefinition, name string) (PortDefinition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return PortDefinition{}, false
}

// MergePortConfigs overrides defaults by name and appends the remaining
// overrides.
func MergePortConfigs(defaults []Port, overrides []PortDefinition, direction Direction) []Port {
	result := make([]Port, 0, len(defaults)+len(overrides))
	overrideMap := make(map[string]PortDefinition, len(overrides))
	for _, override := range overrides {
		overrideMap[override.Name] = override
	}

	for _, defaultPort := range defaults {
		if override, found := overrideMap[defaultPort.Name]; found {
			result = append(result, BuildPortFromDefinition(override, direction))
			delete(overrideMap, defaultPort.Name)
		} else {
			result = append(result, defaultPort)
		}
	}

	// Keep the order of overrides stable.
	for _, override := range overrides {
		if _, pending := overrideMap[override.Name]; pending {
			result = append(result, BuildPortFromDefinition(override, direction))
		}
	}

	return result
}

// BuildPortFromDefinition converts a definition into a Port.
func BuildPortFromDefinition(def PortDefinition, direction Direction) Port {
	port := Port{
		Name:        def.Name,
		Direction:   direction,
		Required:    def.Required,
		Description: def.Description,
	}

	var iface *InterfaceContract
	if def.Interface != "" {
		iface = &InterfaceContract{Type: def.Interface, Version: "v1"}
	}

	switch def.Type {
	case "kv-write", "kvwrite":
		port.Config = KVWritePort{Bucket: def.Subject, Interface: iface}
	case "kv-read", "kvread":
		port.Config = KVReadPort{Bucket: def.Subject}
	case "file":
		port.Config = FilePort{Path: def.Subject}
	default:
		port.Config = NATSPort{Subject: def.Subject, Interface: iface}
	}

	return port
}
