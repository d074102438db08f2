// Package componentregistry registers every Outlander component factory.
package componentregistry

import (
	"errors"

	"github.com/c360/outlander/component"
	pkgerrors "github.com/c360/outlander/errors"
	"github.com/c360/outlander/input/udp"
	"github.com/c360/outlander/output/file"
	"github.com/c360/outlander/output/websocket"
	"github.com/c360/outlander/processor/command"
	"github.com/c360/outlander/processor/stormfront"
)

// Register registers all Outlander components with the provided registry:
//
// Inputs:
//   - UDP node feed (node batches from the protocol parser)
//
// Processors:
//   - StormFront stream processor (node batches to tags, settings and events)
//   - Command processor (#window commands)
//
// Outputs:
//   - WebSocket output (renderer clients)
//   - File output (session transcripts)
func Register(registry *component.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := udp.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "UDP input component registration")
	}

	if err := stormfront.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "StormFront processor component registration")
	}

	if err := command.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Command processor component registration")
	}

	if err := websocket.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "WebSocket output component registration")
	}

	if err := file.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "File output component registration")
	}

	return nil
}
