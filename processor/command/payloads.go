package command

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
)

// Payload types
var (
	CommandType = message.Type{Domain: "outlander", Category: "command", Version: "v1"}
	WindowType  = message.Type{Domain: "outlander", Category: "window", Version: "v1"}
)

func init() {
	if err := component.RegisterPayload(&component.PayloadRegistration{
		Factory:     func() any { return &CommandPayload{} },
		Domain:      CommandType.Domain,
		Category:    CommandType.Category,
		Version:     CommandType.Version,
		Description: "Client command line",
	}); err != nil {
		panic(fmt.Sprintf("register payload %s: %v", CommandType, err))
	}
	if err := component.RegisterPayload(&component.PayloadRegistration{
		Factory:     func() any { return &WindowPayload{} },
		Domain:      WindowType.Domain,
		Category:    WindowType.Category,
		Version:     WindowType.Version,
		Description: "Window management request",
	}); err != nil {
		panic(fmt.Sprintf("register payload %s: %v", WindowType, err))
	}
}

// CommandPayload is one line the user typed.
type CommandPayload struct {
	Line string `json:"line"`
}

func (p *CommandPayload) Schema() message.Type { return CommandType }

func (p *CommandPayload) Validate() error {
	if p.Line == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "CommandPayload", "Validate", "line check")
	}
	return nil
}

func (p *CommandPayload) MarshalJSON() ([]byte, error) {
	type alias CommandPayload
	return json.Marshal((*alias)(p))
}

func (p *CommandPayload) UnmarshalJSON(data []byte) error {
	type alias CommandPayload
	return json.Unmarshal(data, (*alias)(p))
}

// WindowPayload asks the UI to add, show, hide or list a window.
type WindowPayload struct {
	Action string `json:"action"`
	Window string `json:"window"`
}

func (p *WindowPayload) Schema() message.Type { return WindowType }

func (p *WindowPayload) Validate() error {
	if !slices.Contains(windowActions, p.Action) {
		return errors.WrapInvalid(errors.ErrUnknownCommand, "WindowPayload", "Validate", "action check")
	}
	if p.Window == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "WindowPayload", "Validate", "window check")
	}
	return nil
}

func (p *WindowPayload) MarshalJSON() ([]byte, error) {
	type alias WindowPayload
	return json.Marshal((*alias)(p))
}

func (p *WindowPayload) UnmarshalJSON(data []byte) error {
	type alias WindowPayload
	return json.Unmarshal(data, (*alias)(p))
}
