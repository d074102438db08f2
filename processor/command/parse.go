package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360/outlander/errors"
)

const windowPrefix = "#window"

var windowActions = []string{"add", "show", "hide", "list"}

// IsWindowCommand reports whether line is addressed to the window handler.
func IsWindowCommand(line string) bool {
	return len(line) >= len(windowPrefix) && strings.EqualFold(line[:len(windowPrefix)], windowPrefix)
}

// ParseWindowCommand parses "#window <action> <name>". The name is the last
// space-separated word; everything between the prefix and the name is the
// action. Action and name are lowercased.
func ParseWindowCommand(line string) (WindowPayload, error) {
	if !IsWindowCommand(line) {
		return WindowPayload{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownCommand, line),
			"Command", "ParseWindowCommand", "prefix check")
	}

	rest := strings.TrimSpace(line[len(windowPrefix):])
	i := strings.LastIndex(rest, " ")
	if i < 0 {
		return WindowPayload{}, errors.WrapInvalid(
			fmt.Errorf("%w: expected <action> <window>, got %q", errors.ErrUnknownCommand, rest),
			"Command", "ParseWindowCommand", "argument check")
	}

	action := strings.ToLower(strings.TrimSpace(rest[:i]))
	if !slices.Contains(windowActions, action) {
		return WindowPayload{}, errors.WrapInvalid(
			fmt.Errorf("%w: window action %q", errors.ErrUnknownCommand, action),
			"Command", "ParseWindowCommand", "action check")
	}

	return WindowPayload{
		Action: action,
		Window: strings.ToLower(rest[i+1:]),
	}, nil
}
