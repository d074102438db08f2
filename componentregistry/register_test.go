package componentregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
)

func TestRegister(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))

	assert.ElementsMatch(t,
		[]string{"udp", "stormfront", "command", "websocket", "file"},
		registry.ListComponentTypes())

	schema, err := registry.GetComponentSchema("stormfront")
	require.NoError(t, err)
	assert.Contains(t, schema.Properties, "ports")
}

func TestRegisterTwiceFails(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))

	err := Register(registry)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterNilRegistry(t *testing.T) {
	err := Register(nil)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
