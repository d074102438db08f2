package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/types"
)

func TestComponentConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  types.ComponentConfig
		wantErr error
	}{
		{
			name: "valid processor",
			config: types.ComponentConfig{
				Type: types.ComponentTypeProcessor, Name: "stormfront", Enabled: true,
				Config: json.RawMessage(`{}`),
			},
		},
		{
			name:   "valid output",
			config: types.ComponentConfig{Type: types.ComponentTypeOutput, Name: "websocket"},
		},
		{
			name:   "valid input",
			config: types.ComponentConfig{Type: types.ComponentTypeInput, Name: "replay"},
		},
		{
			name:    "missing type",
			config:  types.ComponentConfig{Name: "stormfront"},
			wantErr: errors.ErrMissingConfig,
		},
		{
			name:    "missing name",
			config:  types.ComponentConfig{Type: types.ComponentTypeOutput},
			wantErr: errors.ErrMissingConfig,
		},
		{
			name:    "unknown type",
			config:  types.ComponentConfig{Type: "storage", Name: "objectstore"},
			wantErr: errors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestComponentType_String(t *testing.T) {
	assert.Equal(t, "processor", types.ComponentTypeProcessor.String())
}
