package component

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/errors"
)

func TestValidateFactoryConfig(t *testing.T) {
	deep := strings.Repeat(`{"a":`, 12) + "1" + strings.Repeat("}", 12)
	bigArray := "[" + strings.TrimSuffix(strings.Repeat("1,", 1001), ",") + "]"

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"empty", "", false},
		{"object", `{"ports":{"inputs":[{"name":"in","subject":"outlander.nodes"}]},"bucket":"S"}`, false},
		{"malformed", `{"a":`, true},
		{"too deep", deep, true},
		{"array too large", bigArray, true},
		{"control char", `{"a":"x\u0007"}`, true},
		{"string too long", `{"a":"` + strings.Repeat("x", MaxStringLength+1) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactoryConfig(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

type validatedConfig struct {
	Bucket string `json:"bucket"`
}

func (c *validatedConfig) Validate() error {
	if c.Bucket == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "validatedConfig", "Validate", "bucket check")
	}
	return nil
}

func TestSafeUnmarshal(t *testing.T) {
	var cfg validatedConfig
	require.NoError(t, SafeUnmarshal(json.RawMessage(`{"bucket":"OUTLANDER_STATE"}`), &cfg))
	assert.Equal(t, "OUTLANDER_STATE", cfg.Bucket)

	var empty validatedConfig
	assert.Error(t, SafeUnmarshal(json.RawMessage(`{}`), &empty))
	assert.Error(t, SafeUnmarshal(json.RawMessage(`{"bucket":1}`), &empty))
}

func TestValidateComponentName(t *testing.T) {
	assert.NoError(t, ValidateComponentName("stormfront-1.main_2"))
	assert.Error(t, ValidateComponentName(""))
	assert.Error(t, ValidateComponentName("has space"))
	assert.Error(t, ValidateComponentName(strings.Repeat("a", MaxStringLength+1)))
}

func TestValidatePortNumber(t *testing.T) {
	assert.NoError(t, ValidatePortNumber(1))
	assert.NoError(t, ValidatePortNumber(65535))
	assert.Error(t, ValidatePortNumber(0))
	assert.Error(t, ValidatePortNumber(70000))
}
