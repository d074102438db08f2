package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoader_LoadYAML(t *testing.T) {
	path := writeFile(t, "outlander.yaml", `
version: 1.0.0
platform:
  org: C360
  id: arneth-dr
  game: DR
nats:
  urls: ["nats://localhost:4222", "nats://localhost:4223"]
  reconnect_wait: 5s
components:
  stormfront:
    type: processor
    name: stormfront
    enabled: true
    config:
      kv_bucket: OUTLANDER_STATE
  transcript:
    type: output
    name: file
    enabled: false
`)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "c360", cfg.Platform.Org, "org is normalized")
	assert.Equal(t, "arneth-dr", cfg.Platform.ID)
	assert.Equal(t, []string{"nats://localhost:4222", "nats://localhost:4223"}, cfg.NATS.URLs)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects, "default survives")
	assert.Equal(t, 9090, cfg.Metrics.Port)

	require.Contains(t, cfg.Components, "stormfront")
	sf := cfg.Components["stormfront"]
	assert.Equal(t, types.ComponentTypeProcessor, sf.Type)
	assert.JSONEq(t, `{"kv_bucket":"OUTLANDER_STATE"}`, string(sf.Config))

	assert.Equal(t, []string{"stormfront"}, cfg.EnabledComponents())
	assert.Equal(t, types.PlatformMeta{Org: "c360", Platform: "arneth-dr"}, cfg.PlatformMeta())
	assert.Equal(t, "nats://localhost:4222,nats://localhost:4223", cfg.NATSURL())
}

func TestLoader_LayersMerge(t *testing.T) {
	base := writeFile(t, "base.json", `{
		"platform": {"org": "c360", "id": "base"},
		"metrics": {"enabled": true, "port": 9100},
		"components": {
			"stormfront": {"type": "processor", "name": "stormfront", "enabled": true}
		}
	}`)
	override := writeFile(t, "local.yml", `
platform:
  id: local
components:
  renderer:
    type: output
    name: websocket
    enabled: true
`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "c360", cfg.Platform.Org)
	assert.Equal(t, "local", cfg.Platform.ID)
	assert.Equal(t, 9100, cfg.Metrics.Port)
	assert.Len(t, cfg.Components, 2)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeFile(t, "outlander.json", `{"platform": {"org": "c360", "id": "file"}}`)

	t.Setenv("OUTLANDER_PLATFORM_ID", "env")
	t.Setenv("OUTLANDER_NATS_URLS", "nats://a:4222,nats://b:4222")
	t.Setenv("OUTLANDER_NATS_TOKEN", "s3cret")
	t.Setenv("OUTLANDER_METRICS_PORT", "9200")

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env", cfg.Platform.ID)
	assert.Equal(t, []string{"nats://a:4222", "nats://b:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "s3cret", cfg.NATS.Token)
	assert.Equal(t, 9200, cfg.Metrics.Port)
}

func TestLoader_BadMetricsPortEnv(t *testing.T) {
	path := writeFile(t, "outlander.json", `{"platform": {"org": "c360", "id": "file"}}`)
	t.Setenv("OUTLANDER_METRICS_PORT", "ninety")

	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoader_RejectsInput(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "outlander.txt", `{}`},
		{"malformed json", "outlander.json", `{"platform": `},
		{"malformed yaml", "outlander.yaml", "platform: [unclosed"},
		{"too deep", "outlander.json", strings.Repeat("[", maxJSONDepth+1) + strings.Repeat("]", maxJSONDepth+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := NewLoader().LoadFile(path)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateConfigPath_Traversal(t *testing.T) {
	err := validateConfigPath("../../etc/outlander.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.Platform = PlatformConfig{Org: "c360", ID: "arneth-dr"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"bad version", func(c *Config) { c.Version = "one" }, errors.ErrInvalidConfig},
		{"missing org", func(c *Config) { c.Platform.Org = "" }, errors.ErrMissingConfig},
		{"org with spaces", func(c *Config) { c.Platform.Org = "c 360" }, errors.ErrInvalidConfig},
		{"missing id", func(c *Config) { c.Platform.ID = "" }, errors.ErrMissingConfig},
		{"no nats urls", func(c *Config) { c.NATS.URLs = nil }, errors.ErrMissingConfig},
		{"metrics port", func(c *Config) { c.Metrics.Port = 0 }, errors.ErrInvalidConfig},
		{"metrics disabled ignores port", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Port = 0
		}, nil},
		{"bad component", func(c *Config) {
			c.Components = ComponentConfigs{"sf": {Type: "storage", Name: "x"}}
		}, errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": "[[[[", "b": [1, 2]}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": 1}}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": [1}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": [1, 2]`)))

	deep := strings.Repeat("[", maxJSONDepth+1) + strings.Repeat("]", maxJSONDepth+1)
	assert.ErrorContains(t, validateJSONDepth([]byte(deep)), "too deep")
}
