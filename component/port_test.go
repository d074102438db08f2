package component

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortables(t *testing.T) {
	tests := []struct {
		name       string
		port       Portable
		resourceID string
		exclusive  bool
		portType   string
	}{
		{"nats", NATSPort{Subject: "outlander.tags"}, "nats:outlander.tags", false, "nats"},
		{"network", NetworkPort{Protocol: "tcp", Host: "0.0.0.0", Port: 8090}, "tcp:0.0.0.0:8090", true, "network"},
		{"file", FilePort{Path: "/tmp/tags.jsonl"}, "file:/tmp/tags.jsonl", true, "file"},
		{"kvwrite", KVWritePort{Bucket: "OUTLANDER_STATE"}, "kvwrite:OUTLANDER_STATE", false, "kvwrite"},
		{"kvread", KVReadPort{Bucket: "OUTLANDER_STATE"}, "kvread:OUTLANDER_STATE", false, "kvread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.resourceID, tt.port.ResourceID())
			assert.Equal(t, tt.exclusive, tt.port.IsExclusive())
			assert.Equal(t, tt.portType, tt.port.Type())
		})
	}
}

func TestPort_JSONRoundTrip(t *testing.T) {
	ports := []Port{
		{Name: "in", Direction: DirectionInput, Required: true, Config: NATSPort{
			Subject:   "outlander.nodes",
			Interface: &InterfaceContract{Type: "outlander.nodes.v1", Version: "v1"},
		}},
		{Name: "state", Direction: DirectionOutput, Config: KVWritePort{Bucket: "OUTLANDER_STATE"}},
		{Name: "snapshot", Direction: DirectionInput, Config: KVReadPort{Bucket: "OUTLANDER_STATE"}},
		{Name: "listen", Direction: DirectionInput, Config: NetworkPort{Protocol: "tcp", Host: "localhost", Port: 8090}},
		{Name: "transcript", Direction: DirectionOutput, Config: FilePort{Path: "/var/log/tags.jsonl"}},
		{Name: "bare", Direction: DirectionOutput},
	}

	for _, port := range ports {
		t.Run(port.Name, func(t *testing.T) {
			data, err := json.Marshal(port)
			require.NoError(t, err)

			var decoded Port
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, port, decoded)
		})
	}
}

func TestPort_UnmarshalUnknownType(t *testing.T) {
	var p Port
	err := json.Unmarshal([]byte(`{"name":"x","config":{"type":"carrier-pigeon","data":{}}}`), &p)
	assert.Error(t, err)
}

func TestBuildPortFromDefinition(t *testing.T) {
	nats := BuildPortFromDefinition(PortDefinition{
		Name: "tags", Subject: "outlander.tags", Interface: "outlander.tags.v1",
	}, DirectionOutput)
	assert.Equal(t, NATSPort{
		Subject:   "outlander.tags",
		Interface: &InterfaceContract{Type: "outlander.tags.v1", Version: "v1"},
	}, nats.Config)
	assert.Equal(t, DirectionOutput, nats.Direction)

	kv := BuildPortFromDefinition(PortDefinition{Name: "state", Type: "kv-write", Subject: "OUTLANDER_STATE"}, DirectionOutput)
	assert.Equal(t, KVWritePort{Bucket: "OUTLANDER_STATE"}, kv.Config)

	read := BuildPortFromDefinition(PortDefinition{Name: "state", Type: "kv-read", Subject: "OUTLANDER_STATE"}, DirectionInput)
	assert.Equal(t, KVReadPort{Bucket: "OUTLANDER_STATE"}, read.Config)

	file := BuildPortFromDefinition(PortDefinition{Name: "log", Type: "file", Subject: "/tmp/x"}, DirectionOutput)
	assert.Equal(t, FilePort{Path: "/tmp/x"}, file.Config)
}

func TestMergePortConfigs(t *testing.T) {
	defaults := []Port{
		{Name: "tags", Direction: DirectionOutput, Config: NATSPort{Subject: "outlander.tags"}},
		{Name: "settings", Direction: DirectionOutput, Config: NATSPort{Subject: "outlander.settings"}},
	}
	overrides := []PortDefinition{
		{Name: "raw", Subject: "outlander.raw"},
		{Name: "tags", Subject: "client1.tags"},
	}

	merged := MergePortConfigs(defaults, overrides, DirectionOutput)
	require.Len(t, merged, 3)
	assert.Equal(t, "client1.tags", merged[0].Config.(NATSPort).Subject)
	assert.Equal(t, "outlander.settings", merged[1].Config.(NATSPort).Subject)
	assert.Equal(t, "raw", merged[2].Name)
}

func TestSubjectsAndFindPort(t *testing.T) {
	defs := []PortDefinition{
		{Name: "a", Subject: "x.a"},
		{Name: "b", Type: "nats", Subject: "x.b"},
		{Name: "state", Type: "kv-write", Subject: "BUCKET"},
		{Name: "empty", Type: "nats"},
	}
	assert.Equal(t, []string{"x.a", "x.b"}, Subjects(defs))

	def, ok := FindPort(defs, "state")
	require.True(t, ok)
	assert.Equal(t, "BUCKET", def.Subject)

	_, ok = FindPort(defs, "missing")
	assert.False(t, ok)
}
