package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayload struct{ n int }

func TestPayloadRegistry(t *testing.T) {
	pr := NewPayloadRegistry()
	reg := &PayloadRegistration{
		Domain:      "outlander",
		Category:    "fake",
		Version:     "v1",
		Description: "fake payload",
		Factory:     func() any { return &fakePayload{n: 7} },
	}
	require.NoError(t, pr.RegisterPayload(reg))
	assert.Equal(t, "outlander.fake.v1", reg.MessageType())

	created := pr.CreatePayload("outlander", "fake", "v1")
	require.IsType(t, &fakePayload{}, created)
	assert.Equal(t, 7, created.(*fakePayload).n)

	assert.Nil(t, pr.CreatePayload("outlander", "fake", "v2"))

	listed := pr.ListPayloads()
	require.Contains(t, listed, "outlander.fake.v1")
	assert.Nil(t, listed["outlander.fake.v1"].Factory)

	assert.Error(t, pr.RegisterPayload(reg), "duplicates are rejected")
}

func TestPayloadRegistry_Validation(t *testing.T) {
	factory := func() any { return nil }
	tests := []struct {
		name string
		reg  *PayloadRegistration
	}{
		{"nil", nil},
		{"no factory", &PayloadRegistration{Domain: "a", Category: "b", Version: "v1"}},
		{"no domain", &PayloadRegistration{Factory: factory, Category: "b", Version: "v1"}},
		{"no category", &PayloadRegistration{Factory: factory, Domain: "a", Version: "v1"}},
		{"no version", &PayloadRegistration{Factory: factory, Domain: "a", Category: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewPayloadRegistry().RegisterPayload(tt.reg))
		})
	}
}
