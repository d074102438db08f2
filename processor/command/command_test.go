package command

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/testutil"
)

func TestParseWindowCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    WindowPayload
		wantErr bool
	}{
		{line: "#window add Combat", want: WindowPayload{Action: "add", Window: "combat"}},
		{line: "#WINDOW Show thoughts", want: WindowPayload{Action: "show", Window: "thoughts"}},
		{line: "#window hide   arrivals  ", want: WindowPayload{Action: "hide", Window: "arrivals"}},
		{line: "#window list all", want: WindowPayload{Action: "list", Window: "all"}},
		{line: "#window list", wantErr: true},
		{line: "#window", wantErr: true},
		{line: "#window close combat", wantErr: true},
		{line: "#window add my combat", wantErr: true},
		{line: "#var foo bar", wantErr: true},
		{line: "look", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseWindowCommand(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrUnknownCommand)
				assert.True(t, errors.IsInvalid(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsWindowCommand(t *testing.T) {
	assert.True(t, IsWindowCommand("#Window add x"))
	assert.True(t, IsWindowCommand("#windowadd"))
	assert.False(t, IsWindowCommand("#win"))
	assert.False(t, IsWindowCommand("say #window"))
}

func newTestProcessor(t *testing.T) (*Processor, *testutil.MockNATSClient) {
	t.Helper()
	comp, err := NewProcessor(nil, component.Dependencies{})
	require.NoError(t, err)
	p := comp.(*Processor)

	bus := testutil.NewMockNATSClient()
	p.bus = bus
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop(time.Second) })
	return p, bus
}

func sendCommand(t *testing.T, bus *testutil.MockNATSClient, line string) {
	t.Helper()
	data, err := json.Marshal(message.NewBaseMessage(CommandType, &CommandPayload{Line: line}, "ui"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "outlander.commands", data))
}

func TestProcessor_RoutesWindowCommands(t *testing.T) {
	p, bus := newTestProcessor(t)

	sendCommand(t, bus, "#window add Combat")
	sendCommand(t, bus, "look")
	sendCommand(t, bus, "#window explode combat")
	sendCommand(t, bus, "#window hide combat")

	msgs := bus.GetMessages("outlander.window")
	require.Len(t, msgs, 2)

	var msg message.BaseMessage
	require.NoError(t, json.Unmarshal(msgs[0], &msg))
	assert.Equal(t, WindowType, msg.Type())
	assert.Equal(t, &WindowPayload{Action: "add", Window: "combat"}, msg.Payload())
	assert.Equal(t, "command-processor", msg.Meta().Source())

	require.NoError(t, json.Unmarshal(msgs[1], &msg))
	assert.Equal(t, &WindowPayload{Action: "hide", Window: "combat"}, msg.Payload())

	assert.Equal(t, 0, p.Health().ErrorCount)
}

func TestProcessor_BadMessages(t *testing.T) {
	p, bus := newTestProcessor(t)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, "outlander.commands", []byte("{")))

	wrong, err := json.Marshal(message.NewBaseMessage(WindowType, &WindowPayload{Action: "add", Window: "x"}, "ui"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "outlander.commands", wrong))

	assert.Equal(t, 2, p.Health().ErrorCount)
	assert.Zero(t, bus.GetMessageCount("outlander.window"))
	assert.InDelta(t, 1.0, p.DataFlow().ErrorRate, 0.0001)
}

func TestProcessor_PublishFailure(t *testing.T) {
	p, bus := newTestProcessor(t)
	bus.FailPublish(errors.ErrConnectionLost)

	err := p.Handle(context.Background(), "#window show combat")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestProcessor_StoppedIgnoresCommands(t *testing.T) {
	p, bus := newTestProcessor(t)
	require.NoError(t, p.Stop(time.Second))
	assert.False(t, p.Health().Healthy)

	sendCommand(t, bus, "#window add combat")
	assert.Zero(t, bus.GetMessageCount("outlander.window"))
}

func TestProcessor_RestartSubscribesOnce(t *testing.T) {
	p, bus := newTestProcessor(t)
	require.Equal(t, 1, bus.SubscriptionCount("outlander.commands"))

	require.NoError(t, p.Stop(time.Second))
	assert.Zero(t, bus.SubscriptionCount("outlander.commands"))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 1, bus.SubscriptionCount("outlander.commands"))

	sendCommand(t, bus, "#window add combat")
	assert.Equal(t, 1, bus.GetMessageCount("outlander.window"))
}

func TestWindowPayload_Validate(t *testing.T) {
	assert.NoError(t, (&WindowPayload{Action: "show", Window: "combat"}).Validate())
	assert.ErrorIs(t, (&WindowPayload{Action: "open", Window: "combat"}).Validate(), errors.ErrUnknownCommand)
	assert.ErrorIs(t, (&WindowPayload{Action: "show"}).Validate(), errors.ErrInvalidData)
	assert.ErrorIs(t, (&CommandPayload{}).Validate(), errors.ErrInvalidData)
}

func TestRegister(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))
	assert.Contains(t, registry.ListComponentTypes(), "command")
}
