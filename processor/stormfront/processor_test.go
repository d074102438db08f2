package stormfront

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/metric"
	sf "github.com/c360/outlander/stormfront"
	"github.com/c360/outlander/testutil"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestProcessor(t *testing.T, rawConfig string, deps component.Dependencies) (
	*Processor, *testutil.MockNATSClient, *testutil.MockKVStore,
) {
	t.Helper()

	comp, err := NewProcessor(json.RawMessage(rawConfig), deps)
	require.NoError(t, err)
	p := comp.(*Processor)

	bus := testutil.NewMockNATSClient()
	kv := testutil.NewMockKVStore()
	p.bus = bus
	p.store = kv
	p.now = func() time.Time { return fixedNow }
	p.retry.InitialDelay = time.Millisecond
	p.retry.MaxDelay = 5 * time.Millisecond

	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop(time.Second) })

	return p, bus, kv
}

func publishBatch(t *testing.T, bus *testutil.MockNATSClient, nodes []sf.Node) {
	t.Helper()
	payload := &NodesPayload{Nodes: nodes}
	data, err := json.Marshal(message.NewBaseMessage(NodesType, payload, "parser"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "outlander.nodes", data))
}

func decode[T message.Payload](t *testing.T, data []byte) T {
	t.Helper()
	var msg message.BaseMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	payload, ok := msg.Payload().(T)
	require.True(t, ok, "unexpected payload %T", msg.Payload())
	return payload
}

func TestProcessor_DefaultConfig(t *testing.T) {
	config := DefaultConfig()

	require.NotNil(t, config.Ports)
	require.Len(t, config.Ports.Inputs, 1)
	assert.Equal(t, "outlander.nodes", config.Ports.Inputs[0].Subject)
	assert.Equal(t, "outlander.nodes.v1", config.Ports.Inputs[0].Interface)

	state, ok := component.FindPort(config.Ports.Outputs, PortState)
	require.True(t, ok)
	assert.Equal(t, "kv-write", state.Type)
	assert.Equal(t, "OUTLANDER_STATE", state.Subject)

	_, hasRaw := component.FindPort(config.Ports.Outputs, PortRaw)
	assert.False(t, hasRaw, "raw tap is opt-in")

	assert.Contains(t, stormfrontSchema.Properties, "ports")
	assert.Equal(t, 1, stormfrontSchema.Properties["kv_history"].Default)
}

func TestProcessor_Creation(t *testing.T) {
	comp, err := NewProcessor(json.RawMessage(`{}`), component.Dependencies{})
	require.NoError(t, err)

	meta := comp.Meta()
	assert.Equal(t, "stormfront-processor", meta.Name)
	assert.Equal(t, "processor", meta.Type)

	inputs := comp.InputPorts()
	require.Len(t, inputs, 1)
	assert.Equal(t, component.NATSPort{
		Subject:   "outlander.nodes",
		Interface: &component.InterfaceContract{Type: "outlander.nodes.v1", Version: "v1"},
	}, inputs[0].Config)

	var bucket string
	for _, port := range comp.OutputPorts() {
		if kv, ok := port.Config.(component.KVWritePort); ok {
			bucket = kv.Bucket
		}
	}
	assert.Equal(t, "OUTLANDER_STATE", bucket)
}

func TestProcessor_CreationErrors(t *testing.T) {
	_, err := NewProcessor(json.RawMessage(`{"ports": 7}`), component.Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewProcessor(json.RawMessage(`{"ports": {"inputs": []}}`), component.Dependencies{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestConfig_KVHistory(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `{}`, want: 1},
		{raw: `{"kv_history": 64}`, want: 64},
		{raw: `{"kv_history": 0}`, wantErr: true},
		{raw: `{"kv_history": 65}`, wantErr: true},
		{raw: `{"kv_history": 256}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			comp, err := NewProcessor(json.RawMessage(tt.raw), component.Dependencies{})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
				assert.ErrorIs(t, err, errors.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, comp.(*Processor).config.KVHistory)
		})
	}
}

func TestProcessor_Session(t *testing.T) {
	p, bus, kv := newTestProcessor(t, `{}`, component.Dependencies{})

	for _, batch := range testutil.Session() {
		publishBatch(t, bus, batch)
	}

	// The login batch renders nothing.
	tagMsgs := bus.GetMessages("outlander.tags")
	require.Len(t, tagMsgs, 3)
	for i, data := range tagMsgs {
		tags := decode[*TagsPayload](t, data)
		assert.Equal(t, uint64(i+1), tags.Sequence)
		assert.NotEmpty(t, tags.Tags)
	}

	combat := decode[*TagsPayload](t, tagMsgs[2])
	assert.Equal(t, "You skin the musk hog.", combat.Tags[0].Text)
	assert.True(t, combat.Tags[0].Bold)

	rooms := bus.GetMessages("outlander.events.room")
	require.Len(t, rooms, 4, "one per room component")
	assert.Equal(t, "[The Crossing, Hodierna Way]", decode[*RoomPayload](t, rooms[0]).Title)

	rts := bus.GetMessages("outlander.events.roundtime")
	require.Len(t, rts, 1)
	assert.True(t, fixedNow.Add(4*time.Second).Equal(decode[*RoundtimePayload](t, rts[0]).Ends))

	exps := bus.GetMessages("outlander.events.experience")
	require.Len(t, exps, 1)
	skill := decode[*ExperiencePayload](t, exps[0]).Skill
	assert.Equal(t, "Skinning", skill.Name)
	assert.Equal(t, "10.34", skill.Ranks.StringFixed(2))

	vitals := bus.GetMessages("outlander.events.vitals")
	require.Len(t, vitals, 2)
	assert.Equal(t, &VitalsPayload{Name: "health", Value: 88}, decode[*VitalsPayload](t, vitals[0]))

	spells := bus.GetMessages("outlander.events.spell")
	require.Len(t, spells, 1)
	assert.Equal(t, "Ease Burden", decode[*SpellPayload](t, spells[0]).Spell)

	settings := bus.GetMessages("outlander.settings")
	require.NotEmpty(t, settings)
	first := decode[*SettingPayload](t, settings[0])
	assert.Equal(t, &SettingPayload{Key: "charactername", Value: "Arneth"}, first)

	for key, want := range map[string]string{
		"charactername":  "Arneth",
		"game":           "DR",
		"roomtitle":      "[The Crossing, Hodierna Way]",
		"north":          "1",
		"south":          "0",
		"prompt":         "R>",
		"lefthand":       "a bone skinner",
		"righthand":      "Empty",
		"Skinning.Ranks": "10.34",
		"health":         "88",
	} {
		got, ok := kv.Value(key)
		assert.True(t, ok, "missing state key %s", key)
		assert.Equal(t, want, got, "state key %s", key)
	}

	scripts := bus.GetMessages("outlander.script")
	require.Len(t, scripts, 3)
	script := decode[*ScriptPayload](t, scripts[2])
	assert.Equal(t, testutil.CombatBatch(), script.Nodes)
	assert.Equal(t, "You skin the musk hog.\r\nR>\r\n", script.Text)

	assert.Zero(t, bus.GetMessageCount("outlander.raw"))
	assert.Equal(t, 0, p.Health().ErrorCount)
	assert.False(t, p.State().InStream)
}

func TestProcessor_RawTapOnly(t *testing.T) {
	p, bus, kv := newTestProcessor(t, `{
		"ports": {
			"outputs": [
				{"name": "tags", "type": "nats", "subject": "ui.tags"},
				{"name": "raw", "type": "nats", "subject": "outlander.raw"}
			]
		}
	}`, component.Dependencies{})

	batch := testutil.RoomBatch()
	publishBatch(t, bus, batch)

	raws := bus.GetMessages("outlander.raw")
	require.Len(t, raws, len(batch))
	assert.Equal(t, batch[0], decode[*RawPayload](t, raws[0]).Node)

	assert.Equal(t, 1, bus.GetMessageCount("ui.tags"))
	assert.Zero(t, bus.GetMessageCount("outlander.settings"))
	assert.Zero(t, bus.GetMessageCount("outlander.events.room"))
	assert.Empty(t, kv.StoredKeys(), "state bucket not configured")
	assert.Equal(t, []string{"outlander.nodes", "outlander.raw", "ui.tags"}, bus.Subjects())
	assert.Equal(t, 0, p.Health().ErrorCount)
}

func TestProcessor_RejectsBadMessages(t *testing.T) {
	p, bus, _ := newTestProcessor(t, `{}`, component.Dependencies{})
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, "outlander.nodes", []byte("not json")))

	wrongType, err := json.Marshal(message.NewBaseMessage(TagsType, &TagsPayload{}, "test"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "outlander.nodes", wrongType))

	empty, err := json.Marshal(message.NewBaseMessage(NodesType, &NodesPayload{}, "test"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "outlander.nodes", empty))

	assert.Equal(t, 3, p.Health().ErrorCount)
	assert.Zero(t, bus.GetMessageCount("outlander.tags"))
}

func TestProcessor_StateRetry(t *testing.T) {
	p, _, kv := newTestProcessor(t, `{}`, component.Dependencies{})

	kv.FailNext(errors.ErrStorageUnavailable, errors.ErrStorageUnavailable)
	p.Process(context.Background(), testutil.LoginBatch())

	got, ok := kv.Value("charactername")
	require.True(t, ok)
	assert.Equal(t, "Arneth", got)
	assert.Equal(t, 0, p.Health().ErrorCount)
}

func TestProcessor_StateInvalidNotRetried(t *testing.T) {
	p, _, kv := newTestProcessor(t, `{}`, component.Dependencies{})

	kv.FailNext(errors.ErrInvalidData)
	p.Process(context.Background(), testutil.LoginBatch())

	_, ok := kv.Value("charactername")
	assert.False(t, ok)
	got, ok := kv.Value("game")
	require.True(t, ok)
	assert.Equal(t, "DR", got)
	assert.Equal(t, 1, p.Health().ErrorCount)
}

func TestProcessor_PublishFailure(t *testing.T) {
	p, bus, _ := newTestProcessor(t, `{}`, component.Dependencies{})
	bus.FailPublish(fmt.Errorf("connection lost"))

	tags := p.Process(context.Background(), testutil.RoomBatch())

	assert.NotEmpty(t, tags, "tags are still returned")
	assert.Positive(t, p.Health().ErrorCount)
}

func TestProcessor_Lifecycle(t *testing.T) {
	p, bus, _ := newTestProcessor(t, `{}`, component.Dependencies{})

	err := p.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)
	assert.True(t, p.Health().Healthy)

	require.NoError(t, p.Stop(time.Second))
	assert.False(t, p.Health().Healthy)
	require.NoError(t, p.Stop(time.Second), "second stop is a no-op")

	publishBatch(t, bus, testutil.RoomBatch())
	assert.Zero(t, bus.GetMessageCount("outlander.tags"), "stopped processor ignores batches")
}

func TestProcessor_RestartSubscribesOnce(t *testing.T) {
	p, bus, _ := newTestProcessor(t, `{}`, component.Dependencies{})
	require.Equal(t, 1, bus.SubscriptionCount("outlander.nodes"))

	require.NoError(t, p.Stop(time.Second))
	assert.Zero(t, bus.SubscriptionCount("outlander.nodes"))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 1, bus.SubscriptionCount("outlander.nodes"))

	publishBatch(t, bus, testutil.RoomBatch())
	assert.Equal(t, 1, bus.GetMessageCount("outlander.tags"), "each batch is streamed once")
	assert.Equal(t, uint64(1), p.sequence)
}

func TestProcessor_StartWithoutBus(t *testing.T) {
	comp, err := NewProcessor(nil, component.Dependencies{})
	require.NoError(t, err)

	err = comp.(*Processor).Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestProcessor_Reset(t *testing.T) {
	p, _, _ := newTestProcessor(t, `{}`, component.Dependencies{})

	p.Process(context.Background(), []sf.Node{sf.NewNode("app").WithAttr("char", "Arneth")})
	assert.True(t, p.State().SuppressUntilEndSetup)

	p.Reset()
	assert.Equal(t, sf.State{}, p.State())
}

func TestProcessor_Metrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	p, bus, _ := newTestProcessor(t, `{}`, component.Dependencies{MetricsRegistry: registry})
	require.NotNil(t, p.metrics)

	for _, batch := range testutil.Session() {
		publishBatch(t, bus, batch)
	}

	assert.Equal(t, 4.0, promtestutil.ToFloat64(p.metrics.batches.WithLabelValues(p.name)))
	assert.Equal(t, 4.0, promtestutil.ToFloat64(p.metrics.events.WithLabelValues(p.name, "room")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(p.metrics.events.WithLabelValues(p.name, "experience")))

	flow := p.DataFlow()
	assert.Zero(t, flow.ErrorRate)
	assert.False(t, flow.LastActivity.IsZero())

	// A second instance on the same registry runs without metrics.
	second, err := NewProcessor(nil, component.Dependencies{MetricsRegistry: registry})
	require.NoError(t, err)
	assert.Nil(t, second.(*Processor).metrics)
}

func TestRegister(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))
	assert.Contains(t, registry.ListComponentTypes(), "stormfront")

	schema, err := registry.GetComponentSchema("stormfront")
	require.NoError(t, err)
	assert.Equal(t, stormfrontSchema, schema)
}
