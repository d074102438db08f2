package stormfront

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/experience"
	"github.com/c360/outlander/message"
	sf "github.com/c360/outlander/stormfront"
)

// Domain is the message domain of every payload this processor reads or writes.
const Domain = "outlander"

// Payload types
var (
	NodesType      = message.Type{Domain: Domain, Category: "nodes", Version: "v1"}
	TagsType       = message.Type{Domain: Domain, Category: "tags", Version: "v1"}
	SettingType    = message.Type{Domain: Domain, Category: "setting", Version: "v1"}
	ScriptType     = message.Type{Domain: Domain, Category: "script", Version: "v1"}
	RawType        = message.Type{Domain: Domain, Category: "raw", Version: "v1"}
	ExperienceType = message.Type{Domain: Domain, Category: "experience", Version: "v1"}
	RoundtimeType  = message.Type{Domain: Domain, Category: "roundtime", Version: "v1"}
	VitalsType     = message.Type{Domain: Domain, Category: "vitals", Version: "v1"}
	RoomType       = message.Type{Domain: Domain, Category: "room", Version: "v1"}
	SpellType      = message.Type{Domain: Domain, Category: "spell", Version: "v1"}
)

func init() {
	registrations := []struct {
		typ         message.Type
		description string
		factory     func() any
	}{
		{NodesType, "Batch of parsed protocol nodes", func() any { return &NodesPayload{} }},
		{TagsType, "Presentation-ready text tags for one batch", func() any { return &TagsPayload{} }},
		{SettingType, "Single game setting update", func() any { return &SettingPayload{} }},
		{ScriptType, "Nodes and rendered text for script engines", func() any { return &ScriptPayload{} }},
		{RawType, "One protocol node as seen by the processor", func() any { return &RawPayload{} }},
		{ExperienceType, "Parsed skill experience", func() any { return &ExperiencePayload{} }},
		{RoundtimeType, "Roundtime end", func() any { return &RoundtimePayload{} }},
		{VitalsType, "Vital statistic update", func() any { return &VitalsPayload{} }},
		{RoomType, "Room changed", func() any { return &RoomPayload{} }},
		{SpellType, "Prepared spell", func() any { return &SpellPayload{} }},
	}

	for _, r := range registrations {
		if err := component.RegisterPayload(&component.PayloadRegistration{
			Factory:     r.factory,
			Domain:      r.typ.Domain,
			Category:    r.typ.Category,
			Version:     r.typ.Version,
			Description: r.description,
		}); err != nil {
			panic(fmt.Sprintf("register payload %s: %v", r.typ, err))
		}
	}
}

// NodesPayload is the processor input: one batch of nodes from the parser.
type NodesPayload struct {
	Nodes []sf.Node `json:"nodes"`
}

func (p *NodesPayload) Schema() message.Type { return NodesType }

// Validate rejects empty batches.
func (p *NodesPayload) Validate() error {
	if len(p.Nodes) == 0 {
		return errors.WrapInvalid(errors.ErrEmptyBatch, "NodesPayload", "Validate", "node count check")
	}
	return nil
}

func (p *NodesPayload) MarshalJSON() ([]byte, error) {
	type alias NodesPayload
	return json.Marshal((*alias)(p))
}

func (p *NodesPayload) UnmarshalJSON(data []byte) error {
	type alias NodesPayload
	return json.Unmarshal(data, (*alias)(p))
}

// TagsPayload carries the tags produced from one node batch. Sequence
// increases by one per published batch of a processor instance.
type TagsPayload struct {
	Sequence uint64       `json:"sequence"`
	Tags     []sf.TextTag `json:"tags"`
}

func (p *TagsPayload) Schema() message.Type { return TagsType }

func (p *TagsPayload) Validate() error { return nil }

func (p *TagsPayload) MarshalJSON() ([]byte, error) {
	type alias TagsPayload
	return json.Marshal((*alias)(p))
}

func (p *TagsPayload) UnmarshalJSON(data []byte) error {
	type alias TagsPayload
	return json.Unmarshal(data, (*alias)(p))
}

// SettingPayload is one key/value game setting.
type SettingPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (p *SettingPayload) Schema() message.Type { return SettingType }

func (p *SettingPayload) Validate() error {
	if p.Key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "SettingPayload", "Validate", "key check")
	}
	return nil
}

func (p *SettingPayload) MarshalJSON() ([]byte, error) {
	type alias SettingPayload
	return json.Marshal((*alias)(p))
}

func (p *SettingPayload) UnmarshalJSON(data []byte) error {
	type alias SettingPayload
	return json.Unmarshal(data, (*alias)(p))
}

// ScriptPayload feeds script engines: the raw nodes of a batch and the text
// their tags rendered.
type ScriptPayload struct {
	Nodes []sf.Node `json:"nodes"`
	Text  string    `json:"text"`
}

func (p *ScriptPayload) Schema() message.Type { return ScriptType }

func (p *ScriptPayload) Validate() error { return nil }

func (p *ScriptPayload) MarshalJSON() ([]byte, error) {
	type alias ScriptPayload
	return json.Marshal((*alias)(p))
}

func (p *ScriptPayload) UnmarshalJSON(data []byte) error {
	type alias ScriptPayload
	return json.Unmarshal(data, (*alias)(p))
}

// RawPayload is one node tapped between extraction and tag synthesis.
type RawPayload struct {
	Node sf.Node `json:"node"`
}

func (p *RawPayload) Schema() message.Type { return RawType }

func (p *RawPayload) Validate() error {
	if p.Node.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "RawPayload", "Validate", "node name check")
	}
	return nil
}

func (p *RawPayload) MarshalJSON() ([]byte, error) {
	type alias RawPayload
	return json.Marshal((*alias)(p))
}

func (p *RawPayload) UnmarshalJSON(data []byte) error {
	type alias RawPayload
	return json.Unmarshal(data, (*alias)(p))
}

// ExperiencePayload reports one skill's experience.
type ExperiencePayload struct {
	Skill experience.SkillExp `json:"skill"`
}

func (p *ExperiencePayload) Schema() message.Type { return ExperienceType }

func (p *ExperiencePayload) Validate() error {
	if p.Skill.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "ExperiencePayload", "Validate", "skill name check")
	}
	return nil
}

func (p *ExperiencePayload) MarshalJSON() ([]byte, error) {
	type alias ExperiencePayload
	return json.Marshal((*alias)(p))
}

func (p *ExperiencePayload) UnmarshalJSON(data []byte) error {
	type alias ExperiencePayload
	return json.Unmarshal(data, (*alias)(p))
}

// RoundtimePayload reports when the current roundtime ends.
type RoundtimePayload struct {
	Ends time.Time `json:"ends"`
}

func (p *RoundtimePayload) Schema() message.Type { return RoundtimeType }

func (p *RoundtimePayload) Validate() error { return nil }

func (p *RoundtimePayload) MarshalJSON() ([]byte, error) {
	type alias RoundtimePayload
	return json.Marshal((*alias)(p))
}

func (p *RoundtimePayload) UnmarshalJSON(data []byte) error {
	type alias RoundtimePayload
	return json.Unmarshal(data, (*alias)(p))
}

// VitalsPayload reports one vital statistic (health, mana, ...).
type VitalsPayload struct {
	Name  string `json:"name"`
	Value uint16 `json:"value"`
}

func (p *VitalsPayload) Schema() message.Type { return VitalsType }

func (p *VitalsPayload) Validate() error {
	if p.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "VitalsPayload", "Validate", "name check")
	}
	return nil
}

func (p *VitalsPayload) MarshalJSON() ([]byte, error) {
	type alias VitalsPayload
	return json.Marshal((*alias)(p))
}

func (p *VitalsPayload) UnmarshalJSON(data []byte) error {
	type alias VitalsPayload
	return json.Unmarshal(data, (*alias)(p))
}

// RoomPayload signals a room change. Title is the last room title seen, if any.
type RoomPayload struct {
	Title string `json:"title,omitempty"`
}

func (p *RoomPayload) Schema() message.Type { return RoomType }

func (p *RoomPayload) Validate() error { return nil }

func (p *RoomPayload) MarshalJSON() ([]byte, error) {
	type alias RoomPayload
	return json.Marshal((*alias)(p))
}

func (p *RoomPayload) UnmarshalJSON(data []byte) error {
	type alias RoomPayload
	return json.Unmarshal(data, (*alias)(p))
}

// SpellPayload reports the spell being prepared.
type SpellPayload struct {
	Spell string `json:"spell"`
}

func (p *SpellPayload) Schema() message.Type { return SpellType }

func (p *SpellPayload) Validate() error {
	if p.Spell == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "SpellPayload", "Validate", "spell check")
	}
	return nil
}

func (p *SpellPayload) MarshalJSON() ([]byte, error) {
	type alias SpellPayload
	return json.Marshal((*alias)(p))
}

func (p *SpellPayload) UnmarshalJSON(data []byte) error {
	type alias SpellPayload
	return json.Unmarshal(data, (*alias)(p))
}
