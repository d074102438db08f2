package stormfront

import (
	"time"

	"github.com/c360/outlander/experience"
)

// Roundtime marks when the character's action restriction ends.
type Roundtime struct {
	Time time.Time `json:"time"`
}

// Vitals is one progress bar reading, e.g. health or fatigue.
type Vitals struct {
	Name  string `json:"name"`
	Value uint16 `json:"value"`
}

// Sinks receive the facts extracted while streaming, in node order. Any of them
// may be nil.
type Sinks struct {
	Setting     func(key, value string)
	Experience  func(experience.SkillExp)
	Roundtime   func(Roundtime)
	RoomChanged func()
	Vitals      func(Vitals)
	Spell       func(spell string)
	// Node observes every input node before its tag is synthesized.
	Node func(Node)
}

func (s Sinks) setting(key, value string) {
	if s.Setting != nil {
		s.Setting(key, value)
	}
}

func (s Sinks) experience(exp experience.SkillExp) {
	if s.Experience != nil {
		s.Experience(exp)
	}
}

func (s Sinks) roundtime(rt Roundtime) {
	if s.Roundtime != nil {
		s.Roundtime(rt)
	}
}

func (s Sinks) roomChanged() {
	if s.RoomChanged != nil {
		s.RoomChanged()
	}
}

func (s Sinks) vitals(v Vitals) {
	if s.Vitals != nil {
		s.Vitals(v)
	}
}

func (s Sinks) spell(spell string) {
	if s.Spell != nil {
		s.Spell(spell)
	}
}

func (s Sinks) node(n Node) {
	if s.Node != nil {
		s.Node(n)
	}
}
