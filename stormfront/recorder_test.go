package stormfront

import (
	"time"

	"github.com/c360/outlander/experience"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type setting struct {
	Key   string
	Value string
}

// recorder captures every sink invocation in order.
type recorder struct {
	settings    []setting
	exps        []experience.SkillExp
	roundtimes  []Roundtime
	roomChanges int
	vitals      []Vitals
	spells      []string
	nodes       []Node
}

func (r *recorder) sinks() Sinks {
	return Sinks{
		Setting:     func(k, v string) { r.settings = append(r.settings, setting{k, v}) },
		Experience:  func(e experience.SkillExp) { r.exps = append(r.exps, e) },
		Roundtime:   func(rt Roundtime) { r.roundtimes = append(r.roundtimes, rt) },
		RoomChanged: func() { r.roomChanges++ },
		Vitals:      func(v Vitals) { r.vitals = append(r.vitals, v) },
		Spell:       func(s string) { r.spells = append(r.spells, s) },
		Node:        func(n Node) { r.nodes = append(r.nodes, n) },
	}
}

func (r *recorder) setting(key string) (string, bool) {
	for i := len(r.settings) - 1; i >= 0; i-- {
		if r.settings[i].Key == key {
			return r.settings[i].Value, true
		}
	}
	return "", false
}

func newTestStreamer() (*Streamer, *recorder) {
	rec := &recorder{}
	s := NewStreamer(rec.sinks(), WithClock(func() time.Time { return testNow }))
	return s, rec
}
