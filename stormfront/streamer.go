package stormfront

import (
	"log/slog"
	"time"
)

// Option configures a Streamer.
type Option func(*Streamer)

// WithClock sets the time source used for game time updates and roundtimes.
func WithClock(now func() time.Time) Option {
	return func(s *Streamer) {
		s.now = now
	}
}

// WithLogger sets the logger used to report nodes with unusable fields.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Streamer) {
		s.logger = logger
	}
}

// WithState starts the streamer from a previously captured state.
func WithState(state State) Option {
	return func(s *Streamer) {
		s.state = state.clone()
	}
}

// Streamer turns batches of protocol nodes into text tags and game facts.
//
// A Streamer is stateful across batches and is not safe for concurrent use:
// callers must deliver batches one at a time in protocol order.
type Streamer struct {
	state  State
	sinks  Sinks
	now    func() time.Time
	logger *slog.Logger
}

// NewStreamer creates a streamer that reports facts to sinks.
func NewStreamer(sinks Sinks, opts ...Option) *Streamer {
	s := &Streamer{
		sinks:  sinks,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stream processes nodes in order and returns the tags they produce. For each
// node the facts are extracted first, then the node sink sees the node, then
// the tag is synthesized.
func (s *Streamer) Stream(nodes []Node) []TextTag {
	tags := make([]TextTag, 0, len(nodes))
	for _, n := range nodes {
		s.extract(n)
		s.sinks.node(n)
		if tag, ok := s.synthesize(n); ok {
			tags = append(tags, tag)
		}
		s.state.Last = previousOf(n)
	}
	return tags
}

// State returns a copy of the current state.
func (s *Streamer) State() State {
	return s.state.clone()
}

// Reset returns the streamer to its initial state.
func (s *Streamer) Reset() {
	s.state = State{}
}

func (st State) clone() State {
	if st.Last != nil {
		last := *st.Last
		st.Last = &last
	}
	return st
}
