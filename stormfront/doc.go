// Package stormfront turns parsed StormFront protocol nodes into displayable
// text tags and side-channel game events.
//
// # Overview
//
// The game server interleaves display text with markup that carries state:
// which stream the text belongs to, whether it is bold or monospaced, what the
// character holds, how much roundtime remains, what the room looks like. A
// Streamer consumes batches of already-parsed nodes and, for each node:
//
//  1. extracts settings and events (prompt, hands, compass, vitals, experience)
//     and reports them through Sinks
//  2. synthesizes at most one TextTag for display
//  3. records the node as the previous node, which later nodes consult
//
// # Usage
//
//	s := stormfront.NewStreamer(stormfront.Sinks{
//	    Setting:   func(key, value string) { vars.Set(key, value) },
//	    Roundtime: func(rt stormfront.Roundtime) { timer.Set(rt.Time) },
//	})
//
//	for batch := range batches {
//	    for _, tag := range s.Stream(batch) {
//	        render(tag)
//	    }
//	}
//
// Every sink is optional. A nil sink drops its events.
//
// # State
//
// Stream state persists across batches: a pushstream in one batch routes the
// text of the next. State and WithState snapshot and restore it; Reset clears
// it. The server is trusted to balance pushstream/popstream and
// pushbold/popbold; unbalanced markup is followed, not repaired.
//
// # Concurrency
//
// A Streamer is not safe for concurrent use. Sinks are called synchronously
// from Stream, in node order.
package stormfront
