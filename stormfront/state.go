package stormfront

// Previous is the part of the previously processed node that later nodes look at.
type Previous struct {
	Name string
	Kind Kind
	// ID is the node's id attribute, "" when absent.
	ID string
}

func previousOf(n Node) *Previous {
	return &Previous{
		Name: n.Name,
		Kind: n.Kind(),
		ID:   n.AttrOr("id", ""),
	}
}

// State is the streamer's cross-batch state.
//
// Push/pop pairs for bold and streams are trusted to be balanced by the game
// server; a popstream with no open stream, or a second pushstream, is applied
// as is. InStream tracks StreamID being non-empty except when a pushstream
// arrives without an id, which enters a stream while keeping the previous id.
type State struct {
	// SuppressUntilEndSetup is true between app and endsetup.
	SuppressUntilEndSetup bool
	Mono                  bool
	Bold                  bool
	StreamID              string
	InStream              bool
	// Last is nil until the first node has been processed.
	Last *Previous
}

func (s *State) lastIs(k Kind) bool {
	return s.Last != nil && s.Last.Kind == k
}

func (s *State) inStreamOf(ids ...string) bool {
	if !s.InStream {
		return false
	}
	for _, id := range ids {
		if s.StreamID == id {
			return true
		}
	}
	return false
}
