package stormfront

import "strings"

const (
	roomNameColor = "#0000FF"
	speechColor   = "#99FFFF"
)

var synthesizers = map[Kind]func(*Streamer, Node) (TextTag, bool){
	KindApp:        (*Streamer).tagApp,
	KindText:       (*Streamer).tagText,
	KindEOT:        (*Streamer).tagEOT,
	KindPrompt:     (*Streamer).tagPrompt,
	KindPreset:     (*Streamer).tagPreset,
	KindPushBold:   (*Streamer).tagPushBold,
	KindPopBold:    (*Streamer).tagPopBold,
	KindPushStream: (*Streamer).tagPushStream,
	KindPopStream:  (*Streamer).tagPopStream,
	KindOutput:     (*Streamer).tagOutput,
	KindA:          (*Streamer).tagAnchor,
	KindB:          (*Streamer).tagBold,
	KindD:          (*Streamer).tagCommand,
	KindDynaStream: (*Streamer).tagDynaStream,
}

func (s *Streamer) synthesize(n Node) (TextTag, bool) {
	if s.state.SuppressUntilEndSetup {
		if n.Is(KindEndSetup) {
			s.state.SuppressUntilEndSetup = false
		}
		return TextTag{}, false
	}

	fn, ok := synthesizers[n.Kind()]
	if !ok {
		return TextTag{}, false
	}
	return fn(s, n)
}

// tagFor builds a tag from the node's value with the current toggles.
func (s *Streamer) tagFor(n Node) TextTag {
	return TextTag{
		Text: Unescape(n.Text()),
		Bold: s.state.Bold,
		Mono: s.state.Mono,
	}
}

func (s *Streamer) tagApp(Node) (TextTag, bool) {
	s.state.SuppressUntilEndSetup = true
	return TextTag{}, false
}

func (s *Streamer) tagText(n Node) (TextTag, bool) {
	if s.state.inStreamOf("inv", "talk", "whispers", "ooc", "percWindow") {
		return TextTag{}, false
	}

	tag := s.tagFor(n)
	tag.TargetWindow = WindowForStream(s.state.StreamID)
	if s.state.InStream {
		tag.Text += "\n"
		if s.state.StreamID == "logons" || s.state.StreamID == "death" {
			tag.Text = strings.Trim(tag.Text, " \t")
		}
	}

	if s.state.lastIs(KindPreset) && strings.HasPrefix(tag.Text, "  You also see") {
		tag.Text = "\n" + strings.TrimPrefix(tag.Text, "  ")
		tag.Preset = s.state.Last.ID
	}

	if s.state.lastIs(KindStyle) && s.state.Last.ID == "roomName" {
		tag.Color = roomNameColor
	}
	return tag, true
}

func (s *Streamer) tagEOT(Node) (TextTag, bool) {
	if s.state.InStream || (s.state.Last != nil && eotIgnoredAfter[s.state.Last.Kind]) {
		return TextTag{}, false
	}
	return TextTag{Text: "\r\n"}, true
}

func (s *Streamer) tagPrompt(n Node) (TextTag, bool) {
	if s.state.lastIs(KindPopStream) {
		return TextTag{}, false
	}
	tag := s.tagFor(n)
	tag.Text += "\r\n"
	return tag, true
}

func (s *Streamer) tagPreset(n Node) (TextTag, bool) {
	if s.state.inStreamOf("talk", "whispers", "ooc") {
		return TextTag{}, false
	}

	tag := s.tagFor(n)
	tag.TargetWindow = WindowForStream(s.state.StreamID)
	tag.Preset = n.AttrOr("id", "")
	switch tag.Preset {
	case "speech", "whisper", "thought":
		tag.Color = speechColor
	}
	return tag, true
}

func (s *Streamer) tagPushBold(Node) (TextTag, bool) {
	s.state.Bold = true
	return TextTag{}, false
}

func (s *Streamer) tagPopBold(Node) (TextTag, bool) {
	s.state.Bold = false
	return TextTag{}, false
}

func (s *Streamer) tagPushStream(n Node) (TextTag, bool) {
	s.state.InStream = true
	if id, ok := n.Attr("id"); ok {
		s.state.StreamID = id
	}
	return TextTag{}, false
}

func (s *Streamer) tagPopStream(Node) (TextTag, bool) {
	s.state.InStream = false
	s.state.StreamID = ""
	return TextTag{}, false
}

// tagOutput switches monospaced output; an output node without a class keeps
// the current mode.
func (s *Streamer) tagOutput(n Node) (TextTag, bool) {
	if class, ok := n.Attr("class"); ok {
		s.state.Mono = class == "mono"
	}
	return TextTag{}, false
}

func (s *Streamer) tagAnchor(n Node) (TextTag, bool) {
	tag := s.tagFor(n)
	tag.Href = n.AttrOr("href", "")
	return tag, true
}

func (s *Streamer) tagBold(n Node) (TextTag, bool) {
	// <b>You yell,</b> Hogs!
	if s.state.inStreamOf("talk") {
		return TextTag{}, false
	}
	return s.tagFor(n), true
}

func (s *Streamer) tagCommand(n Node) (TextTag, bool) {
	src := n
	if len(n.Children) > 0 && n.Children[0].Is(KindB) {
		src = n.Children[0]
	}
	tag := s.tagFor(src)
	tag.Command = n.AttrOr("cmd", "")
	return tag, true
}

func (s *Streamer) tagDynaStream(n Node) (TextTag, bool) {
	tag := s.tagFor(n)
	if len(n.Children) > 0 {
		tag.Text = n.ChildText()
	}
	return tag, true
}
