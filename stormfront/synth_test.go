package stormfront

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_SingleNode(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		expected []TextTag
	}{
		{"text", TextNode("Hello &lt;there&gt;"), []TextTag{{Text: "Hello <there>"}}},
		{"eot on fresh streamer", NewNode("eot"), []TextTag{{Text: "\r\n"}}},
		{"prompt", NewNode("prompt").WithValue("&gt;"), []TextTag{{Text: ">\r\n"}}},
		{"preset", NewNode("preset").WithAttr("id", "roomDesc").WithValue("A lane."), []TextTag{{Text: "A lane.", Preset: "roomDesc"}}},
		{"preset speech", NewNode("preset").WithAttr("id", "speech").WithValue("You say"), []TextTag{{Text: "You say", Preset: "speech", Color: speechColor}}},
		{"preset thought", NewNode("preset").WithAttr("id", "thought").WithValue("x"), []TextTag{{Text: "x", Preset: "thought", Color: speechColor}}},
		{"anchor", NewNode("a").WithAttr("href", "https://play.net").WithValue("site"), []TextTag{{Text: "site", Href: "https://play.net"}}},
		{"anchor without href", NewNode("a").WithValue("site"), []TextTag{{Text: "site"}}},
		{"b", NewNode("b").WithValue("You yell,"), []TextTag{{Text: "You yell,"}}},
		{"d", NewNode("d").WithAttr("cmd", "look").WithValue("LOOK"), []TextTag{{Text: "LOOK", Command: "look"}}},
		{"d with bold child", NewNode("d").WithAttr("cmd", "get sword").WithChildren(NewNode("b").WithValue("sword")), []TextTag{{Text: "sword", Command: "get sword"}}},
		{"d with other child", NewNode("d").WithValue("x").WithChildren(TextNode("y")), []TextTag{{Text: "x"}}},
		{"dynastream", NewNode("dynastream").WithValue("raw"), []TextTag{{Text: "raw"}}},
		{"dynastream children", NewNode("dynastream").WithValue("raw").WithChildren(TextNode("a"), NewNode("d").WithValue("b"), NewNode("b").WithValue("c")), []TextTag{{Text: "ab"}}},
		{"app", NewNode("app"), []TextTag{}},
		{"pushbold", NewNode("pushbold"), []TextTag{}},
		{"popbold", NewNode("popbold"), []TextTag{}},
		{"pushstream", NewNode("pushstream").WithAttr("id", "thoughts"), []TextTag{}},
		{"popstream", NewNode("popstream"), []TextTag{}},
		{"output", NewNode("output").WithAttr("class", "mono"), []TextTag{}},
		{"endsetup", NewNode("endsetup"), []TextTag{}},
		{"style", NewNode("style").WithAttr("id", "roomName"), []TextTag{}},
		{"component", NewNode("component").WithAttr("id", "room desc").WithValue("x"), []TextTag{}},
		{"unknown", NewNode("resource"), []TextTag{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStreamer()
			if diff := cmp.Diff(tt.expected, s.Stream([]Node{tt.node})); diff != "" {
				t.Errorf("Stream() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSynthesize_SetupSuppression(t *testing.T) {
	s, rec := newTestStreamer()

	tags := s.Stream([]Node{
		TextNode("before"),
		NewNode("app").WithAttr("char", "Arneth"),
		TextNode("during"),
		NewNode("prompt").WithValue("&gt;"),
		NewNode("eot"),
		NewNode("pushbold"),
	})
	assert.Equal(t, []TextTag{{Text: "before"}}, tags)
	assert.True(t, s.State().SuppressUntilEndSetup)
	assert.False(t, s.State().Bold, "toggles are not applied while suppressed")

	// extraction still runs while suppressed
	_, ok := rec.setting("prompt")
	assert.True(t, ok)

	tags = s.Stream([]Node{
		TextNode("still during"),
		NewNode("endsetup"),
		TextNode("after"),
	})
	assert.Equal(t, []TextTag{{Text: "after"}}, tags)
	assert.False(t, s.State().SuppressUntilEndSetup)
}

func TestSynthesize_StreamRouting(t *testing.T) {
	tests := []struct {
		stream string
		window string
	}{
		{"thoughts", "thoughts"},
		{"chatter", "thoughts"},
		{"logons", "arrivals"},
		{"death", "deaths"},
		{"combat", "combat"},
		{"Familiar", "familiar"},
	}

	for _, tt := range tests {
		t.Run(tt.stream, func(t *testing.T) {
			s, _ := newTestStreamer()
			tags := s.Stream([]Node{
				NewNode("pushstream").WithAttr("id", tt.stream),
				TextNode("message"),
				NewNode("popstream"),
			})
			require.Len(t, tags, 1)
			assert.Equal(t, tt.window, tags[0].TargetWindow)
			assert.Equal(t, "message\n", tags[0].Text)
		})
	}
}

func TestSynthesize_StreamSuppression(t *testing.T) {
	for _, stream := range []string{"inv", "talk", "whispers", "ooc", "percWindow"} {
		t.Run(stream, func(t *testing.T) {
			s, _ := newTestStreamer()
			tags := s.Stream([]Node{
				NewNode("pushstream").WithAttr("id", stream),
				TextNode("hidden"),
				NewNode("popstream"),
				TextNode("shown"),
			})
			assert.Equal(t, []TextTag{{Text: "shown"}}, tags)
		})
	}

	t.Run("preset and b in talk", func(t *testing.T) {
		s, _ := newTestStreamer()
		tags := s.Stream([]Node{
			NewNode("pushstream").WithAttr("id", "talk"),
			NewNode("preset").WithAttr("id", "speech").WithValue("You say"),
			NewNode("b").WithValue("You yell,"),
			NewNode("popstream"),
		})
		assert.Empty(t, tags)
	})

	t.Run("b in thoughts", func(t *testing.T) {
		s, _ := newTestStreamer()
		tags := s.Stream([]Node{
			NewNode("pushstream").WithAttr("id", "thoughts"),
			NewNode("b").WithValue("bold"),
		})
		assert.Equal(t, []TextTag{{Text: "bold"}}, tags)
	})

	t.Run("preset in thoughts", func(t *testing.T) {
		s, _ := newTestStreamer()
		tags := s.Stream([]Node{
			NewNode("pushstream").WithAttr("id", "thoughts"),
			NewNode("preset").WithAttr("id", "thought").WithValue("[General]"),
		})
		assert.Equal(t, []TextTag{{Text: "[General]", Preset: "thought", Color: speechColor, TargetWindow: "thoughts"}}, tags)
	})
}

func TestSynthesize_TrimsArrivalsAndDeaths(t *testing.T) {
	for _, stream := range []string{"logons", "death"} {
		t.Run(stream, func(t *testing.T) {
			s, _ := newTestStreamer()
			tags := s.Stream([]Node{
				NewNode("pushstream").WithAttr("id", stream),
				TextNode(" \t * Arneth joins the adventure.  "),
			})
			require.Len(t, tags, 1)
			assert.Equal(t, "* Arneth joins the adventure.  \n", tags[0].Text)
		})
	}
}

func TestSynthesize_BoldRoundTrip(t *testing.T) {
	s, _ := newTestStreamer()
	tags := s.Stream([]Node{
		NewNode("pushbold"),
		NewNode("b").WithValue("a musk hog"),
		NewNode("popbold"),
		TextNode(" charges!"),
	})

	require.Len(t, tags, 2)
	assert.True(t, tags[0].Bold)
	assert.False(t, tags[1].Bold)
	assert.False(t, s.State().Bold)
}

func TestSynthesize_Mono(t *testing.T) {
	s, _ := newTestStreamer()
	tags := s.Stream([]Node{
		NewNode("output").WithAttr("class", "mono"),
		TextNode("  Skill     Rank"),
		NewNode("output"),
		TextNode("still mono"),
		NewNode("output").WithAttr("class", ""),
		TextNode("proportional"),
	})

	require.Len(t, tags, 3)
	assert.True(t, tags[0].Mono)
	assert.True(t, tags[1].Mono)
	assert.False(t, tags[2].Mono)
}

func TestSynthesize_EOT(t *testing.T) {
	tests := []struct {
		name     string
		before   []Node
		expected int
	}{
		{"after text", []Node{TextNode("hi")}, 1},
		{"after prompt", []Node{NewNode("prompt").WithValue("&gt;")}, 0},
		{"after compass", []Node{NewNode("compass")}, 0},
		{"after component", []Node{NewNode("component").WithAttr("id", "room desc")}, 0},
		{"after popstream", []Node{NewNode("pushstream").WithAttr("id", "x"), NewNode("popstream")}, 0},
		{"after left", []Node{NewNode("left")}, 0},
		{"after switchquickbar", []Node{NewNode("switchquickbar")}, 0},
		{"after style", []Node{NewNode("style").WithAttr("id", "")}, 1},
		{"inside stream", []Node{NewNode("pushstream").WithAttr("id", "combat"), NewNode("b").WithValue("x")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStreamer()
			s.Stream(tt.before)
			tags := s.Stream([]Node{NewNode("eot")})
			assert.Len(t, tags, tt.expected)
			if tt.expected == 1 {
				assert.Equal(t, "\r\n", tags[0].Text)
			}
		})
	}
}

func TestSynthesize_PromptAfterPopStream(t *testing.T) {
	s, _ := newTestStreamer()
	tags := s.Stream([]Node{
		NewNode("pushstream").WithAttr("id", "thoughts"),
		TextNode("You hear"),
		NewNode("popstream"),
		NewNode("prompt").WithValue("&gt;"),
		NewNode("prompt").WithValue("&gt;"),
	})

	require.Len(t, tags, 2)
	assert.Equal(t, "thoughts", tags[0].TargetWindow)
	assert.Equal(t, ">\r\n", tags[1].Text)
}

func TestSynthesize_YouAlsoSee(t *testing.T) {
	s, _ := newTestStreamer()
	tags := s.Stream([]Node{
		NewNode("preset").WithAttr("id", "roomDesc").WithValue("A lane."),
		TextNode("  You also see a bucket."),
	})

	require.Len(t, tags, 2)
	assert.Equal(t, TextTag{Text: "\nYou also see a bucket.", Preset: "roomDesc"}, tags[1])
}

func TestSynthesize_RoomNameColor(t *testing.T) {
	s, _ := newTestStreamer()
	tags := s.Stream([]Node{
		NewNode("style").WithAttr("id", "roomName"),
		TextNode("[The Crossing, Hodierna Way]"),
		NewNode("style").WithAttr("id", ""),
		TextNode("plain"),
	})

	require.Len(t, tags, 2)
	assert.Equal(t, roomNameColor, tags[0].Color)
	assert.Empty(t, tags[1].Color)
}

func TestSynthesize_PushStreamWithoutID(t *testing.T) {
	s, _ := newTestStreamer()
	s.Stream([]Node{
		NewNode("pushstream").WithAttr("id", "combat"),
		NewNode("pushstream"),
	})
	st := s.State()
	assert.True(t, st.InStream)
	assert.Equal(t, "combat", st.StreamID)

	s.Stream([]Node{NewNode("popstream"), NewNode("popstream")})
	st = s.State()
	assert.False(t, st.InStream)
	assert.Empty(t, st.StreamID)
}
