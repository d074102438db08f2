package stormfront

import (
	"strconv"
	"strings"
	"time"

	"github.com/c360/outlander/experience"
)

var extractors = map[Kind]func(*Streamer, Node){
	KindPrompt:       (*Streamer).extractPrompt,
	KindRoundtime:    (*Streamer).extractRoundtime,
	KindComponent:    (*Streamer).extractComponent,
	KindLeft:         (*Streamer).extractHand,
	KindRight:        (*Streamer).extractHand,
	KindSpell:        (*Streamer).extractSpell,
	KindIndicator:    (*Streamer).extractIndicator,
	KindCompass:      (*Streamer).extractCompass,
	KindStreamWindow: (*Streamer).extractStreamWindow,
	KindDialogData:   (*Streamer).extractDialogData,
	KindApp:          (*Streamer).extractApp,
}

// roomTags are the component settings that describe the current room.
var roomTags = map[string]bool{
	"roomdesc":    true,
	"roomobjs":    true,
	"roomplayers": true,
	"roomexits":   true,
}

func (s *Streamer) extract(n Node) {
	if fn, ok := extractors[n.Kind()]; ok {
		fn(s, n)
	}
}

func (s *Streamer) extractPrompt(n Node) {
	s.sinks.setting("prompt", strings.ReplaceAll(n.Text(), "&gt;", ">"))
	s.sinks.setting("gametime", n.AttrOr("time", ""))
	s.sinks.setting("gametimeupdate", strconv.FormatInt(s.now().Unix(), 10))
}

func (s *Streamer) extractRoundtime(n Node) {
	raw := n.AttrOr("value", "")
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Debug("Ignoring roundtime with unusable value", "value", raw)
		return
	}
	s.sinks.roundtime(Roundtime{Time: s.now().Add(time.Duration(secs) * time.Second)})
}

func (s *Streamer) extractHand(n Node) {
	hand := "Empty"
	if n.HasValue() {
		hand = n.Text()
	}
	s.sinks.setting(n.Name+"hand", hand)
	s.sinks.setting(n.Name+"handnoun", n.AttrOr("noun", ""))
}

func (s *Streamer) extractSpell(n Node) {
	if !n.HasValue() {
		return
	}
	s.sinks.setting("preparedspell", n.Text())
	s.sinks.spell(n.Text())
}

func (s *Streamer) extractIndicator(n Node) {
	id := strings.ToLower(dropPrefix(n.AttrOr("id", ""), 4))
	if id == "" {
		return
	}
	visible := "0"
	if n.HasAttr("visible", "y") {
		visible = "1"
	}
	s.sinks.setting(id, visible)
}

func (s *Streamer) extractCompass(n Node) {
	seen := make(map[string]bool, len(Directions))
	for _, child := range n.Children {
		if !child.Is(KindDir) {
			continue
		}
		code, ok := child.Attr("value")
		if !ok {
			continue
		}
		name, known := directionName(code)
		if !known {
			s.logger.Debug("Ignoring unknown compass direction", "code", code)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		s.sinks.setting(name, "1")
	}

	for _, d := range Directions {
		if !seen[d.Name] {
			s.sinks.setting(d.Name, "0")
		}
	}
}

func (s *Streamer) extractStreamWindow(n Node) {
	if !n.HasAttr("id", "main") {
		return
	}
	subtitle := n.AttrOr("subtitle", "")
	if len([]rune(subtitle)) > 3 {
		s.sinks.setting("roomtitle", dropPrefix(subtitle, 3))
	}
}

func (s *Streamer) extractDialogData(n Node) {
	if !n.HasAttr("id", "minivitals") {
		return
	}
	for _, child := range n.Children {
		if !child.Is(KindProgressBar) {
			continue
		}
		id, ok := child.Attr("id")
		if !ok {
			continue
		}
		value := child.AttrOr("value", "0")
		s.sinks.setting(id, value)

		parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 16)
		if err != nil {
			s.logger.Debug("Ignoring vitals with unusable value", "id", id, "value", value)
			continue
		}
		s.sinks.vitals(Vitals{Name: id, Value: uint16(parsed)})
	}
}

func (s *Streamer) extractApp(n Node) {
	s.sinks.setting("charactername", n.AttrOr("char", ""))
	s.sinks.setting("game", n.AttrOr("game", ""))
}

func (s *Streamer) extractComponent(n Node) {
	id := strings.ReplaceAll(n.AttrOr("id", ""), " ", "_")
	switch {
	case strings.HasPrefix(id, "exp_tdp"):
	case strings.HasPrefix(id, "exp"):
		s.extractExperience(id, n)
	default:
		s.extractRoomComponent(id, n)
	}
}

func (s *Streamer) extractRoomComponent(id string, n Node) {
	key := strings.ReplaceAll(id, "_", "")
	value := n.Text()
	if len(n.Children) > 0 {
		value = n.ChildText()
	}

	if key == "roomobjs" {
		s.extractRoomObjects(n, value)
	}

	s.sinks.setting(key, value)
	if roomTags[key] {
		s.sinks.roomChanged()
	}
}

// extractRoomObjects reports the bold runs of the room objects as monsters.
func (s *Streamer) extractRoomObjects(n Node, value string) {
	if len(n.Children) == 0 {
		s.sinks.setting("roomobjsorig", value)
		s.sinks.setting("monsterlist", "")
		s.sinks.setting("monstercount", "0")
		return
	}

	orig, monsters := boldRuns(n.Children)
	s.sinks.setting("roomobjsorig", orig)
	s.sinks.setting("monsterlist", strings.Join(monsters, "|"))
	s.sinks.setting("monstercount", strconv.Itoa(len(monsters)))
}

// boldRuns concatenates the text of children with bold markers kept inline,
// and collects the text between each pushbold and popbold.
func boldRuns(children []Node) (string, []string) {
	var (
		orig     strings.Builder
		run      strings.Builder
		inBold   bool
		monsters []string
	)
	for _, child := range children {
		switch child.Kind() {
		case KindText, KindD:
			orig.WriteString(child.Text())
			if inBold {
				run.WriteString(child.Text())
			}
		case KindPushBold:
			orig.WriteString("<pushbold/>")
			inBold = true
			run.Reset()
		case KindPopBold:
			orig.WriteString("<popbold/>")
			if inBold {
				monsters = append(monsters, run.String())
			}
			inBold = false
		}
	}
	return orig.String(), monsters
}

func (s *Streamer) extractExperience(id string, n Node) {
	var first *Node
	if len(n.Children) > 0 {
		first = &n.Children[0]
	}
	isNew := first != nil && first.Is(KindPreset) && first.HasAttr("id", "whisper")
	brief := len(n.Children) >= 2 || (first != nil && len(first.Children) > 1)

	src := n
	if isNew {
		src = *first
	}
	text := src.Text()
	if brief {
		text = src.ChildText()
	}

	res := experience.Parse(id, text, isNew, brief)
	for _, setting := range res.Settings {
		s.sinks.setting(setting.Key, setting.Value)
	}
	s.sinks.experience(res.Skill)
}

// dropPrefix removes the first n runes of s.
func dropPrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return ""
	}
	return string(r[n:])
}
