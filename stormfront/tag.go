package stormfront

import "strings"

// TextTag is one presentation-ready text segment. Empty strings mean the
// attribute is absent; an empty TargetWindow routes to the main window.
type TextTag struct {
	Text            string `json:"text"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Bold            bool   `json:"bold,omitempty"`
	Mono            bool   `json:"mono,omitempty"`
	TargetWindow    string `json:"target_window,omitempty"`
	Preset          string `json:"preset,omitempty"`
	Href            string `json:"href,omitempty"`
	Command         string `json:"command,omitempty"`
}

var entityReplacer = strings.NewReplacer("&gt;", ">", "&lt;", "<")

// Unescape replaces the two entities the game escapes in text values.
func Unescape(s string) string {
	return entityReplacer.Replace(s)
}
