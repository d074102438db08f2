package stormfront

import "strings"

// WindowForStream maps a stream id to the window that displays it.
func WindowForStream(streamID string) string {
	id := strings.ToLower(streamID)
	switch id {
	case "logons":
		return "arrivals"
	case "thoughts", "chatter":
		return "thoughts"
	case "death":
		return "deaths"
	default:
		return id
	}
}

// Direction is a compass exit: the code the game sends and the setting name.
type Direction struct {
	Code string
	Name string
}

// Directions lists every compass exit in reporting order.
var Directions = []Direction{
	{"n", "north"},
	{"s", "south"},
	{"e", "east"},
	{"w", "west"},
	{"ne", "northeast"},
	{"nw", "northwest"},
	{"se", "southeast"},
	{"sw", "southwest"},
	{"up", "up"},
	{"down", "down"},
	{"out", "out"},
}

func directionName(code string) (string, bool) {
	for _, d := range Directions {
		if d.Code == code {
			return d.Name, true
		}
	}
	return "", false
}
