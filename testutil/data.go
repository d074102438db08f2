package testutil

import "github.com/c360/outlander/stormfront"

var (
	node = stormfront.NewNode
	text = stormfront.TextNode
)

// LoginBatch is the setup block the game sends right after connecting.
func LoginBatch() []stormfront.Node {
	return []stormfront.Node{
		node("mode").WithAttr("id", "GAME"),
		node("app").WithAttr("char", "Arneth").WithAttr("game", "DR").WithAttr("title", "[DR: Arneth] StormFront"),
		node("streamwindow").WithAttr("id", "main").WithAttr("title", "Story").WithAttr("subtitle", " - [The Crossing, Hodierna Way]"),
		text("Please wait for connection to game server."),
		node("endsetup"),
	}
}

// RoomBatch is the response to LOOK in a room with a monster.
func RoomBatch() []stormfront.Node {
	return []stormfront.Node{
		node("streamwindow").WithAttr("id", "main").WithAttr("subtitle", " - [The Crossing, Hodierna Way]"),
		node("component").WithAttr("id", "room desc").WithValue("The cobblestones are slick with rain."),
		node("component").WithAttr("id", "room objs").WithChildren(
			text("You also see "),
			node("pushbold"),
			text("a musk hog"),
			node("popbold"),
			text(" and a bucket."),
		),
		node("component").WithAttr("id", "room players").WithValue(""),
		node("component").WithAttr("id", "room exits").WithChildren(
			text("Obvious paths: "),
			node("d").WithValue("north"),
			text(", "),
			node("d").WithValue("east"),
			text("."),
		),
		node("compass").WithChildren(
			node("dir").WithAttr("value", "n"),
			node("dir").WithAttr("value", "e"),
			node("dir").WithAttr("value", "out"),
		),
		node("style").WithAttr("id", "roomName"),
		text("[The Crossing, Hodierna Way]"),
		node("style").WithAttr("id", ""),
		node("preset").WithAttr("id", "roomDesc").WithValue("The cobblestones are slick with rain."),
		text("  You also see "),
		node("pushbold"),
		node("b").WithValue("a musk hog"),
		node("popbold"),
		text(" and a bucket."),
		node("eot"),
		node("prompt").WithAttr("time", "1700000000").WithValue("&gt;"),
	}
}

// ThoughtBatch is a thought arriving on the thoughts stream.
func ThoughtBatch() []stormfront.Node {
	return []stormfront.Node{
		node("pushstream").WithAttr("id", "thoughts"),
		node("preset").WithAttr("id", "thought").WithValue("[General][Vashti] "),
		text("\"Anyone selling hides?\""),
		node("popstream"),
		node("prompt").WithAttr("time", "1700000003").WithValue("&gt;"),
		node("prompt").WithAttr("time", "1700000004").WithValue("&gt;"),
	}
}

// CombatBatch carries roundtime, hands, spell, indicators, vitals and experience.
func CombatBatch() []stormfront.Node {
	return []stormfront.Node{
		node("roundtime").WithAttr("value", "4"),
		node("left").WithAttr("exist", "1").WithAttr("noun", "skinner").WithValue("a bone skinner"),
		node("right"),
		node("spell").WithValue("Ease Burden"),
		node("indicator").WithAttr("id", "IconKNEELING").WithAttr("visible", "y"),
		node("dialogdata").WithAttr("id", "minivitals").WithChildren(
			node("progressbar").WithAttr("id", "health").WithAttr("value", "88"),
			node("progressbar").WithAttr("id", "fatigue").WithAttr("value", "100"),
		),
		node("component").WithAttr("id", "exp Skinning").WithChildren(
			text("      Skinning:   10 34% "),
			node("d").WithValue("[ 5/34]"),
		),
		node("pushbold"),
		text("You skin the musk hog."),
		node("popbold"),
		node("eot"),
		node("prompt").WithAttr("time", "1700000010").WithValue("R&gt;"),
	}
}

// Session returns the recorded session in delivery order.
func Session() [][]stormfront.Node {
	return [][]stormfront.Node{
		LoginBatch(),
		RoomBatch(),
		ThoughtBatch(),
		CombatBatch(),
	}
}
