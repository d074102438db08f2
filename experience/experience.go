// Package experience parses the per-skill experience lines the game sends inside
// exp components, in both the verbose and the brief display format.
package experience

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/c360/outlander/learningrate"
)

var (
	// "Skinning:   10 34% dabbling"
	verbosePattern = regexp.MustCompile(`^.+:\s+(\d+)\s(\d+)%\s(\w.*)?.*$`)
	// "Skinning:   10 34%  [ 5/34]"
	briefPattern = regexp.MustCompile(`^.+:\s+(\d+)\s(\d+)%\s+\[\s?(\d+)?.*$`)
)

// SkillExp is the parsed experience of one skill.
type SkillExp struct {
	Name      string                    `json:"name"`
	Ranks     decimal.Decimal           `json:"ranks"`
	MindState learningrate.LearningRate `json:"mind_state"`
	IsNew     bool                      `json:"is_new"`
}

// Setting is a key/value game setting derived from an experience line.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Result holds the parsed skill and the settings to emit, in emission order.
// Matched is false when the text was empty or not in the expected format; the
// skill then carries zero ranks and the default learning rate.
type Result struct {
	Skill    SkillExp
	Settings []Setting
	Matched  bool
}

// Parse dispatches to ParseBrief or ParseVerbose.
func Parse(componentID, text string, isNew, brief bool) Result {
	if brief {
		return ParseBrief(componentID, text, isNew)
	}
	return ParseVerbose(componentID, text, isNew)
}

// ParseVerbose parses "<label>: <ranks> <percent>% <mind state words>".
func ParseVerbose(componentID, text string, isNew bool) Result {
	name := SkillName(componentID)
	m := verbosePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return unmatched(name, isNew)
	}

	rate, ok := learningrate.FromDescription(strings.TrimSpace(m[3]))
	if !ok {
		rate = learningrate.FromRate(0)
	}
	return matched(name, m[1], m[2], rate, isNew)
}

// ParseBrief parses "<label>: <ranks> <percent>% [<rate code>...]".
func ParseBrief(componentID, text string, isNew bool) Result {
	name := SkillName(componentID)
	m := briefPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return unmatched(name, isNew)
	}

	code, err := strconv.Atoi(m[3])
	if err != nil {
		code = 0
	}
	return matched(name, m[1], m[2], learningrate.FromRate(code), isNew)
}

// SkillName strips the "exp_" style prefix from a component id.
func SkillName(componentID string) string {
	if len(componentID) < 4 {
		return ""
	}
	return componentID[4:]
}

// Ranks combines whole ranks and percent into a rank.percent decimal.
// A one-digit percent is zero-padded, so "10" and "5" give 10.05. Clients that
// join the strings as-is report 10.5 instead, so settings for percents below
// 10 differ from theirs.
func Ranks(ranks, percent string) (decimal.Decimal, error) {
	if len(percent) == 1 {
		percent = "0" + percent
	}
	return decimal.NewFromString(ranks + "." + percent)
}

func matched(name, ranks, percent string, rate learningrate.LearningRate, isNew bool) Result {
	value, err := Ranks(ranks, percent)
	if err != nil {
		return unmatched(name, isNew)
	}

	return Result{
		Skill: SkillExp{
			Name:      name,
			Ranks:     value,
			MindState: rate,
			IsNew:     isNew,
		},
		Settings: []Setting{
			{Key: name + ".Ranks", Value: value.StringFixed(2)},
			{Key: name + ".LearningRate", Value: strconv.Itoa(rate.RateID)},
			{Key: name + ".LearningRateName", Value: rate.Description},
		},
		Matched: true,
	}
}

func unmatched(name string, isNew bool) Result {
	rate := learningrate.FromRate(0)
	return Result{
		Skill: SkillExp{
			Name:      name,
			Ranks:     decimal.Zero,
			MindState: rate,
			IsNew:     isNew,
		},
		Settings: []Setting{
			{Key: name + ".LearningRate", Value: strconv.Itoa(rate.RateID)},
			{Key: name + ".LearningRateName", Value: rate.Description},
		},
	}
}
