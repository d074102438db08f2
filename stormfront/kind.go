package stormfront

// Kind is the closed set of protocol node names the processor understands.
// Anything else is KindUnknown and passes through without effect.
type Kind int

const (
	KindUnknown Kind = iota
	KindA
	KindApp
	KindB
	KindClearStream
	KindCompass
	KindCompDef
	KindComponent
	KindD
	KindDialogData
	KindDir
	KindDynaStream
	KindEndSetup
	KindEOT
	KindIndicator
	KindLeft
	KindMode
	KindNav
	KindOutput
	KindPopBold
	KindPopStream
	KindPreset
	KindProgressBar
	KindPrompt
	KindPushBold
	KindPushStream
	KindRight
	KindRoundtime
	KindSpell
	KindStreamWindow
	KindStyle
	KindSwitchQuickBar
	KindText
)

var kindNames = map[string]Kind{
	"a":              KindA,
	"app":            KindApp,
	"b":              KindB,
	"clearstream":    KindClearStream,
	"compass":        KindCompass,
	"compdef":        KindCompDef,
	"component":      KindComponent,
	"d":              KindD,
	"dialogdata":     KindDialogData,
	"dir":            KindDir,
	"dynastream":     KindDynaStream,
	"endsetup":       KindEndSetup,
	"eot":            KindEOT,
	"indicator":      KindIndicator,
	"left":           KindLeft,
	"mode":           KindMode,
	"nav":            KindNav,
	"output":         KindOutput,
	"popbold":        KindPopBold,
	"popstream":      KindPopStream,
	"preset":         KindPreset,
	"progressbar":    KindProgressBar,
	"prompt":         KindPrompt,
	"pushbold":       KindPushBold,
	"pushstream":     KindPushStream,
	"right":          KindRight,
	"roundtime":      KindRoundtime,
	"spell":          KindSpell,
	"streamwindow":   KindStreamWindow,
	"style":          KindStyle,
	"switchquickbar": KindSwitchQuickBar,
	"text":           KindText,
}

var kindStrings = func() map[Kind]string {
	m := make(map[Kind]string, len(kindNames))
	for name, k := range kindNames {
		m[k] = name
	}
	return m
}()

// KindOf maps a node name to its kind. Matching is exact.
func KindOf(name string) Kind {
	if k, ok := kindNames[name]; ok {
		return k
	}
	return KindUnknown
}

// String returns the protocol name, or "unknown".
func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return "unknown"
}

// eotIgnoredAfter lists the kinds after which an eot produces no line break.
var eotIgnoredAfter = map[Kind]bool{
	KindApp:            true,
	KindClearStream:    true,
	KindCompass:        true,
	KindCompDef:        true,
	KindComponent:      true,
	KindDialogData:     true,
	KindIndicator:      true,
	KindLeft:           true,
	KindMode:           true,
	KindNav:            true,
	KindOutput:         true,
	KindPopStream:      true,
	KindPushStream:     true,
	KindRight:          true,
	KindStreamWindow:   true,
	KindSpell:          true,
	KindSwitchQuickBar: true,
	KindPrompt:         true,
}
