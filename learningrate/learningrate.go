// Package learningrate classifies skill mind states into the fixed learning-rate
// scale reported by the game.
package learningrate

// LearningRate is one entry of the mind state scale.
type LearningRate struct {
	RateID      int    `json:"rate_id"`
	Description string `json:"description"`
}

// table is ordered by RateID; RateID equals the index.
var table = []LearningRate{
	{0, "clear"},
	{1, "dabbling"},
	{2, "perusing"},
	{3, "learning"},
	{4, "thoughtful"},
	{5, "thinking"},
	{6, "considering"},
	{7, "pondering"},
	{8, "ruminating"},
	{9, "concentrating"},
	{10, "attentive"},
	{11, "deliberative"},
	{12, "interested"},
	{13, "examining"},
	{14, "understanding"},
	{15, "absorbing"},
	{16, "intrigued"},
	{17, "scrutinizing"},
	{18, "analyzing"},
	{19, "studious"},
	{20, "focused"},
	{21, "very focused"},
	{22, "engaged"},
	{23, "very engaged"},
	{24, "cogitating"},
	{25, "fascinated"},
	{26, "captivated"},
	{27, "engrossed"},
	{28, "riveted"},
	{29, "very riveted"},
	{30, "rapt"},
	{31, "very rapt"},
	{32, "enthralled"},
	{33, "nearly locked"},
	{34, "mind lock"},
}

// Default is returned for codes outside the scale.
var Default = table[0]

// Max is the highest defined rate code.
const Max = 34

// FromRate returns the entry for code, or Default when code is not on the scale.
func FromRate(code int) LearningRate {
	if code < 0 || code >= len(table) {
		return Default
	}
	return table[code]
}

// FromDescription looks up an entry by its exact, case-sensitive description.
func FromDescription(description string) (LearningRate, bool) {
	for _, lr := range table {
		if lr.Description == description {
			return lr, true
		}
	}
	return LearningRate{}, false
}

// All returns a copy of the scale in rate order.
func All() []LearningRate {
	out := make([]LearningRate, len(table))
	copy(out, table)
	return out
}

// String returns the description.
func (lr LearningRate) String() string {
	return lr.Description
}
