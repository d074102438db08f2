package learningrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRate(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected LearningRate
	}{
		{"clear", 0, LearningRate{0, "clear"}},
		{"middle of scale", 12, LearningRate{12, "interested"}},
		{"multi word", 21, LearningRate{21, "very focused"}},
		{"top of scale", 34, LearningRate{34, "mind lock"}},
		{"above scale", 100, Default},
		{"negative", -1, Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromRate(tt.code))
		})
	}
}

func TestFromDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    LearningRate
		found       bool
	}{
		{"exact match", "dabbling", LearningRate{1, "dabbling"}, true},
		{"multi word", "nearly locked", LearningRate{33, "nearly locked"}, true},
		{"case sensitive", "Dabbling", LearningRate{}, false},
		{"unknown", "bewildered", LearningRate{}, false},
		{"empty", "", LearningRate{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr, ok := FromDescription(tt.description)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, lr)
		})
	}
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, Max+1)
	for i, lr := range all {
		assert.Equal(t, i, lr.RateID)
		assert.Equal(t, lr, FromRate(i))
	}

	all[0].Description = "changed"
	assert.Equal(t, "clear", FromRate(0).Description)
}
