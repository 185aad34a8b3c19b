package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhraseSetsAreDisjoint(t *testing.T) {
	for phrase := range confirmPhrases {
		assert.False(t, cancelPhrases[phrase], "%q is in both confirm and cancel sets", phrase)
		assert.False(t, skipPhrases[phrase], "%q is in both confirm and skip sets", phrase)
	}
	for phrase := range cancelPhrases {
		assert.False(t, skipPhrases[phrase], "%q is in both cancel and skip sets", phrase)
	}
}

func TestPhraseClassification(t *testing.T) {
	tests := []struct {
		text    string
		confirm bool
		cancel  bool
		skip    bool
	}{
		{"yes", true, false, false},
		{"Yes!", true, false, false},
		{"  OKAY  ", true, false, false},
		{"כן", true, false, false},
		{"no", false, true, false},
		{"Cancel.", false, true, false},
		{"ביטול", false, true, false},
		{"skip", false, false, true},
		{"דלג", false, false, true},
		{"maybe", false, false, false},
		{"yes please delete it", false, false, false},
		{"", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.confirm, IsConfirmation(tt.text))
			assert.Equal(t, tt.cancel, IsCancellation(tt.text))
			assert.Equal(t, tt.skip, IsSkip(tt.text))
		})
	}
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "dana@example.com", ExtractEmail("dana@example.com"))
	assert.Equal(t, "dana@example.com", ExtractEmail("  dana@example.com  "))
	assert.Equal(t, "", ExtractEmail("dana at example dot com"))
	assert.Equal(t, "", ExtractEmail("her email is dana@example.com"))
	assert.Equal(t, "", ExtractEmail("dana@localhost"))
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		text  string
		count int
		idx   int
		ok    bool
	}{
		{"1", 3, 0, true},
		{"3", 3, 2, true},
		{"4", 3, 0, false},
		{"0", 3, 0, false},
		{"number 2", 3, 1, true},
		{"the second one", 3, 1, true},
		{"first", 3, 0, true},
		{"whatever", 3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			idx, ok := parseChoice(tt.text, tt.count)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.idx, idx)
			}
		})
	}
}
