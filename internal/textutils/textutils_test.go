package textutils_test

import (
	"testing"

	"stacknest/internal/textutils"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "NETFLIX", "netflix"},
		{"strips punctuation", "AMZN*Marketplace, Inc.", "amzn marketplace inc"},
		{"collapses whitespace", "  Gym   Membership  ", "gym membership"},
		{"empty input", "", ""},
		{"only punctuation", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.Normalize(tt.input))
		})
	}
}

func TestSignificantWords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"drops short words and stop-words", "Pay the Rent for May", []string{"rent", "may"}},
		{"keeps merchant tokens", "NETFLIX.COM subscription", []string{"netflix", "subscription"}},
		{"nothing significant", "the co inc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutils.SignificantWords(tt.input))
		})
	}
}

func TestSharesSignificantWord(t *testing.T) {
	assert.True(t, textutils.SharesSignificantWord("Electric Bill Payment", "City Electric Utility"))
	assert.False(t, textutils.SharesSignificantWord("Gym Membership", "Grocery Fund"))
	assert.False(t, textutils.SharesSignificantWord("pay the co", "the inc"))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"netflix", "netflix", 0},
		{"netflix", "netflx", 1},
		{"grocery", "groceries", 3},
		{"kitten", "sitting", 3},
		{"spotify", "shopify", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, textutils.Levenshtein(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}
