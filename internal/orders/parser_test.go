package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name string
		text string
		want OrderCandidate
		ok   bool
	}{
		{"dash separator", "Coffee - 30k", OrderCandidate{"Coffee", 30000}, true},
		{"no separator", "Coffee 30k", OrderCandidate{"Coffee", 30000}, true},
		{"uppercase suffix", "Coffee - 30K", OrderCandidate{"Coffee", 30000}, true},
		{"extra spaces around dash", "Cafe sua da   -   52k", OrderCandidate{"Cafe sua da", 52000}, true},
		{"multi word no dash", "Tra dao cam sa 45k", OrderCandidate{"Tra dao cam sa", 45000}, true},
		{"dash pattern wins over space pattern", "Americano - Iced - 45k", OrderCandidate{"Americano - Iced", 45000}, true},
		{"name keeps inner dashes", "A - B - 30k", OrderCandidate{"A - B", 30000}, true},
		{"single digit", "Tea 5k", OrderCandidate{"Tea", 5000}, true},
		{"large amount", "Banh mi 150k", OrderCandidate{"Banh mi", 150000}, true},

		{"no amount suffix", "hello everyone", OrderCandidate{}, false},
		{"amount without k", "Coffee - 30", OrderCandidate{}, false},
		{"k not at end", "Coffee 30k please", OrderCandidate{}, false},
		{"amount only", "30k", OrderCandidate{}, false},
		{"bare dash becomes the name", "- 30k", OrderCandidate{"-", 30000}, true},
		{"empty string", "", OrderCandidate{}, false},
		{"decimal amount rejected", "Coffee - 30.5k", OrderCandidate{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseOrder(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrderTrimsName(t *testing.T) {
	got, ok := ParseOrder("  Sinh to bo - 40k")
	assert.True(t, ok)
	assert.Equal(t, "Sinh to bo", got.ProductName)
	assert.Equal(t, int64(40000), got.Amount)
}
