package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeY(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want float64
	}{
		{"upper band", 900000, -100000},
		{"lower band", 500000, 100000},
		{"below bands", 300000, 300000},
		{"upper boundary stays in lower band", 800000, 400000},
		{"lower boundary unchanged", 400000, 400000},
		{"negative", -25, -25},
		{"just above upper floor", 800000.5, -199999.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeY(tt.y))
		})
	}
}

func TestNormalizeYBandLaws(t *testing.T) {
	for y := -1e6; y <= 2e6; y += 12345.5 {
		got := NormalizeY(y)
		switch {
		case y > 800000:
			assert.Equal(t, y-1000000, got, "y=%v", y)
		case y > 400000:
			assert.Equal(t, y-400000, got, "y=%v", y)
		default:
			assert.Equal(t, y, got, "y=%v", y)
		}
	}
}
