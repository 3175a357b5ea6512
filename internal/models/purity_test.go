package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurityFraction(t *testing.T) {
	tests := []struct {
		designation string
		expected    string
		known       bool
	}{
		{"24K", "1", true},
		{"22K", "0.9167", true},
		{"21K", "0.875", true},
		{"18K", "0.75", true},
		{"14K", "0.5833", true},
		{"9K", "0.375", true},
		{"12K", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.designation, func(t *testing.T) {
			f, ok := PurityFraction(tc.designation)
			assert.Equal(t, tc.known, ok)
			if tc.known {
				assert.Equal(t, tc.expected, f.String())
			}
		})
	}
}

func TestPurityFromFineness(t *testing.T) {
	tests := []struct {
		name        string
		fineness    float64
		designation string
		known       bool
	}{
		{"Pure gold", 0.999, "24K", true},
		{"22K lower bound", 0.916, "22K", true},
		{"22K with tolerance", 0.922, "22K", true},
		{"21K", 0.875, "21K", true},
		{"18K", 0.752, "18K", true},
		{"14K", 0.585, "14K", true},
		{"9K", 0.375, "9K", true},
		{"Between bands", 0.85, "", false},
		{"Zero", 0, "", false},
		{"Negative reading", -0.5, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := PurityFromFineness(tc.fineness)
			assert.Equal(t, tc.known, ok)
			assert.Equal(t, tc.designation, d)
		})
	}
}
