package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress_Short(t *testing.T) {
	assert.Equal(t, "rentacar", Address("rentacar").Short())
	assert.Equal(t, "abcdef...6789", Address("abcdef0123456789").Short())

	// multi-byte runes are never split
	short := Address("ééééééééééééééé").Short()
	assert.Equal(t, "éééééé...éééé", short)
}

func TestAddress_Canonical(t *testing.T) {
	tests := []struct {
		in, want Address
	}{
		{"ABCDEF01", "abcdef01"},
		{" abcdef01 ", "abcdef01"},
		{"rentacar", "rentacar"},
		{"XLM", "XLM"},
		{"ABC", "ABC"}, // odd length is not hex
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Canonical(), "Canonical(%q)", tt.in)
	}
}
