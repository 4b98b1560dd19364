package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldAccents(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"JESÚS MARÍA", "JESUS MARIA"},
		{"BREÑA", "BRENA"},
		{"San Martín de Porres", "San Martin de Porres"},
		{"MIRAFLORES", "MIRAFLORES"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FoldAccents(tt.in), "FoldAccents(%q)", tt.in)
	}
}

func TestRepairMojibake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BREÃ‘A", "BREÑA"},
		{"120 mÂ²", "120 m²"},
		{"BREÑA", "BREÑA"},
		{"Miraflores", "Miraflores"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepairMojibake(tt.in), "RepairMojibake(%q)", tt.in)
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "SAN ISIDRO", NormalizeLabel("  san   isidro "))
	assert.Equal(t, "BREÑA", NormalizeLabel("BreÃ±a"))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpaces("  a\t b\n\nc "))
}
