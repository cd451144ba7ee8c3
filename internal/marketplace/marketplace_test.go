package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes_AllNamed(t *testing.T) {
	for _, code := range Codes {
		name, ok := Name(code)
		require.True(t, ok, "code %s missing a name", code)
		assert.NotEmpty(t, name)

		// The English label must resolve back to the same code.
		back, ok := CodeForLabel(name)
		require.True(t, ok)
		assert.Equal(t, code, back)
	}
}

func TestCodeForLabel_BothLanguages(t *testing.T) {
	tests := []struct {
		label string
		code  string
	}{
		{"Spain", "ES"},
		{"España", "ES"},
		{"United Kingdom", "UK"},
		{"Reino Unido", "UK"},
		{"Países Bajos", "NL"},
		{"Sweden", "SE"},
		{"Polonia", "PL"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			code, ok := CodeForLabel(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCodeForLabel_Unknown(t *testing.T) {
	_, ok := CodeForLabel("Atlantis")
	assert.False(t, ok)

	_, ok = Name("XX")
	assert.False(t, ok)
}
