package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := 4096

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "1 + 2", "1 + 2"},
		{"Safe Controls", "1\t+\n2", "1\t+\n2"},
		{"ANSI Code", "\x1b[31m7\x1b[0m", "[31m7[0m"},
		{"Null Byte", "7\x00", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("1+\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeExpression(t *testing.T) {
	got, err := SanitizeExpression("  sin(0)+\t1\n")
	require.NoError(t, err)
	assert.Equal(t, "sin(0)+1", got)

	_, err = SanitizeExpression(strings.Repeat("1", 201))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeExpression(strings.Repeat("1", 200))
	assert.NoError(t, err)

	_, err = SanitizeExpression(" \x07 ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSanitizeExpression_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxExpressionSize, "4")
	_, err := SanitizeExpression("12345")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	t.Setenv(EnvMaxExpressionSize, "junk")
	_, err = SanitizeExpression("12345")
	assert.NoError(t, err)
}
