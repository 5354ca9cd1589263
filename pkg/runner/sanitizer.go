package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds a command line (4KB).
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override DefaultMaxInputSize.
	EnvMaxInputSize = "BIFROST_MAX_INPUT_SIZE"

	// DefaultMaxExpressionSize bounds a raw expression, matching the keypad display.
	DefaultMaxExpressionSize = 200
	// EnvMaxExpressionSize is the environment variable to override DefaultMaxExpressionSize.
	EnvMaxExpressionSize = "BIFROST_MAX_EXPRESSION_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrEmptyInput    = errors.New("expression is empty")
)

// SanitizeInput cleans user input by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters.
func SanitizeInput(input string) (string, error) {
	return sanitize(input, sizeFromEnv(EnvMaxInputSize, DefaultMaxInputSize), isSafeControl)
}

// SanitizeExpression cleans a raw expression sent straight to the device.
// The request is a single line, so every control character is stripped.
func SanitizeExpression(expr string) (string, error) {
	clean, err := sanitize(strings.TrimSpace(expr), sizeFromEnv(EnvMaxExpressionSize, DefaultMaxExpressionSize), func(rune) bool { return false })
	if err != nil {
		return "", err
	}
	if clean == "" {
		return "", ErrEmptyInput
	}
	return clean, nil
}

func sanitize(input string, limit int, keep func(rune) bool) (string, error) {
	// reject rather than truncate
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !keep(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func sizeFromEnv(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return def
}
