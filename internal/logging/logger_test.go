package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewText_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	NewText(&buf, slog.LevelInfo).Error("open failed", "error", errors.New("busy"))
	assert.Contains(t, buf.String(), "err=busy")
	assert.NotContains(t, buf.String(), "error=busy")
}

func TestNewJSON_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "error", "x")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"err":"x"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
