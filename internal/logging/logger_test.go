package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, false)

	logger.Info("submit",
		"api_key", "sk-abc",
		"Authorization", "Bearer sk-abc",
		"prompt_tokens", 12,
		"session_id", "s1",
	)

	out := buf.String()
	assert.NotContains(t, out, "sk-abc")
	assert.Contains(t, out, "api_key=***")
	assert.Contains(t, out, "prompt_tokens=12")
	assert.Contains(t, out, "session_id=s1")
}

func TestNewWithWriter_RenamesError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, true)

	logger.Error("boom", "error", errors.New("bad"))
	assert.Contains(t, buf.String(), `"err":"bad"`)
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelWarn, false)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
}
