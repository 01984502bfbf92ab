package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trebuchet-org/dvote/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG", slog.LevelWarn))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel(" error ", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud", slog.LevelInfo))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/governor.go", shortPath("/home/dev/dvote/internal/usecase/governor.go"))
	assert.Equal(t, "main.go", shortPath("/home/dev/dvote/cli/main.go"))
}

func TestNewLoggerDebug(t *testing.T) {
	t.Setenv("DVOTE_LOG_LEVEL", "error")
	log := NewLogger(&config.RuntimeConfig{Debug: true})
	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))

	log = NewLogger(&config.RuntimeConfig{})
	assert.False(t, log.Enabled(t.Context(), slog.LevelWarn))
}
