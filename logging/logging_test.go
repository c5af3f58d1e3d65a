package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"rv32emu/logging"
)

var ctx = context.Background()

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "")
	assert.False(t, log.Enabled(ctx, slog.LevelDebug))
	assert.True(t, log.Enabled(ctx, slog.LevelInfo))
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "debug")
	assert.True(t, log.Enabled(ctx, slog.LevelDebug))
}

func TestNewTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "TRACE")
	assert.True(t, log.Enabled(ctx, logging.LevelTrace))
}

func TestFromEnvUnset(t *testing.T) {
	t.Setenv("RV32_LOG", "")
	var buf bytes.Buffer
	log := logging.FromEnv(&buf)
	assert.True(t, log.Enabled(ctx, slog.LevelInfo))
}
