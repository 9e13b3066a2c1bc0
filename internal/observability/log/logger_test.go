package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(String("scenario", "chase"))

	l.Debug("frame",
		Uint64("frame", 7),
		Int("contacts", 3),
		Float64("dt", 0.016),
		Bool("dropped", false),
		Duration("elapsed", time.Millisecond),
		Error(errors.New("boom")),
		Any("extra", []int{1}),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "frame", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "chase", ctx["scenario"])
	assert.Equal(t, uint64(7), ctx["frame"])
	assert.Equal(t, int64(3), ctx["contacts"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLoggerEnabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core))

	assert.False(t, l.Enabled(LevelDebug))
	assert.True(t, l.Enabled(LevelWarn))
	assert.False(t, Nop().Enabled(LevelError))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}
