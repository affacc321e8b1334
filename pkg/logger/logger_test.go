package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
}

func TestSetAndLog(t *testing.T) {
	previous := globalLogger
	defer Set(previous)

	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))

	Debug("hidden")
	Info("calculated", String("indicator", "rsi_14"), Int("rows", 20))
	Warn("slow", Float64("seconds", 1.5))

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "calculated", entries[0].Message)
	assert.Equal(t, "rsi_14", entries[0].ContextMap()["indicator"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestInit(t *testing.T) {
	previous := globalLogger
	defer Set(previous)

	assert.NoError(t, Init("info", "production"))
	assert.True(t, Get().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestJSONField(t *testing.T) {
	field := JSON("params", map[string]int{"window_size": 14})
	assert.Equal(t, `{"window_size":14}`, field.String)
}
