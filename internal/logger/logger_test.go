package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, log.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.SugaredLogger.Desugar().Core().Enabled(zapcore.WarnLevel))

	log, err = New("dev", "")
	require.NoError(t, err)
	assert.True(t, log.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestNopWith(t *testing.T) {
	log := NewNop().With("component", "test")
	log.Info("ignored", "k", "v")
	log.Sync()
}

func TestWithAddsFieldsToChildOnly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	parent := &Logger{SugaredLogger: zap.New(core).Sugar()}
	child := parent.With("component", "catalog")

	child.Warn("List failed", "page", 3)
	parent.Debug("Plain entry")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "List failed", entries[0].Message)
	assert.Equal(t, map[string]any{"component": "catalog", "page": int64(3)}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}
