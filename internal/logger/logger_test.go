package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	out := redact([]interface{}{"user_id", "u1", "Password", "hunter2", "dangling"})
	assert.Equal(t, []interface{}{"user_id", "u1", "Password", "[REDACTED]", "dangling"}, out)
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "progress").Warn("write failed", "token", "abc", "lesson_id", "l1")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "progress", fields["component"])
	assert.Equal(t, "[REDACTED]", fields["token"])
	assert.Equal(t, "l1", fields["lesson_id"])
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		require.NoError(t, err)
		assert.NotNil(t, l.SugaredLogger)
	}
}
