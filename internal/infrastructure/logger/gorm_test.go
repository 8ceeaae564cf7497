package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestGormLoggerOptions(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithRecordNotFoundLogging(),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.logNotFound)
}

func TestGormLoggerLogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	clone := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.level)
	cloned, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.level)
}

func TestGormLoggerLevelGates(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Silent)
	gl.Info(context.Background(), "suppressed")
	gl.Warn(context.Background(), "suppressed")
	assert.Empty(t, recorded.All())

	gl, recorded = newObservedGormLogger(gormlogger.Info)
	gl.Info(context.Background(), "migrating %s", "payments")
	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "migrating payments")
}

func TestGormLoggerTrace(t *testing.T) {
	query := func() (string, int64) {
		return "SELECT * FROM invoices WHERE tenant_id = $1", 3
	}

	t.Run("failed query logs at error", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "query failed", logs[0].Message)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})

	t.Run("record not found is silent by default", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("record not found logs when opted in", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error, WithRecordNotFoundLogging())
		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
		assert.Len(t, recorded.All(), 1)
	})

	t.Run("slow query logs at warn", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "slow query", logs[0].Message)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("ordinary query logs at debug", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), query, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "query", logs[0].Message)
		assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query, nil)
		assert.Empty(t, recorded.All())
	})

	t.Run("carries request id from context", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
		gl.Trace(ctx, time.Now(), query, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-42", logs[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
