package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "request completed" {
			return entry
		}
	}
	t.Fatal("no request log entry recorded")
	return observer.LoggedEntry{}
}

func fieldByKey(entry observer.LoggedEntry, key string) (zapcore.Field, bool) {
	for _, f := range entry.Context {
		if f.Key == key {
			return f, true
		}
	}
	return zapcore.Field{}, false
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "success logs info", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "client error logs warn", status: http.StatusUnprocessableEntity, wantLevel: zapcore.WarnLevel},
		{name: "server error logs error", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)

			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.GET("/invoices", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/invoices", nil)
			router.ServeHTTP(w, req)

			entry := requestLog(t, recorded)
			assert.Equal(t, tt.wantLevel, entry.Level)

			statusField, ok := fieldByKey(entry, "status")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), statusField.Integer)
		})
	}
}

func TestGinMiddlewareCarriesRequestAndTenantID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-123")
		c.Set("tenant_id", "tenant-9")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/invoices", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/invoices?status=OPEN", nil)
	router.ServeHTTP(w, req)

	entry := requestLog(t, recorded)
	fields := entry.ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
	assert.Equal(t, "status=OPEN", fields["query"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "request panicked", logs[0].Message)
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, _ := observer.New(zapcore.InfoLevel)
	var inRequest, bare *zap.Logger

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/with", func(c *gin.Context) {
		inRequest = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/with", nil)
	router.ServeHTTP(w, req)
	assert.NotNil(t, inRequest)

	plain := gin.New()
	plain.GET("/without", func(c *gin.Context) {
		bare = GetGinLogger(c)
		c.Status(http.StatusOK)
	})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/without", nil)
	plain.ServeHTTP(w, req)

	require.NotNil(t, bare)
	assert.NotPanics(t, func() { bare.Info("noop") })
}
