package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "nil config", config: nil},
		{
			name:   "console format",
			config: &Config{Level: "debug", Format: "console", Output: "console"},
		},
		{
			name: "file output",
			config: &Config{
				Level:  "info",
				Format: "json",
				Output: "file",
				File: FileConfig{
					Filename:   filepath.Join(t.TempDir(), "test.log"),
					MaxSize:    10,
					MaxAge:     7,
					MaxBackups: 3,
				},
			},
		},
		{
			name:    "invalid level",
			config:  &Config{Level: "verbose", Format: "json", Output: "console"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  &Config{Level: "info", Format: "xml", Output: "console"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			assert.NotNil(t, l.Config())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "uppercase level", mutate: func(c *Config) { c.Level = "WARN" }},
		{name: "stderr output", mutate: func(c *Config) { c.Output = "stderr" }},
		{name: "bad output", mutate: func(c *Config) { c.Output = "syslog" }, wantErr: true},
		{
			name:    "file without name",
			mutate:  func(c *Config) { c.Output = "file"; c.File.Filename = "" },
			wantErr: true,
		},
		{
			name:    "file zero maxsize",
			mutate:  func(c *Config) { c.Output = "both"; c.File.MaxSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core))

	l.Named("resolver").With(zap.String("path", "/files/a.pdf")).Info("hello")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "resolver", entry.LoggerName)
	assert.Equal(t, "/files/a.pdf", entry.ContextMap()["path"])
}

func TestContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "42")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "42", GetUserID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))

	core, logs := observer.New(zapcore.InfoLevel)
	ctx = ToContext(ctx, Wrap(zap.New(core)))
	FromContext(ctx).Info("ctx")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "42", fields["user_id"])
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, InitGlobal(&Config{Level: "error", Format: "json", Output: "console"}))
	assert.NotNil(t, L())
	assert.Equal(t, "error", L().Config().Level)
}

func TestGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	l := Wrap(zap.New(core))

	r := gin.New()
	r.Use(GinLoggerWithConfig(l, MiddlewareOptions{SkipPaths: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 0, logs.Len())

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, "fixed-id", logs.All()[0].ContextMap()["request_id"])
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(GinRecovery(Wrap(zap.New(core))))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.Len())
}
