package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/auth"
	"github.com/lk2023060901/media-path/internal/auth/middleware"
	"github.com/lk2023060901/media-path/internal/conf"
	"github.com/lk2023060901/media-path/internal/data"
	"github.com/lk2023060901/media-path/internal/media/service"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/metrics"
)

type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	d *data.Data,
	jwtManager *auth.JWTManager,
	mediaService *service.MediaService,
) *HTTPServer {
	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLoggerWithConfig(log, logger.MiddlewareOptions{
		SkipPaths: []string{"/health", "/metrics"},
	}))
	router.Use(metrics.GinMiddleware())
	router.Use(middleware.OptionalJWTAuth(jwtManager, log))

	router.GET("/health", healthHandler(d))
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	var uploadGuards []gin.HandlerFunc
	if rl := config.Media.UploadRateLimit; rl.Enabled {
		uploadGuards = append(uploadGuards, middleware.RateLimiter(d.RedisClient, middleware.RateLimiterConfig{
			MaxRequests:   rl.MaxRequests,
			WindowSeconds: rl.WindowSeconds,
			Strategy:      rl.Strategy,
			Scope:         "media_upload",
		}, log))
	}
	mediaService.RegisterRoutes(api, uploadGuards...)

	// 别名解析兜底所有未注册的 GET 路径，必须最后注册
	mediaService.RegisterDisplayRoutes(router)

	return &HTTPServer{
		server: &http.Server{
			Addr:         config.Server.Addr(),
			Handler:      router,
			ReadTimeout:  config.Server.ReadTimeout,
			WriteTimeout: config.Server.WriteTimeout,
		},
		logger: log,
	}
}

func healthHandler(d *data.Data) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := d.DB.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := d.RedisClient.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
