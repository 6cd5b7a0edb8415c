package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/auth"
	"github.com/lk2023060901/media-path/internal/conf"
	"github.com/lk2023060901/media-path/internal/data"
	"github.com/lk2023060901/media-path/internal/media/biz"
	mediadata "github.com/lk2023060901/media-path/internal/media/data"
	"github.com/lk2023060901/media-path/internal/media/service"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/server"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully", zap.String("path", *configFile))

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	mediaService := newMediaService(config, d, log)
	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)

	httpServer := server.NewHTTPServer(config, log, d, jwtManager, mediaService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func newMediaService(config *conf.Config, d *data.Data, log *logger.Logger) *service.MediaService {
	mc := config.Media

	// Initialize repositories
	mediaRepo := mediadata.NewMediaRepo(d.DB)
	fileRepo := mediadata.NewFileRepo(d.DB)
	typeRepo := mediadata.NewMediaTypeRepo(d.DB)
	aliasRepo := mediadata.NewCachedAliasRepo(mediadata.NewAliasRepo(d.DB), d.RedisClient, mc.AliasCacheTTL, log.Named("alias_cache"))
	storage := mediadata.NewObjectFileStorage(d.MinIOClient, mc.Buckets, mc.DefaultScheme, log.Named("storage"))
	extCache := mediadata.NewLRUExtensionCache(mc.ExtensionCacheSize, mc.ExtensionCacheTTL)

	// Initialize use cases
	validator := biz.NewExtensionValidator(typeRepo, fileRepo, extCache, mc.PermitUnrestrictedAlias, log)
	sync := biz.NewPathSynchronizer(aliasRepo, log)
	resolver := biz.NewResolver(aliasRepo, mediaRepo, typeRepo, fileRepo, storage, biz.ResolverConfig{
		EditMarker:      mc.EditMarker,
		DefaultLangcode: mc.DefaultLangcode,
	}, log)
	uc := biz.NewMediaUseCase(mediaRepo, fileRepo, typeRepo, aliasRepo, storage, validator, sync, mc.DefaultLangcode, log)

	return service.NewMediaService(uc, resolver, storage, mc.MaxUploadSize, log)
}
