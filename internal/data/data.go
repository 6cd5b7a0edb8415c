package data

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/conf"
	mediadata "github.com/lk2023060901/media-path/internal/media/data"
	"github.com/lk2023060901/media-path/internal/pkg/database"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/minio"
	"github.com/lk2023060901/media-path/internal/pkg/redis"
)

// Data bundles the infrastructure clients shared by the repositories.
type Data struct {
	DB          *database.DB
	RedisClient *redis.Client
	MinIOClient *minio.Client
	Logger      *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log.Named("gorm"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(mediadata.Models()...); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	redisClient, err := redis.New(&config.Redis, log.Named("redis"))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	minioClient, err := minio.NewClient(&config.MinIO, log.Named("minio").Logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}

	ctx := context.Background()
	for scheme, bucket := range config.Media.Buckets {
		if err := minioClient.EnsureBucket(ctx, bucket); err != nil {
			db.Close()
			redisClient.Close()
			return nil, nil, fmt.Errorf("failed to prepare bucket for scheme %s: %w", scheme, err)
		}
	}

	d := &Data{
		DB:          db,
		RedisClient: redisClient,
		MinIOClient: minioClient,
		Logger:      log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if err := db.Close(); err != nil {
			log.Warn("close database failed", zap.Error(err))
		}
		if err := redisClient.Close(); err != nil {
			log.Warn("close redis failed", zap.Error(err))
		}
		minioClient.Close()
	}

	return d, cleanup, nil
}
