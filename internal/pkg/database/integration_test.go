//go:build integration

package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

type txRecord struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"size:100"`
}

func (txRecord) TableName() string { return "tx_records" }

// setupTestDB 从环境变量读取配置，缺省使用 docker-compose 默认值
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Host = getEnv("TEST_DB_HOST", "localhost")
	cfg.User = getEnv("TEST_DB_USER", "postgres")
	cfg.Password = getEnv("TEST_DB_PASSWORD", "postgres")
	cfg.DBName = getEnv("TEST_DB_NAME", "media")
	cfg.AutoMigrate = true

	db, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&txRecord{}))

	t.Cleanup(func() {
		db.Migrator().DropTable(&txRecord{})
		db.Close()
	})
	return db
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func TestDatabaseConnection(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestTransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		require.NoError(t, db.GetDBFromContext(ctx).Create(&txRecord{Name: "rolled back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&txRecord{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return db.GetDBFromContext(ctx).Create(&txRecord{Name: "kept"}).Error
	}))
	require.NoError(t, db.Model(&txRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
