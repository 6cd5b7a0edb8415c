package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default config", mutate: func(c *Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "invalid port", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "invalid SSL mode", mutate: func(c *Config) { c.SSLMode = "invalid" }, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{
			name:    "idle exceeds open",
			mutate:  func(c *Config) { c.MaxIdleConns = 20; c.MaxOpenConns = 10 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "db"
	cfg.Password = "secret"

	assert.Equal(t,
		"host=db port=5432 user=postgres password=secret dbname=media sslmode=disable TimeZone=UTC",
		cfg.DSN())
}

func TestIsRecordNotFoundError(t *testing.T) {
	assert.False(t, IsRecordNotFoundError(nil))
	assert.True(t, IsRecordNotFoundError(gorm.ErrRecordNotFound))
	assert.True(t, IsRecordNotFoundError(fmt.Errorf("load file: %w", gorm.ErrRecordNotFound)))
}

func TestContextWithTransaction(t *testing.T) {
	_, ok := TransactionFromContext(context.Background())
	assert.False(t, ok)

	tx := &gorm.DB{}
	got, ok := TransactionFromContext(ContextWithTransaction(context.Background(), tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}

type scopeRow struct {
	ID     uint
	Bundle string
}

// dryRunDB builds SQL without a live server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: DefaultConfig().DSN()}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestScopes(t *testing.T) {
	db := dryRunDB(t)

	stmt := db.Scopes(
		WhereIf(true, "bundle = ?", "document"),
		WhereIf(false, "bundle = ?", "image"),
		OrderBy("id", true),
		Paginate(2, 500),
	).Find(&[]scopeRow{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "bundle = $1")
	assert.Contains(t, sql, "ORDER BY id DESC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
	assert.Contains(t, stmt.Vars, any("document"))
	assert.NotContains(t, stmt.Vars, any("image"))
}
