package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lk2023060901/media-path/internal/pkg/database"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/minio"
	"github.com/lk2023060901/media-path/internal/pkg/redis"
)

// EnvPrefix prefixes environment overrides, e.g. MEDIA_PATH_DATABASE_HOST.
const EnvPrefix = "MEDIA_PATH"

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	MinIO    minio.Config    `mapstructure:"minio"`
	Log      logger.Config   `mapstructure:"log"`
	Auth     AuthConfig      `mapstructure:"auth"`
	Media    MediaConfig     `mapstructure:"media"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// MediaConfig tunes alias resolution, validation and file storage.
type MediaConfig struct {
	// EditMarker is the trailing path segment that asks for the edit form.
	EditMarker string `mapstructure:"edit_marker"`
	// DefaultLangcode 新建媒体及未指定语言的请求使用的语言
	DefaultLangcode string `mapstructure:"default_langcode"`
	// PermitUnrestrictedAlias accepts any alias when no extension is configured.
	PermitUnrestrictedAlias bool `mapstructure:"permit_unrestricted_alias"`

	ExtensionCacheSize int           `mapstructure:"extension_cache_size"`
	ExtensionCacheTTL  time.Duration `mapstructure:"extension_cache_ttl"`
	AliasCacheTTL      time.Duration `mapstructure:"alias_cache_ttl"`

	MaxUploadSize   int64           `mapstructure:"max_upload_size"`
	UploadRateLimit RateLimitConfig `mapstructure:"upload_rate_limit"`

	// Buckets maps a file URI scheme to its bucket, e.g. public -> media-public.
	Buckets       map[string]string `mapstructure:"buckets"`
	DefaultScheme string            `mapstructure:"default_scheme"`
}

// RateLimitConfig 限流配置，Enabled 为 false 时不挂载限流中间件
type RateLimitConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	MaxRequests   int    `mapstructure:"max_requests"`
	WindowSeconds int    `mapstructure:"window_seconds"`
	Strategy      string `mapstructure:"strategy"` // user, ip
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	db := database.DefaultConfig()
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.maxidleconns", db.MaxIdleConns)
	v.SetDefault("database.maxopenconns", db.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connmaxidletime", db.ConnMaxIdleTime)
	v.SetDefault("database.loglevel", db.LogLevel)
	v.SetDefault("database.slowthreshold", db.SlowThreshold)
	v.SetDefault("database.preparestmt", db.PrepareStmt)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.automigrate", true)

	rd := redis.DefaultConfig()
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.addr", rd.Addr)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)
	v.SetDefault("redis.max_retries", rd.MaxRetries)

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.bucket_lookup", string(minio.BucketLookupAuto))

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enablecaller", lg.EnableCaller)
	v.SetDefault("log.enablestacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", lg.File.Filename)
	v.SetDefault("log.file.maxsize", lg.File.MaxSize)
	v.SetDefault("log.file.maxage", lg.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)

	v.SetDefault("auth.jwt_issuer", "media-path")

	v.SetDefault("media.edit_marker", "edit-media")
	v.SetDefault("media.default_langcode", "en")
	v.SetDefault("media.permit_unrestricted_alias", false)
	v.SetDefault("media.extension_cache_size", 256)
	v.SetDefault("media.extension_cache_ttl", 10*time.Minute)
	v.SetDefault("media.alias_cache_ttl", 5*time.Minute)
	v.SetDefault("media.max_upload_size", 64<<20)
	v.SetDefault("media.upload_rate_limit.enabled", true)
	v.SetDefault("media.upload_rate_limit.max_requests", 30)
	v.SetDefault("media.upload_rate_limit.window_seconds", 60)
	v.SetDefault("media.upload_rate_limit.strategy", "user")
	v.SetDefault("media.default_scheme", "public")
	v.SetDefault("media.buckets", map[string]string{"public": "media-public", "private": "media-private"})
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the parts of the configuration the service cannot run without.
func (c *Config) Validate() error {
	if c.Media.EditMarker == "" || strings.Contains(c.Media.EditMarker, "/") {
		return fmt.Errorf("media.edit_marker must be a single non-empty path segment")
	}
	if _, ok := c.Media.Buckets[c.Media.DefaultScheme]; !ok {
		return fmt.Errorf("media.default_scheme %q has no bucket in media.buckets", c.Media.DefaultScheme)
	}
	if c.Media.ExtensionCacheSize <= 0 {
		return fmt.Errorf("media.extension_cache_size must be > 0")
	}
	return nil
}
