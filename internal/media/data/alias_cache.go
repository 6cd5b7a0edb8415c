package data

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/metrics"
	"github.com/lk2023060901/media-path/internal/pkg/redis"
)

// negativeEntry 标记"别名不存在"的缓存值，真实路径都以 / 开头
const negativeEntry = "-"

// KVStore 别名缓存使用的键值存储，*redis.Client 满足该接口
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

// CachedAliasRepo 在 AliasRepo 前加一层 redis 读缓存，只缓存 PathByAlias，
// 任何写操作都会删除受影响别名的缓存
type CachedAliasRepo struct {
	biz.AliasRepo
	kv     KVStore
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachedAliasRepo(inner biz.AliasRepo, kv KVStore, ttl time.Duration, log *logger.Logger) *CachedAliasRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedAliasRepo{AliasRepo: inner, kv: kv, ttl: ttl, logger: log}
}

func aliasCacheKey(alias, langcode string) string {
	return fmt.Sprintf("alias:%s:%s", langcode, alias)
}

func (r *CachedAliasRepo) PathByAlias(ctx context.Context, alias, langcode string) (string, bool, error) {
	key := aliasCacheKey(alias, langcode)

	cached, err := r.kv.Get(ctx, key)
	switch {
	case err == nil:
		metrics.ObserveCache("alias", true)
		if cached == negativeEntry {
			return "", false, nil
		}
		return cached, true, nil
	case redis.IsNil(err):
	default:
		// 缓存不可用时直接回源
		r.logger.Warn("alias cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCache("alias", false)

	path, ok, err := r.AliasRepo.PathByAlias(ctx, alias, langcode)
	if err != nil {
		return "", false, err
	}

	value := negativeEntry
	if ok {
		value = path
	}
	if err := r.kv.Set(ctx, key, value, r.ttl); err != nil {
		r.logger.Warn("alias cache write failed", zap.String("key", key), zap.Error(err))
	}
	return path, ok, nil
}

func (r *CachedAliasRepo) Create(ctx context.Context, a *biz.AliasMapping) error {
	if err := r.AliasRepo.Create(ctx, a); err != nil {
		return err
	}
	r.evict(ctx, a)
	return nil
}

// Update 同时清除旧别名和新别名的缓存
func (r *CachedAliasRepo) Update(ctx context.Context, a *biz.AliasMapping) error {
	old, err := r.AliasRepo.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := r.AliasRepo.Update(ctx, a); err != nil {
		return err
	}
	r.evict(ctx, old, a)
	return nil
}

func (r *CachedAliasRepo) Delete(ctx context.Context, mappings ...*biz.AliasMapping) error {
	if err := r.AliasRepo.Delete(ctx, mappings...); err != nil {
		return err
	}
	r.evict(ctx, mappings...)
	return nil
}

func (r *CachedAliasRepo) evict(ctx context.Context, mappings ...*biz.AliasMapping) {
	keys := make([]string, 0, len(mappings))
	for _, a := range mappings {
		keys = append(keys, aliasCacheKey(a.Alias, a.Langcode))
	}
	if _, err := r.kv.Del(ctx, keys...); err != nil {
		r.logger.Warn("alias cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
