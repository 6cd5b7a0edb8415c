package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/media-path/internal/media/biz"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/redis"
)

type mapKV struct {
	data    map[string]string
	failGet bool
}

func newMapKV() *mapKV {
	return &mapKV{data: map[string]string{}}
}

func (kv *mapKV) Get(_ context.Context, key string) (string, error) {
	if kv.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := kv.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (kv *mapKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	kv.data[key] = value.(string)
	return nil
}

func (kv *mapKV) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := kv.data[k]; ok {
			delete(kv.data, k)
			n++
		}
	}
	return n, nil
}

// sliceAliasRepo is a minimal in-memory biz.AliasRepo that counts lookups.
type sliceAliasRepo struct {
	rows    []*biz.AliasMapping
	lookups int
}

func (r *sliceAliasRepo) PathByAlias(_ context.Context, alias, langcode string) (string, bool, error) {
	r.lookups++
	for _, a := range r.rows {
		if a.Alias == alias && a.Langcode == langcode {
			return a.Path, true, nil
		}
	}
	return "", false, nil
}

func (r *sliceAliasRepo) Get(_ context.Context, id uint) (*biz.AliasMapping, error) {
	for _, a := range r.rows {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("alias")
}

func (r *sliceAliasRepo) FindByPath(_ context.Context, path, langcode string) ([]*biz.AliasMapping, error) {
	var out []*biz.AliasMapping
	for _, a := range r.rows {
		if a.Path == path && (langcode == "" || a.Langcode == langcode) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *sliceAliasRepo) FindByAlias(_ context.Context, alias string) ([]*biz.AliasMapping, error) {
	var out []*biz.AliasMapping
	for _, a := range r.rows {
		if a.Alias == alias {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *sliceAliasRepo) Create(_ context.Context, a *biz.AliasMapping) error {
	a.ID = uint(len(r.rows) + 1)
	cp := *a
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *sliceAliasRepo) Update(_ context.Context, a *biz.AliasMapping) error {
	for i, row := range r.rows {
		if row.ID == a.ID {
			cp := *a
			r.rows[i] = &cp
			return nil
		}
	}
	return apperrors.NewNotFoundError("alias")
}

func (r *sliceAliasRepo) Delete(_ context.Context, mappings ...*biz.AliasMapping) error {
	for _, m := range mappings {
		for i, row := range r.rows {
			if row.ID == m.ID {
				r.rows = append(r.rows[:i], r.rows[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *sliceAliasRepo) List(_ context.Context, _, _ int) ([]*biz.AliasMapping, int64, error) {
	return r.rows, int64(len(r.rows)), nil
}

func TestCachedAliasRepo_ReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &sliceAliasRepo{}
	kv := newMapKV()
	repo := NewCachedAliasRepo(inner, kv, time.Minute, logger.NewNop())

	require.NoError(t, repo.Create(ctx, &biz.AliasMapping{Path: "/media/1/download", Alias: "/a.pdf", Langcode: "en"}))

	path, ok, err := repo.PathByAlias(ctx, "/a.pdf", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/media/1/download", path)
	assert.Equal(t, "/media/1/download", kv.data["alias:en:/a.pdf"])

	_, _, err = repo.PathByAlias(ctx, "/a.pdf", "en")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lookups, "second lookup is served from cache")
}

func TestCachedAliasRepo_NegativeEntries(t *testing.T) {
	ctx := context.Background()
	inner := &sliceAliasRepo{}
	kv := newMapKV()
	repo := NewCachedAliasRepo(inner, kv, time.Minute, logger.NewNop())

	_, ok, err := repo.PathByAlias(ctx, "/missing.pdf", "und")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, negativeEntry, kv.data["alias:und:/missing.pdf"])

	// 创建后负缓存被清除
	require.NoError(t, repo.Create(ctx, &biz.AliasMapping{Path: "/media/2/download", Alias: "/missing.pdf", Langcode: "und"}))
	path, ok, err := repo.PathByAlias(ctx, "/missing.pdf", "und")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/media/2/download", path)
}

func TestCachedAliasRepo_UpdateEvictsOldAlias(t *testing.T) {
	ctx := context.Background()
	inner := &sliceAliasRepo{}
	kv := newMapKV()
	repo := NewCachedAliasRepo(inner, kv, time.Minute, logger.NewNop())

	a := &biz.AliasMapping{Path: "/media/1/download", Alias: "/a.pdf", Langcode: "en"}
	require.NoError(t, repo.Create(ctx, a))
	_, _, err := repo.PathByAlias(ctx, "/a.pdf", "en")
	require.NoError(t, err)

	a.Alias = "/b.pdf"
	require.NoError(t, repo.Update(ctx, a))
	assert.NotContains(t, kv.data, "alias:en:/a.pdf")

	_, ok, err := repo.PathByAlias(ctx, "/a.pdf", "en")
	require.NoError(t, err)
	assert.False(t, ok, "old alias must stop resolving after update")

	require.NoError(t, repo.Delete(ctx, a))
	_, ok, err = repo.PathByAlias(ctx, "/b.pdf", "en")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachedAliasRepo_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := &sliceAliasRepo{rows: []*biz.AliasMapping{{ID: 1, Path: "/media/1", Alias: "/x", Langcode: "en"}}}
	kv := newMapKV()
	kv.failGet = true
	repo := NewCachedAliasRepo(inner, kv, 0, logger.NewNop())

	path, ok, err := repo.PathByAlias(ctx, "/x", "en")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/media/1", path)
}
