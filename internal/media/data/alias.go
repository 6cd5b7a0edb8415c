package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/database"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
)

// AliasRepo biz.AliasRepo 的 postgres 实现
type AliasRepo struct {
	db *database.DB
}

func NewAliasRepo(db *database.DB) *AliasRepo {
	return &AliasRepo{db: db}
}

// PathByAlias 同一别名存在多条记录时取 ID 最小的一条
func (r *AliasRepo) PathByAlias(ctx context.Context, alias, langcode string) (string, bool, error) {
	var pos []AliasPO
	err := r.db.GetDBFromContext(ctx).
		Where("alias = ? AND langcode = ?", alias, langcode).
		Scopes(database.OrderBy("id", false)).
		Limit(1).
		Find(&pos).Error
	if err != nil {
		return "", false, fmt.Errorf("lookup alias %s: %w", alias, err)
	}
	if len(pos) == 0 {
		return "", false, nil
	}
	return pos[0].Path, true, nil
}

func (r *AliasRepo) Get(ctx context.Context, id uint) (*biz.AliasMapping, error) {
	var po AliasPO
	if err := r.db.GetDBFromContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("alias %d", id))
		}
		return nil, fmt.Errorf("get alias %d: %w", id, err)
	}
	return toAlias(&po), nil
}

func (r *AliasRepo) FindByPath(ctx context.Context, path, langcode string) ([]*biz.AliasMapping, error) {
	var pos []AliasPO
	err := r.db.GetDBFromContext(ctx).
		Where("path = ?", path).
		Scopes(database.WhereIf(langcode != "", "langcode = ?", langcode), database.OrderBy("id", false)).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("find aliases by path %s: %w", path, err)
	}
	return toAliases(pos), nil
}

func (r *AliasRepo) FindByAlias(ctx context.Context, alias string) ([]*biz.AliasMapping, error) {
	var pos []AliasPO
	err := r.db.GetDBFromContext(ctx).
		Where("alias = ?", alias).
		Scopes(database.OrderBy("id", false)).
		Find(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("find aliases by alias %s: %w", alias, err)
	}
	return toAliases(pos), nil
}

func (r *AliasRepo) Create(ctx context.Context, a *biz.AliasMapping) error {
	po := &AliasPO{Path: a.Path, Alias: a.Alias, Langcode: a.Langcode}
	if err := r.db.GetDBFromContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("create alias %s: %w", a.Alias, err)
	}
	a.ID = po.ID
	a.CreatedAt = po.CreatedAt
	a.UpdatedAt = po.UpdatedAt
	return nil
}

// Update 原地更新，记录 ID 不变
func (r *AliasRepo) Update(ctx context.Context, a *biz.AliasMapping) error {
	res := r.db.GetDBFromContext(ctx).Model(&AliasPO{ID: a.ID}).Updates(map[string]any{
		"path":     a.Path,
		"alias":    a.Alias,
		"langcode": a.Langcode,
	})
	if res.Error != nil {
		return fmt.Errorf("update alias %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("alias %d", a.ID))
	}
	return nil
}

func (r *AliasRepo) Delete(ctx context.Context, mappings ...*biz.AliasMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	ids := make([]uint, len(mappings))
	for i, a := range mappings {
		ids[i] = a.ID
	}
	if err := r.db.GetDBFromContext(ctx).Where("id IN ?", ids).Delete(&AliasPO{}).Error; err != nil {
		return fmt.Errorf("delete aliases: %w", err)
	}
	return nil
}

func (r *AliasRepo) List(ctx context.Context, page, pageSize int) ([]*biz.AliasMapping, int64, error) {
	q := r.db.GetDBFromContext(ctx).Model(&AliasPO{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count aliases: %w", err)
	}

	var pos []AliasPO
	if err := q.Scopes(database.OrderBy("id", false), database.Paginate(page, pageSize)).Find(&pos).Error; err != nil {
		return nil, 0, fmt.Errorf("list aliases: %w", err)
	}
	return toAliases(pos), total, nil
}

func toAlias(po *AliasPO) *biz.AliasMapping {
	return &biz.AliasMapping{
		ID:        po.ID,
		Path:      po.Path,
		Alias:     po.Alias,
		Langcode:  po.Langcode,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

func toAliases(pos []AliasPO) []*biz.AliasMapping {
	out := make([]*biz.AliasMapping, len(pos))
	for i := range pos {
		out[i] = toAlias(&pos[i])
	}
	return out
}
