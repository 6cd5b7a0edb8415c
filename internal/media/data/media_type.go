package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/database"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
)

// MediaTypeRepo biz.MediaTypeRepo 的 postgres 实现
type MediaTypeRepo struct {
	db *database.DB
}

func NewMediaTypeRepo(db *database.DB) biz.MediaTypeRepo {
	return &MediaTypeRepo{db: db}
}

func (r *MediaTypeRepo) Get(ctx context.Context, id string) (*biz.MediaType, error) {
	var po MediaTypePO
	if err := r.db.GetDBFromContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrMediaTypeNotFound, id)
		}
		return nil, fmt.Errorf("get media type %s: %w", id, err)
	}
	return toMediaType(&po), nil
}

// Save 按主键插入或更新
func (r *MediaTypeRepo) Save(ctx context.Context, mt *biz.MediaType) error {
	po := &MediaTypePO{
		ID:             mt.ID,
		Label:          mt.Label,
		SourceField:    mt.SourceField,
		FileExtensions: mt.FileExtensions,
	}
	if err := r.db.GetDBFromContext(ctx).Save(po).Error; err != nil {
		return fmt.Errorf("save media type %s: %w", mt.ID, err)
	}
	return nil
}

func (r *MediaTypeRepo) List(ctx context.Context) ([]*biz.MediaType, error) {
	var pos []MediaTypePO
	if err := r.db.GetDBFromContext(ctx).Scopes(database.OrderBy("id", false)).Find(&pos).Error; err != nil {
		return nil, fmt.Errorf("list media types: %w", err)
	}
	out := make([]*biz.MediaType, len(pos))
	for i := range pos {
		out[i] = toMediaType(&pos[i])
	}
	return out, nil
}

func toMediaType(po *MediaTypePO) *biz.MediaType {
	return &biz.MediaType{
		ID:             po.ID,
		Label:          po.Label,
		SourceField:    po.SourceField,
		FileExtensions: po.FileExtensions,
	}
}
