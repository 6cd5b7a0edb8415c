package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/database"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
)

// FileRepo biz.FileRepo 的 postgres 实现
type FileRepo struct {
	db *database.DB
}

func NewFileRepo(db *database.DB) biz.FileRepo {
	return &FileRepo{db: db}
}

// Get 文件记录不存在时返回 ErrMediaFileUnloadable
func (r *FileRepo) Get(ctx context.Context, id uint) (*biz.File, error) {
	var po FilePO
	if err := r.db.GetDBFromContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrMediaFileUnloadable, fmt.Sprintf("file %d", id))
		}
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return toFile(&po), nil
}

func (r *FileRepo) Create(ctx context.Context, f *biz.File) error {
	po := &FilePO{
		URI:      f.URI,
		Filename: f.Filename,
		MIME:     f.MIME,
		Size:     f.Size,
	}
	if err := r.db.GetDBFromContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	f.ID = po.ID
	f.CreatedAt = po.CreatedAt
	return nil
}

func toFile(po *FilePO) *biz.File {
	return &biz.File{
		ID:        po.ID,
		URI:       po.URI,
		Filename:  po.Filename,
		MIME:      po.MIME,
		Size:      po.Size,
		CreatedAt: po.CreatedAt,
	}
}
