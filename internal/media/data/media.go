package data

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/database"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
)

// MediaRepo biz.MediaRepo 的 postgres 实现
type MediaRepo struct {
	db *database.DB
}

func NewMediaRepo(db *database.DB) biz.MediaRepo {
	return &MediaRepo{db: db}
}

func (r *MediaRepo) Get(ctx context.Context, id uint) (*biz.Media, error) {
	var po MediaPO
	err := r.db.GetDBFromContext(ctx).Preload("Translations").Where("id = ?", id).First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, apperrors.New(apperrors.ErrMediaNotFound, fmt.Sprintf("media %d", id))
		}
		return nil, fmt.Errorf("get media %d: %w", id, err)
	}
	return toMedia(&po), nil
}

func (r *MediaRepo) Create(ctx context.Context, m *biz.Media) error {
	po := toMediaPO(m)
	if err := r.db.GetDBFromContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	m.ID = po.ID
	m.CreatedAt = po.CreatedAt
	m.UpdatedAt = po.UpdatedAt
	return nil
}

// Update 更新媒体字段并整体替换翻译
func (r *MediaRepo) Update(ctx context.Context, m *biz.Media) error {
	po := toMediaPO(m)
	po.UpdatedAt = time.Now()
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		res := tx.Model(&MediaPO{ID: m.ID}).Select("Bundle", "Name", "Langcode", "Fields", "SourceFilename", "UpdatedAt").Updates(po)
		if res.Error != nil {
			return fmt.Errorf("update media %d: %w", m.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.ErrMediaNotFound, fmt.Sprintf("media %d", m.ID))
		}
		if err := tx.Where("media_id = ?", m.ID).Delete(&MediaTranslationPO{}).Error; err != nil {
			return fmt.Errorf("clear media %d translations: %w", m.ID, err)
		}
		if len(po.Translations) > 0 {
			if err := tx.Create(&po.Translations).Error; err != nil {
				return fmt.Errorf("save media %d translations: %w", m.ID, err)
			}
		}
		m.UpdatedAt = po.UpdatedAt
		return nil
	})
}

func (r *MediaRepo) Delete(ctx context.Context, id uint) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", id).Delete(&MediaTranslationPO{}).Error; err != nil {
			return fmt.Errorf("delete media %d translations: %w", id, err)
		}
		if err := tx.Where("id = ?", id).Delete(&MediaPO{}).Error; err != nil {
			return fmt.Errorf("delete media %d: %w", id, err)
		}
		return nil
	})
}

func (r *MediaRepo) List(ctx context.Context, bundle string, page, pageSize int) ([]*biz.Media, int64, error) {
	q := r.db.GetDBFromContext(ctx).Model(&MediaPO{}).Scopes(database.WhereIf(bundle != "", "bundle = ?", bundle))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	var pos []MediaPO
	err := q.Scopes(database.OrderBy("id", false), database.Paginate(page, pageSize)).
		Preload("Translations").
		Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}

	items := make([]*biz.Media, len(pos))
	for i := range pos {
		items[i] = toMedia(&pos[i])
	}
	return items, total, nil
}

func toMediaPO(m *biz.Media) *MediaPO {
	po := &MediaPO{
		ID:             m.ID,
		Bundle:         m.Bundle,
		Name:           m.Name,
		Langcode:       m.Langcode,
		OwnerID:        m.OwnerID,
		Fields:         FieldsJSON(maps.Clone(m.Fields)),
		SourceFilename: m.SourceFilename,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	langs := make([]string, 0, len(m.Translations))
	for lang := range m.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		po.Translations = append(po.Translations, MediaTranslationPO{
			MediaID:  m.ID,
			Langcode: lang,
			Name:     m.Translations[lang],
		})
	}
	return po
}

func toMedia(po *MediaPO) *biz.Media {
	m := &biz.Media{
		ID:             po.ID,
		Bundle:         po.Bundle,
		Name:           po.Name,
		Langcode:       po.Langcode,
		OwnerID:        po.OwnerID,
		Fields:         map[string]uint(maps.Clone(po.Fields)),
		SourceFilename: po.SourceFilename,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
	}
	if len(po.Translations) > 0 {
		m.Translations = make(map[string]string, len(po.Translations))
		for _, t := range po.Translations {
			m.Translations[t.Langcode] = t.Name
		}
	}
	return m
}
