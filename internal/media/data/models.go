package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FieldsJSON 字段名 -> 文件 ID，以 jsonb 存储
type FieldsJSON map[string]uint

func (j *FieldsJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported fields value %T", value)
	}
	// 解码到新 map，避免复用的 PO 残留旧字段
	m := FieldsJSON{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*j = m
	return nil
}

func (j FieldsJSON) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// MediaPO 媒体实体表
type MediaPO struct {
	ID             uint       `gorm:"primarykey;autoIncrement"`
	Bundle         string     `gorm:"size:64;not null;index:idx_media_bundle"`
	Name           string     `gorm:"size:255;not null;default:''"`
	Langcode       string     `gorm:"size:12;not null;default:'und'"`
	OwnerID        string     `gorm:"size:64;index:idx_media_owner"`
	Fields         FieldsJSON `gorm:"type:jsonb;not null;default:'{}'"`
	SourceFilename string     `gorm:"size:255;not null;default:''"`

	Translations []MediaTranslationPO `gorm:"foreignKey:MediaID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MediaPO) TableName() string {
	return "media"
}

// MediaTranslationPO 媒体翻译表
type MediaTranslationPO struct {
	MediaID  uint   `gorm:"primarykey"`
	Langcode string `gorm:"primarykey;size:12"`
	Name     string `gorm:"size:255;not null;default:''"`
}

func (MediaTranslationPO) TableName() string {
	return "media_translations"
}

// FilePO 文件记录表
type FilePO struct {
	ID        uint      `gorm:"primarykey;autoIncrement"`
	URI       string    `gorm:"column:uri;size:1024;not null;uniqueIndex:idx_files_uri"`
	Filename  string    `gorm:"size:255;not null"`
	MIME      string    `gorm:"column:filemime;size:255;not null;default:''"`
	Size      int64     `gorm:"column:filesize;not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FilePO) TableName() string {
	return "files"
}

// MediaTypePO 媒体类型表
type MediaTypePO struct {
	ID             string `gorm:"primarykey;size:64"`
	Label          string `gorm:"size:255;not null;default:''"`
	SourceField    string `gorm:"size:64;not null"`
	FileExtensions string `gorm:"type:text;not null;default:''"`
}

func (MediaTypePO) TableName() string {
	return "media_types"
}

// AliasPO 路径别名表
type AliasPO struct {
	ID        uint      `gorm:"primarykey;autoIncrement"`
	Path      string    `gorm:"size:255;not null;index:idx_path_aliases_path_lang,priority:1"`
	Alias     string    `gorm:"size:255;not null;index:idx_path_aliases_alias_lang,priority:1"`
	Langcode  string    `gorm:"size:12;not null;index:idx_path_aliases_path_lang,priority:2;index:idx_path_aliases_alias_lang,priority:2"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AliasPO) TableName() string {
	return "path_aliases"
}

// Models 需要自动迁移的表
func Models() []any {
	return []any{
		&MediaTypePO{},
		&FilePO{},
		&MediaPO{},
		&MediaTranslationPO{},
		&AliasPO{},
	}
}
