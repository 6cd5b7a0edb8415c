package service

import (
	"time"

	"github.com/lk2023060901/media-path/internal/media/biz"
)

// AliasInput 下载路径字段
type AliasInput struct {
	Alias string `json:"alias"`
}

// MediaPayload 表单中的媒体实体，ID 非零表示已有实体
type MediaPayload struct {
	ID             uint              `json:"id"`
	Bundle         string            `json:"bundle"`
	Name           string            `json:"name"`
	Langcode       string            `json:"langcode"`
	Fields         map[string]uint   `json:"fields"`
	SourceFilename string            `json:"source_filename"`
	Translations   map[string]string `json:"translations"`
}

// SaveMediaRequest 实体表单；media_download_path 缺省时更新操作保留原别名
type SaveMediaRequest struct {
	MediaPayload
	MediaDownloadPath *AliasInput `json:"media_download_path"`
}

// BrowserFormRequest 实体浏览器表单
type BrowserFormRequest struct {
	Entity            *MediaPayload `json:"entity"`
	DefaultValue      *MediaPayload `json:"default_value"`
	MediaDownloadPath *AliasInput   `json:"media_download_path"`
}

// ListMediaRequest 媒体列表请求
type ListMediaRequest struct {
	Bundle   string `form:"bundle"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// MediaTypeRequest 媒体类型配置请求
type MediaTypeRequest struct {
	Label          string `json:"label"`
	SourceField    string `json:"source_field" binding:"required"`
	FileExtensions string `json:"file_extensions"`
}

// MediaResponse 媒体响应
type MediaResponse struct {
	ID             uint              `json:"id"`
	Bundle         string            `json:"bundle"`
	Name           string            `json:"name"`
	Langcode       string            `json:"langcode"`
	OwnerID        string            `json:"owner_id,omitempty"`
	Fields         map[string]uint   `json:"fields,omitempty"`
	SourceFilename string            `json:"source_filename,omitempty"`
	Translations   map[string]string `json:"translations,omitempty"`
	DownloadPath   string            `json:"download_path"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

// SaveMediaResponse 保存媒体响应，附带同步后的别名
type SaveMediaResponse struct {
	Media             *MediaResponse `json:"media"`
	MediaDownloadPath AliasInput     `json:"media_download_path"`
}

// ListMediaResponse 媒体列表响应
type ListMediaResponse struct {
	Items    []*MediaResponse `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// EditFormResponse 编辑表单响应
type EditFormResponse struct {
	Media             *MediaResponse `json:"media"`
	MediaDownloadPath AliasInput     `json:"media_download_path"`
	Source            string         `json:"source"`
	Extensions        []string       `json:"allowed_extensions"`
	Description       string         `json:"description"`
}

// DownloadPathResponse 下载路径响应
type DownloadPathResponse struct {
	Path     string `json:"path"`
	Alias    string `json:"alias,omitempty"`
	URL      string `json:"url"`
	Langcode string `json:"langcode"`
}

// ExtensionsResponse 允许的扩展名响应
type ExtensionsResponse struct {
	MediaID    uint     `json:"media_id"`
	Extensions []string `json:"extensions"`
}

// MediaTypeResponse 媒体类型响应
type MediaTypeResponse struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	SourceField    string   `json:"source_field"`
	FileExtensions string   `json:"file_extensions"`
	Extensions     []string `json:"extensions"`
}

// AliasResponse 别名记录响应
type AliasResponse struct {
	ID        uint   `json:"id"`
	Path      string `json:"path"`
	Alias     string `json:"alias"`
	Langcode  string `json:"langcode"`
	UpdatedAt string `json:"updated_at"`
}

// ValidationErrorData 校验失败时附带的字段信息
type ValidationErrorData struct {
	Field      string   `json:"field"`
	Extensions []string `json:"allowed_extensions,omitempty"`
}

func (p *MediaPayload) toMedia() *biz.Media {
	return &biz.Media{
		ID:             p.ID,
		Bundle:         p.Bundle,
		Name:           p.Name,
		Langcode:       p.Langcode,
		Fields:         p.Fields,
		SourceFilename: p.SourceFilename,
		Translations:   p.Translations,
	}
}

// applyTo 将表单中非空的字段覆盖到已存储的实体上
func (p *MediaPayload) applyTo(m *biz.Media) {
	if p.Name != "" {
		m.Name = p.Name
	}
	if p.Langcode != "" {
		m.Langcode = p.Langcode
	}
	if p.Fields != nil {
		m.Fields = p.Fields
	}
	if p.SourceFilename != "" {
		m.SourceFilename = p.SourceFilename
	}
	if p.Translations != nil {
		m.Translations = p.Translations
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toMediaResponse(m *biz.Media) *MediaResponse {
	return &MediaResponse{
		ID:             m.ID,
		Bundle:         m.Bundle,
		Name:           m.Name,
		Langcode:       m.Langcode,
		OwnerID:        m.OwnerID,
		Fields:         m.Fields,
		SourceFilename: m.SourceFilename,
		Translations:   m.Translations,
		DownloadPath:   biz.DownloadPath(m.ID),
		CreatedAt:      formatTime(m.CreatedAt),
		UpdatedAt:      formatTime(m.UpdatedAt),
	}
}

func toMediaTypeResponse(mt *biz.MediaType) *MediaTypeResponse {
	exts := biz.ParseExtensionList(mt.FileExtensions)
	if exts == nil {
		exts = []string{}
	}
	return &MediaTypeResponse{
		ID:             mt.ID,
		Label:          mt.Label,
		SourceField:    mt.SourceField,
		FileExtensions: mt.FileExtensions,
		Extensions:     exts,
	}
}

func toAliasResponse(a *biz.AliasMapping) *AliasResponse {
	return &AliasResponse{
		ID:        a.ID,
		Path:      a.Path,
		Alias:     a.Alias,
		Langcode:  a.Langcode,
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}
