package biz

import (
	"context"
	"fmt"
	"io"
	"time"
)

// LangNotSpecified 语言无关的别名使用的语言代码
const LangNotSpecified = "und"

// Media 媒体实体
type Media struct {
	ID       uint
	Bundle   string
	Name     string
	Langcode string
	OwnerID  string
	// Fields 字段名 -> 文件 ID，bundle 的 SourceField 指向承载文件的字段
	Fields map[string]uint
	// SourceFilename 源插件缓存的文件名，可能为空
	SourceFilename string
	// Translations 语言代码 -> 翻译后的名称
	Translations map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsNew 是否为尚未保存的新实体
func (m *Media) IsNew() bool {
	return m.ID == 0
}

// HasTranslation 是否存在该语言的翻译，原始语言也算
func (m *Media) HasTranslation(langcode string) bool {
	if langcode == "" {
		return false
	}
	if langcode == m.Langcode {
		return true
	}
	_, ok := m.Translations[langcode]
	return ok
}

// SourceFileID 返回源字段引用的文件 ID
func (m *Media) SourceFileID(sourceField string) (uint, bool) {
	if sourceField == "" {
		return 0, false
	}
	id, ok := m.Fields[sourceField]
	return id, ok && id != 0
}

// File 文件记录，URI 形如 public://docs/report.pdf
type File struct {
	ID        uint
	URI       string
	Filename  string
	MIME      string
	Size      int64
	CreatedAt time.Time
}

// MediaType 媒体类型（bundle）配置
type MediaType struct {
	ID          string
	Label       string
	SourceField string
	// FileExtensions 上传字段允许的扩展名，空格或逗号分隔
	FileExtensions string
}

// AliasMapping 路径别名记录
type AliasMapping struct {
	ID        uint
	Path      string
	Alias     string
	Langcode  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ObjectInfo 存储对象的元数据
type ObjectInfo struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Account 发起请求的账户
type Account interface {
	ID() string
	HasPermission(perm string) bool
}

// DownloadPath 媒体的内部下载路径
func DownloadPath(id uint) string {
	return fmt.Sprintf("/media/%d/download", id)
}

// DisplayPath 媒体的内部展示路径
func DisplayPath(id uint) string {
	return fmt.Sprintf("/media/%d", id)
}

// EditPath 媒体编辑页路径
func EditPath(id uint) string {
	return fmt.Sprintf("/media/%d/edit", id)
}

// MediaRepo 媒体实体存储
type MediaRepo interface {
	Get(ctx context.Context, id uint) (*Media, error)
	Create(ctx context.Context, m *Media) error
	Update(ctx context.Context, m *Media) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, bundle string, page, pageSize int) ([]*Media, int64, error)
}

// FileRepo 文件记录存储
type FileRepo interface {
	Get(ctx context.Context, id uint) (*File, error)
	Create(ctx context.Context, f *File) error
}

// MediaTypeRepo 媒体类型存储
type MediaTypeRepo interface {
	Get(ctx context.Context, id string) (*MediaType, error)
	Save(ctx context.Context, mt *MediaType) error
	List(ctx context.Context) ([]*MediaType, error)
}

// AliasRepo 别名存储
//
// PathByAlias 只做精确语言匹配，语言回退由调用方处理。FindByPath 的
// langcode 为空时返回所有语言的记录，结果按 ID 升序。
type AliasRepo interface {
	PathByAlias(ctx context.Context, alias, langcode string) (string, bool, error)
	Get(ctx context.Context, id uint) (*AliasMapping, error)
	FindByPath(ctx context.Context, path, langcode string) ([]*AliasMapping, error)
	FindByAlias(ctx context.Context, alias string) ([]*AliasMapping, error)
	Create(ctx context.Context, a *AliasMapping) error
	Update(ctx context.Context, a *AliasMapping) error
	Delete(ctx context.Context, mappings ...*AliasMapping) error
	List(ctx context.Context, page, pageSize int) ([]*AliasMapping, int64, error)
}

// FileStorage 文件对象存储，按 URI 寻址
type FileStorage interface {
	Stat(ctx context.Context, uri string) (*ObjectInfo, error)
	Open(ctx context.Context, uri string) (io.ReadSeekCloser, *ObjectInfo, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// ExtensionCache 按 bundle 缓存解析后的扩展名列表
type ExtensionCache interface {
	Get(bundle string) ([]string, bool)
	Set(bundle string, extensions []string)
	Invalidate(bundle string)
}
