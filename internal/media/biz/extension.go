package biz

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

// AliasField 下载路径字段名，校验失败时错误挂在这个字段上
const AliasField = "media_download_path"

var extensionSeparator = regexp.MustCompile(`,?\s+`)

// ValidationError 下载路径校验失败
type ValidationError struct {
	Field      string
	Extensions []string
	// Message 非扩展名类的失败原因，为空时按扩展名生成
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Only the alias with the following extensions are allowed: %s.", strings.Join(e.Extensions, " "))
}

// NormalizeAlias 去掉首尾空白和末尾的斜杠，非空别名必须以 / 开头
func NormalizeAlias(alias string) (string, error) {
	alias = strings.TrimRight(strings.TrimSpace(alias), " \\/")
	if alias != "" && alias[0] != '/' {
		return "", &ValidationError{
			Field:   AliasField,
			Message: fmt.Sprintf("The alias %s needs to start with a slash.", alias),
		}
	}
	return alias, nil
}

// ParseExtensionList 解析 bundle 的 file_extensions 配置
// 去掉末尾空白后按 `,?\s+` 切分，重复项只保留第一个
func ParseExtensionList(setting string) []string {
	setting = strings.TrimRightFunc(setting, isSpace)
	if setting == "" {
		return nil
	}

	parts := extensionSeparator.Split(setting, -1)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == 0
}

// ExtensionOf 返回文件名最后一个点之后的部分，没有点或以点结尾时没有扩展名
func ExtensionOf(filename string) (string, bool) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return "", false
	}
	return filename[i+1:], true
}

// ExtensionValidator 计算允许的扩展名并校验下载路径
type ExtensionValidator struct {
	types  MediaTypeRepo
	files  FileRepo
	cache  ExtensionCache
	logger *logger.Logger

	permitUnrestricted bool
}

// NewExtensionValidator 创建扩展名校验器
func NewExtensionValidator(types MediaTypeRepo, files FileRepo, cache ExtensionCache, permitUnrestricted bool, log *logger.Logger) *ExtensionValidator {
	return &ExtensionValidator{
		types:              types,
		files:              files,
		cache:              cache,
		logger:             log,
		permitUnrestricted: permitUnrestricted,
	}
}

// AllowedExtensions 计算媒体别名允许的扩展名
// 源文件有扩展名时只允许该扩展名，否则使用 bundle 配置
func (v *ExtensionValidator) AllowedExtensions(ctx context.Context, m *Media) ([]string, error) {
	filename, err := v.sourceFilename(ctx, m)
	if err != nil {
		return nil, err
	}
	if ext, ok := ExtensionOf(filename); ok {
		return []string{ext}, nil
	}
	return v.BundleExtensions(ctx, m.Bundle)
}

func (v *ExtensionValidator) sourceFilename(ctx context.Context, m *Media) (string, error) {
	f, err := v.SourceFile(ctx, m)
	if err != nil {
		return "", err
	}
	if f != nil {
		return f.Filename, nil
	}
	// 源字段没有可加载的文件时才使用缓存的文件名
	return m.SourceFilename, nil
}

// SourceFile 加载源字段引用的文件，未引用或文件无法加载时返回 nil
func (v *ExtensionValidator) SourceFile(ctx context.Context, m *Media) (*File, error) {
	mt, err := v.types.Get(ctx, m.Bundle)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMediaTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	fid, ok := m.SourceFileID(mt.SourceField)
	if !ok {
		return nil, nil
	}
	f, err := v.files.Get(ctx, fid)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMediaFileUnloadable) {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// BundleExtensions 返回 bundle 配置的扩展名列表，bundle 不存在时为空
func (v *ExtensionValidator) BundleExtensions(ctx context.Context, bundle string) ([]string, error) {
	if exts, ok := v.cache.Get(bundle); ok {
		return exts, nil
	}

	var exts []string
	mt, err := v.types.Get(ctx, bundle)
	switch {
	case err == nil:
		exts = ParseExtensionList(mt.FileExtensions)
	case apperrors.Is(err, apperrors.ErrMediaTypeNotFound):
		v.logger.Debug("media type not found, no extensions allowed", zap.String("bundle", bundle))
	default:
		return nil, err
	}

	v.cache.Set(bundle, exts)
	return exts, nil
}

// InvalidateBundle 清除 bundle 的扩展名缓存
func (v *ExtensionValidator) InvalidateBundle(bundle string) {
	v.cache.Invalidate(bundle)
}

// ValidateAlias 校验别名扩展名，按 "." + ext 后缀匹配且区分大小写，空别名总是合法
func (v *ExtensionValidator) ValidateAlias(alias string, extensions []string) error {
	if alias == "" {
		return nil
	}
	if len(extensions) == 0 && v.permitUnrestricted {
		return nil
	}
	for _, ext := range extensions {
		if strings.HasSuffix(alias, "."+ext) {
			return nil
		}
	}
	return &ValidationError{Field: AliasField, Extensions: extensions}
}
