package biz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

// UploadRequest 上传表单内容
type UploadRequest struct {
	Bundle      string
	Name        string
	Langcode    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Alias       string
}

// DownloadLink 下载路径信息
type DownloadLink struct {
	Path     string
	Alias    string
	Langcode string
}

// URL 有别名时返回别名，否则返回内部下载路径
func (l DownloadLink) URL() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Path
}

// EditFormData 编辑表单所需数据
type EditFormData struct {
	Media        *Media
	Alias        string
	DownloadPath string
	Extensions   []string
}

// MediaUseCase 媒体用例
type MediaUseCase struct {
	media     MediaRepo
	files     FileRepo
	types     MediaTypeRepo
	aliases   AliasRepo
	storage   FileStorage
	validator *ExtensionValidator
	sync      *PathSynchronizer
	logger    *logger.Logger

	defaultLangcode string
}

// NewMediaUseCase 创建媒体用例
func NewMediaUseCase(
	media MediaRepo,
	files FileRepo,
	types MediaTypeRepo,
	aliases AliasRepo,
	storage FileStorage,
	validator *ExtensionValidator,
	sync *PathSynchronizer,
	defaultLangcode string,
	log *logger.Logger,
) *MediaUseCase {
	if defaultLangcode == "" {
		defaultLangcode = LangNotSpecified
	}
	return &MediaUseCase{
		media:           media,
		files:           files,
		types:           types,
		aliases:         aliases,
		storage:         storage,
		validator:       validator,
		sync:            sync,
		logger:          log,
		defaultLangcode: defaultLangcode,
	}
}

// Get 获取媒体
func (uc *MediaUseCase) Get(ctx context.Context, id uint) (*Media, error) {
	return uc.media.Get(ctx, id)
}

// List 分页列出媒体，bundle 为空时不过滤
func (uc *MediaUseCase) List(ctx context.Context, bundle string, page, pageSize int) ([]*Media, int64, error) {
	return uc.media.List(ctx, bundle, page, pageSize)
}

// Save 保存表单提交：权限检查、别名校验、持久化媒体，最后同步别名
func (uc *MediaUseCase) Save(ctx context.Context, acc Account, sub Submission) (*Media, AliasState, error) {
	m, alias := sub.Subject()
	if m == nil {
		return nil, AliasState{}, apperrors.New(apperrors.ErrInvalidParams, "submission carries no media entity")
	}
	alias, err := NormalizeAlias(alias)
	if err != nil {
		return nil, AliasState{}, apperrors.Wrap(err, apperrors.ErrAliasInvalid, err.Error())
	}

	if m.IsNew() {
		if !CanCreate(acc, m.Bundle) {
			return nil, AliasState{}, apperrors.New(apperrors.ErrForbidden)
		}
		if acc != nil && m.OwnerID == "" {
			m.OwnerID = acc.ID()
		}
		if m.Langcode == "" {
			m.Langcode = uc.defaultLangcode
		}
	} else {
		stored, err := uc.media.Get(ctx, m.ID)
		if err != nil {
			return nil, AliasState{}, err
		}
		if !CanEdit(acc, stored) {
			return nil, AliasState{}, apperrors.New(apperrors.ErrForbidden)
		}
		// 归属和创建时间不随表单变化
		m.OwnerID = stored.OwnerID
		m.CreatedAt = stored.CreatedAt
		if m.Bundle == "" {
			m.Bundle = stored.Bundle
		}
		if m.Langcode == "" {
			m.Langcode = stored.Langcode
		}
	}

	if _, err := uc.types.Get(ctx, m.Bundle); err != nil {
		return nil, AliasState{}, err
	}

	// 源字段可能已换成别的文件，缓存的文件名跟随当前文件
	src, err := uc.validator.SourceFile(ctx, m)
	if err != nil {
		return nil, AliasState{}, err
	}
	if src != nil {
		m.SourceFilename = src.Filename
	}

	if err := uc.validateAlias(ctx, m, alias); err != nil {
		return nil, AliasState{}, err
	}

	if m.IsNew() {
		if err := uc.media.Create(ctx, m); err != nil {
			return nil, AliasState{}, err
		}
	} else {
		if err := uc.media.Update(ctx, m); err != nil {
			return nil, AliasState{}, err
		}
	}

	state, err := uc.sync.Sync(ctx, m, alias, m.Langcode)
	if err != nil {
		return nil, AliasState{}, apperrors.Wrap(err, apperrors.ErrInternalServer, "media saved but download path could not be synchronized")
	}
	return m, state, nil
}

func (uc *MediaUseCase) validateAlias(ctx context.Context, m *Media, alias string) error {
	if alias == "" {
		return nil
	}
	exts, err := uc.validator.AllowedExtensions(ctx, m)
	if err != nil {
		return err
	}
	if err := uc.validator.ValidateAlias(alias, exts); err != nil {
		return apperrors.Wrap(err, apperrors.ErrAliasInvalid, err.Error())
	}
	return nil
}

// Upload 保存上传文件并创建媒体
// 文件扩展名必须在 bundle 允许范围内，别名必须以上传文件的扩展名结尾
func (uc *MediaUseCase) Upload(ctx context.Context, acc Account, req UploadRequest) (*Media, AliasState, error) {
	if !CanCreate(acc, req.Bundle) {
		return nil, AliasState{}, apperrors.New(apperrors.ErrForbidden)
	}

	alias, err := NormalizeAlias(req.Alias)
	if err != nil {
		return nil, AliasState{}, apperrors.Wrap(err, apperrors.ErrAliasInvalid, err.Error())
	}
	req.Alias = alias

	mt, err := uc.types.Get(ctx, req.Bundle)
	if err != nil {
		return nil, AliasState{}, err
	}

	allowed, err := uc.validator.BundleExtensions(ctx, req.Bundle)
	if err != nil {
		return nil, AliasState{}, err
	}
	ext, hasExt := ExtensionOf(req.Filename)
	if len(allowed) > 0 && (!hasExt || !slices.Contains(allowed, ext)) {
		return nil, AliasState{}, apperrors.New(apperrors.ErrMediaInvalidFile,
			fmt.Sprintf("only files with the following extensions are allowed: %s", strings.Join(allowed, " ")))
	}

	// 先校验别名，避免存储无主对象
	aliasExts := allowed
	if hasExt {
		aliasExts = []string{ext}
	}
	if err := uc.validator.ValidateAlias(req.Alias, aliasExts); err != nil {
		return nil, AliasState{}, apperrors.Wrap(err, apperrors.ErrAliasInvalid, err.Error())
	}

	uri, err := uc.storage.Put(ctx, req.Filename, req.Body, req.Size, req.ContentType)
	if err != nil {
		return nil, AliasState{}, apperrors.Wrap(err, apperrors.ErrStorageFailed)
	}

	f := &File{
		URI:      uri,
		Filename: req.Filename,
		MIME:     req.ContentType,
		Size:     req.Size,
	}
	if err := uc.files.Create(ctx, f); err != nil {
		return nil, AliasState{}, err
	}

	name := req.Name
	if name == "" {
		name = req.Filename
	}
	m := &Media{
		Bundle:         req.Bundle,
		Name:           name,
		Langcode:       req.Langcode,
		Fields:         map[string]uint{mt.SourceField: f.ID},
		SourceFilename: req.Filename,
	}

	uc.logger.WithContext(ctx).Info("media file uploaded",
		zap.String("bundle", req.Bundle),
		zap.String("uri", uri),
		zap.Int64("size", req.Size))

	return uc.Save(ctx, acc, UploadForm{Media: []*Media{m}, Alias: req.Alias})
}

// Delete 删除媒体及其下载路径的所有别名
func (uc *MediaUseCase) Delete(ctx context.Context, acc Account, id uint) error {
	m, err := uc.media.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(acc, m) {
		return apperrors.New(apperrors.ErrForbidden)
	}
	if err := uc.media.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.sync.Purge(ctx, id); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "media deleted but download paths could not be purged")
	}
	return nil
}

// DownloadPath 返回指定语言的下载路径，媒体没有该翻译时使用其原始语言
func (uc *MediaUseCase) DownloadPath(ctx context.Context, id uint, langcode string) (*DownloadLink, error) {
	m, err := uc.media.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.DownloadPathFor(ctx, m, langcode)
}

// DownloadPathFor 对已加载的媒体计算下载路径
func (uc *MediaUseCase) DownloadPathFor(ctx context.Context, m *Media, langcode string) (*DownloadLink, error) {
	lang := m.Langcode
	if m.HasTranslation(langcode) {
		lang = langcode
	}
	if lang == "" {
		lang = LangNotSpecified
	}

	alias, err := uc.sync.Current(ctx, m, lang)
	if err != nil {
		return nil, err
	}
	return &DownloadLink{Path: DownloadPath(m.ID), Alias: alias, Langcode: lang}, nil
}

// EditForm 编辑表单需要展示的数据
func (uc *MediaUseCase) EditForm(ctx context.Context, acc Account, id uint) (*EditFormData, error) {
	m, err := uc.media.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(acc, m) {
		return nil, apperrors.New(apperrors.ErrForbidden)
	}

	alias, err := uc.sync.Current(ctx, m, m.Langcode)
	if err != nil {
		return nil, err
	}
	exts, err := uc.validator.AllowedExtensions(ctx, m)
	if err != nil {
		return nil, err
	}
	return &EditFormData{
		Media:        m,
		Alias:        alias,
		DownloadPath: DownloadPath(m.ID),
		Extensions:   exts,
	}, nil
}

// AllowedExtensions 返回媒体别名允许的扩展名
func (uc *MediaUseCase) AllowedExtensions(ctx context.Context, id uint) ([]string, error) {
	m, err := uc.media.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.validator.AllowedExtensions(ctx, m)
}

// CurrentAlias 返回媒体原始语言下的当前别名
func (uc *MediaUseCase) CurrentAlias(ctx context.Context, m *Media) (string, error) {
	return uc.sync.Current(ctx, m, m.Langcode)
}

// ListAliases 分页列出别名
func (uc *MediaUseCase) ListAliases(ctx context.Context, page, pageSize int) ([]*AliasMapping, int64, error) {
	return uc.aliases.List(ctx, page, pageSize)
}

// GetMediaType 获取媒体类型
func (uc *MediaUseCase) GetMediaType(ctx context.Context, id string) (*MediaType, error) {
	return uc.types.Get(ctx, id)
}

// ListMediaTypes 列出媒体类型
func (uc *MediaUseCase) ListMediaTypes(ctx context.Context) ([]*MediaType, error) {
	return uc.types.List(ctx)
}

// SaveMediaType 保存媒体类型配置并清除其扩展名缓存
func (uc *MediaUseCase) SaveMediaType(ctx context.Context, acc Account, mt *MediaType) error {
	if acc == nil || !acc.HasPermission(AdministerMediaTypesPermission) {
		return apperrors.New(apperrors.ErrForbidden)
	}
	if mt.ID == "" || mt.SourceField == "" {
		return apperrors.New(apperrors.ErrInvalidParams, "media type id and source_field are required")
	}
	if err := uc.types.Save(ctx, mt); err != nil {
		return err
	}
	uc.validator.InvalidateBundle(mt.ID)
	return nil
}

// AsValidationError 从错误链中取出别名校验失败
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
