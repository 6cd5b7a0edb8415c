package biz

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/metrics"
)

// ResolutionKind 别名解析结果类型
type ResolutionKind int

const (
	ResolutionNotFound ResolutionKind = iota
	ResolutionServeFile
	ResolutionRender
	ResolutionEditRedirect
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionServeFile:
		return "serve_file"
	case ResolutionRender:
		return "render"
	case ResolutionEditRedirect:
		return "edit_redirect"
	default:
		return "not_found"
	}
}

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

var mediaRoute = regexp.MustCompile(`^/media/(\d+)(/download)?$`)

// ResolveRequest 一次别名解析的输入
type ResolveRequest struct {
	// Path 请求路径（不含查询串）
	Path string
	// RequestURI 原始请求 URI，用于检测编辑标记
	RequestURI string
	Langcode   string
	// Inline 下载路由上请求内联展示
	Inline  bool
	Account Account
}

// Resolution 别名解析结果
type Resolution struct {
	Kind ResolutionKind
	// CanonicalPath 别名映射后的内部路径
	CanonicalPath string
	Media         *Media
	File          *File
	Object        *ObjectInfo
	Disposition   string
	RedirectTo    string
}

// ResolverConfig 解析器配置
type ResolverConfig struct {
	// EditMarker 请求 URI 中出现该片段时尝试跳转到编辑页
	EditMarker string
	// DefaultLangcode 请求未指定语言时使用
	DefaultLangcode string
}

// Resolver 将别名路径解析为文件流、实体渲染、编辑跳转或 404
type Resolver struct {
	aliases AliasRepo
	media   MediaRepo
	types   MediaTypeRepo
	files   FileRepo
	storage FileStorage
	config  ResolverConfig
	logger  *logger.Logger
}

// NewResolver 创建别名解析器
func NewResolver(aliases AliasRepo, media MediaRepo, types MediaTypeRepo, files FileRepo, storage FileStorage, cfg ResolverConfig, log *logger.Logger) *Resolver {
	if cfg.EditMarker == "" {
		cfg.EditMarker = "edit-media"
	}
	if cfg.DefaultLangcode == "" {
		cfg.DefaultLangcode = LangNotSpecified
	}
	return &Resolver{
		aliases: aliases,
		media:   media,
		types:   types,
		files:   files,
		storage: storage,
		config:  cfg,
		logger:  log,
	}
}

// Resolve 解析请求路径，不修改任何状态
// 回退情况只记录日志并体现在 Kind 中，返回 error 表示后端故障
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	res, err := r.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.ObserveResolution(res.Kind.String())
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	log := r.logger.WithContext(ctx)

	langcode := req.Langcode
	if langcode == "" {
		langcode = r.config.DefaultLangcode
	}

	canonical, err := r.canonicalPath(ctx, r.stripEditMarker(req.Path), langcode)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Kind: ResolutionNotFound, CanonicalPath: canonical}

	match := mediaRoute.FindStringSubmatch(canonical)
	if match == nil {
		log.Info("path does not resolve to a media route", zap.String("path", req.Path))
		return res, nil
	}
	id, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		log.Info("can't find media object", zap.String("path", req.Path))
		return res, nil
	}
	download := match[2] != ""

	m, err := r.media.Get(ctx, uint(id))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrMediaNotFound) {
			log.Info("can't find media object", zap.String("path", req.Path))
			return res, nil
		}
		return nil, err
	}
	res.Media = m

	// 编辑跳转优先于文件解析
	if strings.Contains(req.RequestURI, r.config.EditMarker) && HoldsEditPermission(req.Account, m.Bundle) {
		res.Kind = ResolutionEditRedirect
		res.RedirectTo = EditPath(m.ID)
		return res, nil
	}

	fallback := ResolutionRender
	if download {
		fallback = ResolutionNotFound
	}

	f, obj, err := r.sourceFile(ctx, m)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.ErrMediaFileMissing):
		log.Info("media item has no file referenced", zap.String("path", req.Path), zap.Uint("media_id", m.ID))
		res.Kind = fallback
		return res, nil
	case apperrors.Is(err, apperrors.ErrMediaFileUnloadable):
		log.Info("file could not be loaded", zap.String("path", req.Path), zap.Uint("media_id", m.ID))
		res.Kind = fallback
		return res, nil
	case apperrors.Is(err, apperrors.ErrMediaFileAbsent):
		log.Info("file does not exist in storage", zap.String("path", req.Path), zap.Uint("media_id", m.ID))
		res.Kind = fallback
		return res, nil
	default:
		return nil, err
	}

	res.Kind = ResolutionServeFile
	res.File = f
	res.Object = obj
	res.Disposition = DispositionInline
	if download && !req.Inline {
		res.Disposition = DispositionAttachment
	}
	return res, nil
}

func (r *Resolver) stripEditMarker(path string) string {
	suffix := "/" + r.config.EditMarker
	if trimmed, ok := strings.CutSuffix(path, suffix); ok && trimmed != "" {
		return trimmed
	}
	return path
}

// canonicalPath looks the alias up in the requested language first, then
// in the language-neutral set. An unaliased path maps to itself.
func (r *Resolver) canonicalPath(ctx context.Context, alias, langcode string) (string, error) {
	if langcode != "" && langcode != LangNotSpecified {
		path, ok, err := r.aliases.PathByAlias(ctx, alias, langcode)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
	path, ok, err := r.aliases.PathByAlias(ctx, alias, LangNotSpecified)
	if err != nil {
		return "", err
	}
	if ok {
		return path, nil
	}
	return alias, nil
}

// sourceFile loads the file held by the media's source field and checks it
// exists in storage. The three fallback conditions come back as coded errors.
func (r *Resolver) sourceFile(ctx context.Context, m *Media) (*File, *ObjectInfo, error) {
	var sourceField string
	mt, err := r.types.Get(ctx, m.Bundle)
	switch {
	case err == nil:
		sourceField = mt.SourceField
	case apperrors.Is(err, apperrors.ErrMediaTypeNotFound):
	default:
		return nil, nil, err
	}

	fid, ok := m.SourceFileID(sourceField)
	if !ok {
		return nil, nil, apperrors.New(apperrors.ErrMediaFileMissing)
	}

	f, err := r.files.Get(ctx, fid)
	if err != nil {
		return nil, nil, err
	}

	obj, err := r.storage.Stat(ctx, f.URI)
	if err != nil {
		return nil, nil, err
	}
	return f, obj, nil
}
