package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/auth/middleware"
	"github.com/lk2023060901/media-path/internal/media/biz"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/response"
)

// aliasDescription 下载路径字段的说明文字
const aliasDescription = `Specify an alternative path by which this data can be accessed. For example, type "/my-document.pdf" for an PDF document.`

// MediaService 媒体 HTTP 服务
type MediaService struct {
	uc            *biz.MediaUseCase
	resolver      *biz.Resolver
	storage       biz.FileStorage
	maxUploadSize int64
	logger        *logger.Logger
}

// NewMediaService 创建媒体服务
func NewMediaService(
	uc *biz.MediaUseCase,
	resolver *biz.Resolver,
	storage biz.FileStorage,
	maxUploadSize int64,
	logger *logger.Logger,
) *MediaService {
	return &MediaService{
		uc:            uc,
		resolver:      resolver,
		storage:       storage,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// RegisterRoutes 注册 API 路由，uploadGuards 挂在上传接口前（如限流）
func (s *MediaService) RegisterRoutes(r *gin.RouterGroup, uploadGuards ...gin.HandlerFunc) {
	media := r.Group("/media")
	{
		media.GET("", s.ListMedia)
		media.GET("/:id", s.GetMedia)
		media.GET("/:id/download-path", s.GetDownloadPath)
		media.GET("/:id/extensions", s.GetExtensions)

		media.POST("", middleware.RequireAuth(), s.CreateMedia)
		media.POST("/browser", middleware.RequireAuth(), s.SubmitBrowserForm)
		upload := append([]gin.HandlerFunc{middleware.RequireAuth()}, uploadGuards...)
		media.POST("/upload", append(upload, s.Upload)...)
		media.PUT("/:id", middleware.RequireAuth(), s.UpdateMedia)
		media.DELETE("/:id", middleware.RequireAuth(), s.DeleteMedia)
	}

	types := r.Group("/media-types")
	{
		types.GET("", s.ListMediaTypes)
		types.GET("/:id", s.GetMediaType)
		types.PUT("/:id", middleware.RequirePermission(biz.AdministerMediaTypesPermission), s.SaveMediaType)
	}

	r.GET("/aliases", s.ListAliases)
}

// GetMedia 获取媒体
func (s *MediaService) GetMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := s.uc.Get(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toMediaResponse(m))
}

// ListMedia 分页列出媒体
func (s *MediaService) ListMedia(c *gin.Context) {
	var req ListMediaRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	items, total, err := s.uc.List(c.Request.Context(), req.Bundle, req.Page, req.PageSize)
	if err != nil {
		s.handleError(c, err)
		return
	}

	resp := &ListMediaResponse{
		Items:    make([]*MediaResponse, len(items)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for i, m := range items {
		resp.Items[i] = toMediaResponse(m)
	}
	response.Success(c, resp)
}

// CreateMedia 实体表单：新建媒体
func (s *MediaService) CreateMedia(c *gin.Context) {
	var req SaveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Bundle == "" {
		response.BadRequest(c, "bundle is required")
		return
	}
	req.ID = 0

	alias := ""
	if req.MediaDownloadPath != nil {
		alias = req.MediaDownloadPath.Alias
	}

	s.save(c, biz.EntityForm{Media: req.toMedia(), Alias: alias}, http.StatusCreated)
}

// UpdateMedia 实体表单：更新媒体
func (s *MediaService) UpdateMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SaveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	m, err := s.uc.Get(ctx, id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	req.applyTo(m)

	alias, err := s.submittedAlias(ctx, m, req.MediaDownloadPath)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.save(c, biz.EntityForm{Media: m, Alias: alias}, http.StatusOK)
}

// SubmitBrowserForm 实体浏览器表单
func (s *MediaService) SubmitBrowserForm(c *gin.Context) {
	var req BrowserFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	entity, err := s.loadPayload(ctx, req.Entity)
	if err != nil {
		s.handleError(c, err)
		return
	}
	defaultValue, err := s.loadPayload(ctx, req.DefaultValue)
	if err != nil {
		s.handleError(c, err)
		return
	}

	form := biz.BrowserForm{Entity: entity, DefaultValue: defaultValue}
	subject, _ := form.Subject()
	if subject == nil {
		response.BadRequest(c, "entity or default_value is required")
		return
	}

	form.Alias, err = s.submittedAlias(ctx, subject, req.MediaDownloadPath)
	if err != nil {
		s.handleError(c, err)
		return
	}

	status := http.StatusOK
	if subject.IsNew() {
		status = http.StatusCreated
	}
	s.save(c, form, status)
}

func (s *MediaService) save(c *gin.Context, sub biz.Submission, status int) {
	m, state, err := s.uc.Save(c.Request.Context(), middleware.GetAccount(c), sub)
	if err != nil {
		s.handleError(c, err)
		return
	}

	resp := &SaveMediaResponse{
		Media:             toMediaResponse(m),
		MediaDownloadPath: AliasInput{Alias: state.Alias},
	}
	if status == http.StatusCreated {
		response.Created(c, resp)
		return
	}
	response.Success(c, resp)
}

// submittedAlias 字段缺省时已有实体保留当前别名
func (s *MediaService) submittedAlias(ctx context.Context, m *biz.Media, in *AliasInput) (string, error) {
	if in != nil {
		return in.Alias, nil
	}
	if m.IsNew() {
		return "", nil
	}
	return s.uc.CurrentAlias(ctx, m)
}

func (s *MediaService) loadPayload(ctx context.Context, p *MediaPayload) (*biz.Media, error) {
	if p == nil {
		return nil, nil
	}
	if p.ID == 0 {
		if p.Bundle == "" {
			return nil, apperrors.New(apperrors.ErrInvalidParams, "bundle is required")
		}
		return p.toMedia(), nil
	}
	m, err := s.uc.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.applyTo(m)
	return m, nil
}

// DeleteMedia 删除媒体及其下载路径
func (s *MediaService) DeleteMedia(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.uc.Delete(c.Request.Context(), middleware.GetAccount(c), id); err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, nil)
}

// Upload 上传表单：保存文件并创建媒体
func (s *MediaService) Upload(c *gin.Context) {
	if s.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, "file exceeds the upload size limit")
			return
		}
		response.BadRequest(c, "file is required")
		return
	}
	bundle := c.PostForm("bundle")
	if bundle == "" {
		response.BadRequest(c, "bundle is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.handleError(c, apperrors.Wrap(err, apperrors.ErrBadRequest, "cannot read uploaded file"))
		return
	}
	defer f.Close()

	// 以内容识别的类型为准，不信任客户端提供的 Content-Type
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		s.handleError(c, apperrors.Wrap(err, apperrors.ErrBadRequest, "cannot read uploaded file"))
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.handleError(c, apperrors.Wrap(err, apperrors.ErrInternalServer))
		return
	}

	m, state, err := s.uc.Upload(c.Request.Context(), middleware.GetAccount(c), biz.UploadRequest{
		Bundle:      bundle,
		Name:        c.PostForm("name"),
		Langcode:    c.PostForm("langcode"),
		Filename:    filepath.Base(fh.Filename),
		ContentType: mtype.String(),
		Size:        fh.Size,
		Body:        f,
		Alias:       c.PostForm("alias"),
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Created(c, &SaveMediaResponse{
		Media:             toMediaResponse(m),
		MediaDownloadPath: AliasInput{Alias: state.Alias},
	})
}

// GetDownloadPath 返回媒体的下载路径，lang 指定翻译语言
func (s *MediaService) GetDownloadPath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	link, err := s.uc.DownloadPath(c.Request.Context(), id, c.Query("lang"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, &DownloadPathResponse{
		Path:     link.Path,
		Alias:    link.Alias,
		URL:      link.URL(),
		Langcode: link.Langcode,
	})
}

// GetExtensions 返回别名允许的扩展名
func (s *MediaService) GetExtensions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	exts, err := s.uc.AllowedExtensions(c.Request.Context(), id)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if exts == nil {
		exts = []string{}
	}
	response.Success(c, &ExtensionsResponse{MediaID: id, Extensions: exts})
}

// ListAliases 分页列出别名
func (s *MediaService) ListAliases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, total, err := s.uc.ListAliases(c.Request.Context(), page, pageSize)
	if err != nil {
		s.handleError(c, err)
		return
	}

	out := make([]*AliasResponse, len(items))
	for i, a := range items {
		out[i] = toAliasResponse(a)
	}
	response.Success(c, gin.H{"items": out, "total": total})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid media id")
		return 0, false
	}
	return uint(id), true
}

func (s *MediaService) handleError(c *gin.Context, err error) {
	if ve, ok := biz.AsValidationError(err); ok {
		response.ErrorWithData(c, apperrors.ErrAliasInvalid, ve.Error(), &ValidationErrorData{
			Field:      ve.Field,
			Extensions: ve.Extensions,
		})
		return
	}

	if code := apperrors.ExtractCode(err); !apperrors.IsClientError(code) {
		s.logger.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	response.HandleError(c, err)
}
