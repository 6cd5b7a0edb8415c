package service

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/media-path/internal/auth/middleware"
	"github.com/lk2023060901/media-path/internal/media/biz"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/response"
)

// 文件响应可被共享缓存，内容变化时 Last-Modified 随之变化
const fileCacheControl = "public, max-age=3600"

// RegisterDisplayRoutes 注册媒体展示路由，未匹配的 GET 请求都交给别名解析
func (s *MediaService) RegisterDisplayRoutes(e *gin.Engine) {
	e.GET("/media/:id", s.Resolve)
	e.GET("/media/:id/download", s.Resolve)
	e.GET("/media/:id/edit", s.EditForm)
	e.NoRoute(s.Resolve)
}

// Resolve 别名解析入口
func (s *MediaService) Resolve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		response.ErrorWithCode(c, apperrors.ErrNotFound, "page not found")
		return
	}

	requestURI := c.Request.RequestURI
	if requestURI == "" {
		requestURI = c.Request.URL.RequestURI()
	}
	_, inline := c.GetQuery("inline")

	res, err := s.resolver.Resolve(c.Request.Context(), biz.ResolveRequest{
		Path:       c.Request.URL.Path,
		RequestURI: requestURI,
		Langcode:   c.Query("lang"),
		Inline:     inline,
		Account:    middleware.GetAccount(c),
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	switch res.Kind {
	case biz.ResolutionServeFile:
		s.serveFile(c, res)
	case biz.ResolutionRender:
		response.Success(c, toMediaResponse(res.Media))
	case biz.ResolutionEditRedirect:
		c.Redirect(http.StatusFound, res.RedirectTo)
	default:
		response.ErrorWithCode(c, apperrors.ErrNotFound, "page not found")
	}
}

func (s *MediaService) serveFile(c *gin.Context, res *biz.Resolution) {
	rc, info, err := s.storage.Open(c.Request.Context(), res.File.URI)
	if err != nil {
		s.handleError(c, err)
		return
	}
	defer rc.Close()

	contentType := res.File.MIME
	if contentType == "" {
		contentType = info.ContentType
	}
	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Header("Content-Disposition", mime.FormatMediaType(res.Disposition, map[string]string{"filename": res.File.Filename}))
	c.Header("Cache-Control", fileCacheControl)

	http.ServeContent(c.Writer, c.Request, res.File.Filename, info.LastModified, rc)
}

// EditForm 编辑表单数据：媒体、当前下载路径和允许的扩展名
func (s *MediaService) EditForm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		// 非数字 id 可能是形如 /media/x/edit 的别名
		s.Resolve(c)
		return
	}

	data, err := s.uc.EditForm(c.Request.Context(), middleware.GetAccount(c), uint(id))
	if err != nil {
		s.handleError(c, err)
		return
	}

	exts := data.Extensions
	if exts == nil {
		exts = []string{}
	}
	response.Success(c, &EditFormResponse{
		Media:             toMediaResponse(data.Media),
		MediaDownloadPath: AliasInput{Alias: data.Alias},
		Source:            data.DownloadPath,
		Extensions:        exts,
		Description:       aliasDescription,
	})
}
