package service

import (
	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/media-path/internal/auth/middleware"
	"github.com/lk2023060901/media-path/internal/media/biz"
	"github.com/lk2023060901/media-path/internal/pkg/response"
)

// ListMediaTypes 列出媒体类型
func (s *MediaService) ListMediaTypes(c *gin.Context) {
	types, err := s.uc.ListMediaTypes(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	out := make([]*MediaTypeResponse, len(types))
	for i, mt := range types {
		out[i] = toMediaTypeResponse(mt)
	}
	response.Success(c, out)
}

// GetMediaType 获取媒体类型
func (s *MediaService) GetMediaType(c *gin.Context) {
	mt, err := s.uc.GetMediaType(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toMediaTypeResponse(mt))
}

// SaveMediaType 保存媒体类型配置，同时清除该类型的扩展名缓存
func (s *MediaService) SaveMediaType(c *gin.Context) {
	var req MediaTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	mt := &biz.MediaType{
		ID:             c.Param("id"),
		Label:          req.Label,
		SourceField:    req.SourceField,
		FileExtensions: req.FileExtensions,
	}
	if err := s.uc.SaveMediaType(c.Request.Context(), middleware.GetAccount(c), mt); err != nil {
		s.handleError(c, err)
		return
	}
	response.Success(c, toMediaTypeResponse(mt))
}
