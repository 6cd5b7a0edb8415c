package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`              // 业务错误码（0表示成功）
	Message string `json:"message,omitempty"` // 提示信息
	Data    any    `json:"data"`              // 实际数据（可能为空对象 {}）
}

// Success 成功响应（200）
func Success(c *gin.Context, data any) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// Created 创建资源成功（201）
func Created(c *gin.Context, data any) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusCreated, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
		Data:    struct{}{},
	})
}

// BadRequest 400 错误
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, apperrors.ErrBadRequest, message)
}

// NotFound 404 错误
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, apperrors.ErrNotFound, message)
}

// HandleError 统一错误处理（使用AppError）
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	httpStatus := apperrors.GetHTTPStatus(code)
	message := apperrors.FormatError(code, apperrors.GetDetails(err))

	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    struct{}{},
	})
}

// ErrorWithCode 使用错误码的错误响应
func ErrorWithCode(c *gin.Context, code int, details ...string) {
	ErrorWithData(c, code, apperrors.FormatError(code, details...), nil)
}

// ErrorWithData 带附加数据的错误响应（如表单校验失败的字段信息）
func ErrorWithData(c *gin.Context, code int, message string, data any) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(apperrors.GetHTTPStatus(code), Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
