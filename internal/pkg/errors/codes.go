package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Auth errors (2000-2999)
	ErrAuthInvalidToken = 2006
	ErrAuthTokenExpired = 2007

	// Media errors (4000-4999)
	ErrMediaNotFound       = 4000
	ErrMediaFileMissing    = 4001 // source field holds no file reference
	ErrMediaFileUnloadable = 4002 // referenced file row does not exist
	ErrMediaFileAbsent     = 4003 // object missing from storage
	ErrAliasInvalid        = 4004
	ErrMediaTypeNotFound   = 4005
	ErrStorageFailed       = 4006
	ErrMediaInvalidFile    = 4007
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// Auth errors
	ErrAuthInvalidToken: {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthTokenExpired: {ErrAuthTokenExpired, http.StatusUnauthorized, "Token expired"},

	// Media errors
	ErrMediaNotFound:       {ErrMediaNotFound, http.StatusNotFound, "Media not found"},
	ErrMediaFileMissing:    {ErrMediaFileMissing, http.StatusNotFound, "Media has no source file"},
	ErrMediaFileUnloadable: {ErrMediaFileUnloadable, http.StatusNotFound, "Media source file could not be loaded"},
	ErrMediaFileAbsent:     {ErrMediaFileAbsent, http.StatusNotFound, "Media source file does not exist in storage"},
	ErrAliasInvalid:        {ErrAliasInvalid, http.StatusBadRequest, "Invalid download path"},
	ErrMediaTypeNotFound:   {ErrMediaTypeNotFound, http.StatusNotFound, "Media type not found"},
	ErrStorageFailed:       {ErrStorageFailed, http.StatusInternalServerError, "Storage operation failed"},
	ErrMediaInvalidFile:    {ErrMediaInvalidFile, http.StatusBadRequest, "Unsupported file type"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
