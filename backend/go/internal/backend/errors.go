package backend

import (
	"errors"
	"fmt"

	"tiben-mcp/backend/go/internal/models"
)

// ErrFileNotFound 表示本地图片不存在，在发起任何网络请求之前返回。
var ErrFileNotFound = errors.New("file not found")

// APIError 表示后端返回了非 2xx 状态码。
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Backend API error: %d - %s", e.StatusCode, e.Body)
}

// errorInfo 把错误转换为结构化日志字段。
func errorInfo(err error) models.ErrorInfo {
	info := models.ErrorInfo{Message: err.Error(), Type: "internal_error"}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		info.Type = "upstream_error"
		info.StatusCode = apiErr.StatusCode
	case errors.Is(err, ErrFileNotFound):
		info.Type = "file_not_found"
	}
	return info
}
