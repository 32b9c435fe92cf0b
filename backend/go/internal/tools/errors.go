package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorKind 对工具调用失败进行分类。
type ErrorKind int

const (
	InvalidParams ErrorKind = iota
	MethodNotFound
	UpstreamError
	InternalError
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidParams:
		return "invalid_params"
	case MethodNotFound:
		return "method_not_found"
	case UpstreamError:
		return "upstream_error"
	default:
		return "internal_error"
	}
}

// ToolError 是 Invoke 对外返回的唯一错误类型。
type ToolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

// Code 返回对应的 JSON-RPC 错误码。上游错误沿用 INTERNAL_ERROR。
func (e *ToolError) Code() int {
	switch e.Kind {
	case InvalidParams:
		return mcp.INVALID_PARAMS
	case MethodNotFound:
		return mcp.METHOD_NOT_FOUND
	default:
		return mcp.INTERNAL_ERROR
	}
}

func newToolError(kind ErrorKind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
