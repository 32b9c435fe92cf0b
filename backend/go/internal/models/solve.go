package models

import "encoding/json"

// SolveRequest 是解题请求。
type SolveRequest struct {
	Image             ImageReference
	AdditionalContext string // 为空表示未提供
}

// SolveResult 是解题结果。
type SolveResult struct {
	Solution    string          `json:"solution"`               // 解题内容
	RawResponse json.RawMessage `json:"raw_response,omitempty"` // 后端原始响应
}
