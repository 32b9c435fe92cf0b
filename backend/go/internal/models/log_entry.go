package models

// ToolCallLogEntry 记录一次工具调用，用于审计流（Kafka）。
type ToolCallLogEntry struct {
	ServiceName string `json:"service_name"`
	TraceID     string `json:"trace_id"`
	Tool        string `json:"tool"`

	// Outcome 为 "success" 或错误类别，例如 "invalid_params"、"upstream_error"。
	Outcome    string     `json:"outcome"`
	Error      *ErrorInfo `json:"error,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	Timestamp  string     `json:"timestamp"` // RFC3339
}

// RequestInfo 存储了关于 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 错误类别，例如 "upstream_error"
	StatusCode int    `json:"status_code,omitempty"` // 相关的 HTTP 状态码
}
