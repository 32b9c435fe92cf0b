package audit

import (
	"context"

	"tiben-mcp/backend/go/internal/models"
)

// Sink 接收每次工具调用的审计记录。
type Sink interface {
	Record(ctx context.Context, entry *models.ToolCallLogEntry) error
	Close() error
}

// NopSink 丢弃所有记录，审计关闭时使用。
type NopSink struct{}

func (NopSink) Record(context.Context, *models.ToolCallLogEntry) error { return nil }

func (NopSink) Close() error { return nil }
