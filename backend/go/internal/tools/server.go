package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer 创建 MCP 服务器并注册全部工具，每个调用都交给 d.Invoke 处理。
//
// 经由协议返回时，mcp-go 把处理函数的错误一律编码为 INTERNAL_ERROR（-32603），
// 只保留 *ToolError 的消息文本；ToolError.Code() 的区分只对进程内调用方可见。
// 未注册的工具名由 mcp-go 直接拒绝，不会进入 Dispatcher。
func NewServer(d *Dispatcher, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, tool := range Definitions() {
		s.AddTool(tool, d.handle)
	}
	return s
}

func (d *Dispatcher) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := d.Invoke(ctx, request.Params.Name, request.GetArguments())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}
