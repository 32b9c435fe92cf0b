package main

import (
	"github.com/mark3labs/mcp-go/server"

	"tiben-mcp/backend/go/internal/audit"
	"tiben-mcp/backend/go/internal/backend"
	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/internal/tools"
	apihttp "tiben-mcp/backend/go/pkg/http"
	"tiben-mcp/backend/go/pkg/logger"
)

// app 持有一次运行所需的全部依赖。
type app struct {
	mcp   *server.MCPServer
	audit audit.Sink
}

func newApp(cfg *config.AppConfig, log *logger.Logger) (*app, error) {
	httpClient, err := apihttp.NewClient(cfg, apihttp.WithClientLogger(log))
	if err != nil {
		return nil, err
	}
	gateway := backend.New(cfg.Backend, httpClient, log)

	sink, err := audit.NewSink(cfg.Audit)
	if err != nil {
		return nil, err
	}

	dispatcher := tools.NewDispatcher(gateway,
		tools.WithAuditSink(sink),
		tools.WithServiceName(cfg.App.Name),
	)
	return &app{
		mcp:   tools.NewServer(dispatcher, cfg.App.Name, cfg.App.Version),
		audit: sink,
	}, nil
}

func (a *app) Close() error {
	return a.audit.Close()
}
