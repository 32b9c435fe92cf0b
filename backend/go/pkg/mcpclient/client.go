package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Transport names accepted by Connect.
const (
	TransportInProcess  = "inprocess"
	TransportStdio      = "stdio"
	TransportSSE        = "sse"
	TransportHTTPStream = "httpstream"
)

// Options selects how Connect reaches the MCP server.
type Options struct {
	Transport string

	// Server is used by the in-process transport.
	Server *server.MCPServer

	// Command, Args and Env start a server over stdio.
	Command string
	Args    []string
	Env     []string

	// URL of the sse or httpstream endpoint.
	URL string

	ClientName    string
	ClientVersion string
}

// Session is an initialized connection to one MCP server.
type Session struct {
	c          *client.Client
	serverInfo mcp.Implementation
}

// Connect opens and initializes a session.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	c, err := newClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	name, version := opts.ClientName, opts.ClientVersion
	if name == "" {
		name = "mcp-client"
	}
	if version == "" {
		version = "1.0.0"
	}
	res, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: name, Version: version},
			Capabilities:    mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return &Session{c: c, serverInfo: res.ServerInfo}, nil
}

func newClient(ctx context.Context, opts Options) (*client.Client, error) {
	var (
		c   *client.Client
		err error
	)
	switch opts.Transport {
	case TransportInProcess, "":
		if opts.Server == nil {
			return nil, errors.New("in-process transport requires a server")
		}
		c, err = client.NewInProcessClient(opts.Server)
	case TransportStdio:
		// stdio clients start their subprocess on creation.
		c, err = client.NewStdioMCPClient(opts.Command, opts.Env, opts.Args...)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdio client: %w", err)
		}
		return c, nil
	case TransportSSE:
		c, err = client.NewSSEMCPClient(opts.URL)
	case TransportHTTPStream:
		c, err = client.NewStreamableHttpClient(opts.URL)
	default:
		return nil, fmt.Errorf("unsupported transport type: '%s'", opts.Transport)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", opts.Transport, err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start %s client: %w", opts.Transport, err)
	}
	return c, nil
}

// ServerInfo returns the name and version the server reported.
func (s *Session) ServerInfo() mcp.Implementation {
	return s.serverInfo
}

// ListTools returns the tools the server publishes.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	res, err := s.c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	return res.Tools, nil
}

// CallText calls a tool and joins the text blocks of its result.
// A result flagged as an error is returned as an error.
func (s *Session) CallText(ctx context.Context, name string, args map[string]any) (string, error) {
	res, err := s.c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if res.IsError {
		return "", errors.New(text)
	}
	return text, nil
}

// Close releases the underlying transport.
func (s *Session) Close() error {
	return s.c.Close()
}
