package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"tiben-mcp/backend/go/internal/audit"
	"tiben-mcp/backend/go/internal/backend"
	"tiben-mcp/backend/go/internal/models"
	"tiben-mcp/backend/go/pkg/logger"
)

// ServiceName 是服务对外的名称，同时用于日志与审计。
const ServiceName = "tiben-mcp"

const upstreamPrefix = "Backend API error"

type handlerFunc func(ctx context.Context, args map[string]any) (string, error)

// Dispatcher 把工具调用路由到后端网关，并把结果格式化为单个文本块。
type Dispatcher struct {
	gateway     backend.Gateway
	audit       audit.Sink
	serviceName string
	handlers    map[string]handlerFunc
}

// Option 配置 Dispatcher。
type Option func(*Dispatcher)

// WithAuditSink 设置工具调用审计输出。
func WithAuditSink(s audit.Sink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.audit = s
		}
	}
}

// WithServiceName 覆盖日志与审计中使用的服务名。
func WithServiceName(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.serviceName = name
		}
	}
}

// NewDispatcher 创建 Dispatcher。
func NewDispatcher(gw backend.Gateway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gateway:     gw,
		audit:       audit.NopSink{},
		serviceName: ServiceName,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]handlerFunc{
		ToolSolveProblem:         d.solveProblem,
		ToolFindSimilarProblems:  d.findSimilarProblems,
		ToolRecommendedResources: d.recommendedResources,
	}
	return d
}

// Invoke 执行名为 name 的工具。成功时返回文本结果；失败时返回 *ToolError，不会返回部分结果。
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	start := time.Now()
	traceID := uuid.NewString()
	log := logger.New(d.serviceName, traceID, "")
	log.WithPayload(map[string]interface{}{
		"tool_name": name,
		"args":      args,
	}).Info("[MCP Server] Tool called")
	ctx = logger.IntoContext(ctx, log)

	text, err := d.invoke(ctx, name, args)

	entry := &models.ToolCallLogEntry{
		ServiceName: d.serviceName,
		TraceID:     traceID,
		Tool:        name,
		Outcome:     "success",
		DurationMS:  time.Since(start).Milliseconds(),
		Timestamp:   start.UTC().Format(time.RFC3339),
	}
	if err != nil {
		var te *ToolError
		errors.As(err, &te)
		entry.Outcome = te.Kind.String()
		entry.Error = &models.ErrorInfo{Message: te.Message, Type: te.Kind.String()}
		log.WithPayload(map[string]interface{}{"tool_name": name}).WithError(*entry.Error).Error("Error executing tool")
	}
	if auditErr := d.audit.Record(ctx, entry); auditErr != nil {
		log.Warn(fmt.Sprintf("failed to record tool call: %v", auditErr))
	}

	return text, err
}

func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	h, ok := d.handlers[name]
	if !ok {
		return "", newToolError(MethodNotFound, "Unknown tool: %s", name)
	}
	text, err := h(ctx, args)
	if err != nil {
		return "", toToolError(err)
	}
	return text, nil
}

func (d *Dispatcher) solveProblem(ctx context.Context, args map[string]any) (string, error) {
	img, err := imageArg(args)
	if err != nil {
		return "", err
	}
	additional, err := contextArg(args)
	if err != nil {
		return "", err
	}

	res, err := d.gateway.SolveImage(ctx, models.SolveRequest{Image: img, AdditionalContext: additional})
	if err != nil {
		return "", err
	}
	return res.Solution, nil
}

func (d *Dispatcher) findSimilarProblems(ctx context.Context, args map[string]any) (string, error) {
	img, err := imageArg(args)
	if err != nil {
		return "", err
	}
	limit, err := limitArg(args)
	if err != nil {
		return "", err
	}

	res := d.gateway.FindSimilarProblemsByImage(ctx, models.SimilarProblemsQuery{Image: img, Limit: limit})
	if res.Error != "" {
		msg := res.Error
		if !strings.HasPrefix(msg, upstreamPrefix) {
			msg = upstreamPrefix + ": " + msg
		}
		return "", &ToolError{Kind: UpstreamError, Message: msg}
	}
	return formatProblems(res.Problems), nil
}

func (d *Dispatcher) recommendedResources(ctx context.Context, args map[string]any) (string, error) {
	img, err := imageArg(args)
	if err != nil {
		return "", err
	}

	res, err := d.gateway.GetRecommendedResources(ctx, models.RecommendedResourcesQuery{Image: img})
	if err != nil {
		return "", err
	}
	return formatResources(res.Resources), nil
}

// toToolError 把网关错误映射到错误分类，已是 *ToolError 的原样返回。
func toToolError(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) || errors.Is(err, backend.ErrFileNotFound) {
		return &ToolError{Kind: UpstreamError, Message: err.Error()}
	}
	return newToolError(InternalError, "Error executing tool: %v", err)
}

func imageArg(args map[string]any) (models.ImageReference, error) {
	raw, _ := args["image_url"].(string)
	if raw == "" {
		return models.ImageReference{}, newToolError(InvalidParams, "image_url is required")
	}
	return models.ParseImageReference(raw), nil
}

func contextArg(args map[string]any) (string, error) {
	v, ok := args["additional_context"]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", newToolError(InvalidParams, "additional_context must be a string")
	}
	if utf8.RuneCountInString(s) > maxContextLength {
		return "", newToolError(InvalidParams, "additional_context must be at most %d characters", maxContextLength)
	}
	return s, nil
}

func limitArg(args map[string]any) (int, error) {
	v, ok := args["limit"]
	if !ok || v == nil {
		return defaultLimit, nil
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, newToolError(InvalidParams, "limit must be an integer")
		}
		f = parsed
	default:
		return 0, newToolError(InvalidParams, "limit must be an integer")
	}

	if f != math.Trunc(f) {
		return 0, newToolError(InvalidParams, "limit must be an integer")
	}
	if f < minLimit || f > maxLimit {
		return 0, newToolError(InvalidParams, "limit must be between %d and %d", minLimit, maxLimit)
	}
	return int(f), nil
}
