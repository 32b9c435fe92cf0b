package backend

import (
	"context"
	"net/http"
	"strings"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/internal/models"
	apihttp "tiben-mcp/backend/go/pkg/http"
	"tiben-mcp/backend/go/pkg/logger"
)

const (
	solveImagePath             = "/v1/solve-image"
	similarProblemsPath        = "/v1/similar-problems"
	similarProblemsByImagePath = "/v1/similar-problems-2"
	recommendedResourcesPath   = "/v1/recommended-resources"
)

// Gateway 是远程题本 API 的访问入口。
//
// 注意错误处理的不对称：FindSimilarProblemsByImage 从不返回 error，
// 任何失败都会折叠进结果的 Error 字段；其余三个操作则直接返回 error。
// 调用方依赖这一区别，请勿将其统一。
type Gateway interface {
	SolveImage(ctx context.Context, req models.SolveRequest) (*models.SolveResult, error)
	FindSimilarProblemsByImage(ctx context.Context, q models.SimilarProblemsQuery) *models.SimilarProblemsResult
	GetRecommendedResources(ctx context.Context, q models.RecommendedResourcesQuery) (*models.RecommendedResourcesResult, error)
	FindSimilarProblems(ctx context.Context, req models.SimilarProblemsRequest) (*models.SimilarProblemsResult, error)
}

// Doer 发送由 RequestFunc 构造的请求，*apihttp.Client 实现了该接口。
type Doer interface {
	Do(ctx context.Context, build apihttp.RequestFunc) (*http.Response, error)
}

// Client 是 Gateway 的 HTTP 实现，不持有任何按调用变化的状态。
type Client struct {
	apiBase string
	doer    Doer
	log     *logger.Logger
}

var _ Gateway = (*Client)(nil)

// New 创建一个后端客户端。cfg.APIBase 为空时使用默认地址，log 为空时使用默认 Logger。
func New(cfg config.BackendConfig, doer Doer, log *logger.Logger) *Client {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = config.DefaultAPIBase
	}
	if log == nil {
		log = logger.New("backend", "", "")
	}
	return &Client{apiBase: base, doer: doer, log: log}
}

func (c *Client) url(path string) string {
	return c.apiBase + path
}

func (c *Client) logger(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx, c.log)
}
