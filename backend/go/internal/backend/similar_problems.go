package backend

import (
	"context"
	"fmt"
	"strconv"

	"tiben-mcp/backend/go/internal/models"
)

// 注意该端点的字段名是 image 而不是 image_url。
type similarProblemsByImageBody struct {
	Image string `json:"image"`
	Limit int    `json:"limit"`
}

// FindSimilarProblemsByImage 按图片查找相似题目。
// 与其他操作不同，它从不返回 error：失败时返回空列表并在 Error 中给出原因。
func (c *Client) FindSimilarProblemsByImage(ctx context.Context, q models.SimilarProblemsQuery) *models.SimilarProblemsResult {
	result, err := c.findSimilarProblemsByImage(ctx, q)
	if err != nil {
		c.logger(ctx).WithPayload(map[string]interface{}{
			"operation": "similar_problems_by_image",
			"image_url": q.Image.Value,
		}).WithError(errorInfo(err)).Error("Error calling similar-problems-by-image")
		return &models.SimilarProblemsResult{Problems: []models.Problem{}, Error: err.Error()}
	}
	return result
}

func (c *Client) findSimilarProblemsByImage(ctx context.Context, q models.SimilarProblemsQuery) (*models.SimilarProblemsResult, error) {
	var fields []formField
	if q.Limit > 0 {
		fields = append(fields, formField{name: "limit", value: strconv.Itoa(q.Limit)})
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	body := similarProblemsByImageBody{Image: q.Image.Value, Limit: limit}

	raw, err := c.postImage(ctx, similarProblemsByImagePath, q.Image, body, fields)
	if err != nil {
		return nil, err
	}
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("similar-problems-2: %w", err)
	}
	return &models.SimilarProblemsResult{Problems: toProblems(payload)}, nil
}

// FindSimilarProblems 按文本查找相似题目，仅支持 JSON，失败时返回 error。
func (c *Client) FindSimilarProblems(ctx context.Context, req models.SimilarProblemsRequest) (*models.SimilarProblemsResult, error) {
	raw, err := c.postJSON(ctx, similarProblemsPath, req)
	if err != nil {
		c.logger(ctx).WithError(errorInfo(err)).Error("Error calling similar-problems")
		return nil, err
	}
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("similar-problems: %w", err)
	}
	return &models.SimilarProblemsResult{Problems: toProblems(payload)}, nil
}
