package backend

import (
	"context"
	"fmt"

	"tiben-mcp/backend/go/internal/models"
)

type recommendedResourcesBody struct {
	ImageURL string `json:"image_url"`
}

// GetRecommendedResources 获取与图片题目相关的学习资源，失败时直接返回 error。
func (c *Client) GetRecommendedResources(ctx context.Context, q models.RecommendedResourcesQuery) (*models.RecommendedResourcesResult, error) {
	raw, err := c.postImage(ctx, recommendedResourcesPath, q.Image, recommendedResourcesBody{ImageURL: q.Image.Value}, nil)
	if err != nil {
		c.logger(ctx).WithError(errorInfo(err)).Error("Error calling recommended-resources")
		return nil, err
	}
	payload, err := decodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("recommended-resources: %w", err)
	}
	return &models.RecommendedResourcesResult{Resources: toResources(payload)}, nil
}
