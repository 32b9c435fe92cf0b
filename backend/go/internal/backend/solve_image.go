package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"tiben-mcp/backend/go/internal/models"
)

type solveImageBody struct {
	ImageURL          string `json:"image_url"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// SolveImage 请求后端解答图片中的题目，失败时直接返回 error。
func (c *Client) SolveImage(ctx context.Context, req models.SolveRequest) (*models.SolveResult, error) {
	log := c.logger(ctx).WithPayload(map[string]interface{}{
		"operation":   "solve_image",
		"image_url":   req.Image.Value,
		"image_kind":  req.Image.Kind.String(),
		"has_context": req.AdditionalContext != "",
	})
	log.Debug("solveImage called")

	var fields []formField
	if req.AdditionalContext != "" {
		fields = append(fields, formField{name: "additional_context", value: req.AdditionalContext})
	}
	body := solveImageBody{ImageURL: req.Image.Value, AdditionalContext: req.AdditionalContext}

	raw, err := c.postImage(ctx, solveImagePath, req.Image, body, fields)
	if err != nil {
		log.WithError(errorInfo(err)).Error("solve-image request failed")
		return nil, err
	}

	payload, err := decodePayload(raw)
	if err != nil {
		log.WithError(errorInfo(err)).Error("solve-image response is not JSON")
		return nil, fmt.Errorf("solve-image: %w", err)
	}

	return &models.SolveResult{
		Solution:    extractSolution(payload),
		RawResponse: json.RawMessage(raw),
	}, nil
}
