package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"tiben-mcp/backend/go/internal/models"
	apihttp "tiben-mcp/backend/go/pkg/http"
)

// formField 是 multipart 上传时附带的标量字段。
type formField struct {
	name  string
	value string
}

// postImage 根据图片引用类型选择编码方式：
// 本地文件走 multipart 上传（附带 fields），远程 URL 以 JSON 发送 jsonBody。
func (c *Client) postImage(ctx context.Context, path string, img models.ImageReference, jsonBody any, fields []formField) ([]byte, error) {
	if !img.IsLocal() {
		return c.postJSON(ctx, path, jsonBody)
	}

	if _, err := os.Stat(img.Value); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, img.Value)
		}
		return nil, fmt.Errorf("stat %s: %w", img.Value, err)
	}

	url := c.url(path)
	c.logger(ctx).WithPayload(map[string]interface{}{
		"url":       url,
		"file_path": img.Value,
	}).Debug("uploading local image")

	return c.send(ctx, func(ctx context.Context) (*http.Request, error) {
		return newMultipartRequest(ctx, url, img.Value, fields)
	})
}

// postJSON 以 JSON 编码发送 body。
func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	url := c.url(path)
	c.logger(ctx).WithPayload(map[string]interface{}{"url": url}).Debug("sending JSON request")

	return c.send(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// send 执行请求并读取完整响应体；非 2xx 状态返回 *APIError。
func (c *Client) send(ctx context.Context, build apihttp.RequestFunc) ([]byte, error) {
	resp, err := c.doer.Do(ctx, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger(ctx).WithPayload(map[string]interface{}{"status": resp.StatusCode}).Debug("backend responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
