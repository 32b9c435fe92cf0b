package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/internal/models"
	apihttp "tiben-mcp/backend/go/pkg/http"
	"tiben-mcp/backend/go/pkg/logger"
)

// 最小的 PNG 文件头，足以让 mimetype 识别为 image/png。
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeBackend struct {
	*httptest.Server
	hits int32
}

func newFakeBackend(t *testing.T, handler http.HandlerFunc) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fb.hits, 1)
		handler(w, r)
	}))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) Hits() int32 {
	return atomic.LoadInt32(&fb.hits)
}

func newTestClient(t *testing.T, apiBase string) *Client {
	t.Helper()
	doer, err := apihttp.NewClient(config.Default())
	require.NoError(t, err)
	return New(config.BackendConfig{APIBase: apiBase}, doer, logger.New("test", "", ""))
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, pngHeader, 0o644))
	return path
}

func decodeJSONBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestSolveImage_RemoteURLSendsJSON(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/solve-image", r.URL.Path)
		body := decodeJSONBody(t, r)
		assert.Equal(t, map[string]any{
			"image_url":          "https://x.com/a.png",
			"additional_context": "grade 8",
		}, body)
		writeJSON(w, `{"data":{"solution":"42"}}`)
	})
	c := newTestClient(t, fb.URL+"/api/")

	res, err := c.SolveImage(context.Background(), models.SolveRequest{
		Image:             models.ParseImageReference("https://x.com/a.png"),
		AdditionalContext: "grade 8",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Solution)
	assert.JSONEq(t, `{"data":{"solution":"42"}}`, string(res.RawResponse))
}

func TestSolveImage_OmitsEmptyContext(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeJSONBody(t, r)
		assert.NotContains(t, body, "additional_context")
		writeJSON(w, `{"solution":"x"}`)
	})
	c := newTestClient(t, fb.URL)

	res, err := c.SolveImage(context.Background(), models.SolveRequest{Image: models.ParseImageReference("https://x.com/a.png")})
	require.NoError(t, err)

	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Solution), &roundTrip))
	assert.Equal(t, map[string]any{"solution": "x"}, roundTrip)
}

func TestSolveImage_NumericSolution(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":{"solution":42}}`)
	})
	c := newTestClient(t, fb.URL)

	res, err := c.SolveImage(context.Background(), models.SolveRequest{Image: models.ParseImageReference("https://x.com/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "42", res.Solution)
}

func TestSolveImage_LocalFileUploadsMultipart(t *testing.T) {
	path := writeImage(t, "problem.png")
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, pngHeader, content)
		assert.Equal(t, "problem.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "show steps", r.FormValue("additional_context"))
		writeJSON(w, `{"data":{"solution":"x = 3"}}`)
	})
	c := newTestClient(t, fb.URL)

	res, err := c.SolveImage(context.Background(), models.SolveRequest{
		Image:             models.ParseImageReference("file://" + path),
		AdditionalContext: "show steps",
	})
	require.NoError(t, err)
	assert.Equal(t, "x = 3", res.Solution)
}

func TestLocalFileMissing_FailsBeforeAnyRequest(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{}`)
	})
	c := newTestClient(t, fb.URL)
	missing := filepath.Join(t.TempDir(), "missing.png")
	img := models.ParseImageReference(missing)

	_, err := c.SolveImage(context.Background(), models.SolveRequest{Image: img})
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.Contains(t, err.Error(), missing)

	_, err = c.GetRecommendedResources(context.Background(), models.RecommendedResourcesQuery{Image: img})
	assert.True(t, errors.Is(err, ErrFileNotFound))

	res := c.FindSimilarProblemsByImage(context.Background(), models.SimilarProblemsQuery{Image: img, Limit: 3})
	assert.Contains(t, res.Error, missing)
	assert.NotNil(t, res.Problems)
	assert.Empty(t, res.Problems)

	assert.Equal(t, int32(0), fb.Hits())
}

func TestFindSimilarProblemsByImage_RemoteUsesImageField(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/similar-problems-2", r.URL.Path)
		body := decodeJSONBody(t, r)
		assert.Equal(t, map[string]any{"image": "https://x.com/a.png", "limit": float64(1)}, body)
		writeJSON(w, `{"problems":[{"id":"1","title":"T","content":"C","similarity":0.873}]}`)
	})
	c := newTestClient(t, fb.URL)

	res := c.FindSimilarProblemsByImage(context.Background(), models.SimilarProblemsQuery{
		Image: models.ParseImageReference("https://x.com/a.png"),
	})
	assert.Empty(t, res.Error)
	assert.Equal(t, []models.Problem{{ID: "1", Title: "T", Content: "C", Similarity: 0.873}}, res.Problems)
}

func TestFindSimilarProblemsByImage_LocalSendsLimitField(t *testing.T) {
	path := writeImage(t, "q.png")
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "5", r.FormValue("limit"))
		writeJSON(w, `[{"id":"7","title":"Seven"}]`)
	})
	c := newTestClient(t, fb.URL)

	res := c.FindSimilarProblemsByImage(context.Background(), models.SimilarProblemsQuery{
		Image: models.ParseImageReference(path),
		Limit: 5,
	})
	assert.Empty(t, res.Error)
	assert.Equal(t, []models.Problem{{ID: "7", Title: "Seven"}}, res.Problems)
}

func TestNetworkFailure_SwallowedOnlyBySimilarByImage(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := fb.URL
	fb.Close()
	c := newTestClient(t, url)
	img := models.ParseImageReference("https://x.com/a.png")

	res := c.FindSimilarProblemsByImage(context.Background(), models.SimilarProblemsQuery{Image: img, Limit: 1})
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Problems)

	_, err := c.SolveImage(context.Background(), models.SolveRequest{Image: img})
	assert.Error(t, err)
}

func TestNon2xx_ReturnsAPIError(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "image too blurry", http.StatusUnprocessableEntity)
	})
	c := newTestClient(t, fb.URL)
	img := models.ParseImageReference("https://x.com/a.png")

	_, err := c.SolveImage(context.Background(), models.SolveRequest{Image: img})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "image too blurry")

	res := c.FindSimilarProblemsByImage(context.Background(), models.SimilarProblemsQuery{Image: img})
	assert.Contains(t, res.Error, "Backend API error: 422")
}

func TestInvalidJSONResponse(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `<html>oops</html>`)
	})
	c := newTestClient(t, fb.URL)

	_, err := c.SolveImage(context.Background(), models.SolveRequest{Image: models.ParseImageReference("https://x.com/a.png")})
	assert.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestGetRecommendedResources(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/recommended-resources", r.URL.Path)
		assert.Equal(t, map[string]any{"image_url": "https://x.com/a.png"}, decodeJSONBody(t, r))
		writeJSON(w, `{"data":[{"name":"Khan Academy","type":"video","description":"Fractions"},{"name":"Worksheet"}]}`)
	})
	c := newTestClient(t, fb.URL)

	res, err := c.GetRecommendedResources(context.Background(), models.RecommendedResourcesQuery{
		Image: models.ParseImageReference("https://x.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Resource{
		{Name: "Khan Academy", Type: "video", Description: "Fractions"},
		{Name: "Worksheet"},
	}, res.Resources)
}

func TestFindSimilarProblems_TextQuery(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/similar-problems", r.URL.Path)
		assert.Equal(t, map[string]any{"query": "solve x+1=2", "limit": float64(3)}, decodeJSONBody(t, r))
		writeJSON(w, `{"problems":[{"id":"9","title":"Linear","similarity":0.5}]}`)
	})
	c := newTestClient(t, fb.URL)

	res, err := c.FindSimilarProblems(context.Background(), models.SimilarProblemsRequest{Query: "solve x+1=2", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []models.Problem{{ID: "9", Title: "Linear", Similarity: 0.5}}, res.Problems)
}

func TestNew_DefaultsAPIBase(t *testing.T) {
	c := New(config.BackendConfig{}, nil, logger.New("test", "", ""))
	assert.Equal(t, config.DefaultAPIBase+"/v1/solve-image", c.url(solveImagePath))
}
