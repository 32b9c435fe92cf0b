package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiben-mcp/backend/go/internal/models"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	payload, err := decodePayload([]byte(raw))
	require.NoError(t, err)
	return payload
}

func TestExtractItems_RuleOrder(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		rules []extractRule
		want  int
	}{
		{"top-level array", `[{"id":"1"},{"id":"2"}]`, problemRules, 2},
		{"data wins over problems", `{"data":[{"id":"1"}],"problems":[{"id":"2"},{"id":"3"}]}`, problemRules, 1},
		{"null data falls through to problems", `{"data":null,"problems":[{"id":"2"},{"id":"3"}]}`, problemRules, 2},
		{"problems field", `{"problems":[{"id":"1"}]}`, problemRules, 1},
		{"resources ignore problems field", `{"problems":[{"id":"1"},{"id":"2"}]}`, resourceRules, 1},
		{"bare object is a singleton", `{"id":"1","title":"T"}`, problemRules, 1},
		{"data object is a singleton", `{"data":{"id":"1"}}`, problemRules, 1},
		{"empty array", `[]`, problemRules, 0},
		{"null payload", `null`, problemRules, 0},
		{"scalar payload", `"nothing"`, problemRules, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := extractItems(mustDecode(t, tt.raw), tt.rules)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestToProblems_DefaultsMissingFields(t *testing.T) {
	payload := mustDecode(t, `{"problems":[
		{"id":"1","title":"T","content":"C","similarity":0.873},
		{"id":42,"title":"Only title"},
		"not an object"
	]}`)

	problems := toProblems(payload)
	require.Len(t, problems, 3)
	assert.Equal(t, models.Problem{ID: "1", Title: "T", Content: "C", Similarity: 0.873}, problems[0])
	assert.Equal(t, models.Problem{ID: "42", Title: "Only title"}, problems[1])
	assert.Equal(t, models.Problem{}, problems[2])
}

func TestToResources_DefaultsMissingFields(t *testing.T) {
	resources := toResources(mustDecode(t, `{"data":[{"name":"Fractions 101","type":"video"}]}`))

	require.Len(t, resources, 1)
	assert.Equal(t, models.Resource{Name: "Fractions 101", Type: "video"}, resources[0])
	assert.NotNil(t, toResources(mustDecode(t, `[]`)))
}

func TestExtractSolution(t *testing.T) {
	t.Run("nested solution", func(t *testing.T) {
		assert.Equal(t, "42", extractSolution(mustDecode(t, `{"data":{"solution":"42"}}`)))
	})

	t.Run("no data wrapper dumps the whole payload", func(t *testing.T) {
		solution := extractSolution(mustDecode(t, `{"solution":"x"}`))

		var roundTrip map[string]any
		require.NoError(t, json.Unmarshal([]byte(solution), &roundTrip))
		assert.Equal(t, map[string]any{"solution": "x"}, roundTrip)
	})

	t.Run("data without solution dumps data", func(t *testing.T) {
		solution := extractSolution(mustDecode(t, `{"code":0,"data":{"answer":1.50,"steps":["a","b"]}}`))
		assert.JSONEq(t, `{"answer":1.50,"steps":["a","b"]}`, solution)
		assert.Contains(t, solution, "1.50")
	})

	t.Run("null data dumps the whole payload", func(t *testing.T) {
		solution := extractSolution(mustDecode(t, `{"data":null,"msg":"empty"}`))
		assert.JSONEq(t, `{"data":null,"msg":"empty"}`, solution)
	})

	t.Run("non-string solutions are rendered as text", func(t *testing.T) {
		assert.Equal(t, "42", extractSolution(mustDecode(t, `{"data":{"solution":42}}`)))
		assert.Equal(t, "3.50", extractSolution(mustDecode(t, `{"data":{"solution":3.50}}`)))
		assert.Equal(t, "true", extractSolution(mustDecode(t, `{"data":{"solution":true}}`)))
		assert.Equal(t, `["x = 1","x = -1"]`, extractSolution(mustDecode(t, `{"data":{"solution":["x = 1","x = -1"]}}`)))
	})

	t.Run("empty solutions fall back to the data dump", func(t *testing.T) {
		tests := map[string]string{
			`{"data":{"solution":"","steps":1}}`:    `{"solution":"","steps":1}`,
			`{"data":{"solution":0,"steps":1}}`:     `{"solution":0,"steps":1}`,
			`{"data":{"solution":false,"steps":1}}`: `{"solution":false,"steps":1}`,
			`{"data":{"solution":null,"steps":1}}`:  `{"solution":null,"steps":1}`,
		}
		for body, want := range tests {
			assert.JSONEq(t, want, extractSolution(mustDecode(t, body)), body)
		}
	})

	t.Run("falsy data dumps the whole payload", func(t *testing.T) {
		assert.JSONEq(t, `{"data":0,"msg":"none"}`, extractSolution(mustDecode(t, `{"data":0,"msg":"none"}`)))
	})

	t.Run("dump keeps comparison operators unescaped", func(t *testing.T) {
		solution := extractSolution(mustDecode(t, `{"data":{"answer":"x < 3 && y > 2"}}`))
		assert.Equal(t, `{"answer":"x < 3 && y > 2"}`, solution)
		assert.NotContains(t, solution, `\u003c`)
	})
}
