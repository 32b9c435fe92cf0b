package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tiben-mcp/backend/go/internal/models"
)

// extractRule 从响应负载中取出结果列表；ok 为 false 表示规则不适用。
type extractRule struct {
	name    string
	extract func(payload any) (any, bool)
}

var (
	ruleTopLevelArray = extractRule{name: "array", extract: func(payload any) (any, bool) {
		items, ok := payload.([]any)
		return items, ok
	}}
	ruleDataField     = extractRule{name: "data", extract: objectField("data")}
	ruleProblemsField = extractRule{name: "problems", extract: objectField("problems")}
)

// 规则按顺序求值，返回第一个命中的结果；都不命中时以负载本身作为结果。
var (
	problemRules  = []extractRule{ruleTopLevelArray, ruleDataField, ruleProblemsField}
	resourceRules = []extractRule{ruleTopLevelArray, ruleDataField}
)

// objectField 在负载为对象且含有非 null 的 key 字段时命中。
func objectField(key string) func(any) (any, bool) {
	return func(payload any) (any, bool) {
		obj, ok := payload.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[key]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// decodePayload 解析 JSON 响应，数字保留为 json.Number 以便原样输出。
func decodePayload(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response JSON: %w", err)
	}
	return payload, nil
}

// extractItems 依次应用 rules，把选中的值展开为条目列表：
// 数组逐项展开，对象视为单元素列表，null 或标量视为空列表。
func extractItems(payload any, rules []extractRule) []any {
	selected := payload
	for _, rule := range rules {
		if v, ok := rule.extract(payload); ok {
			selected = v
			break
		}
	}

	switch v := selected.(type) {
	case []any:
		return v
	case map[string]any:
		return []any{v}
	default:
		return nil
	}
}

func toProblems(payload any) []models.Problem {
	items := extractItems(payload, problemRules)
	problems := make([]models.Problem, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		problems = append(problems, models.Problem{
			ID:         stringField(obj, "id"),
			Title:      stringField(obj, "title"),
			Content:    stringField(obj, "content"),
			Similarity: floatField(obj, "similarity"),
		})
	}
	return problems
}

func toResources(payload any) []models.Resource {
	items := extractItems(payload, resourceRules)
	resources := make([]models.Resource, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		resources = append(resources, models.Resource{
			Name:        stringField(obj, "name"),
			Type:        stringField(obj, "type"),
			Description: stringField(obj, "description"),
		})
	}
	return resources
}

// extractSolution 优先返回 data.solution；为空、0、false 或缺失时，
// 输出 data（非空时）或整个负载的 JSON。
func extractSolution(payload any) string {
	obj, _ := payload.(map[string]any)
	data := obj["data"]
	if dataObj, ok := data.(map[string]any); ok {
		if sol := dataObj["solution"]; truthy(sol) {
			if s, ok := sol.(string); ok {
				return s
			}
			return dumpJSON(sol)
		}
	}

	if truthy(data) {
		return dumpJSON(data)
	}
	return dumpJSON(payload)
}

// truthy 判断 JSON 值是否非空：null、""、0 与 false 视为空。
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// dumpJSON 输出紧凑 JSON，不转义 <、>、&。json.Number 按原文输出。
func dumpJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// stringField 读取字符串字段；数字按 JSON 原文输出，其他类型或缺失时为空串。
func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func floatField(obj map[string]any, key string) float64 {
	switch v := obj[key].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
