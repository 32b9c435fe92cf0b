package models

// Problem 表示后端返回的一道相似题目。
// 后端缺失的字段一律以零值填充。
type Problem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"` // 相似度，取值 [0,1]
}

// SimilarProblemsQuery 是按图片查找相似题目的请求。
type SimilarProblemsQuery struct {
	Image ImageReference
	Limit int // <= 0 时由网关按后端默认处理
}

// SimilarProblemsRequest 是按文本查找相似题目的请求。
type SimilarProblemsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SimilarProblemsResult 是相似题目查询结果。
// Problems 永远不为 nil；Error 非空表示查询在网关内部失败。
type SimilarProblemsResult struct {
	Problems []Problem `json:"problems"`
	Error    string    `json:"error,omitempty"`
}
