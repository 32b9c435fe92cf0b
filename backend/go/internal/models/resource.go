package models

// Resource 表示一条推荐的学习资源。
type Resource struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// RecommendedResourcesQuery 是获取推荐资源的请求。
type RecommendedResourcesQuery struct {
	Image ImageReference
}

// RecommendedResourcesResult 是推荐资源查询结果，Resources 永远不为 nil。
type RecommendedResourcesResult struct {
	Resources []Resource `json:"resources"`
}
