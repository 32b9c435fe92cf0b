package tools

import "github.com/mark3labs/mcp-go/mcp"

const (
	ToolSolveProblem         = "solve_problem_from_image"
	ToolFindSimilarProblems  = "find_similar_problems"
	ToolRecommendedResources = "get_recommended_resources"
)

// imagePattern 限定 image_url 为 http(s)/file/绝对或相对路径，且以图片扩展名结尾。
const imagePattern = `^(https?://|file://|/|[a-zA-Z]:|\.).*\.(jpg|jpeg|png|gif|webp)$`

const (
	maxContextLength = 1000
	minLimit         = 1
	maxLimit         = 20
	defaultLimit     = 1
)

func imageURLParam(description string) mcp.ToolOption {
	return mcp.WithString("image_url",
		mcp.Required(),
		mcp.Description(description),
		mcp.MinLength(1),
		mcp.Pattern(imagePattern),
	)
}

// Definitions 返回服务对外公布的三个工具定义，顺序固定。
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolSolveProblem,
			mcp.WithDescription("分析并解决上传图片中的K-12学校题目。支持数学、语文、英语、科学和其他学科。提供详细解释的分步解决方案。"),
			imageURLParam("包含学校题目的图片的本地文件路径（绝对路径，可以是临时目录下的路径）或URL。支持的格式：JPG、PNG。图片应清晰显示文字、方程式、图表或其他题目内容。"),
			mcp.WithString("additional_context",
				mcp.Description("可选的附加上下文、说明或特定要求，帮助解决题目（例如：\"逐步显示解题过程\"、\"解释概念\"、\"年级水平：八年级\"）。"),
				mcp.MaxLength(maxContextLength),
			),
		),
		mcp.NewTool(ToolFindSimilarProblems,
			mcp.WithDescription("基于上传图片内容查找相似的学校题目。适用于练习、学习相似知识点或寻找题目变体。返回带有相似度评分的题目。"),
			imageURLParam("包含参考题目的图片的本地文件路径（绝对路径，可以是临时目录下的路径）或URL。系统将分析题目类型、学科、难度级别和知识点来查找相似题目。"),
			mcp.WithNumber("limit",
				mcp.Description("返回相似题目的最大数量。范围：1-20。默认值：1。较高的值提供更多选项，但可能包含相关性较低的匹配。"),
				mcp.DefaultNumber(defaultLimit),
				mcp.Min(minLimit),
				mcp.Max(maxLimit),
			),
		),
		mcp.NewTool(ToolRecommendedResources,
			mcp.WithDescription("基于上传图片中的学校题目获取个性化的教育资源和学习材料。提供针对特定主题和难度级别定制的学习指南、教程、练习材料和参考链接。"),
			imageURLParam("包含学校题目的图片的本地文件路径（绝对路径，可以是临时目录下的路径）或URL。系统将分析学科内容、知识点和难度级别，推荐合适的学习资源和材料。"),
		),
	}
}
