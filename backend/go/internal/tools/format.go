package tools

import (
	"fmt"
	"strconv"
	"strings"

	"tiben-mcp/backend/go/internal/models"
)

const (
	noSimilarProblems      = "No similar problems found."
	noRecommendedResources = "No recommended resources found."
	listSeparator          = "\n\n"
)

func formatProblems(problems []models.Problem) string {
	if len(problems) == 0 {
		return noSimilarProblems
	}
	lines := make([]string, len(problems))
	for i, p := range problems {
		pct := strconv.FormatFloat(p.Similarity*100, 'f', 1, 64)
		lines[i] = fmt.Sprintf("%d. [%s%% match] %s\n   %s", i+1, pct, p.Title, p.Content)
	}
	return strings.Join(lines, listSeparator)
}

func formatResources(resources []models.Resource) string {
	if len(resources) == 0 {
		return noRecommendedResources
	}
	lines := make([]string, len(resources))
	for i, r := range resources {
		lines[i] = fmt.Sprintf("%d. **%s** (%s)\n   %s", i+1, r.Name, r.Type, r.Description)
	}
	return strings.Join(lines, listSeparator)
}
