package tools

import (
	"context"
	"fmt"
	"strings"

	"docsmith/app/model"
)

// NewRepoSearchAdapter matches the privacy-filtered file list against a
// pipe-separated keyword query. Results carry an evidence pointer so
// downstream claims can cite the matched paths.
func NewRepoSearchAdapter(profile *model.RepoProfile) Adapter {
	return AdapterFunc(func(_ context.Context, params map[string]any) (map[string]any, error) {
		query, _ := params["query"].(string)
		if query == "" {
			return nil, fmt.Errorf("empty search query")
		}

		maxResults := 20
		if v, ok := params["max_results"].(float64); ok && v > 0 {
			maxResults = int(v)
		}

		keywords := strings.Split(strings.ToLower(query), "|")

		var matches []string
		for _, path := range profile.FileTree {
			lower := strings.ToLower(path)
			for _, keyword := range keywords {
				if keyword != "" && strings.Contains(lower, keyword) {
					matches = append(matches, path)
					break
				}
			}
			if len(matches) >= maxResults {
				break
			}
		}

		result := map[string]any{
			"query":   query,
			"matches": matches,
		}

		if len(matches) > 0 {
			result["evidence_pointer"] = map[string]any{
				"evidence_type": "code_file",
				"source_path":   matches[0],
				"snippet":       strings.Join(matches, "\n"),
				"confidence":    1.0,
				"metadata": map[string]any{
					"match_count": len(matches),
				},
			}
		}

		return result, nil
	})
}

// NewDiagramRenderAdapter shapes a diagram spec into an artifact
// payload. Actual rasterization belongs to the rendering collaborators,
// the pipeline only carries the source spec forward.
func NewDiagramRenderAdapter() Adapter {
	return AdapterFunc(func(_ context.Context, params map[string]any) (map[string]any, error) {
		spec, _ := params["spec"].(string)
		if strings.TrimSpace(spec) == "" {
			return nil, fmt.Errorf("empty diagram spec")
		}

		diagramType, _ := params["type"].(string)
		outputFormat, _ := params["output_format"].(string)
		if outputFormat == "" {
			outputFormat = "svg"
		}

		return map[string]any{
			"type":          diagramType,
			"spec":          spec,
			"output_format": outputFormat,
			"evidence_pointer": map[string]any{
				"evidence_type": "diagram_source",
				"snippet":       spec,
				"confidence":    1.0,
			},
		}, nil
	})
}
