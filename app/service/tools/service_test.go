package tools

import (
	"context"
	"strings"
	"testing"

	"docsmith/app/model"
)

func TestContractValidate(t *testing.T) {
	registry := NewRegistry()
	contract := registry.Contract("diagram.render")
	if contract == nil {
		t.Fatal("diagram.render contract not registered")
	}

	tests := []struct {
		name       string
		params     map[string]any
		violations int
	}{
		{"valid", map[string]any{"type": "mermaid", "spec": "graph LR"}, 0},
		{"valid with enum optional", map[string]any{"type": "mermaid", "spec": "x", "output_format": "svg"}, 0},
		{"missing both required", map[string]any{}, 2},
		{"bad enum", map[string]any{"type": "excalidraw", "spec": "x"}, 1},
		{"bad optional enum", map[string]any{"type": "mermaid", "spec": "x", "output_format": "gif"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contract.Validate(tt.params)
			if len(got) != tt.violations {
				t.Errorf("violations = %v, want %d", got, tt.violations)
			}
		})
	}
}

func TestDefaultContractSet(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{
		"repo.search", "repo.read", "repo.diff", "repo.summarize",
		"diagram.render", "chart.generate", "calc.eval",
		"docx.refine", "pptx.refine",
	} {
		if registry.Contract(name) == nil {
			t.Errorf("contract %s not registered", name)
		}
	}
}

func TestRepoSearchAdapter(t *testing.T) {
	profile := &model.RepoProfile{
		RepoName: "shop",
		FileTree: []string{
			"docker-compose.yml",
			"services/api/main.go",
			"infra/main.tf",
			"README.md",
		},
	}
	adapter := NewRepoSearchAdapter(profile)

	payload, err := adapter.Execute(context.Background(), map[string]any{
		"query": "docker|terraform",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	matches := payload["matches"].([]string)
	if len(matches) != 1 || matches[0] != "docker-compose.yml" {
		t.Errorf("matches = %v", matches)
	}

	pointer, ok := payload["evidence_pointer"].(map[string]any)
	if !ok {
		t.Fatal("payload missing evidence_pointer")
	}
	if pointer["evidence_type"] != "code_file" {
		t.Errorf("pointer type = %v", pointer["evidence_type"])
	}
}

func TestRepoSearchAdapterMaxResults(t *testing.T) {
	profile := &model.RepoProfile{
		FileTree: []string{"a/config.go", "b/config.go", "c/config.go"},
	}
	adapter := NewRepoSearchAdapter(profile)

	payload, err := adapter.Execute(context.Background(), map[string]any{
		"query":       "config",
		"max_results": float64(2),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if matches := payload["matches"].([]string); len(matches) != 2 {
		t.Errorf("matches = %v, want 2", matches)
	}
}

func TestDiagramRenderAdapter(t *testing.T) {
	adapter := NewDiagramRenderAdapter()

	payload, err := adapter.Execute(context.Background(), map[string]any{
		"type": "mermaid",
		"spec": "graph LR\n    A --> B",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if payload["output_format"] != "svg" {
		t.Errorf("default output format = %v, want svg", payload["output_format"])
	}
	pointer := payload["evidence_pointer"].(map[string]any)
	if pointer["evidence_type"] != "diagram_source" {
		t.Errorf("pointer type = %v", pointer["evidence_type"])
	}
}

func TestAdapterNamesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterAdapter("z.tool", AdapterFunc(func(ctx context.Context, params map[string]any) (map[string]any, error) {
		return nil, nil
	}))
	registry.RegisterAdapter("a.tool", AdapterFunc(func(ctx context.Context, params map[string]any) (map[string]any, error) {
		return nil, nil
	}))

	names := registry.AdapterNames()
	if len(names) != 3 || names[0] != "a.tool" || names[1] != "calc.eval" || names[2] != "z.tool" {
		t.Errorf("names = %v, want sorted", names)
	}
}

func TestLangchainBridge(t *testing.T) {
	adapter := FromLangchainTool(stubTool{})

	payload, err := adapter.Execute(context.Background(), map[string]any{"query": "x"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	output, _ := payload["output"].(string)
	if !strings.Contains(output, "query") {
		t.Errorf("output = %q, want the encoded input echoed", output)
	}
}

func TestLangchainBridgeRawInput(t *testing.T) {
	adapter := FromLangchainTool(stubTool{})

	payload, err := adapter.Execute(context.Background(), map[string]any{"input": "2 + 2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if payload["output"] != "2 + 2" {
		t.Errorf("output = %q, want the input passed through verbatim", payload["output"])
	}
}

func TestCalculatorAdapterRegistered(t *testing.T) {
	registry := NewRegistry()

	adapter := registry.Adapter("calc.eval")
	if adapter == nil {
		t.Fatal("calc.eval adapter not registered")
	}

	payload, err := adapter.Execute(context.Background(), map[string]any{"input": "6 * 7"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if payload["output"] != "42" {
		t.Errorf("output = %v, want 42", payload["output"])
	}
}

type stubTool struct{}

func (stubTool) Name() string        { return "stub" }
func (stubTool) Description() string { return "echoes its input" }

func (stubTool) Call(ctx context.Context, input string) (string, error) {
	return input, nil
}
