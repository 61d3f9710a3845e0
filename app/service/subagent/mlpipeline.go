package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/model"
)

// mlAgent documents training/inference pipelines and produces a model
// card draft.
type mlAgent struct {
	base
}

func (a *mlAgent) Role() model.Role {
	return model.RoleML
}

func (a *mlAgent) Run(ctx context.Context, in Input) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(a.Role())

	components := a.discoverComponents(in.Profile)
	hasRAG := signalSet(in.Profile)["rag"] || signalSet(in.Profile)["vector-db"]

	result.Artifacts["ml_pipeline_mermaid"] = a.pipelineDiagram(components, hasRAG)
	result.Artifacts["ml_architecture_md"] = a.section(ctx, in,
		"ml-section",
		"You are an ML systems specialist. Write a detailed Markdown section about "+
			"the ML architecture. Cover training pipelines, model serving, feature "+
			"handling and, when applicable, the retrieval-augmented generation chain.",
		components,
		func() string { return a.templateSection(components, hasRAG, in.Profile.RepoName) },
	)
	result.Artifacts["model_card_md"] = a.modelCard(components, in.Profile.RepoName)
	result.Artifacts["ml_components"] = components

	result.EvidenceIDs = a.registerClaims("ml_architecture_md", components)
	result.Metadata["component_count"] = len(components)
	result.Metadata["rag"] = hasRAG
	result.Duration = time.Since(start)

	return result
}

func (a *mlAgent) discoverComponents(profile *model.RepoProfile) []Component {
	signals := signalSet(profile)

	var components []Component
	if signals["pytorch"] {
		components = append(components, Component{Name: "PyTorch", Tech: "pytorch", Kind: "framework", Source: signalSource(profile, "pytorch")})
	}
	if signals["tensorflow"] {
		components = append(components, Component{Name: "TensorFlow", Tech: "tensorflow", Kind: "framework", Source: signalSource(profile, "tensorflow")})
	}
	if signals["huggingface"] {
		components = append(components, Component{Name: "Hugging Face", Tech: "huggingface", Kind: "model-hub", Source: signalSource(profile, "huggingface")})
	}
	if signals["vector-db"] {
		components = append(components, Component{Name: "Vector Database", Tech: "vector-db", Kind: "storage", Source: signalSource(profile, "vector-db")})
	}
	if signals["rag"] {
		components = append(components, Component{Name: "RAG Chain", Tech: "rag", Kind: "pipeline", Source: signalSource(profile, "rag")})
	}
	if signals["ml-training"] {
		components = append(components, Component{Name: "Training Pipeline", Tech: "ml-training", Kind: "pipeline", Source: signalSource(profile, "ml-training")})
	}

	return components
}

func (a *mlAgent) pipelineDiagram(components []Component, hasRAG bool) string {
	lines := []string{
		"graph LR",
		`    Data["Raw Data"] --> Preprocessing`,
	}

	framework := "Training"
	for _, comp := range components {
		if comp.Kind == "framework" {
			framework = mermaidSafe(comp.Name)
			lines = append(lines, fmt.Sprintf("    Preprocessing --> %s[%q]", framework, comp.Name))
		}
	}
	if framework == "Training" {
		lines = append(lines, "    Preprocessing --> Training")
	}

	lines = append(lines,
		fmt.Sprintf(`    %s --> Model["Trained Model"]`, framework),
		`    Model --> Inference["Inference Service"]`,
	)

	if hasRAG {
		lines = append(lines,
			`    Embeddings["Embedding Model"] --> VectorDB["Vector Store"]`,
			`    VectorDB --> Retrieval`,
			`    Retrieval --> LLM["LLM"]`,
		)
	}

	return strings.Join(lines, "\n")
}

func (a *mlAgent) templateSection(components []Component, hasRAG bool, repoName string) string {
	lines := []string{
		fmt.Sprintf("## ML Architecture — %s", repoName),
		"",
		fmt.Sprintf("This repository contains **%d** ML component(s):", len(components)),
		"",
	}

	for _, comp := range components {
		lines = append(lines, fmt.Sprintf("- **%s** (%s, %s)", comp.Name, comp.Tech, comp.Kind))
	}

	if hasRAG {
		lines = append(lines, "", "### Retrieval-Augmented Generation", "",
			"Documents are embedded and stored in a vector index; queries retrieve nearest neighbors which are fed to the language model as context.")
	}

	return strings.Join(lines, "\n")
}

// modelCard renders a skeleton card; fields whose value cannot be
// derived from repository structure are marked for a human pass.
func (a *mlAgent) modelCard(components []Component, repoName string) string {
	var frameworks []string
	for _, comp := range components {
		if comp.Kind == "framework" || comp.Kind == "model-hub" {
			frameworks = append(frameworks, comp.Name)
		}
	}
	frameworkLine := strings.Join(frameworks, ", ")
	if frameworkLine == "" {
		frameworkLine = "unknown"
	}

	return strings.Join([]string{
		fmt.Sprintf("# Model Card — %s", repoName),
		"",
		"## Details",
		"",
		fmt.Sprintf("- **Framework:** %s", frameworkLine),
		"- **Intended use:** _needs human review_",
		"- **Training data:** _needs human review_",
		"",
		"## Evaluation",
		"",
		"_No evaluation metrics could be derived from repository structure._",
		"",
		"## Limitations",
		"",
		"_needs human review_",
	}, "\n")
}
