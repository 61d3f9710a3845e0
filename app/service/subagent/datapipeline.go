package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/model"
)

// dataEngineeringAgent documents batch pipelines and data lineage.
type dataEngineeringAgent struct {
	base
}

func (a *dataEngineeringAgent) Role() model.Role {
	return model.RoleDataEngineering
}

func (a *dataEngineeringAgent) Run(ctx context.Context, in Input) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(a.Role())

	components := a.discoverComponents(in.Profile)

	result.Artifacts["lineage_diagram_mermaid"] = a.lineageDiagram(components)
	result.Artifacts["data_section_md"] = a.section(ctx, in,
		"data-section",
		"You are a data engineering specialist. Write a detailed Markdown section "+
			"about the data platform. Cover orchestration, transformation layers, "+
			"warehouse tables and data lineage.",
		components,
		func() string { return a.templateSection(components, in.Profile.RepoName) },
	)
	result.Artifacts["data_components"] = components

	result.EvidenceIDs = a.registerClaims("data_section_md", components)
	result.Metadata["component_count"] = len(components)
	result.Duration = time.Since(start)

	return result
}

func (a *dataEngineeringAgent) discoverComponents(profile *model.RepoProfile) []Component {
	signals := signalSet(profile)

	var components []Component
	if signals["airflow"] {
		components = append(components, Component{Name: "Airflow", Tech: "airflow", Kind: "orchestrator", Source: signalSource(profile, "airflow")})
	}
	if signals["dbt"] {
		components = append(components, Component{Name: "dbt", Tech: "dbt", Kind: "transformation", Source: signalSource(profile, "dbt")})
	}
	if signals["spark"] {
		components = append(components, Component{Name: "Spark", Tech: "spark", Kind: "compute", Source: signalSource(profile, "spark")})
	}
	if signals["warehouse"] {
		components = append(components, Component{Name: "Data Warehouse", Tech: "warehouse", Kind: "storage", Source: signalSource(profile, "warehouse")})
	}

	// DAG files give per-pipeline granularity beyond the signal level.
	for _, path := range profile.FileTree {
		if strings.HasPrefix(path, "dags/") && strings.HasSuffix(path, ".py") {
			name := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".py")
			components = append(components, Component{Name: name, Tech: "airflow-dag", Kind: "pipeline", Source: path})
		}
	}

	return components
}

func (a *dataEngineeringAgent) lineageDiagram(components []Component) string {
	seen := make(map[string]bool, len(components))
	for _, comp := range components {
		seen[comp.Tech] = true
	}

	lines := []string{
		"graph LR",
		`    Sources["Source Systems"] --> Landing["Landing Zone"]`,
	}

	prev := "Landing"
	if seen["dbt"] {
		lines = append(lines, fmt.Sprintf(`    %s --> Transform["dbt Models"]`, prev))
		prev = "Transform"
	}
	if seen["spark"] {
		lines = append(lines, fmt.Sprintf(`    %s --> Spark["Spark Jobs"]`, prev))
		prev = "Spark"
	}

	lines = append(lines,
		fmt.Sprintf(`    %s --> Warehouse["Data Warehouse"]`, prev),
		`    Warehouse --> Analytics["Analytics / BI"]`,
	)

	return strings.Join(lines, "\n")
}

func (a *dataEngineeringAgent) templateSection(components []Component, repoName string) string {
	lines := []string{
		fmt.Sprintf("## Data Platform — %s", repoName),
		"",
		fmt.Sprintf("This repository contains **%d** data component(s):", len(components)),
		"",
	}

	for _, comp := range components {
		lines = append(lines, fmt.Sprintf("- **%s** (%s, %s)", comp.Name, comp.Tech, comp.Kind))
	}

	lines = append(lines, "", "### Lineage", "",
		"Data flows from source systems through the transformation layers above into the warehouse.")

	return strings.Join(lines, "\n")
}
