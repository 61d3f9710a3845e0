package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/model"
)

// infraAgent documents infrastructure-as-code resources and
// deployment topology.
type infraAgent struct {
	base
}

func (a *infraAgent) Role() model.Role {
	return model.RoleInfra
}

func (a *infraAgent) Run(ctx context.Context, in Input) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(a.Role())

	components := a.discoverResources(in.Profile)

	result.Artifacts["infra_diagram_mermaid"] = a.topologyDiagram(components)
	result.Artifacts["infra_section_md"] = a.section(ctx, in,
		"infra-section",
		"You are an infrastructure specialist. Write a detailed Markdown section "+
			"about the deployment infrastructure. Cover provisioning tools, managed "+
			"resources, environments and release flow.",
		components,
		func() string { return a.templateSection(components, in.Profile.RepoName) },
	)
	result.Artifacts["infra_resources"] = components

	result.EvidenceIDs = a.registerClaims("infra_section_md", components)
	result.Metadata["resource_count"] = len(components)
	result.Duration = time.Since(start)

	return result
}

func (a *infraAgent) discoverResources(profile *model.RepoProfile) []Component {
	signals := signalSet(profile)

	var components []Component
	if signals["terraform"] {
		components = append(components, Component{Name: "Terraform", Tech: "terraform", Kind: "iac", Source: signalSource(profile, "terraform")})
	}
	if signals["helm"] {
		components = append(components, Component{Name: "Helm", Tech: "helm", Kind: "iac", Source: signalSource(profile, "helm")})
	}
	if signals["pulumi"] {
		components = append(components, Component{Name: "Pulumi", Tech: "pulumi", Kind: "iac", Source: signalSource(profile, "pulumi")})
	}
	if signals["cloudformation"] {
		components = append(components, Component{Name: "CloudFormation", Tech: "cloudformation", Kind: "iac", Source: signalSource(profile, "cloudformation")})
	}

	for _, path := range profile.FileTree {
		switch {
		case strings.HasSuffix(path, ".tf"):
			name := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".tf")
			components = append(components, Component{Name: name, Tech: "terraform-module", Kind: "module", Source: path})
		case strings.HasSuffix(path, "Chart.yaml"):
			components = append(components, Component{Name: parentDir(path, "chart"), Tech: "helm-chart", Kind: "chart", Source: path})
		}
	}

	return components
}

func (a *infraAgent) topologyDiagram(components []Component) string {
	lines := []string{"graph TB", `    Cloud["Cloud Provider"]`}

	for _, comp := range components {
		if comp.Kind != "iac" {
			continue
		}
		safe := mermaidSafe(comp.Name)
		lines = append(lines,
			fmt.Sprintf("    %s[%q]", safe, comp.Name),
			fmt.Sprintf("    %s --> Cloud", safe),
		)
	}

	return strings.Join(lines, "\n")
}

func (a *infraAgent) templateSection(components []Component, repoName string) string {
	lines := []string{
		fmt.Sprintf("## Infrastructure — %s", repoName),
		"",
		fmt.Sprintf("This repository provisions **%d** infrastructure resource(s):", len(components)),
		"",
	}

	for _, comp := range components {
		lines = append(lines, fmt.Sprintf("- **%s** (%s, %s)", comp.Name, comp.Tech, comp.Kind))
	}

	lines = append(lines, "", "### Provisioning", "",
		"Resources are declared as code and applied through the tools listed above.")

	return strings.Join(lines, "\n")
}
