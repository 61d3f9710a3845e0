package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsmith/app/model"
)

// microservicesAgent documents service topology from compose files,
// kubernetes manifests and Dockerfiles.
type microservicesAgent struct {
	base
}

func (a *microservicesAgent) Role() model.Role {
	return model.RoleMicroservices
}

func (a *microservicesAgent) Run(ctx context.Context, in Input) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(a.Role())

	services := a.discoverServices(in.Profile)

	result.Artifacts["service_diagram_mermaid"] = a.serviceDiagram(services)
	result.Artifacts["architecture_section_md"] = a.section(ctx, in,
		"microservices-section",
		"You are a senior technical writer. Write a detailed Markdown architecture "+
			"overview section for a microservices repository. Include service "+
			"descriptions, communication patterns and deployment topology.",
		services,
		func() string { return a.templateSection(services, in.Profile.RepoName) },
	)
	result.Artifacts["discovered_services"] = services

	result.EvidenceIDs = a.registerClaims("architecture_section_md", services)
	result.Metadata["service_count"] = len(services)
	result.Duration = time.Since(start)

	return result
}

func (a *microservicesAgent) discoverServices(profile *model.RepoProfile) []Component {
	var services []Component

	for _, path := range profile.FileTree {
		switch {
		case strings.Contains(path, "docker-compose"):
			services = append(services, Component{
				Name:   "docker-compose",
				Tech:   "compose",
				Kind:   "compose",
				Source: path,
			})
		case strings.HasSuffix(path, "deployment.yaml"), strings.HasSuffix(path, "deployment.yml"):
			services = append(services, Component{
				Name:   parentDir(path, "unknown"),
				Tech:   "kubernetes",
				Kind:   "k8s-deployment",
				Source: path,
			})
		case strings.HasSuffix(path, "Dockerfile"):
			services = append(services, Component{
				Name:   parentDir(path, "app"),
				Tech:   "docker",
				Kind:   "docker",
				Source: path,
			})
		}
	}

	return services
}

func (a *microservicesAgent) serviceDiagram(services []Component) string {
	lines := []string{"graph LR"}

	for _, svc := range services {
		lines = append(lines, fmt.Sprintf("    %s[%q]", mermaidSafe(svc.Name), svc.Name))
	}

	for i := 1; i < len(services); i++ {
		lines = append(lines, fmt.Sprintf("    %s --> %s",
			mermaidSafe(services[i-1].Name), mermaidSafe(services[i].Name)))
	}

	return strings.Join(lines, "\n")
}

func (a *microservicesAgent) templateSection(services []Component, repoName string) string {
	lines := []string{
		fmt.Sprintf("## Architecture Overview — %s", repoName),
		"",
		fmt.Sprintf("This repository contains **%d** service(s):", len(services)),
		"",
	}

	for _, svc := range services {
		lines = append(lines, fmt.Sprintf("- **%s** (%s) — `%s`", svc.Name, svc.Kind, svc.Source))
	}

	lines = append(lines, "", "### Service Communication", "",
		"Inter-service communication patterns could not be derived from structure alone.")

	return strings.Join(lines, "\n")
}

func parentDir(path, def string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return def
	}
	return parts[len(parts)-2]
}
