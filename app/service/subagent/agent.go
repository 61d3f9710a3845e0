// Package subagent holds the five interchangeable domain agents the
// orchestrator dispatches specialized plan steps to. Each one derives a
// component list deterministically, renders a flow diagram, and writes
// a documentation section with the generative path as an optional
// upgrade over the template.
package subagent

import (
	"context"
	"fmt"
	"strings"

	"docsmith/app/client/llm"
	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/evidence"
	"docsmith/app/service/graph"
	"docsmith/app/util/fallback"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

type Input struct {
	Profile *model.RepoProfile
	Graph   *graph.KnowledgeGraph
	UseLLM  bool

	// Prior carries the results of the steps already executed in this
	// iteration, so later sections can stay consistent with earlier
	// ones.
	Prior []*model.AgentResult
}

type Agent interface {
	Role() model.Role
	Run(ctx context.Context, in Input) *model.AgentResult
}

// Service is the static role dispatch table, built once at startup.
type Service struct {
	agents map[model.Role]Agent
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	evidenceSvc := do.MustInvoke[*evidence.Service](di)

	return NewRegistry(llm.NewClient(cfg.OpenAI.Section), evidenceSvc), nil
}

func NewRegistry(llmClient *llm.Client, evidenceSvc *evidence.Service) *Service {
	shared := base{llmClient: llmClient, evidenceSvc: evidenceSvc}

	agents := []Agent{
		&microservicesAgent{base: shared},
		&eventDrivenAgent{base: shared},
		&mlAgent{base: shared},
		&dataEngineeringAgent{base: shared},
		&infraAgent{base: shared},
	}

	table := make(map[model.Role]Agent, len(agents))
	for _, agent := range agents {
		table[agent.Role()] = agent
	}

	return &Service{agents: table}
}

// Agent returns the handler for a specialized role, or nil when the
// role has no specialized handler.
func (s *Service) Agent(role model.Role) Agent {
	return s.agents[role]
}

// Component is one architecture element discovered by a domain agent.
// Source is the file path the discovery is based on, empty when the
// component was inferred from a signal alone.
type Component struct {
	Name   string `json:"name"`
	Tech   string `json:"tech"`
	Kind   string `json:"kind"`
	Source string `json:"source,omitempty"`
}

type base struct {
	llmClient   *llm.Client
	evidenceSvc *evidence.Service
}

// section builds the Markdown section through the fallback chain: a
// generative draft constrained to the discovered components, or the
// deterministic template when that path is unavailable.
func (b *base) section(ctx context.Context, in Input, name, systemPrompt string, components []Component, template func() string) string {
	if !in.UseLLM {
		return template()
	}

	text, _ := fallback.Attempt(ctx, name,
		func(ctx context.Context) (string, error) {
			return b.sectionLLM(ctx, in, systemPrompt, components)
		},
		template,
	)

	return text
}

func (b *base) sectionLLM(ctx context.Context, in Input, systemPrompt string, components []Component) (string, error) {
	var compLines []string
	for _, c := range components {
		source := c.Source
		if source == "" {
			source = "signal"
		}
		compLines = append(compLines, fmt.Sprintf("- %s (%s, %s) from %s", c.Name, c.Tech, c.Kind, source))
	}
	compDesc := strings.Join(compLines, "\n")
	if compDesc == "" {
		compDesc = "No components discovered"
	}

	var entities []string
	for _, e := range in.Graph.Entities {
		entities = append(entities, e.Name)
		if len(entities) == 15 {
			break
		}
	}

	description := in.Profile.Description
	if len(description) > 300 {
		description = description[:300]
	}

	user := fmt.Sprintf(
		"Repository: %s\nDescription: %s\nGraph entities: %s\n\n"+
			"Discovered components:\n%s\n\nWrite the documentation section.",
		in.Profile.RepoName, description, strings.Join(entities, ", "), compDesc,
	)
	if ids := priorArtifactIDs(in.Prior); len(ids) > 0 {
		user += "\n\nSections already written: " + strings.Join(ids, ", ") + ". Do not repeat their content."
	}

	return b.llmClient.ChatText(ctx,
		systemPrompt+
			" Use ## headers. Be specific to the discovered components. "+
			"Do NOT invent components that aren't listed.",
		user,
	)
}

// priorArtifactIDs lists the artifact ids produced by earlier steps,
// sorted for a stable prompt.
func priorArtifactIDs(prior []*model.AgentResult) []string {
	var ids []string
	for _, result := range prior {
		for id := range result.Artifacts {
			ids = append(ids, id)
		}
	}
	return pie.Sort(pie.Unique(ids))
}

// registerClaims files one claim per discovered component against the
// section artifact. Components backed by a file path get an evidence
// pointer, signal-only components are recorded as assumptions.
func (b *base) registerClaims(artifactID string, components []Component) []string {
	var evidenceIDs []string

	for _, c := range components {
		claimText := fmt.Sprintf("%s uses %s (%s)", artifactID, c.Name, c.Tech)

		if c.Source == "" {
			b.evidenceSvc.RegisterClaim(evidence.NewClaim(claimText, artifactID))
			continue
		}

		pointer := evidence.NewPointer(evidence.PointerCodeFile, c.Source, "")
		id := b.evidenceSvc.RegisterPointer(pointer)
		evidenceIDs = append(evidenceIDs, id)
		b.evidenceSvc.RegisterClaim(evidence.NewClaim(claimText, artifactID, id))
	}

	return evidenceIDs
}

func signalSet(profile *model.RepoProfile) map[string]bool {
	set := make(map[string]bool, len(profile.Signals))
	for _, s := range profile.Signals {
		set[s.SignalType] = true
	}
	return set
}

func mermaidSafe(name string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(name)
}
