// Package planner turns a repo profile and knowledge graph into an
// ordered execution plan. The generative path is attempted first, the
// deterministic template always works without it.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docsmith/app/client/llm"
	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/graph"
	"docsmith/app/util/fallback"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// signalRoles routes detected repo signals to specialized agent roles.
var signalRoles = map[string]model.Role{
	"docker-compose": model.RoleMicroservices,
	"Dockerfile":     model.RoleMicroservices,
	"kubernetes":     model.RoleMicroservices,
	"k8s":            model.RoleMicroservices,
	"helm":           model.RoleInfra,
	"terraform":      model.RoleInfra,
	"pulumi":         model.RoleInfra,
	"cloudformation": model.RoleInfra,
	"kafka":          model.RoleEventDriven,
	"rabbitmq":       model.RoleEventDriven,
	"sqs":            model.RoleEventDriven,
	"eventbridge":    model.RoleEventDriven,
	"nats":           model.RoleEventDriven,
	"ml-training":    model.RoleML,
	"pytorch":        model.RoleML,
	"tensorflow":     model.RoleML,
	"huggingface":    model.RoleML,
	"vector-db":      model.RoleML,
	"rag":            model.RoleML,
	"airflow":        model.RoleDataEngineering,
	"dbt":            model.RoleDataEngineering,
	"spark":          model.RoleDataEngineering,
	"warehouse":      model.RoleDataEngineering,
}

type Service struct {
	llmClient *llm.Client
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		llmClient: llm.NewClient(cfg.OpenAI.Planner),
	}, nil
}

// DetectRoles maps every detected signal through the routing table and
// returns the sorted union of activated specialized roles.
func (s *Service) DetectRoles(profile *model.RepoProfile) []model.Role {
	var roles []model.Role
	for _, signal := range profile.Signals {
		if role, ok := signalRoles[signal.SignalType]; ok {
			roles = append(roles, role)
		}
	}

	roles = pie.Unique(roles)
	return pie.SortUsing(roles, func(a, b model.Role) bool { return a < b })
}

// BuildPlan produces the next execution plan. Prior step results are
// passed back in on re-planning rounds so the model can adjust.
// Every returned plan ends with a critic step.
func (s *Service) BuildPlan(ctx context.Context, profile *model.RepoProfile, kg *graph.KnowledgeGraph, prior []*model.AgentResult) (*model.AgentPlan, error) {
	activated := s.DetectRoles(profile)

	plan, llmUsed := fallback.Attempt(ctx, "planner",
		func(ctx context.Context) (*model.AgentPlan, error) {
			return s.buildPlanLLM(ctx, profile, kg, activated, prior)
		},
		func() *model.AgentPlan {
			return s.buildPlanTemplate(profile, kg, activated)
		},
	)

	s.ensureCriticStep(plan)
	s.normalizeSteps(plan)

	plan.Metadata["activated_agents"] = activated
	plan.Metadata["llm_used"] = llmUsed
	plan.Metadata["repo"] = profile.RepoName
	plan.Metadata["entity_count"] = len(kg.Entities)
	plan.Metadata["prior_results"] = len(prior)

	return plan, nil
}

func (s *Service) buildPlanLLM(ctx context.Context, profile *model.RepoProfile, kg *graph.KnowledgeGraph, activated []model.Role, prior []*model.AgentResult) (*model.AgentPlan, error) {
	rolesStr := strings.Join(pie.Map(activated, func(r model.Role) string { return string(r) }), ", ")
	if rolesStr == "" {
		rolesStr = "none"
	}

	system := "You are a documentation planning agent. You produce JSON execution plans " +
		"for generating enhanced documentation from a repository.\n\n" +
		"Available tools: repo.search, repo.read, repo.diff, repo.summarize, " +
		"diagram.render, chart.generate, calc.eval, docx.refine, pptx.refine.\n" +
		"Available specialized agent roles: " + rolesStr + "\n\n" +
		"Rules:\n" +
		"1. Use the specialized roles for steps they can handle, use \"executor\" only for generic steps.\n" +
		"2. Always end with a \"critic\" step.\n" +
		"3. Each step should produce a concrete documentation artifact.\n\n" +
		"Return JSON with keys: goal (string), reasoning (string), " +
		"steps (array of objects with: step_number, description, agent_role, " +
		"tool_calls (array of {tool_name, parameters}), expected_output)."

	var signals []string
	for _, sig := range profile.Signals {
		signals = append(signals, sig.SignalType)
	}
	signalsStr := strings.Join(signals, ", ")
	if signalsStr == "" {
		signalsStr = "none"
	}

	var entities []string
	for _, e := range kg.Entities {
		entities = append(entities, e.Name)
		if len(entities) == 25 {
			break
		}
	}

	var relations []string
	for _, r := range kg.Relations {
		relations = append(relations, fmt.Sprintf("%s->%s", r.SourceID, r.TargetID))
		if len(relations) == 20 {
			break
		}
	}

	fileTree := profile.FileTree
	if len(fileTree) > 30 {
		fileTree = fileTree[:30]
	}

	user := fmt.Sprintf(
		"Repository: %s\nURL: %s\nDescription: %s\nLanguage: %s\n"+
			"Signals detected: %s\nGraph entities: %s\nGraph relations: %s\n"+
			"File tree (%d files): %s\n\n"+
			"Create an optimal documentation enhancement plan. "+
			"Always end with a critic validation step.",
		profile.RepoName, profile.RepoURL, clip(profile.Description, 300), profile.PrimaryLanguage,
		signalsStr, strings.Join(entities, ", "), strings.Join(relations, ", "),
		len(profile.FileTree), strings.Join(fileTree, ", "),
	)

	if len(prior) > 0 {
		user += fmt.Sprintf("\n\nThis is a re-planning round. %d steps already ran, errors so far: %s",
			len(prior), strings.Join(priorErrors(prior), "; "))
	}

	data, err := s.llmClient.ChatJSON(ctx, system, user)
	if err != nil {
		return nil, err
	}

	return s.parsePlan(data, profile)
}

func (s *Service) parsePlan(data map[string]any, profile *model.RepoProfile) (*model.AgentPlan, error) {
	rawSteps, ok := data["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, fmt.Errorf("plan response has no steps")
	}

	goal, _ := data["goal"].(string)
	if goal == "" {
		goal = fmt.Sprintf("Enhanced docs for %s", profile.RepoName)
	}

	plan := model.NewPlan(goal)
	if reasoning, ok := data["reasoning"].(string); ok {
		plan.Metadata["llm_reasoning"] = reasoning
	}

	for _, raw := range rawSteps {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		step := &model.PlanStep{
			StepNumber:  len(plan.Steps) + 1,
			Description: stringValue(m, "description"),
			// unknown role strings collapse to the generic executor
			Role:           model.ParseRole(stringValue(m, "agent_role")),
			ExpectedOutput: stringValue(m, "expected_output"),
		}

		if n, ok := m["step_number"].(float64); ok && n > 0 {
			step.StepNumber = int(n)
		}

		if rawCalls, ok := m["tool_calls"].([]any); ok {
			for _, rawCall := range rawCalls {
				callMap, ok := rawCall.(map[string]any)
				if !ok {
					continue
				}

				params, _ := callMap["parameters"].(map[string]any)
				step.ToolCalls = append(step.ToolCalls, model.NewToolCall(stringValue(callMap, "tool_name"), params))
			}
		}

		plan.Steps = append(plan.Steps, step)
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan response produced no usable steps")
	}

	return plan, nil
}

func (s *Service) buildPlanTemplate(profile *model.RepoProfile, kg *graph.KnowledgeGraph, activated []model.Role) *model.AgentPlan {
	plan := model.NewPlan(fmt.Sprintf("Generate enhanced documentation for %s", profile.RepoName))

	addStep := func(step *model.PlanStep) {
		step.StepNumber = len(plan.Steps) + 1
		plan.Steps = append(plan.Steps, step)
	}

	addStep(&model.PlanStep{
		Description: "Search repo for architecture-relevant files",
		Role:        model.RoleExecutor,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("repo.search", map[string]any{
				"query":       "docker|kubernetes|terraform|setup|config",
				"max_results": float64(50),
			}),
		},
		ExpectedOutput: "List of architecture-relevant file paths",
	})

	addStep(&model.PlanStep{
		Description: "Render architecture diagram from knowledge graph",
		Role:        model.RoleExecutor,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("diagram.render", map[string]any{
				"type":          "mermaid",
				"spec":          kg.ToMermaid(30),
				"output_format": "svg",
			}),
		},
		ExpectedOutput: "SVG architecture diagram",
	})

	for _, role := range activated {
		addStep(&model.PlanStep{
			Description:    fmt.Sprintf("Run %s agent for domain-specific analysis", role),
			Role:           role,
			DependsOn:      []int{1},
			ExpectedOutput: fmt.Sprintf("Domain diagrams and sections from %s", role),
		})
	}

	var graphRefs []any
	for _, e := range kg.Entities {
		graphRefs = append(graphRefs, e.ID)
		if len(graphRefs) == 20 {
			break
		}
	}

	var priorSteps []int
	for _, step := range plan.Steps[1:] {
		priorSteps = append(priorSteps, step.StepNumber)
	}

	addStep(&model.PlanStep{
		Description: "Refine Word document with agent-generated content",
		Role:        model.RoleExecutor,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("docx.refine", map[string]any{
				"instructions": "Incorporate architecture diagrams and domain-specific sections",
				"graph_refs":   graphRefs,
			}),
		},
		DependsOn:      priorSteps,
		ExpectedOutput: "Enhanced Word document",
	})

	addStep(&model.PlanStep{
		Description:    "Validate all artifacts against evidence pointers",
		Role:           model.RoleCritic,
		DependsOn:      []int{len(plan.Steps)},
		ExpectedOutput: "Evidence coverage report",
	})

	return plan
}

// ensureCriticStep appends a terminal critic step when the plan is
// missing one. Every plan leaving the planner ends with the critic.
func (s *Service) ensureCriticStep(plan *model.AgentPlan) {
	if len(plan.Steps) > 0 && plan.Steps[len(plan.Steps)-1].Role == model.RoleCritic {
		return
	}

	plan.Steps = append(plan.Steps, &model.PlanStep{
		StepNumber:     len(plan.Steps) + 1,
		Description:    "Validate all artifacts against evidence pointers",
		Role:           model.RoleCritic,
		ExpectedOutput: "Evidence coverage report",
	})
}

// normalizeSteps renumbers steps sequentially and validates declared
// dependencies. A dependency that does not name an earlier step is
// rewritten to the preceding step. Execution order stays plan order,
// depends_on documents the data flow.
func (s *Service) normalizeSteps(plan *model.AgentPlan) {
	for i, step := range plan.Steps {
		step.StepNumber = i + 1

		valid := step.DependsOn[:0]
		for _, dep := range step.DependsOn {
			if dep >= 1 && dep < step.StepNumber {
				valid = append(valid, dep)
				continue
			}

			slog.Warn("Rewriting invalid step dependency",
				"step", step.StepNumber,
				"depends_on", dep)
			if step.StepNumber > 1 {
				valid = append(valid, step.StepNumber-1)
			}
		}
		step.DependsOn = pie.Unique(valid)
	}
}

func priorErrors(prior []*model.AgentResult) []string {
	var errors []string
	for _, r := range prior {
		errors = append(errors, r.Errors...)
	}
	if len(errors) > 5 {
		errors = errors[:5]
	}
	return errors
}

func stringValue(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
