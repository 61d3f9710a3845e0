package planner

import (
	"context"
	"testing"

	"docsmith/app/client/llm"
	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/graph"
)

func newTestService() *Service {
	// empty token keeps the generative path disabled
	return &Service{llmClient: llm.NewClient(config.ModelConfig{})}
}

func profileWithSignals(signalTypes ...string) *model.RepoProfile {
	profile := &model.RepoProfile{RepoName: "shop", PrimaryLanguage: "Go"}
	for _, st := range signalTypes {
		profile.Signals = append(profile.Signals, model.RepoSignal{SignalType: st, Confidence: 1.0})
	}
	return profile
}

func TestDetectRoles(t *testing.T) {
	tests := []struct {
		name    string
		signals []string
		want    []model.Role
	}{
		{"none", nil, nil},
		{"compose", []string{"docker-compose"}, []model.Role{model.RoleMicroservices}},
		{"dedup", []string{"docker-compose", "Dockerfile", "kubernetes"}, []model.Role{model.RoleMicroservices}},
		{"unknown ignored", []string{"makefile"}, nil},
		{
			"multi sorted",
			[]string{"terraform", "kafka", "airflow"},
			[]model.Role{model.RoleDataEngineering, model.RoleEventDriven, model.RoleInfra},
		},
	}

	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.DetectRoles(profileWithSignals(tt.signals...))
			if len(got) != len(tt.want) {
				t.Fatalf("roles = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("roles = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestBuildPlanEndsWithCritic(t *testing.T) {
	svc := newTestService()

	plan, err := svc.BuildPlan(context.Background(), profileWithSignals("docker-compose", "kafka"), &graph.KnowledgeGraph{}, nil)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if len(plan.Steps) == 0 {
		t.Fatal("plan has no steps")
	}
	last := plan.Steps[len(plan.Steps)-1]
	if last.Role != model.RoleCritic {
		t.Errorf("last step role = %s, want critic", last.Role)
	}
	if plan.Metadata["llm_used"] != false {
		t.Errorf("llm_used = %v, want false with disabled client", plan.Metadata["llm_used"])
	}
}

func TestBuildPlanTemplateShape(t *testing.T) {
	svc := newTestService()

	kg := &graph.KnowledgeGraph{}
	kg.AddEntity(&graph.Entity{ID: "api", Name: "API", Type: graph.EntityComponent})

	plan := svc.buildPlanTemplate(profileWithSignals("docker-compose", "terraform"), kg, []model.Role{model.RoleInfra, model.RoleMicroservices})

	// search, diagram, two role steps, docx refine, critic
	if len(plan.Steps) != 6 {
		t.Fatalf("template steps = %d, want 6", len(plan.Steps))
	}
	if plan.Steps[0].ToolCalls[0].ToolName != "repo.search" {
		t.Errorf("first step tool = %s, want repo.search", plan.Steps[0].ToolCalls[0].ToolName)
	}
	if plan.Steps[1].ToolCalls[0].ToolName != "diagram.render" {
		t.Errorf("second step tool = %s, want diagram.render", plan.Steps[1].ToolCalls[0].ToolName)
	}
	if plan.Steps[2].Role != model.RoleInfra || plan.Steps[3].Role != model.RoleMicroservices {
		t.Errorf("role steps = %s/%s", plan.Steps[2].Role, plan.Steps[3].Role)
	}
	if plan.Steps[4].ToolCalls[0].ToolName != "docx.refine" {
		t.Errorf("refine step tool = %s, want docx.refine", plan.Steps[4].ToolCalls[0].ToolName)
	}
}

func TestNormalizeStepsRewritesInvalidDeps(t *testing.T) {
	svc := newTestService()

	plan := model.NewPlan("test")
	plan.Steps = []*model.PlanStep{
		{StepNumber: 1, Role: model.RoleExecutor},
		{StepNumber: 2, Role: model.RoleExecutor, DependsOn: []int{5}},
		{StepNumber: 3, Role: model.RoleExecutor, DependsOn: []int{1, 3}},
	}

	svc.normalizeSteps(plan)

	if got := plan.Steps[1].DependsOn; len(got) != 1 || got[0] != 1 {
		t.Errorf("step 2 deps = %v, want [1]", got)
	}
	if got := plan.Steps[2].DependsOn; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("step 3 deps = %v, want [1 2]", got)
	}
}

func TestParsePlanRoleCoercion(t *testing.T) {
	svc := newTestService()

	data := map[string]any{
		"goal": "document it",
		"steps": []any{
			map[string]any{
				"step_number": float64(1),
				"description": "analyze",
				"agent_role":  "wizard",
				"tool_calls": []any{
					map[string]any{"tool_name": "repo.search", "parameters": map[string]any{"query": "x"}},
				},
			},
		},
	}

	plan, err := svc.parsePlan(data, profileWithSignals())
	if err != nil {
		t.Fatalf("parsePlan: %v", err)
	}
	if plan.Steps[0].Role != model.RoleExecutor {
		t.Errorf("unknown role parsed as %s, want executor", plan.Steps[0].Role)
	}
}

func TestParsePlanRejectsEmpty(t *testing.T) {
	svc := newTestService()

	if _, err := svc.parsePlan(map[string]any{"goal": "x"}, profileWithSignals()); err == nil {
		t.Error("expected error for plan without steps")
	}
}
