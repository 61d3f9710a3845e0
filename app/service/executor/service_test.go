package executor

import (
	"context"
	"strings"
	"testing"

	"docsmith/app/model"
	"docsmith/app/service/evidence"
	"docsmith/app/service/privacy"
	"docsmith/app/service/tools"
)

func newTestService() (*Service, *evidence.Service) {
	evidenceSvc, _ := evidence.New(nil)
	return &Service{
		toolsSvc:    tools.NewRegistry(),
		evidenceSvc: evidenceSvc,
		privacySvc:  privacy.NewGuard(privacy.ModeStandard),
	}, evidenceSvc
}

func TestExecuteStepContractViolation(t *testing.T) {
	svc, _ := newTestService()

	// repo.search requires the query parameter
	step := &model.PlanStep{
		StepNumber: 1,
		ToolCalls:  []*model.ToolCall{model.NewToolCall("repo.search", map[string]any{})},
	}

	result := svc.ExecuteStep(context.Background(), step, nil)

	if result.Success {
		t.Error("step with a contract violation should not succeed")
	}
	call := step.ToolCalls[0]
	if call.Status != model.ToolCallFailed {
		t.Errorf("call status = %s, want failed", call.Status)
	}
	if !strings.Contains(call.Error, "query") {
		t.Errorf("error should name the missing parameter: %q", call.Error)
	}
}

func TestExecuteStepMissingAdapterSkips(t *testing.T) {
	svc, _ := newTestService()

	step := &model.PlanStep{
		StepNumber: 1,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("repo.search", map[string]any{"query": "docker"}),
		},
	}

	result := svc.ExecuteStep(context.Background(), step, nil)

	if !result.Success {
		t.Error("skipped calls should not fail the step")
	}
	if step.ToolCalls[0].Status != model.ToolCallSkipped {
		t.Errorf("call status = %s, want skipped", step.ToolCalls[0].Status)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v, want one skip warning", result.Warnings)
	}
}

func TestExecuteStepAdapterPanic(t *testing.T) {
	svc, _ := newTestService()
	svc.toolsSvc.RegisterAdapter("repo.search", tools.AdapterFunc(func(ctx context.Context, params map[string]any) (map[string]any, error) {
		panic("boom")
	}))

	step := &model.PlanStep{
		StepNumber: 1,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("repo.search", map[string]any{"query": "docker"}),
		},
	}

	result := svc.ExecuteStep(context.Background(), step, nil)

	if result.Success {
		t.Error("panicking adapter should fail the step")
	}
	if !strings.Contains(step.ToolCalls[0].Error, "adapter panicked") {
		t.Errorf("error = %q, want panic marker", step.ToolCalls[0].Error)
	}
}

func TestExecuteStepThreadsPriorArtifacts(t *testing.T) {
	svc, _ := newTestService()

	var seen map[string]any
	svc.toolsSvc.RegisterAdapter("docx.refine", tools.AdapterFunc(func(ctx context.Context, params map[string]any) (map[string]any, error) {
		seen = params
		return map[string]any{"refined": true}, nil
	}))

	earlier := model.NewResult(model.RoleEventDriven)
	earlier.Artifacts["event_section_md"] = "## Events"

	step := &model.PlanStep{
		StepNumber: 4,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("docx.refine", map[string]any{"instructions": "tighten the draft"}),
		},
	}

	result := svc.ExecuteStep(context.Background(), step, []*model.AgentResult{earlier})

	if !result.Success {
		t.Fatalf("step failed: %v", result.Errors)
	}
	priorArtifacts, ok := seen["prior_artifacts"].(map[string]any)
	if !ok {
		t.Fatalf("adapter params missing prior_artifacts: %v", seen)
	}
	if priorArtifacts["event_section_md"] != "## Events" {
		t.Errorf("prior artifact not threaded: %v", priorArtifacts)
	}
}

func TestExecuteStepRegistersEvidence(t *testing.T) {
	svc, evidenceSvc := newTestService()
	svc.toolsSvc.RegisterAdapter("repo.search", tools.AdapterFunc(func(ctx context.Context, params map[string]any) (map[string]any, error) {
		return map[string]any{
			"matches": []any{"docker-compose.yml"},
			"evidence_pointer": map[string]any{
				"evidence_type": "code_file",
				"source_path":   "docker-compose.yml",
				"confidence":    0.8,
			},
		}, nil
	}))

	step := &model.PlanStep{
		StepNumber: 1,
		ToolCalls: []*model.ToolCall{
			model.NewToolCall("repo.search", map[string]any{"query": "docker"}),
		},
	}

	result := svc.ExecuteStep(context.Background(), step, nil)

	if !result.Success {
		t.Fatalf("step failed: %v", result.Errors)
	}
	if len(result.EvidenceIDs) != 1 {
		t.Fatalf("evidence ids = %v, want exactly one", result.EvidenceIDs)
	}

	pointer := evidenceSvc.Pointer(result.EvidenceIDs[0])
	if pointer == nil {
		t.Fatal("pointer not registered")
	}
	if pointer.SourcePath != "docker-compose.yml" || pointer.Confidence != 0.8 {
		t.Errorf("pointer = %+v", pointer)
	}
	if pointer.ID == "" {
		t.Error("pointer id not assigned")
	}
}
