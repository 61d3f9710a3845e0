package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"planner", RolePlanner},
		{"critic", RoleCritic},
		{"microservices", RoleMicroservices},
		{"event_driven", RoleEventDriven},
		{"ml", RoleML},
		{"data_engineering", RoleDataEngineering},
		{"infra", RoleInfra},
		{"wizard", RoleExecutor},
		{"", RoleExecutor},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.input); got != tt.want {
			t.Errorf("ParseRole(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestPlanProgress(t *testing.T) {
	plan := NewPlan("test")
	if got := plan.Progress(); got != 0 {
		t.Errorf("empty plan progress = %v, want 0", got)
	}

	plan.Steps = []*PlanStep{
		{StepNumber: 1, Completed: true},
		{StepNumber: 2, Completed: true},
		{StepNumber: 3},
		{StepNumber: 4},
	}

	if got := plan.CompletedSteps(); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}
	if got := plan.Progress(); got != 50.0 {
		t.Errorf("progress = %v, want 50.0", got)
	}
}

func TestShortIDs(t *testing.T) {
	plan := NewPlan("test")
	if len(plan.ID) != 12 {
		t.Errorf("plan id %q length = %d, want 12", plan.ID, len(plan.ID))
	}

	call := NewToolCall("repo.search", nil)
	if len(call.ID) != 12 {
		t.Errorf("tool call id %q length = %d, want 12", call.ID, len(call.ID))
	}
	if call.Status != ToolCallPending {
		t.Errorf("new call status = %s, want pending", call.Status)
	}
	if call.Parameters == nil {
		t.Error("nil parameters should be initialized")
	}
}
