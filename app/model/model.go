// Package model holds the shared data types of the agent pipeline.
// Planner, executor, subagents, critic and orchestrator all communicate
// through AgentPlan / AgentResult / ToolCall values.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePlanner      Role = "planner"
	RoleExecutor     Role = "executor"
	RoleCritic       Role = "critic"
	RoleDiff         Role = "diff"
	RoleImpact       Role = "impact"
	RoleRegen        Role = "regen"
	RoleReleaseNotes Role = "release_notes"

	RoleMicroservices   Role = "microservices"
	RoleEventDriven     Role = "event_driven"
	RoleML              Role = "ml"
	RoleDataEngineering Role = "data_engineering"
	RoleInfra           Role = "infra"
)

var knownRoles = map[Role]bool{
	RolePlanner:         true,
	RoleExecutor:        true,
	RoleCritic:          true,
	RoleDiff:            true,
	RoleImpact:          true,
	RoleRegen:           true,
	RoleReleaseNotes:    true,
	RoleMicroservices:   true,
	RoleEventDriven:     true,
	RoleML:              true,
	RoleDataEngineering: true,
	RoleInfra:           true,
}

// ParseRole maps a free-form role string to a known role.
// Unknown strings are coerced to the generic executor role.
func ParseRole(s string) Role {
	role := Role(strings.TrimSpace(strings.ToLower(s)))
	if knownRoles[role] {
		return role
	}
	return RoleExecutor
}

type ToolCallStatus string

const (
	ToolCallPending ToolCallStatus = "pending"
	ToolCallSuccess ToolCallStatus = "success"
	ToolCallFailed  ToolCallStatus = "failed"
	ToolCallSkipped ToolCallStatus = "skipped"
)

// ToolCall is a single tool invocation requested by a plan step.
// The executor dispatches it to the matching adapter and fills in
// status, result and produced evidence ids.
type ToolCall struct {
	ID                 string         `json:"id"`
	ToolName           string         `json:"tool_name"`
	Parameters         map[string]any `json:"parameters"`
	ExpectedOutputType string         `json:"expected_output_type,omitempty"`
	Status             ToolCallStatus `json:"status"`
	Result             any            `json:"result,omitempty"`
	Error              string         `json:"error,omitempty"`
	EvidenceIDs        []string       `json:"evidence_ids,omitempty"`
}

func NewToolCall(toolName string, parameters map[string]any) *ToolCall {
	if parameters == nil {
		parameters = map[string]any{}
	}

	return &ToolCall{
		ID:         ShortID(),
		ToolName:   toolName,
		Parameters: parameters,
		Status:     ToolCallPending,
	}
}

// PlanStep is one unit of work in an execution plan.
type PlanStep struct {
	StepNumber     int         `json:"step_number"`
	Description    string      `json:"description"`
	Role           Role        `json:"agent_role"`
	ToolCalls      []*ToolCall `json:"tool_calls,omitempty"`
	DependsOn      []int       `json:"depends_on,omitempty"`
	ExpectedOutput string      `json:"expected_output,omitempty"`
	Completed      bool        `json:"completed"`
}

// AgentPlan is the structured execution plan the planner emits and the
// orchestrator walks step by step.
type AgentPlan struct {
	ID        string         `json:"plan_id"`
	CreatedAt time.Time      `json:"created_at"`
	Goal      string         `json:"goal"`
	Steps     []*PlanStep    `json:"steps"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewPlan(goal string) *AgentPlan {
	return &AgentPlan{
		ID:        ShortID(),
		CreatedAt: time.Now().UTC(),
		Goal:      goal,
		Metadata:  map[string]any{},
	}
}

func (p *AgentPlan) TotalSteps() int {
	return len(p.Steps)
}

func (p *AgentPlan) CompletedSteps() int {
	count := 0
	for _, s := range p.Steps {
		if s.Completed {
			count++
		}
	}
	return count
}

// Progress is the percentage of completed steps.
func (p *AgentPlan) Progress() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	return float64(p.CompletedSteps()) / float64(len(p.Steps)) * 100
}

// AgentResult is the outcome of a single agent execution.
type AgentResult struct {
	Role        Role           `json:"agent_role"`
	Success     bool           `json:"success"`
	Artifacts   map[string]any `json:"artifacts,omitempty"`
	EvidenceIDs []string       `json:"evidence_ids,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewResult(role Role) *AgentResult {
	return &AgentResult{
		Role:      role,
		Success:   true,
		Artifacts: map[string]any{},
		Metadata:  map[string]any{},
	}
}

// ShortID returns a 12-character hex id.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
