package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/critic"
	"docsmith/app/service/executor"
	"docsmith/app/service/graph"
	"docsmith/app/service/planner"
	"docsmith/app/service/privacy"
	"docsmith/app/service/subagent"

	"github.com/samber/do"
)

// State labels one phase of the plan-execute-validate loop.
type State string

const (
	StatePlanning   State = "planning"
	StateExecuting  State = "executing"
	StateValidating State = "validating"
	StateApproved   State = "approved"
	StateReplanning State = "replanning"
	StateExhausted  State = "exhausted"
)

// RunResult is the aggregate of all iterations of one run.
type RunResult struct {
	FinalState State                `json:"final_state"`
	Iterations int                  `json:"iterations"`
	Plans      []*model.AgentPlan   `json:"plans"`
	Results    []*model.AgentResult `json:"results"`
	Artifacts  map[string]any       `json:"artifacts"`
	Verdict    *critic.Verdict      `json:"verdict,omitempty"`
	Duration   time.Duration        `json:"duration"`
}

func (r *RunResult) Approved() bool {
	return r.FinalState == StateApproved
}

func (r *RunResult) Summary() map[string]any {
	return map[string]any{
		"final_state": r.FinalState,
		"iterations":  r.Iterations,
		"artifacts":   len(r.Artifacts),
		"results":     len(r.Results),
		"approved":    r.Approved(),
		"duration":    r.Duration.String(),
	}
}

type Service struct {
	cfg         *config.Config
	plannerSvc  *planner.Service
	executorSvc *executor.Service
	criticSvc   *critic.Service
	subagentSvc *subagent.Service
	privacySvc  *privacy.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:         do.MustInvoke[*config.Config](di),
		plannerSvc:  do.MustInvoke[*planner.Service](di),
		executorSvc: do.MustInvoke[*executor.Service](di),
		criticSvc:   do.MustInvoke[*critic.Service](di),
		subagentSvc: do.MustInvoke[*subagent.Service](di),
		privacySvc:  do.MustInvoke[*privacy.Service](di),
	}, nil
}

// Run drives the loop until the critic approves, retries are
// exhausted, or planning fails.
func (s *Service) Run(ctx context.Context, profile *model.RepoProfile, kg *graph.KnowledgeGraph) *RunResult {
	start := time.Now()

	run := &RunResult{
		FinalState: StateExhausted,
		Artifacts:  make(map[string]any),
	}

	profile = s.privacySvc.SanitizeProfile(profile)
	useLLM := s.cfg.OpenAI.Section.Token != ""

	maxIterations := s.cfg.Loop.MaxRetries + 1
	var prior []*model.AgentResult

	for iteration := 1; iteration <= maxIterations; iteration++ {
		run.Iterations = iteration

		slog.Info("Starting iteration",
			"iteration", iteration,
			"max_iterations", maxIterations,
			"state", StatePlanning)

		plan, err := s.plannerSvc.BuildPlan(ctx, profile, kg, prior)
		if err != nil {
			slog.Error("Planning failed, aborting run", "error", err)
			run.Results = append(run.Results, failedResult(model.RolePlanner, err))
			break
		}
		run.Plans = append(run.Plans, plan)

		results := s.executePlan(ctx, plan, profile, kg, useLLM)
		run.Results = append(run.Results, results...)
		for _, result := range results {
			for id, value := range result.Artifacts {
				run.Artifacts[id] = value
			}
		}

		slog.Info("Plan executed",
			"completed_steps", plan.CompletedSteps(),
			"total_steps", plan.TotalSteps(),
			"progress_pct", plan.Progress(),
			"state", StateValidating)

		verdict := s.validate(ctx, run)
		if verdict.Approved {
			run.FinalState = StateApproved
			break
		}

		if iteration < maxIterations {
			slog.Warn("Verdict rejected, re-planning",
				"reason", verdict.ReplanReason,
				"state", StateReplanning)
			// replanning sees the whole history, not just the last pass
			prior = append(prior, results...)
		}
	}

	run.Duration = time.Since(start)
	slog.Info("Run finished", "summary", run.Summary())

	return run
}

// executePlan dispatches steps in plan order: specialized roles go to
// their domain agent, everything else to the tool executor. Each step
// sees the results of the steps before it. Critic steps are deferred
// to the validation phase.
func (s *Service) executePlan(ctx context.Context, plan *model.AgentPlan, profile *model.RepoProfile, kg *graph.KnowledgeGraph, useLLM bool) []*model.AgentResult {
	var results []*model.AgentResult

	for _, step := range plan.Steps {
		if step.Role == model.RoleCritic {
			step.Completed = true
			continue
		}

		var result *model.AgentResult
		if agent := s.subagentSvc.Agent(step.Role); agent != nil {
			result = agent.Run(ctx, subagent.Input{
				Profile: profile,
				Graph:   kg,
				UseLLM:  useLLM,
				Prior:   results,
			})
		} else {
			result = s.executorSvc.ExecuteStep(ctx, step, results)
		}

		step.Completed = result.Success
		results = append(results, result)
	}

	return results
}

func (s *Service) validate(ctx context.Context, run *RunResult) *critic.Verdict {
	useLLM := s.cfg.OpenAI.Critic.Token != ""

	result := s.criticSvc.Review(ctx, run.Artifacts, useLLM)
	run.Results = append(run.Results, result)

	verdict, _ := result.Artifacts["verdict"].(*critic.Verdict)
	if verdict == nil {
		verdict = &critic.Verdict{ReplanReason: "critic produced no verdict"}
	}
	run.Verdict = verdict

	return verdict
}

func failedResult(role model.Role, err error) *model.AgentResult {
	result := model.NewResult(role)
	result.Success = false
	result.Errors = append(result.Errors, fmt.Sprintf("planning failed: %v", err))
	return result
}
