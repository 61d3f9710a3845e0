// Package executor dispatches the tool calls of a single plan step to
// registered adapters. Tool failures are recorded on the call and in
// the step result, they never surface as errors to the caller.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docsmith/app/model"
	"docsmith/app/service/evidence"
	"docsmith/app/service/privacy"
	"docsmith/app/service/tools"

	"github.com/samber/do"
)

type Service struct {
	toolsSvc    *tools.Service
	evidenceSvc *evidence.Service
	privacySvc  *privacy.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		toolsSvc:    do.MustInvoke[*tools.Service](di),
		evidenceSvc: do.MustInvoke[*evidence.Service](di),
		privacySvc:  do.MustInvoke[*privacy.Service](di),
	}, nil
}

// ExecuteStep runs every tool call of the step in order. The result is
// successful when no call failed; skipped calls become warnings.
// Artifacts of earlier steps reach the adapters under the
// prior_artifacts parameter, so refinement tools can consume what the
// domain agents produced.
func (s *Service) ExecuteStep(ctx context.Context, step *model.PlanStep, prior []*model.AgentResult) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(model.RoleExecutor)

	priorArtifacts := collectArtifacts(prior)
	for _, call := range step.ToolCalls {
		s.dispatch(ctx, call, priorArtifacts)

		switch call.Status {
		case model.ToolCallSuccess:
			result.Artifacts[call.ID] = call.Result
			result.EvidenceIDs = append(result.EvidenceIDs, call.EvidenceIDs...)
		case model.ToolCallSkipped:
			result.Warnings = append(result.Warnings, fmt.Sprintf("tool %s skipped: %s", call.ToolName, call.Error))
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("tool %s failed: %s", call.ToolName, call.Error))
		}
	}

	result.Success = len(result.Errors) == 0
	result.Duration = time.Since(start)

	return result
}

func (s *Service) dispatch(ctx context.Context, call *model.ToolCall, priorArtifacts map[string]any) {
	if len(priorArtifacts) > 0 {
		if _, ok := call.Parameters["prior_artifacts"]; !ok {
			call.Parameters["prior_artifacts"] = s.privacySvc.SanitizeContext(priorArtifacts)
		}
	}

	if contract := s.toolsSvc.Contract(call.ToolName); contract != nil {
		if violations := contract.Validate(call.Parameters); len(violations) > 0 {
			call.Status = model.ToolCallFailed
			call.Error = strings.Join(violations, "; ")
			return
		}
	}

	adapter := s.toolsSvc.Adapter(call.ToolName)
	if adapter == nil {
		call.Status = model.ToolCallSkipped
		call.Error = fmt.Sprintf("no adapter registered for tool: %s", call.ToolName)
		return
	}

	payload, err := s.invoke(ctx, adapter, call.Parameters)
	if err != nil {
		call.Status = model.ToolCallFailed
		call.Error = err.Error()
		return
	}

	call.Status = model.ToolCallSuccess
	call.Result = payload

	if raw, ok := payload["evidence_pointer"].(map[string]any); ok {
		pointer, err := decodePointer(raw)
		if err != nil {
			slog.Warn("Discarding malformed evidence pointer",
				"tool", call.ToolName,
				"error", err)
			return
		}

		// snippets respect the privacy mode before they enter the registry
		pointer = s.privacySvc.SanitizeEvidence(pointer)
		call.EvidenceIDs = append(call.EvidenceIDs, s.evidenceSvc.RegisterPointer(pointer))
	}
}

// collectArtifacts unions the artifacts of earlier results. Later
// results win on id collisions.
func collectArtifacts(prior []*model.AgentResult) map[string]any {
	if len(prior) == 0 {
		return nil
	}

	artifacts := make(map[string]any)
	for _, result := range prior {
		for id, value := range result.Artifacts {
			artifacts[id] = value
		}
	}

	return artifacts
}

// invoke shields the step from adapter panics, turning them into call
// failures.
func (s *Service) invoke(ctx context.Context, adapter tools.Adapter, params map[string]any) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panicked: %v", r)
		}
	}()

	return adapter.Execute(ctx, params)
}

func decodePointer(raw map[string]any) (*evidence.Pointer, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var pointer evidence.Pointer
	if err = json.Unmarshal(data, &pointer); err != nil {
		return nil, err
	}

	if pointer.ID == "" {
		fresh := evidence.NewPointer(pointer.Type, pointer.SourcePath, pointer.Snippet)
		fresh.Section = pointer.Section
		fresh.LineStart = pointer.LineStart
		fresh.LineEnd = pointer.LineEnd
		fresh.CommitSHA = pointer.CommitSHA
		fresh.URL = pointer.URL
		if pointer.Confidence > 0 {
			fresh.Confidence = pointer.Confidence
		}
		fresh.Metadata = pointer.Metadata
		return fresh, nil
	}

	return &pointer, nil
}
