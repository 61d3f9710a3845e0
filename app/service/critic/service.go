package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docsmith/app/client/llm"
	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/evidence"
	"docsmith/app/util/fallback"

	"github.com/samber/do"
)

// Verdict is the validation outcome for one loop iteration.
type Verdict struct {
	Approved       bool                 `json:"approved"`
	CoveragePct    float64              `json:"coverage_pct"`
	Assumptions    int                  `json:"assumptions"`
	CoverageScores []*evidence.Coverage `json:"coverage_scores"`
	FlaggedClaims  []string             `json:"flagged_claims"`
	ReplanReason   string               `json:"replan_reason,omitempty"`
	Review         string               `json:"review,omitempty"`
}

type Service struct {
	cfg         *config.Config
	llmClient   *llm.Client
	evidenceSvc *evidence.Service
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		cfg:         cfg,
		llmClient:   llm.NewClient(cfg.OpenAI.Critic),
		evidenceSvc: do.MustInvoke[*evidence.Service](di),
	}, nil
}

func NewService(cfg *config.Config, llmClient *llm.Client, evidenceSvc *evidence.Service) *Service {
	return &Service{cfg: cfg, llmClient: llmClient, evidenceSvc: evidenceSvc}
}

// Review gates the loop: deterministic coverage thresholds decide
// approval, the generative review is advisory only and never flips the
// verdict.
func (s *Service) Review(ctx context.Context, artifacts map[string]any, useLLM bool) *model.AgentResult {
	start := time.Now()
	result := model.NewResult(model.RoleCritic)

	verdict := s.evaluate()

	if useLLM {
		verdict.Review, _ = fallback.Attempt(ctx, "critic-review",
			func(ctx context.Context) (string, error) {
				return s.reviewLLM(ctx, artifacts, verdict)
			},
			func() string { return "(LLM review unavailable)" },
		)
	}

	slog.Info("Critic verdict",
		"approved", verdict.Approved,
		"coverage_pct", verdict.CoveragePct,
		"assumptions", verdict.Assumptions)

	result.Success = verdict.Approved
	result.Artifacts["verdict"] = verdict
	if !verdict.Approved {
		result.Errors = append(result.Errors, verdict.ReplanReason)
	}
	result.Metadata["flagged_claims"] = len(verdict.FlaggedClaims)

	summaries := make([]map[string]any, 0, len(verdict.CoverageScores))
	for _, coverage := range verdict.CoverageScores {
		summaries = append(summaries, coverage.Summary())
	}
	result.Metadata["coverage"] = summaries
	result.Duration = time.Since(start)

	return result
}

func (s *Service) evaluate() *Verdict {
	claims := s.evidenceSvc.AllClaims()

	var backed, assumptions int
	var flagged []string
	for _, claim := range claims {
		if claim.IsAssumption {
			assumptions++
			flagged = append(flagged, claim.ID)
			continue
		}
		backed++
	}

	coveragePct := 100.0
	if len(claims) > 0 {
		coveragePct = float64(backed) / float64(len(claims)) * 100
	}

	verdict := &Verdict{
		Approved:       true,
		CoveragePct:    coveragePct,
		Assumptions:    assumptions,
		CoverageScores: s.evidenceSvc.ComputeAllCoverage(),
		FlaggedClaims:  flagged,
	}

	var reasons []string
	if coveragePct < s.cfg.Critic.MinCoveragePct {
		reasons = append(reasons, fmt.Sprintf(
			"Evidence coverage %.1f%% is below threshold %v%%. %d unsupported claims found.",
			coveragePct, s.cfg.Critic.MinCoveragePct, assumptions))
	}
	if assumptions > s.cfg.Critic.MaxAssumptions {
		reasons = append(reasons, fmt.Sprintf(
			"Too many assumptions (%d) exceed limit (%d). Re-planning required.",
			assumptions, s.cfg.Critic.MaxAssumptions))
	}

	if len(reasons) > 0 {
		verdict.Approved = false
		verdict.ReplanReason = strings.Join(reasons, " ")
	}

	return verdict
}

func (s *Service) reviewLLM(ctx context.Context, artifacts map[string]any, verdict *Verdict) (string, error) {
	var artifactLines []string
	for id, value := range artifacts {
		preview := artifactPreview(value)
		artifactLines = append(artifactLines, fmt.Sprintf("### %s\n%s", id, preview))
		if len(artifactLines) == 10 {
			break
		}
	}

	res, err := s.llmClient.ChatJSON(ctx,
		"You are a documentation quality reviewer. Score the generated artifacts. "+
			`Respond with JSON: {"quality_score": <1-10>, "strengths": [...], "weaknesses": [...]}`,
		fmt.Sprintf(
			"Evidence coverage: %.1f%%, assumptions: %d.\n\nArtifacts:\n\n%s",
			verdict.CoveragePct, verdict.Assumptions, strings.Join(artifactLines, "\n\n"),
		),
	)
	if err != nil {
		return "", err
	}

	var parts []string
	if score, ok := res["quality_score"].(float64); ok {
		parts = append(parts, fmt.Sprintf("Quality Score: %.0f/10", score))
	}
	if strengths := stringList(res["strengths"]); len(strengths) > 0 {
		parts = append(parts, "Strengths: "+strings.Join(strengths, ", "))
	}
	if weaknesses := stringList(res["weaknesses"]); len(weaknesses) > 0 {
		parts = append(parts, "Weaknesses: "+strings.Join(weaknesses, ", "))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("review response missing expected fields")
	}

	return strings.Join(parts, " | "), nil
}

func artifactPreview(value any) string {
	text, ok := value.(string)
	if !ok {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		text = string(data)
	}
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
