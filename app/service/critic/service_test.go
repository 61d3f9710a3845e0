package critic

import (
	"context"
	"strings"
	"testing"

	"docsmith/app/client/llm"
	"docsmith/app/config"
	"docsmith/app/service/evidence"
)

func newTestService() (*Service, *evidence.Service) {
	evidenceSvc, _ := evidence.New(nil)

	cfg := &config.Config{}
	cfg.Critic.MinCoveragePct = 80
	cfg.Critic.MaxAssumptions = 5

	return NewService(cfg, llm.NewClient(config.ModelConfig{}), evidenceSvc), evidenceSvc
}

func registerClaims(svc *evidence.Service, backed, assumptions int) {
	id := svc.RegisterPointer(evidence.NewPointer(evidence.PointerCodeFile, "main.go", ""))
	for i := 0; i < backed; i++ {
		svc.RegisterClaim(evidence.NewClaim("backed claim", "section", id))
	}
	for i := 0; i < assumptions; i++ {
		svc.RegisterClaim(evidence.NewClaim("assumed claim", "section"))
	}
}

func TestReviewRejectsLowCoverage(t *testing.T) {
	svc, evidenceSvc := newTestService()
	registerClaims(evidenceSvc, 3, 1)

	result := svc.Review(context.Background(), nil, false)

	if result.Success {
		t.Fatal("75% coverage should be rejected at an 80% threshold")
	}

	verdict := result.Artifacts["verdict"].(*Verdict)
	if verdict.Approved {
		t.Error("verdict approved despite low coverage")
	}
	if !strings.Contains(verdict.ReplanReason, "75.0%") {
		t.Errorf("reason should embed the coverage value: %q", verdict.ReplanReason)
	}
	if len(verdict.FlaggedClaims) != 1 {
		t.Errorf("flagged claims = %d, want 1", len(verdict.FlaggedClaims))
	}
}

func TestReviewRejectsTooManyAssumptions(t *testing.T) {
	svc, evidenceSvc := newTestService()
	registerClaims(evidenceSvc, 40, 6)

	result := svc.Review(context.Background(), nil, false)

	verdict := result.Artifacts["verdict"].(*Verdict)
	if verdict.Approved {
		t.Error("six assumptions should exceed the limit of five")
	}
	if !strings.Contains(verdict.ReplanReason, "Too many assumptions") {
		t.Errorf("reason = %q", verdict.ReplanReason)
	}
}

func TestReviewApproves(t *testing.T) {
	svc, evidenceSvc := newTestService()
	registerClaims(evidenceSvc, 9, 1)

	result := svc.Review(context.Background(), nil, false)

	if !result.Success {
		t.Fatalf("90%% coverage should be approved, got errors: %v", result.Errors)
	}
	verdict := result.Artifacts["verdict"].(*Verdict)
	if !verdict.Approved || verdict.ReplanReason != "" {
		t.Errorf("verdict = %+v", verdict)
	}
}

func TestReviewApprovesWithNoClaims(t *testing.T) {
	svc, _ := newTestService()

	result := svc.Review(context.Background(), nil, false)

	verdict := result.Artifacts["verdict"].(*Verdict)
	if !verdict.Approved {
		t.Error("zero claims should count as full coverage")
	}
	if verdict.CoveragePct != 100.0 {
		t.Errorf("coverage = %v, want 100.0", verdict.CoveragePct)
	}
}

func TestReviewFallbackText(t *testing.T) {
	svc, evidenceSvc := newTestService()
	registerClaims(evidenceSvc, 5, 0)

	result := svc.Review(context.Background(), nil, true)

	verdict := result.Artifacts["verdict"].(*Verdict)
	if verdict.Review != "(LLM review unavailable)" {
		t.Errorf("review = %q, want fallback placeholder with disabled client", verdict.Review)
	}
}
