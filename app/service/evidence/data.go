// Package evidence tracks the pointers and claims produced during one
// pipeline run and scores per-artifact coverage. Claims without evidence
// are assumptions and count against the coverage score.
package evidence

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type PointerType string

const (
	PointerReadmeSection PointerType = "readme_section"
	PointerCodeFile      PointerType = "code_file"
	PointerCodeSnippet   PointerType = "code_snippet"
	PointerConfigFile    PointerType = "config_file"
	PointerCommit        PointerType = "commit"
	PointerIssue         PointerType = "issue"
	PointerPR            PointerType = "pr"
	PointerAPISchema     PointerType = "api_schema"
	PointerDiagramSource PointerType = "diagram_source"
	PointerExternalDoc   PointerType = "external_doc"
)

const maxSnippetLen = 200

// Pointer is an immutable reference linking a generated claim back to a
// concrete source location. Never mutated after registration.
type Pointer struct {
	ID         string         `json:"id"`
	Type       PointerType    `json:"evidence_type"`
	SourcePath string         `json:"source_path,omitempty"`
	Section    string         `json:"section,omitempty"`
	Snippet    string         `json:"snippet,omitempty"`
	LineStart  int            `json:"line_start,omitempty"`
	LineEnd    int            `json:"line_end,omitempty"`
	CommitSHA  string         `json:"commit_sha,omitempty"`
	URL        string         `json:"url,omitempty"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewPointer builds a pointer with a fresh id, clamping the snippet to
// the allowed length.
func NewPointer(pointerType PointerType, sourcePath, snippet string) *Pointer {
	if len(snippet) > maxSnippetLen {
		snippet = snippet[:maxSnippetLen]
	}

	return &Pointer{
		ID:         "ev-" + shortHex(10),
		Type:       pointerType,
		SourcePath: sourcePath,
		Snippet:    snippet,
		Confidence: 1.0,
	}
}

// Claim is a single generated assertion plus its evidence links.
// IsAssumption is computed once at registration time and never re-derived.
type Claim struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	ArtifactID   string   `json:"artifact_id"`
	EvidenceIDs  []string `json:"evidence_ids,omitempty"`
	IsAssumption bool     `json:"is_assumption"`
	Confidence   float64  `json:"confidence"`
}

func NewClaim(text, artifactID string, evidenceIDs ...string) *Claim {
	return &Claim{
		ID:          "cl-" + shortHex(8),
		Text:        text,
		ArtifactID:  artifactID,
		EvidenceIDs: evidenceIDs,
		Confidence:  1.0,
	}
}

// Coverage is the derived evidence score for one artifact.
type Coverage struct {
	ArtifactID      string   `json:"artifact_id"`
	ArtifactType    string   `json:"artifact_type,omitempty"`
	TotalClaims     int      `json:"total_claims"`
	BackedClaims    int      `json:"backed_claims"`
	AssumptionCount int      `json:"assumption_count"`
	Assumptions     []string `json:"assumptions,omitempty"`
	EvidenceIDs     []string `json:"evidence_ids,omitempty"`
	ConfidenceMean  float64  `json:"confidence_mean"`
	ConfidenceMin   float64  `json:"confidence_min"`
}

// CoveragePct is the percentage of claims backed by evidence. An artifact
// with no claims counts as fully covered.
func (c *Coverage) CoveragePct() float64 {
	if c.TotalClaims == 0 {
		return 100.0
	}
	return float64(c.BackedClaims) / float64(c.TotalClaims) * 100.0
}

// IsTrustworthy requires at least 80% coverage and no claim below 0.3
// confidence.
func (c *Coverage) IsTrustworthy() bool {
	return c.CoveragePct() >= 80.0 && c.ConfidenceMin >= 0.3
}

// Summary is a compact representation for result metadata and logs.
func (c *Coverage) Summary() map[string]any {
	return map[string]any{
		"artifact":        c.ArtifactID,
		"type":            c.ArtifactType,
		"coverage":        fmt.Sprintf("%.1f%%", c.CoveragePct()),
		"total_claims":    c.TotalClaims,
		"backed_claims":   c.BackedClaims,
		"assumptions":     c.AssumptionCount,
		"confidence_mean": c.ConfidenceMean,
		"confidence_min":  c.ConfidenceMin,
		"trustworthy":     c.IsTrustworthy(),
	}
}

func shortHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
