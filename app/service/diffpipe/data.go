package diffpipe

import (
	"fmt"
	"strings"
	"time"
)

// DocFormat is one downstream documentation output format.
type DocFormat string

const (
	FormatBlog  DocFormat = "BLOG"
	FormatLatex DocFormat = "LATEX"
	FormatPDF   DocFormat = "PDF"
	FormatPPTX  DocFormat = "PPTX"
	FormatWord  DocFormat = "WORD"
)

// AllFormats lists every downstream format in canonical order.
func AllFormats() []DocFormat {
	return []DocFormat{FormatBlog, FormatLatex, FormatPDF, FormatPPTX, FormatWord}
}

type FileDiff struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	OldPath   string `json:"old_path,omitempty"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

type DiffSummary struct {
	BaseRef        string     `json:"base_ref"`
	HeadRef        string     `json:"head_ref"`
	Files          []FileDiff `json:"files"`
	TotalAdditions int        `json:"total_additions"`
	TotalDeletions int        `json:"total_deletions"`
}

func (s *DiffSummary) IsEmpty() bool {
	return len(s.Files) == 0
}

type DeltaKind string

const (
	DeltaAdd    DeltaKind = "add"
	DeltaUpdate DeltaKind = "update"
	DeltaRemove DeltaKind = "remove"
)

// EntityDelta records one knowledge-graph entity touched by the diff.
type EntityDelta struct {
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Kind       DeltaKind `json:"kind"`
	FilePath   string    `json:"file_path"`
	Reason     string    `json:"reason"`
}

type RelationDelta struct {
	SourceID string    `json:"source_id"`
	TargetID string    `json:"target_id"`
	Kind     DeltaKind `json:"kind"`
	Reason   string    `json:"reason"`
}

// ImpactReport maps a code diff onto graph entities and the document
// formats that must be regenerated.
type ImpactReport struct {
	EntityDeltas    []EntityDelta   `json:"entity_deltas"`
	RelationDeltas  []RelationDelta `json:"relation_deltas"`
	ImpactedFormats []DocFormat     `json:"impacted_formats"`
	Confidence      float64         `json:"confidence"`
}

func (r *ImpactReport) TotalDeltas() int {
	return len(r.EntityDeltas) + len(r.RelationDeltas)
}

// RegenTarget names the sections to rebuild for one output format.
type RegenTarget struct {
	Format   DocFormat `json:"format"`
	Sections []string  `json:"sections"`
}

type RegenerationPlan struct {
	Skipped   bool          `json:"skipped"`
	Reason    string        `json:"reason,omitempty"`
	Targets   []RegenTarget `json:"targets,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type NoteCategory string

const (
	NoteAdded    NoteCategory = "Added"
	NoteChanged  NoteCategory = "Changed"
	NoteFixed    NoteCategory = "Fixed"
	NoteRemoved  NoteCategory = "Removed"
	NoteSecurity NoteCategory = "Security"
)

// noteCategoryOrder fixes the Keep a Changelog section order.
var noteCategoryOrder = []NoteCategory{NoteAdded, NoteChanged, NoteFixed, NoteRemoved, NoteSecurity}

type ReleaseNote struct {
	Category NoteCategory `json:"category"`
	Text     string       `json:"text"`
	Breaking bool         `json:"breaking"`
}

type ReleaseNotes struct {
	Version string        `json:"version"`
	Date    time.Time     `json:"date"`
	Notes   []ReleaseNote `json:"notes"`
}

// Markdown renders the notes in Keep a Changelog layout.
func (n *ReleaseNotes) Markdown() string {
	lines := []string{
		fmt.Sprintf("## [%s] - %s", n.Version, n.Date.Format("2006-01-02")),
	}

	byCategory := make(map[NoteCategory][]ReleaseNote)
	for _, note := range n.Notes {
		byCategory[note.Category] = append(byCategory[note.Category], note)
	}

	for _, category := range noteCategoryOrder {
		notes := byCategory[category]
		if len(notes) == 0 {
			continue
		}
		lines = append(lines, "", fmt.Sprintf("### %s", category), "")
		for _, note := range notes {
			text := note.Text
			if note.Breaking {
				text = "**BREAKING** " + text
			}
			lines = append(lines, "- "+text)
		}
	}

	if len(byCategory) == 0 {
		lines = append(lines, "", "_No notable changes._")
	}

	return strings.Join(lines, "\n")
}
