package diffpipe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"docsmith/app/client/gitdiff"
	"docsmith/app/config"
	"docsmith/app/service/graph"

	"github.com/samber/do"
)

// Source abstracts the git client so impact analysis can run against
// recorded change sets.
type Source interface {
	Changes(ctx context.Context, baseRef, headRef string) ([]gitdiff.FileChange, error)
}

type Service struct {
	cfg    *config.Config
	source Source
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		cfg:    cfg,
		source: gitdiff.NewClient(cfg.Diff.RepoPath),
	}, nil
}

func NewService(cfg *config.Config, source Source) *Service {
	return &Service{cfg: cfg, source: source}
}

// Diff collects the change set between the configured refs.
func (s *Service) Diff(ctx context.Context) (*DiffSummary, error) {
	changes, err := s.source.Changes(ctx, s.cfg.Diff.BaseRef, s.cfg.Diff.HeadRef)
	if err != nil {
		return nil, fmt.Errorf("collect diff: %w", err)
	}

	summary := &DiffSummary{
		BaseRef: s.cfg.Diff.BaseRef,
		HeadRef: s.cfg.Diff.HeadRef,
	}
	for _, change := range changes {
		summary.Files = append(summary.Files, FileDiff{
			Path:      change.Path,
			Status:    change.Status,
			OldPath:   change.OldPath,
			Additions: change.Additions,
			Deletions: change.Deletions,
		})
		summary.TotalAdditions += change.Additions
		summary.TotalDeletions += change.Deletions
	}

	slog.Info("Diff collected",
		"files", len(summary.Files),
		"additions", summary.TotalAdditions,
		"deletions", summary.TotalDeletions)

	return summary, nil
}

// Impact maps changed files onto graph entities. Attribution is
// file-path based: an entity is impacted when one of its source
// properties matches a changed path, plus a one-hop spread over
// relations touching those entities.
func (s *Service) Impact(summary *DiffSummary, kg *graph.KnowledgeGraph) *ImpactReport {
	report := &ImpactReport{}

	index := fileIndex(kg)
	impacted := make(map[string]bool)

	for _, file := range summary.Files {
		entities := index[file.Path]
		if file.OldPath != "" {
			entities = append(entities, index[file.OldPath]...)
		}

		if len(entities) == 0 {
			if file.Status == "added" {
				report.EntityDeltas = append(report.EntityDeltas, EntityDelta{
					EntityID:   "new:" + file.Path,
					EntityName: file.Path,
					Kind:       DeltaAdd,
					FilePath:   file.Path,
					Reason:     fmt.Sprintf("New file %s has no KG entity yet", file.Path),
				})
			}
			continue
		}

		kind := DeltaUpdate
		switch file.Status {
		case "deleted":
			kind = DeltaRemove
		case "added":
			kind = DeltaAdd
		}

		for _, entity := range entities {
			if impacted[entity.ID] {
				continue
			}
			impacted[entity.ID] = true
			report.EntityDeltas = append(report.EntityDeltas, EntityDelta{
				EntityID:   entity.ID,
				EntityName: entity.Name,
				Kind:       kind,
				FilePath:   file.Path,
				Reason:     fmt.Sprintf("File %s was %s", file.Path, file.Status),
			})
		}
	}

	seenRelations := make(map[string]bool)
	for _, relation := range kg.Relations {
		if !impacted[relation.SourceID] && !impacted[relation.TargetID] {
			continue
		}
		if seenRelations[relation.Key()] {
			continue
		}
		seenRelations[relation.Key()] = true
		report.RelationDeltas = append(report.RelationDeltas, RelationDelta{
			SourceID: relation.SourceID,
			TargetID: relation.TargetID,
			Kind:     DeltaUpdate,
			Reason:   "Connected entity was modified",
		})
	}

	if report.TotalDeltas() > 0 {
		report.ImpactedFormats = AllFormats()
		report.Confidence = 0.9
	} else {
		report.Confidence = 0.5
	}

	slog.Info("Impact computed",
		"entity_deltas", len(report.EntityDeltas),
		"relation_deltas", len(report.RelationDeltas),
		"confidence", report.Confidence)

	return report
}

// Regenerate turns an impact report into the list of sections each
// format must rebuild. A report with no deltas is a no-op.
func (s *Service) Regenerate(report *ImpactReport) *RegenerationPlan {
	plan := &RegenerationPlan{CreatedAt: time.Now()}

	if report.TotalDeltas() == 0 {
		plan.Skipped = true
		plan.Reason = "No impacted entities"
		return plan
	}

	sections := make(map[string]bool)
	for _, delta := range report.EntityDeltas {
		sections[sectionForEntity(delta.EntityName)] = true
	}
	if len(report.RelationDeltas) > 0 {
		sections["architecture"] = true
	}

	var sorted []string
	for section := range sections {
		sorted = append(sorted, section)
	}
	sort.Strings(sorted)

	for _, format := range report.ImpactedFormats {
		plan.Targets = append(plan.Targets, RegenTarget{
			Format:   format,
			Sections: sorted,
		})
	}

	return plan
}

// BuildReleaseNotes derives Keep a Changelog entries from the change
// set and the impact report.
func (s *Service) BuildReleaseNotes(summary *DiffSummary, report *ImpactReport) *ReleaseNotes {
	notes := &ReleaseNotes{
		Version: s.cfg.Diff.Version,
		Date:    time.Now(),
	}
	if notes.Version == "" {
		notes.Version = "Unreleased"
	}

	removedEntities := make(map[string]bool)
	for _, delta := range report.EntityDeltas {
		if delta.Kind == DeltaRemove {
			removedEntities[delta.FilePath] = true
		}
	}

	for _, file := range summary.Files {
		notes.Notes = append(notes.Notes, classifyChange(file, removedEntities[file.Path]))
	}

	return notes
}

func classifyChange(file FileDiff, removedEntity bool) ReleaseNote {
	switch file.Status {
	case "added":
		return ReleaseNote{Category: NoteAdded, Text: fmt.Sprintf("Added %s", file.Path)}
	case "deleted":
		return ReleaseNote{
			Category: NoteRemoved,
			Text:     fmt.Sprintf("Removed %s", file.Path),
			Breaking: removedEntity,
		}
	case "renamed":
		return ReleaseNote{Category: NoteChanged, Text: fmt.Sprintf("Renamed %s to %s", file.OldPath, file.Path)}
	default:
		return ReleaseNote{Category: NoteChanged, Text: fmt.Sprintf("Changed %s", file.Path)}
	}
}

// fileIndex maps source file paths to the entities that reference
// them through their properties.
func fileIndex(kg *graph.KnowledgeGraph) map[string][]*graph.Entity {
	index := make(map[string][]*graph.Entity)
	for _, entity := range kg.Entities {
		for _, key := range []string{"source_file", "file_path", "path"} {
			value, ok := entity.Properties[key].(string)
			if !ok || value == "" {
				continue
			}
			index[value] = append(index[value], entity)
		}
	}
	return index
}

func sectionForEntity(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "deploy") || strings.Contains(lower, "infra"):
		return "deployment"
	case strings.Contains(lower, "api") || strings.Contains(lower, "endpoint"):
		return "api"
	case strings.Contains(lower, "model") || strings.Contains(lower, "pipeline"):
		return "pipelines"
	default:
		return "overview"
	}
}
