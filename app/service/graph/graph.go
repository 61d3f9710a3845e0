package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// KnowledgeGraph is the semantic graph describing a repository's
// architecture. Entity ids are unique, relation uniqueness is keyed by
// (source, type, target), and relation endpoints must reference stored
// entities.
type KnowledgeGraph struct {
	Entities  []*Entity  `json:"entities"`
	Relations []*Relation `json:"relations"`
	Summary   string      `json:"summary,omitempty"`
}

func (g *KnowledgeGraph) Get(entityID string) *Entity {
	for _, e := range g.Entities {
		if e.ID == entityID {
			return e
		}
	}
	return nil
}

func (g *KnowledgeGraph) OfType(entityType EntityType) []*Entity {
	var result []*Entity
	for _, e := range g.Entities {
		if e.Type == entityType {
			result = append(result, e)
		}
	}
	return result
}

func (g *KnowledgeGraph) RelationsFrom(entityID string) []*Relation {
	var result []*Relation
	for _, r := range g.Relations {
		if r.SourceID == entityID {
			result = append(result, r)
		}
	}
	return result
}

func (g *KnowledgeGraph) RelationsTo(entityID string) []*Relation {
	var result []*Relation
	for _, r := range g.Relations {
		if r.TargetID == entityID {
			result = append(result, r)
		}
	}
	return result
}

func (g *KnowledgeGraph) Neighbors(entityID string) []*Entity {
	connected := make(map[string]bool)
	for _, r := range g.Relations {
		if r.SourceID == entityID {
			connected[r.TargetID] = true
		} else if r.TargetID == entityID {
			connected[r.SourceID] = true
		}
	}

	var result []*Entity
	for _, e := range g.Entities {
		if connected[e.ID] {
			result = append(result, e)
		}
	}
	return result
}

// AddEntity stores the entity unless one with the same id already exists.
func (g *KnowledgeGraph) AddEntity(entity *Entity) {
	for _, e := range g.Entities {
		if e.ID == entity.ID {
			return
		}
	}

	g.Entities = append(g.Entities, entity)
}

// AddRelation stores the relation unless it duplicates an existing
// (source, type, target) key. Relations referencing unknown entity ids
// are dropped with a warning instead of being stored.
func (g *KnowledgeGraph) AddRelation(relation *Relation) {
	if g.Get(relation.SourceID) == nil || g.Get(relation.TargetID) == nil {
		slog.Warn("Dropping relation with unknown endpoint",
			"source", relation.SourceID,
			"target", relation.TargetID,
			"type", relation.Type)
		return
	}

	for _, r := range g.Relations {
		if r.Key() == relation.Key() {
			return
		}
	}

	g.Relations = append(g.Relations, relation)
}

// Merge folds another graph into this one. Applying the same merge twice
// changes nothing.
func (g *KnowledgeGraph) Merge(other *KnowledgeGraph) {
	for _, e := range other.Entities {
		g.AddEntity(e)
	}
	for _, r := range other.Relations {
		g.AddRelation(r)
	}
}

// ToMermaid renders the graph as an architecture-style mermaid diagram,
// grouping entities by type into subgraphs. maxEntities > 0 keeps only
// the highest-confidence entities.
func (g *KnowledgeGraph) ToMermaid(maxEntities int) string {
	entities := g.Entities
	if maxEntities > 0 && len(entities) > maxEntities {
		entities = append([]*Entity(nil), entities...)
		sort.SliceStable(entities, func(i, j int) bool {
			return entities[i].Confidence > entities[j].Confidence
		})
		entities = entities[:maxEntities]
	}

	validIDs := make(map[string]bool, len(entities))
	for _, e := range entities {
		validIDs[e.ID] = true
	}

	groups := make(map[EntityType][]*Entity)
	for _, e := range entities {
		groups[e.Type] = append(groups[e.Type], e)
	}

	lines := []string{"graph LR"}

	appendGroup := func(entityType EntityType, ents []*Entity) {
		label := typeLabel(entityType)
		lines = append(lines, fmt.Sprintf("    subgraph %s[%q]", strings.ReplaceAll(label, " ", "_"), label))
		// cap per group for readability
		if len(ents) > 8 {
			ents = ents[:8]
		}
		for _, e := range ents {
			lines = append(lines, fmt.Sprintf("        %s[%q]", mermaidID(e.ID), strings.ReplaceAll(e.Name, `"`, "'")))
		}
		lines = append(lines, "    end")
	}

	for _, entityType := range entityTypeOrder {
		ents := groups[entityType]
		if len(ents) == 0 {
			continue
		}
		appendGroup(entityType, ents)
		delete(groups, entityType)
	}

	var leftover []EntityType
	for entityType := range groups {
		leftover = append(leftover, entityType)
	}
	sort.Slice(leftover, func(i, j int) bool { return leftover[i] < leftover[j] })
	for _, entityType := range leftover {
		appendGroup(entityType, groups[entityType])
	}

	seenEdges := make(map[string]bool)
	for _, r := range g.Relations {
		if !validIDs[r.SourceID] || !validIDs[r.TargetID] {
			continue
		}

		src := mermaidID(r.SourceID)
		tgt := mermaidID(r.TargetID)
		edgeKey := src + "->" + tgt
		if seenEdges[edgeKey] {
			continue
		}
		seenEdges[edgeKey] = true

		label := strings.ReplaceAll(string(r.Type), "_", " ")
		lines = append(lines, fmt.Sprintf("    %s -->|%s| %s", src, label, tgt))
	}

	return strings.Join(lines, "\n")
}

// Stats counts entities and relations by type and extraction method.
func (g *KnowledgeGraph) Stats() map[string]int {
	stats := map[string]int{
		"total_entities":  len(g.Entities),
		"total_relations": len(g.Relations),
	}

	for _, e := range g.Entities {
		stats["entities_"+string(e.Type)]++
		if e.ExtractionMethod == ExtractionLLM {
			stats["llm_entities"]++
		} else {
			stats["deterministic_entities"]++
		}
	}

	return stats
}

func mermaidID(id string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(id)
}

func typeLabel(entityType EntityType) string {
	words := strings.Split(string(entityType), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
