package graph

import (
	"strings"
	"testing"
)

func testGraph() *KnowledgeGraph {
	kg := &KnowledgeGraph{}
	kg.AddEntity(&Entity{ID: "api", Name: "API Gateway", Type: EntityComponent, Confidence: 0.9})
	kg.AddEntity(&Entity{ID: "db", Name: "Postgres", Type: EntityDatabase, Confidence: 0.8})
	kg.AddRelation(&Relation{SourceID: "api", TargetID: "db", Type: RelationStoresIn})
	return kg
}

func TestAddRelationDropsUnknownEndpoint(t *testing.T) {
	kg := testGraph()

	kg.AddRelation(&Relation{SourceID: "api", TargetID: "ghost", Type: RelationUses})
	kg.AddRelation(&Relation{SourceID: "ghost", TargetID: "db", Type: RelationUses})

	if len(kg.Relations) != 1 {
		t.Errorf("relations = %d, want 1 (unknown endpoints dropped)", len(kg.Relations))
	}
}

func TestAddRelationDedup(t *testing.T) {
	kg := testGraph()

	kg.AddRelation(&Relation{SourceID: "api", TargetID: "db", Type: RelationStoresIn})

	if len(kg.Relations) != 1 {
		t.Errorf("relations = %d, want 1 (duplicate key collapsed)", len(kg.Relations))
	}
}

func TestMergeIdempotent(t *testing.T) {
	kg := testGraph()
	other := testGraph()

	kg.Merge(other)
	entities, relations := len(kg.Entities), len(kg.Relations)

	kg.Merge(other)
	if len(kg.Entities) != entities || len(kg.Relations) != relations {
		t.Errorf("second merge changed counts: %d/%d -> %d/%d",
			entities, relations, len(kg.Entities), len(kg.Relations))
	}
	if len(kg.Entities) != 2 || len(kg.Relations) != 1 {
		t.Errorf("merged counts = %d/%d, want 2/1", len(kg.Entities), len(kg.Relations))
	}
}

func TestNeighbors(t *testing.T) {
	kg := testGraph()

	neighbors := kg.Neighbors("api")
	if len(neighbors) != 1 || neighbors[0].ID != "db" {
		t.Fatalf("neighbors of api = %v, want [db]", neighbors)
	}

	neighbors = kg.Neighbors("db")
	if len(neighbors) != 1 || neighbors[0].ID != "api" {
		t.Fatalf("neighbors of db = %v, want [api]", neighbors)
	}
}

func TestToMermaid(t *testing.T) {
	kg := testGraph()

	diagram := kg.ToMermaid(10)
	if !strings.HasPrefix(diagram, "graph LR") {
		t.Errorf("diagram does not start with graph LR: %q", diagram)
	}
	for _, want := range []string{"API Gateway", "Postgres", "stores in"} {
		if !strings.Contains(diagram, want) {
			t.Errorf("diagram missing %q:\n%s", want, diagram)
		}
	}
}

func TestToMermaidTruncates(t *testing.T) {
	kg := &KnowledgeGraph{}
	kg.AddEntity(&Entity{ID: "low", Name: "Low", Type: EntityComponent, Confidence: 0.1})
	kg.AddEntity(&Entity{ID: "high", Name: "High", Type: EntityComponent, Confidence: 0.9})

	diagram := kg.ToMermaid(1)
	if !strings.Contains(diagram, "High") {
		t.Error("truncation dropped the high-confidence entity")
	}
	if strings.Contains(diagram, "Low") {
		t.Error("truncation kept the low-confidence entity")
	}
}
