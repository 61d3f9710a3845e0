// Package graph holds the typed knowledge graph extracted from a
// repository. It sits between the extraction stage and the agents:
// every other component consumes it read-only.
package graph

import "fmt"

type EntityType string

const (
	EntityProject       EntityType = "project"
	EntityComponent     EntityType = "component"
	EntityTechnology    EntityType = "technology"
	EntityProtocol      EntityType = "protocol"
	EntityLanguage      EntityType = "language"
	EntityFramework     EntityType = "framework"
	EntityDatabase      EntityType = "database"
	EntityCloudService  EntityType = "cloud_service"
	EntityAPIEndpoint   EntityType = "api_endpoint"
	EntityMetric        EntityType = "metric"
	EntityConfiguration EntityType = "configuration"
	EntityPrerequisite  EntityType = "prerequisite"
	EntityHardware      EntityType = "hardware"
	EntityPersonOrg     EntityType = "person_org"
	EntityLicense       EntityType = "license"
	EntityFeature       EntityType = "feature"
	EntityPlatform      EntityType = "platform"
)

var entityTypeOrder = []EntityType{
	EntityProject, EntityComponent, EntityFeature, EntityFramework,
	EntityTechnology, EntityLanguage, EntityCloudService, EntityPlatform,
	EntityDatabase, EntityAPIEndpoint, EntityProtocol, EntityConfiguration,
	EntityMetric, EntityHardware, EntityPersonOrg, EntityLicense,
	EntityPrerequisite,
}

type RelationType string

const (
	RelationUses           RelationType = "uses"
	RelationConnectsTo     RelationType = "connects_to"
	RelationExposes        RelationType = "exposes"
	RelationRequires       RelationType = "requires"
	RelationStoresIn       RelationType = "stores_in"
	RelationCommunicates   RelationType = "communicates_via"
	RelationDependsOn      RelationType = "depends_on"
	RelationRunsOn         RelationType = "runs_on"
	RelationLicensedUnder  RelationType = "licensed_under"
	RelationProvides       RelationType = "provides"
	RelationMeasures       RelationType = "measures"
	RelationConfiguredBy   RelationType = "configured_by"
	RelationIntegratesWith RelationType = "integrates_with"
	RelationPartOf         RelationType = "part_of"
)

const (
	ExtractionDeterministic = "deterministic"
	ExtractionLLM           = "llm"
)

// Entity is a semantic entity extracted from the repository.
type Entity struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Type             EntityType     `json:"entity_type"`
	Properties       map[string]any `json:"properties,omitempty"`
	SourceSection    string         `json:"source_section,omitempty"`
	SourceText       string         `json:"source_text,omitempty"`
	Confidence       float64        `json:"confidence"`
	ExtractionMethod string         `json:"extraction_method,omitempty"`
}

// Relation is a directed relationship between two entities.
type Relation struct {
	SourceID         string         `json:"source_id"`
	TargetID         string         `json:"target_id"`
	Type             RelationType   `json:"relation_type"`
	Properties       map[string]any `json:"properties,omitempty"`
	Confidence       float64        `json:"confidence"`
	ExtractionMethod string         `json:"extraction_method,omitempty"`
}

// Key uniquely identifies a relation by (source, type, target).
func (r *Relation) Key() string {
	return fmt.Sprintf("%s--%s-->%s", r.SourceID, r.Type, r.TargetID)
}
