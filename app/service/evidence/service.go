package evidence

import (
	"sort"
	"sync"

	"github.com/samber/do"
)

// Service is the run-scoped evidence registry. It is owned by the
// orchestrator instance that created it and discarded at run end.
// Registered pointers and claims are never mutated afterwards.
type Service struct {
	mu       sync.RWMutex
	pointers map[string]*Pointer
	claims   []*Claim
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		pointers: make(map[string]*Pointer),
	}, nil
}

// RegisterPointer stores a pointer keyed by id and returns the id.
// Registering the same id twice is a no-op.
func (s *Service) RegisterPointer(pointer *Pointer) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pointers[pointer.ID]; !ok {
		s.pointers[pointer.ID] = pointer
	}

	return pointer.ID
}

// RegisterClaim appends a claim, deciding the assumption flag from
// whether any evidence ids are attached at call time.
func (s *Service) RegisterClaim(claim *Claim) {
	claim.IsAssumption = len(claim.EvidenceIDs) == 0

	s.mu.Lock()
	defer s.mu.Unlock()

	s.claims = append(s.claims, claim)
}

func (s *Service) Pointer(id string) *Pointer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pointers[id]
}

func (s *Service) ClaimsForArtifact(artifactID string) []*Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Claim
	for _, c := range s.claims {
		if c.ArtifactID == artifactID {
			result = append(result, c)
		}
	}
	return result
}

func (s *Service) AllClaims() []*Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*Claim(nil), s.claims...)
}

func (s *Service) AllPointers() []*Pointer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Pointer, 0, len(s.pointers))
	for _, p := range s.pointers {
		result = append(result, p)
	}
	return result
}

// ComputeCoverage scores one artifact from the claims registered so far.
// It is a pure read: a fresh Coverage is returned every time and an
// artifact without claims scores 100% with zero counts.
func (s *Service) ComputeCoverage(artifactID string) *Coverage {
	claims := s.ClaimsForArtifact(artifactID)
	if len(claims) == 0 {
		return &Coverage{ArtifactID: artifactID}
	}

	coverage := &Coverage{
		ArtifactID:    artifactID,
		TotalClaims:   len(claims),
		ConfidenceMin: claims[0].Confidence,
	}

	evidenceIDs := make(map[string]bool)
	confidenceSum := 0.0

	for _, c := range claims {
		confidenceSum += c.Confidence
		if c.Confidence < coverage.ConfidenceMin {
			coverage.ConfidenceMin = c.Confidence
		}

		if c.IsAssumption {
			coverage.AssumptionCount++
			coverage.Assumptions = append(coverage.Assumptions, c.Text)
			continue
		}

		coverage.BackedClaims++
		for _, id := range c.EvidenceIDs {
			evidenceIDs[id] = true
		}
	}

	coverage.ConfidenceMean = confidenceSum / float64(len(claims))
	for id := range evidenceIDs {
		coverage.EvidenceIDs = append(coverage.EvidenceIDs, id)
	}
	sort.Strings(coverage.EvidenceIDs)

	return coverage
}

// ComputeAllCoverage scores every artifact seen across claims, in sorted
// artifact-id order for determinism.
func (s *Service) ComputeAllCoverage() []*Coverage {
	s.mu.RLock()
	seen := make(map[string]bool)
	for _, c := range s.claims {
		seen[c.ArtifactID] = true
	}
	s.mu.RUnlock()

	artifactIDs := make([]string, 0, len(seen))
	for id := range seen {
		artifactIDs = append(artifactIDs, id)
	}
	sort.Strings(artifactIDs)

	result := make([]*Coverage, 0, len(artifactIDs))
	for _, id := range artifactIDs {
		result = append(result, s.ComputeCoverage(id))
	}
	return result
}
