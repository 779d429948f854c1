package fact

import (
	"context"
	"fmt"
)

// Service is the caller-facing facade over the fact engine: the seven
// operations the rest of the application consumes, and nothing else.
// Constructed once at startup and passed to callers — no globals.
type Service struct {
	store    *Store
	resolver *Resolver
	engine   *Engine
}

// NewService wires the facade.
func NewService(store *Store, resolver *Resolver, engine *Engine) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	return &Service{store: store, resolver: resolver, engine: engine}, nil
}

// Resolve ingests a candidate: create, or supersede via the extractor's
// hint.
func (s *Service) Resolve(ctx context.Context, c Candidate) (*Fact, error) {
	return s.resolver.Resolve(ctx, c)
}

// Supersede replaces the active fact oldID with the candidate,
// regardless of any hint the candidate carries.
func (s *Service) Supersede(ctx context.Context, oldID int64, c Candidate) (*Fact, *Fact, error) {
	return s.store.Supersede(ctx, oldID, c.fact())
}

// Verify records a review decision on an active fact.
func (s *Service) Verify(ctx context.Context, id, verifierID int64, decision VerificationStatus) (*Fact, error) {
	return s.store.Verify(ctx, id, verifierID, decision)
}

// Get returns a single fact by id.
func (s *Service) Get(ctx context.Context, id int64) (*Fact, error) {
	return s.store.Get(ctx, id)
}

// Lineage returns the full version history of a lineage, oldest first.
func (s *Service) Lineage(ctx context.Context, lineageID int64) ([]*Fact, error) {
	return s.store.Lineage(ctx, lineageID)
}

// Search returns ranked facts for a free-text query and filter set.
func (s *Service) Search(ctx context.Context, query string, filter Filter, limit int) ([]SearchResult, error) {
	return s.engine.Search(ctx, query, filter, limit)
}

// FindSimilar returns facts similar to the given one.
func (s *Service) FindSimilar(ctx context.Context, factID int64, limit int) ([]SearchResult, error) {
	return s.engine.FindSimilar(ctx, factID, limit)
}

// ActionableFacts returns active facts requiring action, most urgent first.
func (s *Service) ActionableFacts(ctx context.Context, projectID *int64, limit int) ([]*Fact, error) {
	return s.store.ActionableFacts(ctx, projectID, limit)
}

// UnverifiedFinancialFacts returns the financial review queue.
func (s *Service) UnverifiedFinancialFacts(ctx context.Context, projectID *int64, minAmount float64, limit int) ([]*Fact, error) {
	return s.store.UnverifiedFinancialFacts(ctx, projectID, minAmount, limit)
}
