// Package memory provides an in-memory FactStore implementation. It backs
// unit tests and the CLI demo fixture; production deployments use the
// Neo4j-backed store instead.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// Store is a FactStore backed by plain maps. Writes happen during fixture
// setup; reads are safe to run concurrently afterwards.
type Store struct {
	mu sync.RWMutex

	entities  map[string]entity.Entity
	neighbors map[string][]entity.Hop

	filingsByID  map[string]entity.Filing
	filingsByAcc map[string]entity.Filing
	filings      map[string][]entity.Filing
	transactions map[string][]entity.InsiderTransaction
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entities:     make(map[string]entity.Entity),
		neighbors:    make(map[string][]entity.Hop),
		filingsByID:  make(map[string]entity.Filing),
		filingsByAcc: make(map[string]entity.Filing),
		filings:      make(map[string][]entity.Filing),
		transactions: make(map[string][]entity.InsiderTransaction),
	}
}

// AddEntity registers a node.
func (s *Store) AddEntity(e entity.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
}

// AddRelationship registers an edge on both endpoints. Direction is
// normalized at insert, and malformed relationships are degraded rather
// than rejected, mirroring the read-time behavior of the production store.
func (s *Store) AddRelationship(rel entity.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel = graph.NormalizeRelationship(rel, func(id string) entity.Kind {
		return s.entities[id].Kind
	})
	rel.Citation.Normalize()
	if err := rel.Validate(); err != nil {
		rel.Degrade()
	}

	s.neighbors[rel.From] = append(s.neighbors[rel.From],
		entity.Hop{Rel: rel, OtherID: rel.To})
	s.neighbors[rel.To] = append(s.neighbors[rel.To],
		entity.Hop{Rel: rel, OtherID: rel.From, Reversed: true})
}

// AddFiling registers a filing and indexes it by id, accession number, and
// company.
func (s *Store) AddFiling(f entity.Filing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filingsByID[f.ID] = f
	if f.AccessionNumber != "" {
		s.filingsByAcc[f.AccessionNumber] = f
	}
	if f.CompanyID != "" {
		s.filings[f.CompanyID] = append(s.filings[f.CompanyID], f)
	}
}

// AddTransaction registers an insider transaction under its issuer.
func (s *Store) AddTransaction(tx entity.InsiderTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.IssuerID] = append(s.transactions[tx.IssuerID], tx)
}

// Entity implements graph.FactStore.
func (s *Store) Entity(ctx context.Context, id string) (entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return entity.Entity{}, errors.StoreUnavailable(err, "context canceled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return entity.Entity{}, errors.Newf(errors.ErrCodeEntityNotFound, "entity %s not found", id)
	}
	return e, nil
}

// Neighbors implements graph.FactStore. Hops are returned in a stable
// order so repeated searches over an unchanged graph behave identically.
func (s *Store) Neighbors(ctx context.Context, id string) ([]entity.Hop, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.StoreUnavailable(err, "context canceled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities[id]; !ok {
		return nil, errors.Newf(errors.ErrCodeEntityNotFound, "entity %s not found", id)
	}
	hops := make([]entity.Hop, len(s.neighbors[id]))
	copy(hops, s.neighbors[id])
	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].OtherID != hops[j].OtherID {
			return hops[i].OtherID < hops[j].OtherID
		}
		return hops[i].Rel.Kind < hops[j].Rel.Kind
	})
	return hops, nil
}

// Filing implements graph.FactStore, resolving by accession number first
// and falling back to the internal id.
func (s *Store) Filing(ctx context.Context, accessionOrID string) (entity.Filing, error) {
	if err := ctx.Err(); err != nil {
		return entity.Filing{}, errors.StoreUnavailable(err, "context canceled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.filingsByAcc[accessionOrID]; ok {
		return f, nil
	}
	if f, ok := s.filingsByID[accessionOrID]; ok {
		return f, nil
	}
	return entity.Filing{}, errors.Newf(errors.ErrCodeFilingNotFound, "filing %s not found", accessionOrID)
}

// FilingsFor implements graph.FactStore, newest first.
func (s *Store) FilingsFor(ctx context.Context, companyID string, since time.Time) ([]entity.Filing, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.StoreUnavailable(err, "context canceled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.Filing
	for _, f := range s.filings[companyID] {
		if !f.FilingDate.Before(since) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FilingDate.After(out[j].FilingDate)
	})
	return out, nil
}

// TransactionsFor implements graph.FactStore, newest first.
func (s *Store) TransactionsFor(ctx context.Context, companyID string, since time.Time) ([]entity.InsiderTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.StoreUnavailable(err, "context canceled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.InsiderTransaction
	for _, tx := range s.transactions[companyID] {
		if !tx.Date.Before(since) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

var _ graph.FactStore = (*Store)(nil)
