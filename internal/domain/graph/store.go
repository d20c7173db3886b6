// Package graph defines the fact-store port: the read-only query surface
// the analysis services are built against. Implementations live under
// internal/infrastructure/database (Neo4j for production, an in-memory
// store for tests and the CLI demo fixture).
package graph

import (
	"context"
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

// FactStore is the typed read access to the property graph. All queries
// are side-effect free; traversal depth is always bounded by the caller,
// never by the store.
//
// Error contract: ErrCodeEntityNotFound / ErrCodeFilingNotFound when an id
// does not resolve, ErrCodeStoreUnavailable for transport failures. Both
// are propagated as-is; implementations may retry transport failures a
// small, fixed number of times, but never logical outcomes.
type FactStore interface {
	// Entity resolves a single entity by id.
	Entity(ctx context.Context, id string) (entity.Entity, error)

	// Neighbors returns every relationship incident to the entity, each
	// paired with the id on the far side. Direction is normalized toward
	// the company/issuer side before return; Hop.Reversed records when
	// the stored edge ran the other way.
	Neighbors(ctx context.Context, id string) ([]entity.Hop, error)

	// Filing resolves a filing by accession number or internal id.
	Filing(ctx context.Context, accessionOrID string) (entity.Filing, error)

	// FilingsFor lists a company's filings on or after since, newest first.
	FilingsFor(ctx context.Context, companyID string, since time.Time) ([]entity.Filing, error)

	// TransactionsFor lists a company's insider transactions on or after
	// since, newest first.
	TransactionsFor(ctx context.Context, companyID string, since time.Time) ([]entity.InsiderTransaction, error)
}
