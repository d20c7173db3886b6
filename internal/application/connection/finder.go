// Package connection implements the bounded shortest-path search between
// two entities, with a source-cited evidence chain for every hop.
package connection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/evidence"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// Claim is the analyst-facing result of a connection search.
type Claim struct {
	EntityAID      string             `json:"entity_a_id"`
	EntityAName    string             `json:"entity_a_name"`
	EntityBID      string             `json:"entity_b_id"`
	EntityBName    string             `json:"entity_b_name"`
	ConnectionType string             `json:"connection_type"`
	Claim          string             `json:"claim"`
	ClaimType      evidence.ClaimType `json:"claim_type"`
	EvidenceChain  evidence.Chain     `json:"evidence_chain"`
	PathLength     int                `json:"path_length"`
}

// SharedConnection is a first-degree neighbor common to both entities.
type SharedConnection struct {
	Entity    entity.Entity  `json:"entity"`
	KindToA   entity.RelKind `json:"kind_to_a"`
	KindToB   entity.RelKind `json:"kind_to_b"`
	ConfToA   float64        `json:"confidence_to_a"`
	ConfToB   float64        `json:"confidence_to_b"`
}

// Cache is the subset of the cache API the finder uses; satisfied by the
// redis cache. A nil Cache disables caching.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

// Finder runs bounded breadth-first searches over the fact graph.
type Finder struct {
	store      graph.FactStore
	cache      Cache
	logger     logging.Logger
	defaultMax int
	ceiling    int
	cacheTTL   time.Duration
}

// Option configures a Finder.
type Option func(*Finder)

// WithCache enables read-through caching of connection claims.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(f *Finder) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithBounds overrides the default and ceiling hop limits.
func WithBounds(defaultMax, ceiling int) Option {
	return func(f *Finder) {
		f.defaultMax = defaultMax
		f.ceiling = ceiling
	}
}

// NewFinder constructs a Finder. logger may be nil, in which case the
// process default is used.
func NewFinder(store graph.FactStore, logger logging.Logger, opts ...Option) *Finder {
	if logger == nil {
		logger = logging.Default()
	}
	f := &Finder{
		store:      store,
		logger:     logger.Named("connection"),
		defaultMax: 4,
		ceiling:    6,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the shortest documented path between two entities within
// maxHops. maxHops <= 0 selects the configured default; requests above the
// hard ceiling are rejected. A search that exhausts the bound returns
// ErrCodeNoConnectionFound; context expiry returns ErrCodeBoundExceeded.
func (f *Finder) Find(ctx context.Context, aID, bID string, maxHops int) (Claim, error) {
	if aID == bID {
		return Claim{}, errors.Newf(errors.ErrCodeSelfLookup,
			"connection lookup requires two distinct entities, got %s twice", aID)
	}
	if maxHops <= 0 {
		maxHops = f.defaultMax
	}
	if maxHops > f.ceiling {
		return Claim{}, errors.Newf(errors.CodeInvalidParam,
			"max_hops %d exceeds ceiling %d", maxHops, f.ceiling)
	}

	if f.cache == nil {
		return f.find(ctx, aID, bID, maxHops)
	}

	var cached Claim
	key := fmt.Sprintf("conn:v1:%s:%s:%d", aID, bID, maxHops)
	err := f.cache.GetOrSet(ctx, key, &cached, f.cacheTTL,
		func(ctx context.Context) (interface{}, error) {
			claim, err := f.find(ctx, aID, bID, maxHops)
			if err != nil {
				return nil, err
			}
			return claim, nil
		})
	if err != nil {
		return Claim{}, err
	}
	return cached, nil
}

func (f *Finder) find(ctx context.Context, aID, bID string, maxHops int) (Claim, error) {
	started := time.Now()

	a, err := f.store.Entity(ctx, aID)
	if err != nil {
		return Claim{}, err
	}
	b, err := f.store.Entity(ctx, bID)
	if err != nil {
		return Claim{}, err
	}

	hops, err := f.search(ctx, aID, bID, maxHops)
	if err != nil {
		return Claim{}, err
	}
	if hops == nil {
		// Expected outcome, not an operational failure.
		f.logger.Debug("no connection within bound",
			logging.String("entity_a", aID),
			logging.String("entity_b", bID),
			logging.Int("max_hops", maxHops))
		return Claim{}, errors.Newf(errors.ErrCodeNoConnectionFound,
			"no connection between %s and %s within %d hops", aID, bID, maxHops)
	}

	path, err := f.resolvePath(ctx, aID, hops)
	if err != nil {
		return Claim{}, err
	}
	chain := evidence.BuildChain(path)

	claim := Claim{
		EntityAID:      aID,
		EntityAName:    a.DisplayName(),
		EntityBID:      bID,
		EntityBName:    b.DisplayName(),
		ConnectionType: classifyPath(hops),
		ClaimType:      connectionClaimType(chain),
		EvidenceChain:  chain,
		PathLength:     len(hops),
	}
	claim.Claim = synthesizeClaim(claim, path)

	f.logger.Debug("connection found",
		logging.String("entity_a", aID),
		logging.String("entity_b", bID),
		logging.Int("path_length", claim.PathLength),
		logging.Duration("elapsed", time.Since(started)))
	return claim, nil
}

// candidate is the best-known shortest path to a node, compared by
// (highest minimum confidence, then lexicographically smallest id
// sequence, then smallest edge fingerprint) for full determinism.
type candidate struct {
	prev    string
	hop     entity.Hop
	minConf float64
	idsKey  string
	edgeKey string
}

func better(a, b candidate) bool {
	if a.minConf != b.minConf {
		return a.minConf > b.minConf
	}
	if a.idsKey != b.idsKey {
		return a.idsKey < b.idsKey
	}
	return a.edgeKey < b.edgeKey
}

// search runs a level-synchronous BFS from aID and returns the hop list of
// the best shortest path to bID, or nil when bID is unreachable within
// maxHops. The graph is treated as undirected; a visited set keeps the
// traversal cycle-safe.
func (f *Finder) search(ctx context.Context, aID, bID string, maxHops int) ([]entity.Hop, error) {
	best := map[string]candidate{aID: {minConf: 1.0}}
	depth := map[string]int{aID: 0}
	frontier := []string{aID}

	for level := 1; level <= maxHops && len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.BoundExceeded("connection search canceled before exhausting hop budget").WithCause(err)
		}

		next := make(map[string]candidate)
		for _, nodeID := range frontier {
			neighbors, err := f.store.Neighbors(ctx, nodeID)
			if err != nil {
				return nil, err
			}
			base := best[nodeID]
			for _, hop := range neighbors {
				otherID := hop.OtherID
				if d, seen := depth[otherID]; seen && d < level {
					continue
				}
				cand := candidate{
					prev:    nodeID,
					hop:     hop,
					minConf: min(base.minConf, hop.Rel.Citation.Confidence),
					idsKey:  base.idsKey + "/" + nodeID,
					edgeKey: base.edgeKey + "/" + string(hop.Rel.Kind) + ":" + hop.Rel.Citation.FilingID,
				}
				if existing, ok := next[otherID]; !ok || better(cand, existing) {
					next[otherID] = cand
				}
			}
		}

		if cand, ok := next[bID]; ok {
			best[bID] = cand
			depth[bID] = level
			return reconstruct(best, aID, bID), nil
		}

		frontier = frontier[:0]
		for id, cand := range next {
			if _, seen := depth[id]; seen {
				continue
			}
			best[id] = cand
			depth[id] = level
			frontier = append(frontier, id)
		}
		// Sorted frontier keeps candidate generation order deterministic.
		sort.Strings(frontier)
	}
	return nil, nil
}

func reconstruct(best map[string]candidate, aID, bID string) []entity.Hop {
	var rev []entity.Hop
	for id := bID; id != aID; id = best[id].prev {
		rev = append(rev, best[id].hop)
	}
	hops := make([]entity.Hop, len(rev))
	for i := range rev {
		hops[i] = rev[len(rev)-1-i]
	}
	return hops
}

// resolvePath joins hops with their endpoint entities for evidence
// rendering.
func (f *Finder) resolvePath(ctx context.Context, startID string, hops []entity.Hop) ([]evidence.PathStep, error) {
	steps := make([]evidence.PathStep, 0, len(hops))
	fromID := startID
	for _, hop := range hops {
		from, err := f.store.Entity(ctx, fromID)
		if err != nil {
			return nil, err
		}
		to, err := f.store.Entity(ctx, hop.OtherID)
		if err != nil {
			return nil, err
		}
		steps = append(steps, evidence.PathStep{From: from, To: to, Hop: hop})
		fromID = hop.OtherID
	}
	return steps, nil
}

// Connection type per dominant relationship kind along the path.
const (
	TypeOwnership    = "ownership"
	TypeDirectorship = "directorship"
	TypeExecutive    = "executive"
	TypeAddress      = "address"
	TypeJurisdiction = "jurisdiction"
	TypeIndirect     = "indirect"
)

func categoryOf(kind entity.RelKind) string {
	switch kind {
	case entity.RelOwns, entity.RelSubsidiaryOf:
		return TypeOwnership
	case entity.RelDirectorOf:
		return TypeDirectorship
	case entity.RelOfficerOf:
		return TypeExecutive
	case entity.RelRegisteredAt:
		return TypeAddress
	case entity.RelIncorporatedIn:
		return TypeJurisdiction
	}
	return TypeIndirect
}

// classifyPath derives the connection type from the dominant relationship
// kind. A path mixing kinds with no strict majority classifies as
// indirect.
func classifyPath(hops []entity.Hop) string {
	counts := make(map[string]int)
	for _, hop := range hops {
		counts[categoryOf(hop.Rel.Kind)]++
	}

	bestType, bestCount, tied := TypeIndirect, 0, false
	for _, cat := range []string{TypeOwnership, TypeDirectorship, TypeExecutive, TypeAddress, TypeJurisdiction} {
		switch {
		case counts[cat] > bestCount:
			bestType, bestCount, tied = cat, counts[cat], false
		case counts[cat] == bestCount && counts[cat] > 0:
			tied = true
		}
	}
	if bestCount == 0 || tied {
		return TypeIndirect
	}
	return bestType
}

// connectionClaimType grades the whole claim: a single sourced hop is a
// direct claim, a multi-hop synthesis is computed, and any chain resting
// on an inferred step is itself inferred.
func connectionClaimType(chain evidence.Chain) evidence.ClaimType {
	for _, s := range chain.Steps {
		if s.ClaimType == evidence.ClaimInferred {
			return evidence.ClaimInferred
		}
	}
	if len(chain.Steps) == 1 {
		return chain.Steps[0].ClaimType
	}
	return evidence.ClaimComputed
}

// synthesizeClaim renders the one-sentence summary of the whole chain.
func synthesizeClaim(c Claim, path []evidence.PathStep) string {
	if len(path) == 1 {
		return evidence.FactStatement(path[0])
	}
	intermediates := make([]string, 0, len(path)-1)
	for _, ps := range path[:len(path)-1] {
		intermediates = append(intermediates, ps.To.DisplayName())
	}
	return fmt.Sprintf("%s is connected to %s through %s (%d documented hops, %s connection)",
		c.EntityAName, c.EntityBName, strings.Join(intermediates, " and "),
		c.PathLength, c.ConnectionType)
}

// SharedConnections returns the first-degree neighbors both entities have
// in common, the simplest form of relationship overlap.
func (f *Finder) SharedConnections(ctx context.Context, aID, bID string) ([]SharedConnection, error) {
	if aID == bID {
		return nil, errors.Newf(errors.ErrCodeSelfLookup,
			"shared-connection lookup requires two distinct entities, got %s twice", aID)
	}
	aHops, err := f.store.Neighbors(ctx, aID)
	if err != nil {
		return nil, err
	}
	bHops, err := f.store.Neighbors(ctx, bID)
	if err != nil {
		return nil, err
	}

	toB := make(map[string]entity.Hop, len(bHops))
	for _, hop := range bHops {
		toB[hop.OtherID] = hop
	}

	var shared []SharedConnection
	seen := make(map[string]bool)
	for _, hopA := range aHops {
		hopB, ok := toB[hopA.OtherID]
		if !ok || seen[hopA.OtherID] || hopA.OtherID == bID {
			continue
		}
		seen[hopA.OtherID] = true
		e, err := f.store.Entity(ctx, hopA.OtherID)
		if err != nil {
			return nil, err
		}
		shared = append(shared, SharedConnection{
			Entity:  e,
			KindToA: hopA.Rel.Kind,
			KindToB: hopB.Rel.Kind,
			ConfToA: hopA.Rel.Citation.Confidence,
			ConfToB: hopB.Rel.Citation.Confidence,
		})
	}
	return shared, nil
}
