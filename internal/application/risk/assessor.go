// Package risk aggregates weighted, evidence-backed risk factors for a
// single entity: sanctions and PEP exposure, circular ownership, secrecy
// jurisdictions, mass-registration addresses, conflicts of interest,
// nominee directors and long ownership chains.
package risk

import (
	"context"
	"sort"
	"time"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/evidence"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// Level is the four-band risk classification of an aggregate score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Factor is one triggered risk rule with its contribution to the score.
type Factor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Weight      int                `json:"weight"`
	SourceType  evidence.ClaimType `json:"source_type"`
	Confidence  float64            `json:"confidence"`
	Citation    *entity.Citation   `json:"citation,omitempty"`
}

// Assessment is the aggregate risk view of an entity. Score is the plain
// sum of factor weights, unbounded; higher is strictly worse.
type Assessment struct {
	EntityID      string         `json:"entity_id"`
	EntityName    string         `json:"entity_name"`
	RiskScore     int            `json:"risk_score"`
	RiskLevel     Level          `json:"risk_level"`
	Factors       []Factor       `json:"factors"`
	EvidenceChain evidence.Chain `json:"evidence_chain"`
	AssessedAt    time.Time      `json:"assessed_at"`
}

// Cache is the read-through cache subset the assessor uses; satisfied by
// the redis cache. A nil Cache disables caching.
type Cache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

// Assessor runs the detector rules and folds their factors into an
// Assessment. It is stateless and safe for concurrent use.
type Assessor struct {
	store  graph.FactStore
	cache  Cache
	logger logging.Logger
	cfg    config.EngineConfig
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithCache enables read-through caching of assessments.
func WithCache(c Cache) Option {
	return func(a *Assessor) { a.cache = c }
}

// NewAssessor constructs an Assessor. logger may be nil; zero fields of
// cfg fall back to the package defaults.
func NewAssessor(store graph.FactStore, logger logging.Logger, cfg config.EngineConfig, opts ...Option) *Assessor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.NeighborhoodDepth <= 0 {
		cfg.NeighborhoodDepth = config.DefaultNeighborhoodDepth
	}
	if cfg.AddressClusterThreshold <= 0 {
		cfg.AddressClusterThreshold = config.DefaultAddressCluster
	}
	if cfg.NomineeBoardThreshold <= 0 {
		cfg.NomineeBoardThreshold = config.DefaultNomineeBoards
	}
	if cfg.HighSecrecyScore <= 0 {
		cfg.HighSecrecyScore = config.DefaultHighSecrecyScore
	}
	if cfg.LongChainDepth <= 0 {
		cfg.LongChainDepth = config.DefaultLongChainDepth
	}
	if cfg.RiskWeights == (config.RiskWeights{}) {
		cfg.RiskWeights = config.DefaultRiskWeights()
	}
	if cfg.RiskThresholds == (config.RiskThresholds{}) {
		cfg.RiskThresholds = config.DefaultRiskThresholds()
	}
	a := &Assessor{
		store:  store,
		logger: logger.Named("risk"),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess evaluates every detector rule against the entity's bounded
// neighborhood and returns the aggregated assessment. An entity with no
// triggered factors scores zero and classifies low.
func (a *Assessor) Assess(ctx context.Context, entityID string) (Assessment, error) {
	if a.cache == nil || a.cfg.AssessmentCacheTTL <= 0 {
		return a.assess(ctx, entityID)
	}
	var cached Assessment
	key := "risk:v1:" + entityID
	err := a.cache.GetOrSet(ctx, key, &cached, a.cfg.AssessmentCacheTTL,
		func(ctx context.Context) (interface{}, error) {
			assessment, err := a.assess(ctx, entityID)
			if err != nil {
				return nil, err
			}
			return assessment, nil
		})
	if err != nil {
		return Assessment{}, err
	}
	return cached, nil
}

func (a *Assessor) assess(ctx context.Context, entityID string) (Assessment, error) {
	started := time.Now()

	root, err := a.store.Entity(ctx, entityID)
	if err != nil {
		return Assessment{}, err
	}
	hood, err := a.collectNeighborhood(ctx, entityID, a.cfg.NeighborhoodDepth)
	if err != nil {
		return Assessment{}, err
	}

	var factors []Factor
	for _, detect := range []detector{
		a.detectSanctionedExposure,
		a.detectCircularOwnership,
		a.detectSecrecyJurisdiction,
		a.detectAddressClustering,
		a.detectConflictOfInterest,
		a.detectNomineeDirectors,
		a.detectLongOwnershipChain,
	} {
		found, err := detect(ctx, root, hood)
		if err != nil {
			return Assessment{}, err
		}
		factors = append(factors, found...)
	}

	// Heaviest factors first; name breaks ties so output is stable.
	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].Weight != factors[j].Weight {
			return factors[i].Weight > factors[j].Weight
		}
		return factors[i].Name < factors[j].Name
	})

	score := 0
	for _, f := range factors {
		score += f.Weight
	}

	assessment := Assessment{
		EntityID:      entityID,
		EntityName:    root.DisplayName(),
		RiskScore:     score,
		RiskLevel:     levelFor(score, a.cfg.RiskThresholds),
		Factors:       factors,
		EvidenceChain: chainFromFactors(factors, topFactorEvidence),
		AssessedAt:    time.Now().UTC(),
	}

	a.logger.Debug("risk assessment complete",
		logging.String("entity_id", entityID),
		logging.Int("score", score),
		logging.String("level", string(assessment.RiskLevel)),
		logging.Int("factors", len(factors)),
		logging.Duration("elapsed", time.Since(started)))
	return assessment, nil
}

func levelFor(score int, t config.RiskThresholds) Level {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	}
	return LevelLow
}

// topFactorEvidence is how many of the heaviest factors the embedded
// evidence chain covers; full detail stays on the factor list.
const topFactorEvidence = 3

func chainFromFactors(factors []Factor, limit int) evidence.Chain {
	if len(factors) < limit {
		limit = len(factors)
	}
	steps := make([]evidence.Step, 0, limit)
	segments := ""
	for i, f := range factors[:limit] {
		step := evidence.Step{
			Fact:       f.Description,
			ClaimType:  f.SourceType,
			Confidence: f.Confidence,
		}
		if f.Citation != nil {
			c := *f.Citation
			step.FilingID = c.FilingID
			step.FilingType = c.FilingType
			step.FilingURL = c.FilingURL
			step.SourceSection = c.SourceSection
			step.RawText = c.RawText
			step.RawTextHash = c.RawTextHash
			step.Method = c.Method
			if !c.FilingDate.IsZero() {
				d := c.FilingDate
				step.FilingDate = &d
			}
		}
		steps = append(steps, step)
		if i > 0 {
			segments += " | "
		}
		segments += f.Name
	}
	return evidence.NewChain(steps, segments)
}

// ─────────────────────────────────────────────────────────────────────────────
// Neighborhood collection
// ─────────────────────────────────────────────────────────────────────────────

// neighbor is a visited entity with the hop path that reached it.
type neighbor struct {
	entity entity.Entity
	depth  int
	path   []entity.Hop
}

// neighborhood is the bounded undirected closure around the root, keyed by
// entity id. The root itself is not included.
type neighborhood struct {
	nodes map[string]*neighbor
	order []string
}

func (n *neighborhood) sorted() []*neighbor {
	out := make([]*neighbor, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.nodes[id])
	}
	return out
}

// collectNeighborhood runs a depth-bounded BFS treating every relationship
// as undirected. The visited set keeps the walk cycle-safe.
func (a *Assessor) collectNeighborhood(ctx context.Context, rootID string, depth int) (*neighborhood, error) {
	hood := &neighborhood{nodes: make(map[string]*neighbor)}
	visited := map[string]bool{rootID: true}
	type frontierNode struct {
		id   string
		path []entity.Hop
	}
	frontier := []frontierNode{{id: rootID}}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		var next []frontierNode
		for _, node := range frontier {
			hops, err := a.store.Neighbors(ctx, node.id)
			if err != nil {
				return nil, err
			}
			for _, hop := range hops {
				if visited[hop.OtherID] {
					continue
				}
				visited[hop.OtherID] = true
				e, err := a.store.Entity(ctx, hop.OtherID)
				if err != nil {
					return nil, err
				}
				path := append(append([]entity.Hop{}, node.path...), hop)
				hood.nodes[hop.OtherID] = &neighbor{entity: e, depth: level, path: path}
				hood.order = append(hood.order, hop.OtherID)
				next = append(next, frontierNode{id: hop.OtherID, path: path})
			}
		}
		frontier = next
	}
	return hood, nil
}

// firstCitation returns the citation of the first sourced hop on a path.
func firstCitation(path []entity.Hop) *entity.Citation {
	for _, hop := range path {
		if hop.Rel.Citation.FilingID != "" {
			c := hop.Rel.Citation
			return &c
		}
	}
	return nil
}

// pathConfidence is the weakest hop confidence along a path.
func pathConfidence(path []entity.Hop) float64 {
	conf := 1.0
	for _, hop := range path {
		if hop.Rel.Citation.Confidence < conf {
			conf = hop.Rel.Citation.Confidence
		}
	}
	return evidence.Round2(conf)
}
