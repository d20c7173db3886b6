// Package repositories implements the fact-store port on Neo4j.
package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/graph"
	driver "github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// FactStore is the Neo4j-backed implementation of graph.FactStore.
// Entities are (:Entity) nodes, relationships carry their citation as
// edge properties, filings are (:Filing) nodes and insider transactions
// (:InsiderTransaction) nodes keyed by issuer.
type FactStore struct {
	exec driver.Executor
	log  logging.Logger
}

var _ graph.FactStore = (*FactStore)(nil)

func NewFactStore(exec driver.Executor, log logging.Logger) *FactStore {
	return &FactStore{exec: exec, log: log.Named("factstore")}
}

// ─────────────────────────────────────────────────────────────────────────────
// Entities
// ─────────────────────────────────────────────────────────────────────────────

const entityQuery = `
	MATCH (e:Entity {id: $id})
	RETURN properties(e) AS props
`

func (s *FactStore) Entity(ctx context.Context, id string) (entity.Entity, error) {
	res, err := s.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, entityQuery, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, errors.Newf(errors.ErrCodeEntityNotFound, "entity %s not found", id)
		}
		props, _ := result.Record().Get("props")
		return mapEntity(asProps(props)), nil
	})
	if err != nil {
		return entity.Entity{}, err
	}
	return res.(entity.Entity), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Neighbors
// ─────────────────────────────────────────────────────────────────────────────

const neighborsQuery = `
	MATCH (a:Entity {id: $id})-[r]-(b:Entity)
	RETURN type(r)          AS kind,
	       properties(r)    AS props,
	       startNode(r).id  AS from_id,
	       a.kind           AS a_kind,
	       b.id             AS other_id,
	       b.kind           AS other_kind
`

func (s *FactStore) Neighbors(ctx context.Context, id string) ([]entity.Hop, error) {
	res, err := s.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, neighborsQuery, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, func(rec *neo4j.Record) (entity.Hop, error) {
			return s.mapHop(id, rec), nil
		})
	})
	if err != nil {
		return nil, err
	}
	hops := res.([]entity.Hop)
	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].OtherID != hops[j].OtherID {
			return hops[i].OtherID < hops[j].OtherID
		}
		return hops[i].Rel.Kind < hops[j].Rel.Kind
	})
	return hops, nil
}

// mapHop rebuilds a typed relationship from an edge row, re-normalizes
// its direction, and degrades malformed facts instead of dropping them.
func (s *FactStore) mapHop(nearID string, rec *neo4j.Record) entity.Hop {
	kind, _ := rec.Get("kind")
	props := asProps(recValue(rec, "props"))
	fromID := recString(rec, "from_id")
	otherID := recString(rec, "other_id")

	rel := entity.Relationship{
		Kind:     entity.RelKind(asString(kind)),
		Status:   entity.RelStatus(propString(props, "status")),
		Title:    propString(props, "title"),
		Citation: mapCitation(props),
	}
	if pct, ok := propFloat(props, "percent_owned"); ok {
		rel.PercentOwned = &pct
	}
	if fromID == nearID {
		rel.From, rel.To = nearID, otherID
	} else {
		rel.From, rel.To = otherID, nearID
	}

	kinds := map[string]entity.Kind{
		nearID:  entity.Kind(recString(rec, "a_kind")),
		otherID: entity.Kind(recString(rec, "other_kind")),
	}
	rel = graph.NormalizeRelationship(rel, func(id string) entity.Kind { return kinds[id] })
	rel.Citation.Normalize()
	if err := rel.Validate(); err != nil {
		s.log.Warn("malformed relationship degraded",
			logging.String("kind", string(rel.Kind)),
			logging.String("from", rel.From),
			logging.String("to", rel.To),
			logging.Err(err))
		rel.Degrade()
	}

	return entity.Hop{Rel: rel, OtherID: otherID, Reversed: rel.From != nearID}
}

// ─────────────────────────────────────────────────────────────────────────────
// Filings
// ─────────────────────────────────────────────────────────────────────────────

const filingQuery = `
	MATCH (f:Filing)
	WHERE f.id = $key OR f.accession_number = $key
	RETURN properties(f) AS props
	LIMIT 1
`

const filingsForQuery = `
	MATCH (f:Filing {company_id: $company_id})
	WHERE f.filing_date >= $since
	RETURN properties(f) AS props
	ORDER BY f.filing_date DESC
`

func (s *FactStore) Filing(ctx context.Context, accessionOrID string) (entity.Filing, error) {
	res, err := s.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, filingQuery, map[string]any{"key": accessionOrID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, errors.Newf(errors.ErrCodeFilingNotFound, "filing %s not found", accessionOrID)
		}
		return mapFiling(asProps(recValue(result.Record(), "props"))), nil
	})
	if err != nil {
		return entity.Filing{}, err
	}
	return res.(entity.Filing), nil
}

func (s *FactStore) FilingsFor(ctx context.Context, companyID string, since time.Time) ([]entity.Filing, error) {
	res, err := s.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, filingsForQuery, map[string]any{
			"company_id": companyID,
			"since":      since,
		})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, func(rec *neo4j.Record) (entity.Filing, error) {
			return mapFiling(asProps(recValue(rec, "props"))), nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res.([]entity.Filing), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Insider transactions
// ─────────────────────────────────────────────────────────────────────────────

const transactionsForQuery = `
	MATCH (t:InsiderTransaction {issuer_id: $issuer_id})
	WHERE t.date >= $since
	RETURN properties(t) AS props
	ORDER BY t.date DESC
`

func (s *FactStore) TransactionsFor(ctx context.Context, companyID string, since time.Time) ([]entity.InsiderTransaction, error) {
	res, err := s.exec.ExecuteRead(ctx, func(tx driver.Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, transactionsForQuery, map[string]any{
			"issuer_id": companyID,
			"since":     since,
		})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, func(rec *neo4j.Record) (entity.InsiderTransaction, error) {
			return mapTransaction(asProps(recValue(rec, "props"))), nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res.([]entity.InsiderTransaction), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

func mapEntity(props map[string]any) entity.Entity {
	return entity.Entity{
		ID:                    propString(props, "id"),
		Kind:                  entity.Kind(propString(props, "kind")),
		Name:                  propString(props, "name"),
		NormalizedName:        propString(props, "normalized_name"),
		CIK:                   propString(props, "cik"),
		LEI:                   propString(props, "lei"),
		Ticker:                propString(props, "ticker"),
		IsPEP:                 propBool(props, "is_pep"),
		IsSanctioned:          propBool(props, "is_sanctioned"),
		IsSecrecyJurisdiction: propBool(props, "is_secrecy_jurisdiction"),
		SecrecyScore:          propInt(props, "secrecy_score"),
		EntityCount:           propInt(props, "entity_count"),
	}
}

func mapCitation(props map[string]any) entity.Citation {
	conf, _ := propFloat(props, "confidence")
	return entity.Citation{
		FilingID:      propString(props, "filing_id"),
		FilingType:    propString(props, "filing_type"),
		FilingDate:    propTime(props, "filing_date"),
		FilingURL:     propString(props, "filing_url"),
		SourceSection: propString(props, "source_section"),
		RawText:       propString(props, "raw_text"),
		RawTextHash:   propString(props, "raw_text_hash"),
		Confidence:    conf,
		Method:        entity.ExtractionMethod(propString(props, "extraction_method")),
	}
}

func mapFiling(props map[string]any) entity.Filing {
	f := entity.Filing{
		ID:              propString(props, "id"),
		AccessionNumber: propString(props, "accession_number"),
		FormType:        propString(props, "form_type"),
		FilingDate:      propTime(props, "filing_date"),
		URL:             propString(props, "url"),
		CompanyID:       propString(props, "company_id"),
		OfficerNames:    propStrings(props, "officer_names"),
	}
	numbers := propStrings(props, "item_numbers")
	names := propStrings(props, "item_names")
	for i, num := range numbers {
		item := entity.FilingItem{Number: num}
		if i < len(names) {
			item.Name = names[i]
		}
		f.Items = append(f.Items, item)
	}
	return f
}

func mapTransaction(props map[string]any) entity.InsiderTransaction {
	shares, _ := propFloat(props, "shares")
	price, _ := propFloat(props, "price_per_share")
	total, _ := propFloat(props, "total_value")
	return entity.InsiderTransaction{
		FilerID:         propString(props, "filer_id"),
		FilerName:       propString(props, "filer_name"),
		FilerTitle:      propString(props, "filer_title"),
		IssuerID:        propString(props, "issuer_id"),
		Date:            propTime(props, "date"),
		Code:            entity.TransactionCode(propString(props, "code")),
		Shares:          shares,
		PricePerShare:   price,
		TotalValue:      total,
		AccessionNumber: propString(props, "accession_number"),
		FilingDate:      propTime(props, "filing_date"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Property helpers
// ─────────────────────────────────────────────────────────────────────────────

func recValue(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func recString(rec *neo4j.Record, key string) string {
	return asString(recValue(rec, key))
}

func asProps(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func propString(props map[string]any, key string) string {
	return asString(props[key])
}

func propBool(props map[string]any, key string) bool {
	b, _ := props[key].(bool)
	return b
}

func propInt(props map[string]any, key string) int {
	switch n := props[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func propFloat(props map[string]any, key string) (float64, bool) {
	switch n := props[key].(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func propTime(props map[string]any, key string) time.Time {
	switch t := props[key].(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func propStrings(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, asString(v))
	}
	return out
}
