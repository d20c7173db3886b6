package repositories

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	driver "github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// fakeExecutor runs transaction work against canned per-query results.
type fakeExecutor struct {
	results map[string][]*neo4j.Record
}

func (f *fakeExecutor) ExecuteRead(_ context.Context, work driver.TransactionWork) (interface{}, error) {
	return work(&fakeTransaction{results: f.results})
}

func (f *fakeExecutor) ExecuteWrite(_ context.Context, work driver.TransactionWork) (interface{}, error) {
	return work(&fakeTransaction{results: f.results})
}

type fakeTransaction struct {
	results map[string][]*neo4j.Record
}

func (t *fakeTransaction) Run(_ context.Context, cypher string, _ map[string]any) (driver.Result, error) {
	for key, records := range t.results {
		if containsQuery(cypher, key) {
			return &fakeResult{records: records}, nil
		}
	}
	return &fakeResult{}, nil
}

func containsQuery(cypher, key string) bool {
	return key != "" && strings.Contains(cypher, key)
}

type fakeResult struct {
	records []*neo4j.Record
	pos     int
}

func (r *fakeResult) Next(_ context.Context) bool {
	if r.pos < len(r.records) {
		r.pos++
		return true
	}
	return false
}

func (r *fakeResult) Record() *neo4j.Record {
	return r.records[r.pos-1]
}

func (r *fakeResult) Err() error { return nil }

func (r *fakeResult) Consume(_ context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func newStore(results map[string][]*neo4j.Record) *FactStore {
	return NewFactStore(&fakeExecutor{results: results}, logging.NewNopLogger())
}

func TestEntityFound(t *testing.T) {
	s := newStore(map[string][]*neo4j.Record{
		"MATCH (e:Entity": {
			record([]string{"props"}, []any{map[string]any{
				"id":            "nikola",
				"kind":          "company",
				"name":          "Nikola Corp",
				"cik":           "0001731289",
				"is_sanctioned": false,
				"secrecy_score": int64(0),
			}}),
		},
	})

	e, err := s.Entity(context.Background(), "nikola")
	require.NoError(t, err)
	assert.Equal(t, "Nikola Corp", e.Name)
	assert.Equal(t, entity.KindCompany, e.Kind)
	assert.Equal(t, "0001731289", e.CIK)
}

func TestEntityNotFound(t *testing.T) {
	s := newStore(nil)

	_, err := s.Entity(context.Background(), "ghost")
	assert.Equal(t, errors.ErrCodeEntityNotFound, errors.GetCode(err))
}

func TestNeighborsMapsHops(t *testing.T) {
	filingDate := time.Date(2020, 9, 4, 0, 0, 0, 0, time.UTC)
	s := newStore(map[string][]*neo4j.Record{
		"MATCH (a:Entity": {
			record(
				[]string{"kind", "props", "from_id", "a_kind", "other_id", "other_kind"},
				[]any{"OWNS", map[string]any{
					"percent_owned": 60.0,
					"status":        "active",
					"filing_id":     "fil-1",
					"filing_type":   "SC 13D",
					"filing_date":   filingDate,
					"confidence":    0.97,
				}, "nikola", "company", "romeo", "company"},
			),
			record(
				[]string{"kind", "props", "from_id", "a_kind", "other_id", "other_kind"},
				[]any{"DIRECTOR_OF", map[string]any{
					"filing_id":  "fil-2",
					"confidence": 0.95,
				}, "cathy", "company", "cathy", "person"},
			),
		},
	})

	hops, err := s.Neighbors(context.Background(), "nikola")
	require.NoError(t, err)
	require.Len(t, hops, 2)

	// Sorted by far-side id: cathy before romeo.
	dir := hops[0]
	assert.Equal(t, entity.RelDirectorOf, dir.Rel.Kind)
	assert.Equal(t, "cathy", dir.OtherID)
	// Stored person->company, traversed from the company side.
	assert.Equal(t, "cathy", dir.Rel.From)
	assert.True(t, dir.Reversed)

	own := hops[1]
	assert.Equal(t, entity.RelOwns, own.Rel.Kind)
	assert.Equal(t, "romeo", own.OtherID)
	assert.False(t, own.Reversed)
	require.NotNil(t, own.Rel.PercentOwned)
	assert.Equal(t, 60.0, *own.Rel.PercentOwned)
	assert.Equal(t, 0.97, own.Rel.Citation.Confidence)
	assert.Equal(t, filingDate, own.Rel.Citation.FilingDate)
}

func TestNeighborsDegradesMalformed(t *testing.T) {
	s := newStore(map[string][]*neo4j.Record{
		"MATCH (a:Entity": {
			record(
				[]string{"kind", "props", "from_id", "a_kind", "other_id", "other_kind"},
				[]any{"OWNS", map[string]any{
					// Out-of-range ownership fails validation.
					"percent_owned": 140.0,
					"filing_id":     "fil-1",
					"confidence":    0.9,
				}, "nikola", "company", "romeo", "company"},
			),
		},
	})

	hops, err := s.Neighbors(context.Background(), "nikola")
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.Equal(t, 0.0, hops[0].Rel.Citation.Confidence)
}

func TestFilingByAccession(t *testing.T) {
	s := newStore(map[string][]*neo4j.Record{
		"MATCH (f:Filing)": {
			record([]string{"props"}, []any{map[string]any{
				"id":               "fil-1",
				"accession_number": "0001-23-000045",
				"form_type":        "8-K",
				"company_id":       "acme",
				"item_numbers":     []any{"1.01", "5.02"},
				"item_names":       []any{"Entry into a Material Definitive Agreement"},
				"officer_names":    []any{"Alice Grant"},
			}}),
		},
	})

	f, err := s.Filing(context.Background(), "0001-23-000045")
	require.NoError(t, err)
	assert.Equal(t, "8-K", f.FormType)
	require.Len(t, f.Items, 2)
	assert.Equal(t, "1.01", f.Items[0].Number)
	assert.Equal(t, "Entry into a Material Definitive Agreement", f.Items[0].Name)
	assert.Equal(t, "5.02", f.Items[1].Number)
	assert.Empty(t, f.Items[1].Name)
	assert.Equal(t, []string{"Alice Grant"}, f.OfficerNames)
}

func TestFilingNotFound(t *testing.T) {
	s := newStore(nil)

	_, err := s.Filing(context.Background(), "missing")
	assert.Equal(t, errors.ErrCodeFilingNotFound, errors.GetCode(err))
}

func TestTransactionsForMapsRows(t *testing.T) {
	txDate := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	s := newStore(map[string][]*neo4j.Record{
		"MATCH (t:InsiderTransaction": {
			record([]string{"props"}, []any{map[string]any{
				"filer_id":    "f1",
				"filer_name":  "Alice Grant",
				"filer_title": "CEO",
				"issuer_id":   "acme",
				"date":        txDate,
				"code":        "P",
				"shares":      int64(1000),
				"total_value": 50_000.0,
			}}),
		},
	})

	txs, err := s.TransactionsFor(context.Background(), "acme", time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.CodePurchase, txs[0].Code)
	assert.Equal(t, 1000.0, txs[0].Shares)
	assert.Equal(t, 50_000.0, txs[0].Value())
	assert.Equal(t, txDate, txs[0].Date)
}
