package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

func newFixture() *Store {
	s := NewStore()
	s.AddEntity(entity.Entity{ID: "nikola", Kind: entity.KindCompany, Name: "Nikola"})
	s.AddEntity(entity.Entity{ID: "romeo", Kind: entity.KindCompany, Name: "Romeo Power"})
	s.AddEntity(entity.Entity{ID: "cathy", Kind: entity.KindPerson, Name: "Cathy McCarthy"})
	return s
}

func TestEntity_Lookup(t *testing.T) {
	s := newFixture()

	e, err := s.Entity(context.Background(), "nikola")
	require.NoError(t, err)
	assert.Equal(t, "Nikola", e.Name)

	_, err = s.Entity(context.Background(), "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEntityNotFound))
}

func TestNeighbors_BothDirectionsAndStableOrder(t *testing.T) {
	s := newFixture()
	s.AddRelationship(entity.Relationship{
		From: "nikola", To: "romeo", Kind: entity.RelOwns,
		Citation: entity.Citation{FilingID: "f1", Confidence: 0.9},
	})
	s.AddRelationship(entity.Relationship{
		From: "cathy", To: "romeo", Kind: entity.RelDirectorOf,
		Citation: entity.Citation{FilingID: "f2", Confidence: 0.8},
	})

	hops, err := s.Neighbors(context.Background(), "romeo")
	require.NoError(t, err)
	require.Len(t, hops, 2)
	// Sorted by other id: cathy before nikola.
	assert.Equal(t, "cathy", hops[0].OtherID)
	assert.True(t, hops[0].Reversed)
	assert.Equal(t, "nikola", hops[1].OtherID)

	again, err := s.Neighbors(context.Background(), "romeo")
	require.NoError(t, err)
	assert.Equal(t, hops, again)
}

func TestAddRelationship_NormalizesRoleDirection(t *testing.T) {
	s := newFixture()
	// Stored company-first; must be flipped to person -> company.
	s.AddRelationship(entity.Relationship{
		From: "romeo", To: "cathy", Kind: entity.RelDirectorOf,
		Citation: entity.Citation{FilingID: "f1", Confidence: 0.8},
	})

	hops, err := s.Neighbors(context.Background(), "cathy")
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.Equal(t, "cathy", hops[0].Rel.From)
	assert.Equal(t, "romeo", hops[0].Rel.To)
	assert.False(t, hops[0].Reversed)
}

func TestAddRelationship_MalformedIsDegradedNotDropped(t *testing.T) {
	s := newFixture()
	bad := 130.0
	s.AddRelationship(entity.Relationship{
		From: "nikola", To: "romeo", Kind: entity.RelOwns, PercentOwned: &bad,
		Citation: entity.Citation{FilingID: "f1", Confidence: 0.9},
	})

	hops, err := s.Neighbors(context.Background(), "nikola")
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.Equal(t, 0.0, hops[0].Rel.Citation.Confidence)
	assert.Equal(t, "f1", hops[0].Rel.Citation.FilingID)
}

func TestFiling_ByAccessionAndID(t *testing.T) {
	s := newFixture()
	s.AddFiling(entity.Filing{
		ID: "f1", AccessionNumber: "0001-23-000001", CompanyID: "nikola",
		FilingDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	byAcc, err := s.Filing(context.Background(), "0001-23-000001")
	require.NoError(t, err)
	assert.Equal(t, "f1", byAcc.ID)

	byID, err := s.Filing(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, byAcc, byID)

	_, err = s.Filing(context.Background(), "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFilingNotFound))
}

func TestFilingsFor_SinceFilterNewestFirst(t *testing.T) {
	s := newFixture()
	for i, d := range []int{1, 10, 20} {
		s.AddFiling(entity.Filing{
			ID: string(rune('a' + i)), CompanyID: "nikola",
			FilingDate: time.Date(2023, 2, d, 0, 0, 0, 0, time.UTC),
		})
	}

	got, err := s.FilingsFor(context.Background(), "nikola",
		time.Date(2023, 2, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestTransactionsFor_SinceFilter(t *testing.T) {
	s := newFixture()
	for _, d := range []int{1, 15} {
		s.AddTransaction(entity.InsiderTransaction{
			FilerID: "cathy", IssuerID: "romeo",
			Date: time.Date(2023, 3, d, 0, 0, 0, 0, time.UTC),
			Code: entity.CodePurchase, TotalValue: 1000,
		})
	}

	got, err := s.TransactionsFor(context.Background(), "romeo",
		time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 15, got[0].Date.Day())
}

func TestCanceledContextSurfacesAsStoreUnavailable(t *testing.T) {
	s := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Entity(ctx, "nikola")
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
	_, err = s.Neighbors(ctx, "nikola")
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreUnavailable))
}
