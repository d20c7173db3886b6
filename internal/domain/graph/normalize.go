package graph

import "github.com/edgarlens/edgarlens/internal/domain/entity"

// NormalizeRelationship enforces the direction convention for role edges:
// OFFICER_OF and DIRECTOR_OF always point from the person toward the
// company. Extraction occasionally stores them the other way round when
// the source sentence was written company-first. Ownership edges keep
// their stored direction since both endpoints are companies.
//
// kindOf resolves an entity id to its node kind; unknown ids resolve to
// the zero Kind and leave the edge untouched.
func NormalizeRelationship(rel entity.Relationship, kindOf func(string) entity.Kind) entity.Relationship {
	switch rel.Kind {
	case entity.RelOfficerOf, entity.RelDirectorOf:
		if kindOf(rel.From) == entity.KindCompany && kindOf(rel.To) == entity.KindPerson {
			rel.From, rel.To = rel.To, rel.From
		}
	}
	return rel
}
