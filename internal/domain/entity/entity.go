// Package entity defines the read-only fact model the analysis engine
// operates on: entities, typed relationships with citations, filings, and
// insider transactions. All of it is produced by the ingestion pipeline and
// immutable from the engine's point of view; validation here exists to keep
// malformed facts from leaking past the fact-store boundary.
package entity

import "strings"

// Kind discriminates the node types in the fact graph.
type Kind string

const (
	KindCompany      Kind = "company"
	KindPerson       Kind = "person"
	KindAddress      Kind = "address"
	KindJurisdiction Kind = "jurisdiction"
	KindFiling       Kind = "filing"
)

// Entity is a single node in the fact graph. Only the fields relevant to
// the node's Kind are populated; the rest stay at their zero value.
type Entity struct {
	ID             string `json:"id"`
	Kind           Kind   `json:"kind"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name,omitempty"`

	// Company identifiers.
	CIK    string `json:"cik,omitempty"`
	LEI    string `json:"lei,omitempty"`
	Ticker string `json:"ticker,omitempty"`

	// Person flags sourced from sanctions and PEP screening lists.
	IsPEP        bool `json:"is_pep,omitempty"`
	IsSanctioned bool `json:"is_sanctioned,omitempty"`

	// Jurisdiction secrecy indicators.
	IsSecrecyJurisdiction bool `json:"is_secrecy_jurisdiction,omitempty"`
	SecrecyScore          int  `json:"secrecy_score,omitempty"`

	// Address shell-company indicator: how many distinct entities are
	// registered at this address.
	EntityCount int `json:"entity_count,omitempty"`
}

// DisplayName returns the best available human-readable name.
func (e Entity) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	if e.NormalizedName != "" {
		return e.NormalizedName
	}
	return e.ID
}

// NormalizeName lowercases a display name and strips punctuation and
// corporate suffixes so that names from different filings compare equal.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(",", " ", ".", " ", "  ", " ")
	s = replacer.Replace(s)
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f {
		case "inc", "corp", "corporation", "llc", "ltd", "lp", "co", "company", "plc":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
