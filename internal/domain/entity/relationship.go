package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RelKind is the closed set of relationship types the engine understands.
// The attribute requirements differ per kind (a tagged union over Kind);
// Validate enforces them at the fact-store boundary so downstream
// components can rely on a well-formed model.
type RelKind string

const (
	RelOwns           RelKind = "OWNS"
	RelOfficerOf      RelKind = "OFFICER_OF"
	RelDirectorOf     RelKind = "DIRECTOR_OF"
	RelRegisteredAt   RelKind = "REGISTERED_AT"
	RelIncorporatedIn RelKind = "INCORPORATED_IN"
	RelSubsidiaryOf   RelKind = "SUBSIDIARY_OF"
	RelFiled          RelKind = "FILED"
	RelMentionedIn    RelKind = "MENTIONED_IN"
	RelSameAs         RelKind = "SAME_AS"
)

// RelStatus captures the lifecycle of a relationship as reported in
// filings. Pending ownership relationships mark acquisition intent.
type RelStatus string

const (
	StatusActive     RelStatus = "active"
	StatusPending    RelStatus = "pending"
	StatusHistorical RelStatus = "historical"
)

// ExtractionMethod records how a fact was pulled out of the source filing.
type ExtractionMethod string

const (
	ExtractionRuleBased ExtractionMethod = "rule_based"
	ExtractionLLM       ExtractionMethod = "llm"
)

// maxRawTextLen caps the excerpt stored on a citation.
const maxRawTextLen = 1000

// rawTextHashLen is the length of the truncated sha256 hex digest.
const rawTextHashLen = 16

// Citation is the provenance record attached to every extracted
// relationship: which filing the fact came from, the exact text span it was
// extracted from, and how much the extractor trusted it.
type Citation struct {
	FilingID      string           `json:"filing_id"`
	FilingType    string           `json:"filing_type,omitempty"`
	FilingDate    time.Time        `json:"filing_date,omitempty"`
	FilingURL     string           `json:"filing_url,omitempty"`
	SourceSection string           `json:"source_section,omitempty"`
	RawText       string           `json:"raw_text,omitempty"`
	RawTextHash   string           `json:"raw_text_hash,omitempty"`
	Confidence    float64          `json:"confidence"`
	Method        ExtractionMethod `json:"extraction_method,omitempty"`
}

// HashRawText returns the truncated sha256 hex digest used to fingerprint
// a citation's source excerpt.
func HashRawText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:rawTextHashLen]
}

// Normalize clamps the citation to its documented bounds: the excerpt is
// capped, the hash is recomputed when missing, and out-of-range confidence
// is clamped into [0,1].
func (c *Citation) Normalize() {
	if len(c.RawText) > maxRawTextLen {
		c.RawText = c.RawText[:maxRawTextLen]
	}
	if c.RawTextHash == "" && c.RawText != "" {
		c.RawTextHash = HashRawText(c.RawText)
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
}

// Relationship is a typed, directional edge between two entities. For
// OWNS, OFFICER_OF, DIRECTOR_OF and SUBSIDIARY_OF the direction always
// points toward the company/issuer side after normalization.
type Relationship struct {
	From         string    `json:"from"`
	To           string    `json:"to"`
	Kind         RelKind   `json:"kind"`
	PercentOwned *float64  `json:"percent_owned,omitempty"`
	Title        string    `json:"title,omitempty"`
	Status       RelStatus `json:"status,omitempty"`
	Citation     Citation  `json:"citation"`
}

// Validate checks the per-kind attribute requirements. A validation error
// does not abort analysis: the adapter degrades the relationship instead
// (confidence zero, inferred claim), per the graceful-degradation contract.
func (r *Relationship) Validate() error {
	if r.From == "" || r.To == "" {
		return fmt.Errorf("relationship %s: missing endpoint (from=%q to=%q)", r.Kind, r.From, r.To)
	}
	switch r.Kind {
	case RelOwns:
		if r.PercentOwned != nil && (*r.PercentOwned < 0 || *r.PercentOwned > 100) {
			return fmt.Errorf("relationship OWNS %s->%s: percent_owned %v out of range", r.From, r.To, *r.PercentOwned)
		}
	case RelOfficerOf, RelDirectorOf, RelRegisteredAt, RelIncorporatedIn,
		RelSubsidiaryOf, RelFiled, RelMentionedIn, RelSameAs:
		// No kind-specific required attributes beyond endpoints.
	default:
		return fmt.Errorf("relationship %s->%s: unknown kind %q", r.From, r.To, r.Kind)
	}
	if r.Citation.Confidence < 0 || r.Citation.Confidence > 1 {
		return fmt.Errorf("relationship %s %s->%s: confidence %v out of range",
			r.Kind, r.From, r.To, r.Citation.Confidence)
	}
	return nil
}

// Degrade marks a malformed relationship as untrusted: the citation keeps
// its provenance fields but carries zero confidence.
func (r *Relationship) Degrade() {
	r.Citation.Confidence = 0
}

// Directed reports whether direction matters for this kind beyond
// citation display. Path search treats the graph as undirected; only the
// ownership-cycle detector walks OWNS edges directionally.
func (k RelKind) Directed() bool {
	switch k {
	case RelOwns, RelOfficerOf, RelDirectorOf, RelSubsidiaryOf:
		return true
	}
	return false
}

// Hop is one traversal step: the relationship crossed and the entity id on
// the far side, with Reversed set when the step runs against the
// relationship's stored direction.
type Hop struct {
	Rel      Relationship
	OtherID  string
	Reversed bool
}
