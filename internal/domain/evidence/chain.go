// Package evidence turns graph traversals into ordered, human-readable,
// source-cited justifications. A chain is only as strong as its weakest
// link: the overall confidence is the minimum across steps, which keeps the
// score stable under reordering and monotonic under extension.
package evidence

import (
	"math"
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

// ClaimType grades how a step's fact was established.
type ClaimType string

const (
	// ClaimDirect backs the fact with a single sourced relationship.
	ClaimDirect ClaimType = "direct"
	// ClaimComputed derives the fact from combining two or more direct
	// facts, e.g. shared-address clustering or cycle detection.
	ClaimComputed ClaimType = "computed"
	// ClaimInferred marks facts with no usable citation; lowest trust.
	ClaimInferred ClaimType = "inferred"
)

// Step is one link in an evidence chain. Citation fields mirror the
// underlying relationship or filing.
type Step struct {
	Index         int                     `json:"index"`
	Fact          string                  `json:"fact"`
	ClaimType     ClaimType               `json:"claim_type"`
	FilingID      string                  `json:"filing_id,omitempty"`
	FilingType    string                  `json:"filing_type,omitempty"`
	FilingDate    *time.Time              `json:"filing_date,omitempty"`
	FilingURL     string                  `json:"filing_url,omitempty"`
	SourceSection string                  `json:"source_section,omitempty"`
	RawText       string                  `json:"raw_text,omitempty"`
	RawTextHash   string                  `json:"raw_text_hash,omitempty"`
	Method        entity.ExtractionMethod `json:"extraction_method,omitempty"`
	Confidence    float64                 `json:"confidence"`
}

// Chain is an ordered sequence of steps with a combined confidence.
type Chain struct {
	Steps             []Step    `json:"steps"`
	OverallConfidence float64   `json:"overall_confidence"`
	GraphPath         string    `json:"graph_path,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Round2 rounds a confidence to the documented two-decimal precision.
// Applied at construction so serialization round-trips are lossless.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewChain assembles a chain from steps, assigning indices and computing
// the minimum-confidence combination. An empty step list yields overall
// confidence zero.
func NewChain(steps []Step, graphPath string) Chain {
	c := Chain{
		Steps:       make([]Step, len(steps)),
		GraphPath:   graphPath,
		GeneratedAt: time.Now().UTC(),
	}
	copy(c.Steps, steps)
	for i := range c.Steps {
		c.Steps[i].Index = i
		c.Steps[i].Confidence = Round2(c.Steps[i].Confidence)
	}
	c.OverallConfidence = minConfidence(c.Steps)
	return c
}

// Append adds a step to the chain and lowers the overall confidence when
// the new step is weaker. It never raises the score.
func (c *Chain) Append(s Step) {
	s.Index = len(c.Steps)
	s.Confidence = Round2(s.Confidence)
	c.Steps = append(c.Steps, s)
	if len(c.Steps) == 1 || s.Confidence < c.OverallConfidence {
		c.OverallConfidence = s.Confidence
	}
}

// Len returns the number of steps.
func (c Chain) Len() int { return len(c.Steps) }

func minConfidence(steps []Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	min := steps[0].Confidence
	for _, s := range steps[1:] {
		if s.Confidence < min {
			min = s.Confidence
		}
	}
	return min
}
