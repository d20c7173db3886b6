package evidence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

func TestNewChain_OverallIsMinimum(t *testing.T) {
	steps := []Step{
		{Fact: "a", Confidence: 0.95},
		{Fact: "b", Confidence: 0.60},
		{Fact: "c", Confidence: 0.80},
	}
	c := NewChain(steps, "A -[OWNS]-> B")

	assert.Equal(t, 0.60, c.OverallConfidence)
	for i, s := range c.Steps {
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, "A -[OWNS]-> B", c.GraphPath)
	assert.False(t, c.GeneratedAt.IsZero())
}

func TestNewChain_Empty(t *testing.T) {
	c := NewChain(nil, "")
	assert.Equal(t, 0.0, c.OverallConfidence)
	assert.Equal(t, 0, c.Len())
}

func TestAppend_NeverRaisesConfidence(t *testing.T) {
	c := NewChain([]Step{{Fact: "a", Confidence: 0.70}}, "")
	require.Equal(t, 0.70, c.OverallConfidence)

	// A weaker step lowers the score.
	c.Append(Step{Fact: "b", Confidence: 0.40})
	assert.Equal(t, 0.40, c.OverallConfidence)

	// A stronger step never raises it.
	c.Append(Step{Fact: "c", Confidence: 0.99})
	assert.Equal(t, 0.40, c.OverallConfidence)

	assert.Equal(t, []int{0, 1, 2}, []int{c.Steps[0].Index, c.Steps[1].Index, c.Steps[2].Index})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.87, Round2(0.8749))
	assert.Equal(t, 0.88, Round2(0.875))
	assert.Equal(t, 1.0, Round2(0.999))
}

func TestChain_JSONRoundTrip(t *testing.T) {
	d := time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC)
	c := NewChain([]Step{
		{
			Fact:       "Nikola owns 55.0% of Romeo Power",
			ClaimType:  ClaimDirect,
			FilingID:   "0001193125-23-017489",
			FilingType: "8-K",
			FilingDate: &d,
			RawText:    "the registrant acquired",
			Method:     entity.ExtractionLLM,
			Confidence: 0.92,
		},
		{Fact: "inferred link", ClaimType: ClaimInferred, Confidence: 0},
	}, "Nikola -[OWNS]-> Romeo Power")

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var back Chain
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, c.OverallConfidence, back.OverallConfidence)
	require.Len(t, back.Steps, 2)
	assert.Equal(t, c.Steps[0], back.Steps[0])
	assert.Equal(t, c.GraphPath, back.GraphPath)
}
