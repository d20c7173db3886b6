package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

func TestClassifyItems_RulePrecedence(t *testing.T) {
	cases := []struct {
		name  string
		items []string
		want  Level
	}{
		{"material agreement with governance change", []string{"1.01", "5.03"}, LevelHigh},
		{"material agreement with exec change", []string{"1.01", "5.02"}, LevelHigh},
		{"agreement, governance and extras", []string{"1.01", "5.02", "7.01", "9.01"}, LevelHigh},
		{"material agreement alone", []string{"1.01"}, LevelMedium},
		{"agreement with only noise items", []string{"1.01", "7.01", "9.01"}, LevelMedium},
		{"completed acquisition", []string{"2.01"}, LevelLow},
		{"completed acquisition with control change", []string{"2.01", "5.01"}, LevelLow},
		{"completed deal trumps agreement", []string{"1.01", "5.02", "2.01"}, LevelLow},
		{"single exec change", []string{"5.02"}, LevelLow},
		{"single governance change", []string{"5.03"}, LevelLow},
		{"both governance items", []string{"5.02", "5.03"}, LevelLow},
		{"unmatched items", []string{"7.01", "8.01"}, LevelLow},
		{"no items", nil, LevelLow},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			level, reason := ClassifyItems(tc.items)
			assert.Equal(t, tc.want, level)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestClassifyItems_IsPure(t *testing.T) {
	items := []string{"1.01", "5.03"}
	first, _ := ClassifyItems(items)
	second, _ := ClassifyItems(items)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"1.01", "5.03"}, items, "input must not be mutated")
}

func TestClassifyFiling_UsesItems(t *testing.T) {
	f := entity.Filing{
		ID:       "f1",
		FormType: "8-K",
		Items:    []entity.FilingItem{{Number: "1.01"}, {Number: "5.02"}},
	}
	got := ClassifyFiling(f)
	assert.Equal(t, LevelHigh, got.Level)
	assert.Equal(t, []string{"1.01", "5.02"}, got.ItemNumbers)
}

func TestClassifyFiling_IPOIsDowngraded(t *testing.T) {
	f := entity.Filing{
		ID:       "f2",
		FormType: "S-1",
		Items:    []entity.FilingItem{{Number: "1.01"}, {Number: "5.03"}},
	}
	got := ClassifyFiling(f)
	assert.Equal(t, LevelLow, got.Level)
	assert.Contains(t, got.Reason, "IPO")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelHigh, ParseLevel("high"))
	assert.Equal(t, LevelMedium, ParseLevel("medium"))
	assert.Equal(t, LevelLow, ParseLevel("garbage"))
}
