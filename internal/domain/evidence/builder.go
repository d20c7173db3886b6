package evidence

import (
	"fmt"
	"strings"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

// PathStep is one traversal step with its endpoints already resolved.
// From and To follow traversal order; the hop's relationship keeps its
// stored (normalized) direction.
type PathStep struct {
	From entity.Entity
	To   entity.Entity
	Hop  entity.Hop
}

// BuildChain converts a resolved path into an evidence chain: one step per
// hop, fact text templated per relationship kind, and a pipe-delimited
// graph-path summary for display.
func BuildChain(path []PathStep) Chain {
	steps := make([]Step, 0, len(path))
	segments := make([]string, 0, len(path))
	for _, ps := range path {
		steps = append(steps, StepFromHop(ps))
		segments = append(segments, pathSegment(ps))
	}
	return NewChain(steps, strings.Join(segments, " | "))
}

// StepFromHop builds a single evidence step from a resolved hop. A hop
// whose relationship failed validation or carries no citation degrades to
// an inferred, zero-confidence step instead of aborting the chain.
func StepFromHop(ps PathStep) Step {
	rel := ps.Hop.Rel
	cit := rel.Citation
	cit.Normalize()

	claim := ClaimDirect
	if cit.FilingID == "" || cit.Confidence == 0 {
		claim = ClaimInferred
		cit.Confidence = 0
	}

	step := Step{
		Fact:          FactStatement(ps),
		ClaimType:     claim,
		FilingID:      cit.FilingID,
		FilingType:    cit.FilingType,
		FilingURL:     cit.FilingURL,
		SourceSection: cit.SourceSection,
		RawText:       cit.RawText,
		RawTextHash:   cit.RawTextHash,
		Method:        cit.Method,
		Confidence:    cit.Confidence,
	}
	if !cit.FilingDate.IsZero() {
		d := cit.FilingDate
		step.FilingDate = &d
	}
	return step
}

// FactStatement renders the templated natural-language statement for a
// hop. Statements follow the relationship's stored direction, not the
// traversal direction, so "A owns 55% of B" reads correctly regardless of
// which side the search started from.
func FactStatement(ps PathStep) string {
	rel := ps.Hop.Rel
	subject, object := ps.From.DisplayName(), ps.To.DisplayName()
	if ps.Hop.Reversed {
		subject, object = object, subject
	}

	switch rel.Kind {
	case entity.RelOwns:
		if rel.PercentOwned != nil {
			return fmt.Sprintf("%s owns %.1f%% of %s", subject, *rel.PercentOwned, object)
		}
		return fmt.Sprintf("%s owns an unknown percentage of %s", subject, object)
	case entity.RelOfficerOf:
		title := rel.Title
		if title == "" {
			title = "an officer"
		}
		return fmt.Sprintf("%s is %s of %s", subject, title, object)
	case entity.RelDirectorOf:
		return fmt.Sprintf("%s is a director of %s", subject, object)
	case entity.RelRegisteredAt:
		return fmt.Sprintf("%s is registered at %s", subject, object)
	case entity.RelIncorporatedIn:
		return fmt.Sprintf("%s is incorporated in %s", subject, object)
	case entity.RelSubsidiaryOf:
		return fmt.Sprintf("%s is a subsidiary of %s", subject, object)
	case entity.RelFiled:
		return fmt.Sprintf("%s filed %s", subject, object)
	default:
		return fmt.Sprintf("%s is connected to %s", subject, object)
	}
}

// pathSegment renders one "A -[KIND]-> B" display segment in the
// relationship's stored direction.
func pathSegment(ps PathStep) string {
	subject, object := ps.From.DisplayName(), ps.To.DisplayName()
	if ps.Hop.Reversed {
		subject, object = object, subject
	}
	return fmt.Sprintf("%s -[%s]-> %s", subject, ps.Hop.Rel.Kind, object)
}
