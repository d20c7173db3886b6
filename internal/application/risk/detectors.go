package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/evidence"
)

// detector is one independent risk rule. Detectors never mutate the
// neighborhood and never fail on logical non-findings, only on store
// errors.
type detector func(ctx context.Context, root entity.Entity, hood *neighborhood) ([]Factor, error)

// Sanctions and PEP screening confidence baselines.
const (
	sanctionedConfidence = 0.95
	pepConfidence        = 0.90
	nomineeConfidence    = 0.85
)

// detectSanctionedExposure flags every sanctioned or politically exposed
// person in the neighborhood. Direct relationships carry the full weight;
// transitive exposure carries half, rounded down.
func (a *Assessor) detectSanctionedExposure(_ context.Context, _ entity.Entity, hood *neighborhood) ([]Factor, error) {
	var factors []Factor
	for _, n := range hood.sorted() {
		if !n.entity.IsSanctioned && !n.entity.IsPEP {
			continue
		}
		name := "sanctioned_connection"
		weight := a.cfg.RiskWeights.SanctionedConnection
		conf := sanctionedConfidence
		label := "sanctioned entity"
		if !n.entity.IsSanctioned {
			name = "pep_connection"
			weight = a.cfg.RiskWeights.PEPConnection
			conf = pepConfidence
			label = "politically exposed person"
		}
		proximity := "directly connected to"
		if n.depth > 1 {
			weight /= 2
			proximity = fmt.Sprintf("connected within %d hops to", n.depth)
		}
		factors = append(factors, Factor{
			Name:        name,
			Description: fmt.Sprintf("%s %s %s", proximity, label, n.entity.DisplayName()),
			Weight:      weight,
			SourceType:  evidence.ClaimDirect,
			Confidence:  conf,
			Citation:    firstCitation(n.path),
		})
	}
	return factors, nil
}

// detectCircularOwnership searches for a directed cycle in OWNS edges
// passing through the root. Unlike every other detector this one preserves
// edge direction: only hops where the near side is the owner are followed.
func (a *Assessor) detectCircularOwnership(ctx context.Context, root entity.Entity, _ *neighborhood) ([]Factor, error) {
	cycle, err := a.findOwnershipCycle(ctx, root.ID, a.cfg.NeighborhoodDepth+1)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, nil
	}
	return []Factor{{
		Name:        "circular_ownership",
		Description: fmt.Sprintf("circular ownership detected: %s", strings.Join(cycle, " owns ")),
		Weight:      a.cfg.RiskWeights.CircularOwnership,
		SourceType:  evidence.ClaimComputed,
		Confidence:  1.0,
	}}, nil
}

// findOwnershipCycle runs a bounded directed DFS over OWNS edges and
// returns the display-name cycle starting and ending at rootID, or nil.
func (a *Assessor) findOwnershipCycle(ctx context.Context, rootID string, maxDepth int) ([]string, error) {
	var walk func(id string, names []string, visited map[string]bool) ([]string, error)
	walk = func(id string, names []string, visited map[string]bool) ([]string, error) {
		if len(names) > maxDepth {
			return nil, nil
		}
		hops, err := a.store.Neighbors(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, hop := range hops {
			if hop.Rel.Kind != entity.RelOwns || hop.Reversed {
				continue
			}
			if hop.OtherID == rootID {
				return append(names, names[0]), nil
			}
			if visited[hop.OtherID] {
				continue
			}
			visited[hop.OtherID] = true
			e, err := a.store.Entity(ctx, hop.OtherID)
			if err != nil {
				return nil, err
			}
			cycle, err := walk(hop.OtherID, append(names, e.DisplayName()), visited)
			if err != nil || cycle != nil {
				return cycle, err
			}
		}
		return nil, nil
	}

	root, err := a.store.Entity(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return walk(rootID, []string{root.DisplayName()}, map[string]bool{rootID: true})
}

// detectSecrecyJurisdiction flags a direct INCORPORATED_IN edge to a
// flagged jurisdiction. Jurisdictions scoring at or above the high-secrecy
// cutoff carry the heavier weight.
func (a *Assessor) detectSecrecyJurisdiction(_ context.Context, _ entity.Entity, hood *neighborhood) ([]Factor, error) {
	var factors []Factor
	for _, n := range hood.sorted() {
		if n.depth != 1 || !n.entity.IsSecrecyJurisdiction {
			continue
		}
		hop := n.path[len(n.path)-1]
		if hop.Rel.Kind != entity.RelIncorporatedIn {
			continue
		}
		weight := a.cfg.RiskWeights.SecrecyJurisdiction
		if n.entity.SecrecyScore >= a.cfg.HighSecrecyScore {
			weight = a.cfg.RiskWeights.HighSecrecyJurisdiction
		}
		factors = append(factors, Factor{
			Name: "secrecy_jurisdiction",
			Description: fmt.Sprintf("incorporated in %s (secrecy score %d)",
				n.entity.DisplayName(), n.entity.SecrecyScore),
			Weight:     weight,
			SourceType: evidence.ClaimDirect,
			Confidence: hop.Rel.Citation.Confidence,
			Citation:   firstCitation(n.path),
		})
	}
	return factors, nil
}

// detectAddressClustering flags a registered address shared by enough
// unrelated entities to look like a mass-registration agent.
func (a *Assessor) detectAddressClustering(_ context.Context, _ entity.Entity, hood *neighborhood) ([]Factor, error) {
	var factors []Factor
	for _, n := range hood.sorted() {
		if n.depth != 1 || n.entity.Kind != entity.KindAddress {
			continue
		}
		hop := n.path[len(n.path)-1]
		if hop.Rel.Kind != entity.RelRegisteredAt || n.entity.EntityCount < a.cfg.AddressClusterThreshold {
			continue
		}
		factors = append(factors, Factor{
			Name: "mass_registration_address",
			Description: fmt.Sprintf("registered at %s, shared with %d other entities",
				n.entity.DisplayName(), n.entity.EntityCount-1),
			Weight:     a.cfg.RiskWeights.MassRegistrationAddress,
			SourceType: evidence.ClaimDirect,
			Confidence: hop.Rel.Citation.Confidence,
			Citation:   firstCitation(n.path),
		})
	}
	return factors, nil
}

// detectConflictOfInterest finds a person who sits as director or officer
// on both sides of an active or pending ownership transition. For a
// company root the rule checks the root's own board against its pending
// counterparties; for a person root it checks the person's board seats
// pairwise.
func (a *Assessor) detectConflictOfInterest(ctx context.Context, root entity.Entity, _ *neighborhood) ([]Factor, error) {
	hops, err := a.store.Neighbors(ctx, root.ID)
	if err != nil {
		return nil, err
	}

	if root.Kind == entity.KindPerson {
		return a.personConflicts(ctx, root, hops)
	}

	// Collect the root company's board and its in-flight ownership
	// counterparties.
	var board []entity.Hop
	var counterparties []entity.Hop
	for _, hop := range hops {
		switch hop.Rel.Kind {
		case entity.RelDirectorOf, entity.RelOfficerOf:
			board = append(board, hop)
		case entity.RelOwns:
			if inTransition(hop.Rel.Status) {
				counterparties = append(counterparties, hop)
			}
		}
	}

	var factors []Factor
	for _, member := range board {
		person, err := a.store.Entity(ctx, member.OtherID)
		if err != nil {
			return nil, err
		}
		seats, err := a.store.Neighbors(ctx, person.ID)
		if err != nil {
			return nil, err
		}
		for _, cp := range counterparties {
			if !sitsOn(seats, cp.OtherID) {
				continue
			}
			other, err := a.store.Entity(ctx, cp.OtherID)
			if err != nil {
				return nil, err
			}
			factors = append(factors, conflictFactor(a.cfg.RiskWeights.ConflictOfInterest,
				person, root, other, member.Rel.Citation))
		}
	}
	return factors, nil
}

// personConflicts checks a person's board seats pairwise for an in-flight
// ownership relationship between the two companies.
func (a *Assessor) personConflicts(ctx context.Context, person entity.Entity, hops []entity.Hop) ([]Factor, error) {
	var seats []entity.Hop
	for _, hop := range hops {
		if hop.Rel.Kind == entity.RelDirectorOf || hop.Rel.Kind == entity.RelOfficerOf {
			seats = append(seats, hop)
		}
	}

	var factors []Factor
	for i := 0; i < len(seats); i++ {
		companyA, err := a.store.Entity(ctx, seats[i].OtherID)
		if err != nil {
			return nil, err
		}
		aHops, err := a.store.Neighbors(ctx, companyA.ID)
		if err != nil {
			return nil, err
		}
		for j := i + 1; j < len(seats); j++ {
			if !ownsInTransition(aHops, seats[j].OtherID) {
				continue
			}
			companyB, err := a.store.Entity(ctx, seats[j].OtherID)
			if err != nil {
				return nil, err
			}
			factors = append(factors, conflictFactor(a.cfg.RiskWeights.ConflictOfInterest,
				person, companyA, companyB, seats[i].Rel.Citation))
		}
	}
	return factors, nil
}

func conflictFactor(weight int, person, companyA, companyB entity.Entity, cit entity.Citation) Factor {
	f := Factor{
		Name: "conflict_of_interest",
		Description: fmt.Sprintf("%s holds positions at both %s and %s during an active ownership transition",
			person.DisplayName(), companyA.DisplayName(), companyB.DisplayName()),
		Weight:     weight,
		SourceType: evidence.ClaimComputed,
		Confidence: cit.Confidence,
	}
	if cit.FilingID != "" {
		c := cit
		f.Citation = &c
	}
	return f
}

func inTransition(s entity.RelStatus) bool {
	return s == entity.StatusActive || s == entity.StatusPending
}

func sitsOn(seats []entity.Hop, companyID string) bool {
	for _, hop := range seats {
		if hop.OtherID == companyID &&
			(hop.Rel.Kind == entity.RelDirectorOf || hop.Rel.Kind == entity.RelOfficerOf) {
			return true
		}
	}
	return false
}

func ownsInTransition(hops []entity.Hop, otherID string) bool {
	for _, hop := range hops {
		if hop.OtherID == otherID && hop.Rel.Kind == entity.RelOwns && inTransition(hop.Rel.Status) {
			return true
		}
	}
	return false
}

// detectNomineeDirectors flags any directly connected director holding
// enough simultaneous board seats to look like a nominee.
func (a *Assessor) detectNomineeDirectors(ctx context.Context, _ entity.Entity, hood *neighborhood) ([]Factor, error) {
	var factors []Factor
	for _, n := range hood.sorted() {
		if n.depth != 1 || n.entity.Kind != entity.KindPerson {
			continue
		}
		hop := n.path[len(n.path)-1]
		if hop.Rel.Kind != entity.RelDirectorOf {
			continue
		}
		seats, err := a.store.Neighbors(ctx, n.entity.ID)
		if err != nil {
			return nil, err
		}
		boards := 0
		for _, s := range seats {
			if s.Rel.Kind == entity.RelDirectorOf {
				boards++
			}
		}
		if boards < a.cfg.NomineeBoardThreshold {
			continue
		}
		factors = append(factors, Factor{
			Name: "nominee_director",
			Description: fmt.Sprintf("director %s holds %d simultaneous board seats",
				n.entity.DisplayName(), boards),
			Weight:     a.cfg.RiskWeights.NomineeDirector,
			SourceType: evidence.ClaimInferred,
			Confidence: nomineeConfidence,
			Citation:   firstCitation(n.path),
		})
	}
	return factors, nil
}

// detectLongOwnershipChain measures the longest directed chain of owners
// above the root. Chains deeper than the configured depth obscure the
// ultimate beneficial owner.
func (a *Assessor) detectLongOwnershipChain(ctx context.Context, root entity.Entity, _ *neighborhood) ([]Factor, error) {
	depth, minConf, err := a.ownerChainDepth(ctx, root.ID, map[string]bool{root.ID: true})
	if err != nil {
		return nil, err
	}
	if depth <= a.cfg.LongChainDepth {
		return nil, nil
	}
	return []Factor{{
		Name:        "long_ownership_chain",
		Description: fmt.Sprintf("ownership chain of depth %d above %s obscures the ultimate owner", depth, root.DisplayName()),
		Weight:      a.cfg.RiskWeights.LongOwnershipChain,
		SourceType:  evidence.ClaimComputed,
		Confidence:  minConf,
	}}, nil
}

// ownerChainDepth walks OWNS edges upward (toward owners) and returns the
// longest simple chain with its weakest-hop confidence.
func (a *Assessor) ownerChainDepth(ctx context.Context, id string, visited map[string]bool) (int, float64, error) {
	hops, err := a.store.Neighbors(ctx, id)
	if err != nil {
		return 0, 1.0, err
	}
	best, bestConf := 0, 1.0
	for _, hop := range hops {
		// Reversed OWNS means the far side owns this one.
		if hop.Rel.Kind != entity.RelOwns || !hop.Reversed || visited[hop.OtherID] {
			continue
		}
		visited[hop.OtherID] = true
		depth, conf, err := a.ownerChainDepth(ctx, hop.OtherID, visited)
		if err != nil {
			return 0, 1.0, err
		}
		delete(visited, hop.OtherID)
		if hop.Rel.Citation.Confidence < conf {
			conf = hop.Rel.Citation.Confidence
		}
		if depth+1 > best {
			best, bestConf = depth+1, conf
		}
	}
	return best, evidence.Round2(bestConf), nil
}
