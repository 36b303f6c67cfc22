package analysis

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/rcl/syntax"
)

// ConflictSearcher detects static normative conflicts: pairs of deontic
// tags from distinct conjuncts of a clause that mandate incompatible
// behavior of the same agents.
type ConflictSearcher struct {
	individuals mapset.Set[syntax.ID]
	conflicts   []syntax.Conflict
}

// NewConflictSearcher builds a searcher over the given individuals and
// catalogue. The searcher keeps its own copy of the catalogue, so callers
// may reuse or mutate the slice afterwards.
func NewConflictSearcher(individuals mapset.Set[syntax.ID], conflicts []syntax.Conflict) *ConflictSearcher {
	owned := make([]syntax.Conflict, len(conflicts))
	copy(owned, conflicts)

	return &ConflictSearcher{
		individuals: individuals,
		conflicts:   owned,
	}
}

// Check marks the state Conflicting or ConflictFree and returns whether a
// conflict was found. On a conflict the state gets the offending tag, the
// conflicting tags, and the tag set the intersection was computed against.
func (s *ConflictSearcher) Check(state *automaton.State) bool {
	if state.Clause == nil {
		state.Situation = automaton.ConflictFree
		return false
	}

	processed := Elaborate(state.Clause)
	delta := s.extractTags(processed)

	for i, d1 := range delta {
		for j, d2 := range delta {
			if i == j {
				continue
			}

			for _, tag := range d1.ToSlice() {
				conflictSet := s.conflictSet(tag)
				intersection := conflictSet.Intersect(d2)

				if !intersection.IsEmpty() {
					state.Situation = automaton.Conflicting
					state.ConflictInfo = syntax.NewConflictInformation(tag, intersection, d2)
					return true
				}
			}
		}
	}

	state.Situation = automaton.ConflictFree
	return false
}

// extractTags is the Delta function: one tag set per deontic conjunct on
// the composition spine.
func (s *ConflictSearcher) extractTags(clause syntax.Clause) []mapset.Set[syntax.DeonticTag] {
	var result []mapset.Set[syntax.DeonticTag]

	if clause.Type() == syntax.ClauseDeontic {
		dc := clause.AsDeonticClause()
		dt := mapset.NewThreadUnsafeSet[syntax.DeonticTag]()

		for _, ba := range dc.Action.BasicActions() {
			switch dc.Rel {
			case syntax.Global:
				dt.Add(syntax.GlobalTag(dc.Deontic, ba))
			case syntax.Relativized:
				dt.Add(syntax.RelativizedTag(dc.Deontic, ba, dc.SenderID))
			case syntax.Directed:
				dt.Add(syntax.DirectedTag(dc.Deontic, ba, dc.SenderID, dc.ReceiverID))
			}
		}

		result = append(result, dt)
	}

	if comp := clause.Composition(); comp != nil {
		otherTags := s.extractTags(comp.Other)

		switch comp.Type {
		case syntax.CompositionAnd:
			result = append(result, otherTags...)
		default:
			// Or and Xor siblings are candidates just like And ones: even
			// alternatively composed obligations count as a static
			// conflict here.
			result = append(result, otherTags...)
		}
	}

	return result
}

// conflictSet is the F# function: every tag that conflicts with tag.
func (s *ConflictSearcher) conflictSet(tag syntax.DeonticTag) mapset.Set[syntax.DeonticTag] {
	out := mapset.NewThreadUnsafeSet[syntax.DeonticTag]()

	switch tag.Deontic {
	case syntax.Obligation:
		out = out.Union(s.tagsByType(syntax.Prohibition, tag))
		out = out.Union(s.predefinedConflicts(tag, []syntax.DeonticType{syntax.Obligation, syntax.Permission}))

	case syntax.Permission:
		out = out.Union(s.tagsByType(syntax.Prohibition, tag))
		out = out.Union(s.predefinedConflicts(tag, []syntax.DeonticType{syntax.Obligation}))

	case syntax.Prohibition:
		out = out.Union(s.tagsByType(syntax.Obligation, tag))
		out = out.Union(s.tagsByType(syntax.Permission, tag))
	}

	return out
}

// predefinedConflicts instantiates catalogue entries whose first action
// matches the tag's action. Global entries expand globally; relativized
// entries bind the tag's sender, unless the tag itself is global.
func (s *ConflictSearcher) predefinedConflicts(tag syntax.DeonticTag, types []syntax.DeonticType) mapset.Set[syntax.DeonticTag] {
	result := mapset.NewThreadUnsafeSet[syntax.DeonticTag]()

	for _, conflict := range s.conflicts {
		if !conflict.A.Equal(tag.Action) {
			continue
		}

		switch conflict.Type {
		case syntax.ConflictGlobal:
			for _, dt := range types {
				result = result.Union(s.tagsByType(dt, syntax.GlobalTag(dt, conflict.B)))
			}

		case syntax.ConflictRelativized:
			for _, dt := range types {
				if tag.Relativization == syntax.Global {
					result = result.Union(s.tagsByType(dt, syntax.GlobalTag(dt, conflict.B)))
				} else {
					result = result.Union(s.relativizedTags(dt, conflict.B, tag.Sender))
				}
			}
		}
	}

	return result
}

// relativizedTags expands (deontic type, action, sender) into the global
// form, the relativized form, and the directed form toward every
// individual.
func (s *ConflictSearcher) relativizedTags(d syntax.DeonticType, action syntax.BasicAction, sender syntax.ID) mapset.Set[syntax.DeonticTag] {
	tags := mapset.NewThreadUnsafeSet[syntax.DeonticTag]()

	tags.Add(syntax.GlobalTag(d, action))
	tags.Add(syntax.RelativizedTag(d, action, sender))

	for _, receiver := range s.individuals.ToSlice() {
		tags.Add(syntax.DirectedTag(d, action, sender, receiver))
	}

	return tags
}

// tagsByType generates every relativization instantiation of the pivot
// tag's action under the given deontic type, pivoting on the tag's own
// relativization.
func (s *ConflictSearcher) tagsByType(d syntax.DeonticType, pivot syntax.DeonticTag) mapset.Set[syntax.DeonticTag] {
	tags := mapset.NewThreadUnsafeSet[syntax.DeonticTag]()

	switch pivot.Relativization {
	case syntax.Global:
		tags.Add(syntax.GlobalTag(d, pivot.Action))

		for _, i := range s.individuals.ToSlice() {
			tags.Add(syntax.RelativizedTag(d, pivot.Action, i))

			for _, j := range s.individuals.ToSlice() {
				tags.Add(syntax.DirectedTag(d, pivot.Action, i, j))
			}
		}

	case syntax.Relativized:
		tags.Add(syntax.GlobalTag(d, pivot.Action))
		tags.Add(syntax.RelativizedTag(d, pivot.Action, pivot.Sender))

		for _, j := range s.individuals.ToSlice() {
			tags.Add(syntax.DirectedTag(d, pivot.Action, pivot.Sender, j))
		}

	case syntax.Directed:
		tags.Add(syntax.GlobalTag(d, pivot.Action))
		tags.Add(syntax.RelativizedTag(d, pivot.Action, pivot.Sender))
		tags.Add(syntax.DirectedTag(d, pivot.Action, pivot.Sender, pivot.Receiver))
	}

	return tags
}
