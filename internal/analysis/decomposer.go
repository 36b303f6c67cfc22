package analysis

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pilati06/recall/rcl/syntax"
)

// ClauseDecomposer computes one-step residuals: given a clause and the set
// of relativized actions performed on a transition, it produces the clause
// that remains in force afterward.
type ClauseDecomposer struct {
	individuals       mapset.Set[syntax.ID]
	ignoreSelfActions bool
}

// NewClauseDecomposer builds a decomposer over the given individuals.
// When ignoreSelfActions is set and there is more than one individual,
// relativized action generation skips sender==receiver pairs.
func NewClauseDecomposer(individuals mapset.Set[syntax.ID], ignoreSelfActions bool) *ClauseDecomposer {
	return &ClauseDecomposer{
		individuals:       individuals,
		ignoreSelfActions: ignoreSelfActions,
	}
}

// Decompose rewrites clause under the chosen action set. The result is the
// residual contract: a Boolean leaf or a residual clause. Inner clauses
// surfaced by a firing dynamic guard keep their actions as written, so a
// residual head can still carry a composed action (e.g. [a*]true is its own
// residual when a is performed).
func (d *ClauseDecomposer) Decompose(clause syntax.Clause, actions mapset.Set[syntax.RelativizedAction]) syntax.Clause {
	if comp := clause.Composition(); comp != nil {
		head := syntax.WithoutComposition(clause)

		c1 := d.decomposeSingle(head, actions)
		c2 := d.Decompose(comp.Other, actions)

		return d.combine(c1, c2, comp.Type)
	}
	return d.decomposeSingle(clause, actions)
}

func (d *ClauseDecomposer) decomposeSingle(clause syntax.Clause, actions mapset.Set[syntax.RelativizedAction]) syntax.Clause {
	switch clause.Type() {
	case syntax.ClauseBoolean:
		return clause

	case syntax.ClauseDeontic:
		if clause.AsDeonticClause().Action.Type() == syntax.ActionComposed {
			processed := Elaborate(clause)
			if processed.Equal(clause) {
				// unreducible composed action; leave the clause in place
				return clause
			}
			return d.Decompose(processed, actions)
		}
		return d.decomposeDeontic(clause.AsDeonticClause(), actions)

	case syntax.ClauseDynamic:
		if clause.AsDynamicClause().Action.Type() == syntax.ActionComposed {
			processed := Elaborate(clause)
			if processed.Equal(clause) {
				return clause
			}
			return d.Decompose(processed, actions)
		}
		return d.decomposeDynamic(clause.AsDynamicClause(), actions)
	}

	return clause
}

func (d *ClauseDecomposer) decomposeDynamic(clause syntax.DynamicClause, actions mapset.Set[syntax.RelativizedAction]) syntax.Clause {
	basic := clause.Action.AsBasicAction()

	if basic.Skip {
		// SKIP always fires
		return clause.Inner
	}

	clauseActions := d.relativizedActionsFor(clause)

	var sat bool
	if clause.Rel == syntax.Relativized {
		sat = !actions.Intersect(clauseActions).IsEmpty()
	} else {
		sat = clauseActions.IsSubset(actions)
	}

	if basic.Negation {
		sat = !sat
	}

	if sat {
		return clause.Inner
	}
	return syntax.True()
}

func (d *ClauseDecomposer) decomposeDeontic(clause syntax.DeonticClause, actions mapset.Set[syntax.RelativizedAction]) syntax.Clause {
	basic := clause.Action.AsBasicAction()

	if basic.Violation || basic.Skip {
		return d.decomposeDeonticSpecial(clause)
	}

	clauseActions := d.relativizedActionsFor(clause)
	intersection := actions.Intersect(clauseActions)

	switch clause.Deontic {
	case syntax.Obligation:
		var satisfied bool
		if clause.Rel == syntax.Relativized {
			satisfied = !intersection.IsEmpty()
		} else {
			satisfied = clauseActions.IsSubset(actions)
		}

		if satisfied {
			return syntax.True()
		}
		return penaltyOrFalse(clause)

	case syntax.Prohibition:
		if intersection.IsEmpty() {
			return syntax.True()
		}
		return penaltyOrFalse(clause)
	}

	// Permission
	return syntax.True()
}

// decomposeDeonticSpecial handles heads over the reserved SKIP and
// VIOLATION actions.
func (d *ClauseDecomposer) decomposeDeonticSpecial(clause syntax.DeonticClause) syntax.Clause {
	basic := clause.Action.AsBasicAction()

	switch clause.Deontic {
	case syntax.Obligation:
		if basic.Skip {
			return syntax.True()
		}
		return penaltyOrFalse(clause)

	case syntax.Prohibition:
		if basic.Violation {
			return syntax.True()
		}
		return penaltyOrFalse(clause)
	}

	return syntax.True()
}

func penaltyOrFalse(clause syntax.DeonticClause) syntax.Clause {
	if clause.Penalty != nil {
		return clause.Penalty
	}
	return syntax.False()
}

// combine recombines the residuals of a head and its composition tail.
func (d *ClauseDecomposer) combine(c1, c2 syntax.Clause, t syntax.CompositionType) syntax.Clause {
	b1 := c1.Type() == syntax.ClauseBoolean
	b2 := c2.Type() == syntax.ClauseBoolean

	switch {
	case b1 && b2:
		return evaluateBoolean(c1.AsBooleanClause().Value, c2.AsBooleanClause().Value, t)

	case b1:
		return combineClause(c2, c1, t)

	case b2:
		return combineClause(c1, c2, t)
	}

	if syntax.Contains(c2, t, c1) {
		return c2
	}
	return syntax.AppendTail(c1, c2, t)
}

func evaluateBoolean(v1, v2 bool, t syntax.CompositionType) syntax.Clause {
	var result bool
	switch t {
	case syntax.CompositionAnd:
		result = v1 && v2
	case syntax.CompositionOr:
		result = v1 || v2
	case syntax.CompositionXor:
		result = v1 != v2
	}

	if result {
		return syntax.True()
	}
	return syntax.False()
}

// combineClause merges a non-boolean clause with a boolean operand: And
// collapses to identity or annihilator, Or and Xor keep the boolean as a
// trailing composition.
func combineClause(c1, c2 syntax.Clause, t syntax.CompositionType) syntax.Clause {
	if c2.Type() != syntax.ClauseBoolean {
		return c1
	}

	switch t {
	case syntax.CompositionAnd:
		if c2.AsBooleanClause().Value {
			return c1
		}
		return c2

	case syntax.CompositionOr, syntax.CompositionXor:
		return syntax.AppendTail(c1, c2, t)
	}

	return c1
}

// relativizedActionsFor generates the concrete firings of a single clause
// head under the decomposer's individuals.
func (d *ClauseDecomposer) relativizedActionsFor(clause syntax.Clause) mapset.Set[syntax.RelativizedAction] {
	set := mapset.NewThreadUnsafeSet[syntax.RelativizedAction]()

	var sender, receiver syntax.ID
	var rel syntax.RelativizationType
	var action syntax.Action

	switch clause.Type() {
	case syntax.ClauseDeontic:
		dc := clause.AsDeonticClause()
		sender, receiver, rel, action = dc.SenderID, dc.ReceiverID, dc.Rel, dc.Action
	case syntax.ClauseDynamic:
		dc := clause.AsDynamicClause()
		sender, receiver, rel, action = dc.SenderID, dc.ReceiverID, dc.Rel, dc.Action
	default:
		return set
	}

	ignore := d.ignoreSelfActions && d.individuals.Cardinality() > 1
	basics := action.BasicActions()

	switch rel {
	case syntax.Directed:
		for _, ba := range basics {
			set.Add(syntax.NewRelativizedAction(sender, ba, receiver))
		}

	case syntax.Relativized:
		for _, j := range d.individuals.ToSlice() {
			if ignore && sender == j {
				continue
			}
			for _, ba := range basics {
				set.Add(syntax.NewRelativizedAction(sender, ba, j))
			}
		}

	case syntax.Global:
		for _, i := range d.individuals.ToSlice() {
			for _, j := range d.individuals.ToSlice() {
				if ignore && i == j {
					continue
				}
				for _, ba := range basics {
					set.Add(syntax.NewRelativizedAction(i, ba, j))
				}
			}
		}
	}

	return set
}
