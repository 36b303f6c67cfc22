package analysis

import (
	"github.com/pilati06/recall/rcl/syntax"
)

// Elaborate rewrites a clause so that every head on the composition spine
// carries only a basic action, expressing the original action operators as
// boolean compositions of clauses. Inner clauses of dynamic heads are left
// alone; they get elaborated when a transition surfaces them. The rewrite
// is idempotent: elaborating an already elaborated clause is the identity.
func Elaborate(clause syntax.Clause) syntax.Clause {
	if comp := clause.Composition(); comp != nil {
		head := syntax.WithoutComposition(clause)

		c1 := elaborateSingle(head)
		c2 := Elaborate(comp.Other)

		return syntax.AppendTail(c1, c2, comp.Type)
	}
	return elaborateSingle(clause)
}

func elaborateSingle(clause syntax.Clause) syntax.Clause {
	switch clause.Type() {
	case syntax.ClauseBoolean:
		return clause

	case syntax.ClauseDeontic:
		if clause.AsDeonticClause().Action.Type() == syntax.ActionBasic {
			return clause
		}
		return rewriteToFixpoint(clause, elaborateDeonticHead)

	case syntax.ClauseDynamic:
		if clause.AsDynamicClause().Action.Type() == syntax.ActionBasic {
			return clause
		}
		return rewriteToFixpoint(clause, elaborateDynamicHead)
	}

	return clause
}

// rewriteToFixpoint applies one head rewrite and re-elaborates the result
// until nothing changes. The sub-heads a rewrite produces can themselves
// carry composed actions (for instance the left of a nested sequence), so a
// single pass is not enough. Termination: each rewrite strictly shrinks the
// action term it eliminates.
func rewriteToFixpoint(clause syntax.Clause, rewrite func(syntax.Clause) syntax.Clause) syntax.Clause {
	out := rewrite(clause)
	if out.Equal(clause) {
		return clause
	}
	return Elaborate(out)
}

func elaborateDeonticHead(clause syntax.Clause) syntax.Clause {
	dc := clause.AsDeonticClause()
	if dc.Action.Type() != syntax.ActionComposed {
		return clause
	}

	switch dc.Deontic {
	case syntax.Obligation, syntax.Permission:
		// permissions share the obligation rewrite
		return elaborateObligation(dc)
	case syntax.Prohibition:
		return elaborateProhibition(dc)
	}

	return clause
}

func elaborateObligation(dc syntax.DeonticClause) syntax.Clause {
	composed := dc.Action.AsComposedAction()
	comp := dc.Composition()

	switch composed.Operator {
	case syntax.OpConcurrency:
		// D(a & b) = D(a) AND D(b)
		c1 := deonticHead(dc, composed.Left, nil)
		c2 := deonticHead(dc, composed.Right, comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionAnd, c2))

	case syntax.OpSequence:
		// D(a . b) = D(a) AND [a:s->r](D(b))
		c1 := deonticHead(dc, composed.Left, nil)
		c2 := deonticHead(dc, composed.Right, nil)

		cd := syntax.NewDirectedDynamic(composed.Left, c2, dc.SenderID, dc.ReceiverID)
		cdWithComp := cd.WithComposition(comp)

		return c1.WithComposition(syntax.NewComposition(syntax.CompositionAnd, cdWithComp))

	case syntax.OpChoice:
		// D(a + b) = D(a) OR D(b)
		c1 := deonticHead(dc, composed.Left, nil)
		c2 := deonticHead(dc, composed.Right, comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionOr, c2))
	}

	return dc
}

func elaborateProhibition(dc syntax.DeonticClause) syntax.Clause {
	composed := dc.Action.AsComposedAction()
	comp := dc.Composition()

	switch composed.Operator {
	case syntax.OpChoice, syntax.OpConcurrency:
		// F(a + b) = F(a & b) = F(a) AND F(b)
		c1 := deonticHead(dc, composed.Left, nil)
		c2 := deonticHead(dc, composed.Right, comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionAnd, c2))

	case syntax.OpSequence:
		// F(a . b) = F(a) OR [a:s->r](F(b))
		c1 := deonticHead(dc, composed.Left, nil)
		c2 := deonticHead(dc, composed.Right, nil)

		cd := syntax.NewDirectedDynamic(composed.Left, c2, dc.SenderID, dc.ReceiverID)
		cdWithComp := cd.WithComposition(comp)

		return c1.WithComposition(syntax.NewComposition(syntax.CompositionOr, cdWithComp))
	}

	return dc
}

// deonticHead clones a deontic head with a replacement action and
// composition, keeping endpoints, modality and penalty.
func deonticHead(dc syntax.DeonticClause, action syntax.Action, comp *syntax.Composition) syntax.DeonticClause {
	out := syntax.DeonticClause{
		SenderID:   dc.SenderID,
		ReceiverID: dc.ReceiverID,
		Rel:        dc.Rel,
		Action:     action,
		Deontic:    dc.Deontic,
		Penalty:    dc.Penalty,
	}
	return out.WithComposition(comp).AsDeonticClause()
}

func elaborateDynamicHead(clause syntax.Clause) syntax.Clause {
	dc := clause.AsDynamicClause()
	if dc.Action.Type() != syntax.ActionComposed {
		return clause
	}

	composed := dc.Action.AsComposedAction()
	comp := dc.Composition()

	switch composed.Operator {
	case syntax.OpStar:
		// [a*]p = p AND [a]([a*]p)  (one unroll)
		guarded := dynamicHead(dc, composed.Left, dc)
		guardedWithComp := guarded.WithComposition(comp)

		return syntax.AppendTail(dc.Inner, guardedWithComp, syntax.CompositionAnd)

	case syntax.OpSequence:
		// [a . b]p = [a]([b]p)
		c1 := dynamicHead(dc, composed.Right, dc.Inner)
		outer := dynamicHead(dc, composed.Left, c1)
		return outer.WithComposition(comp)

	case syntax.OpChoice:
		// [a + b]p = [a]p AND [b]p
		c1 := dynamicHead(dc, composed.Left, dc.Inner)
		c2 := dynamicHead(dc, composed.Right, dc.Inner).WithComposition(comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionAnd, c2))

	case syntax.OpNegation:
		return elaborateDynamicNegation(dc)
	}

	return clause
}

// elaborateDynamicNegation pushes an action negation inward, De Morgan
// style, until it lands on basic actions.
func elaborateDynamicNegation(dc syntax.DynamicClause) syntax.Clause {
	composed := dc.Action.AsComposedAction()
	comp := dc.Composition()

	if composed.Left == nil {
		return syntax.False()
	}

	if composed.Left.Type() == syntax.ActionBasic {
		// !basic flips the negation bit
		negated := composed.Left.AsBasicAction().Negate()
		return dynamicHead(dc, negated, dc.Inner).WithComposition(comp)
	}

	inner := composed.Left.AsComposedAction()
	switch inner.Operator {
	case syntax.OpSequence:
		// !(a . b) = [!a]([!b]p)
		c1 := dynamicHead(dc, syntax.NegationAction(inner.Right), dc.Inner)
		outer := dynamicHead(dc, syntax.NegationAction(inner.Left), c1)
		return outer.WithComposition(comp)

	case syntax.OpConcurrency:
		// !(a & b) = [!a]p AND [!b]p
		c1 := dynamicHead(dc, syntax.NegationAction(inner.Left), dc.Inner)
		c2 := dynamicHead(dc, syntax.NegationAction(inner.Right), dc.Inner).WithComposition(comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionAnd, c2))

	case syntax.OpChoice:
		// !(a + b) = [!a]p OR [!b]p
		c1 := dynamicHead(dc, syntax.NegationAction(inner.Left), dc.Inner)
		c2 := dynamicHead(dc, syntax.NegationAction(inner.Right), dc.Inner).WithComposition(comp)
		return c1.WithComposition(syntax.NewComposition(syntax.CompositionOr, c2))

	case syntax.OpNegation:
		// double negation cancels
		return dynamicHead(dc, inner.Left, dc.Inner).WithComposition(comp)
	}

	return dc
}

// dynamicHead clones a dynamic head with a replacement action and inner
// clause, keeping endpoints; the composition is cleared.
func dynamicHead(dc syntax.DynamicClause, action syntax.Action, inner syntax.Clause) syntax.DynamicClause {
	return syntax.DynamicClause{
		SenderID:   dc.SenderID,
		ReceiverID: dc.ReceiverID,
		Rel:        dc.Rel,
		Action:     action,
		Inner:      inner,
	}
}
