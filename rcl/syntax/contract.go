package syntax

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Contract is an assembled RCL contract: an unordered set of clauses, the
// conflict catalogue, and the declared individuals and actions. The parser
// builds it; the analysis only reads it.
type Contract struct {
	Clauses              []Clause
	GlobalConflicts      []Conflict
	RelativizedConflicts []Conflict
	Individuals          mapset.Set[ID]
	Actions              mapset.Set[ID]
}

// AllConflicts returns the catalogue as one list, global entries first.
func (c Contract) AllConflicts() []Conflict {
	out := make([]Conflict, 0, len(c.GlobalConflicts)+len(c.RelativizedConflicts))
	out = append(out, c.GlobalConflicts...)
	out = append(out, c.RelativizedConflicts...)
	return out
}

// FullClause folds the contract's clauses into one clause: the clauses are
// sorted by category and canonical-form hash, then right-folded with And.
// The sort is what makes state ids reproducible across runs, so both the
// category order and the hash are pinned by tests.
//
// Categories: 0 for clauses whose canonical form contains "[!" (dynamic
// heads over negated actions), 1 for prohibition heads, 2 for obligation
// heads, 3 for everything else.
func (c Contract) FullClause() Clause {
	if len(c.Clauses) == 0 {
		return True()
	}

	sorted := make([]Clause, len(c.Clauses))
	copy(sorted, c.Clauses)

	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := clauseCategory(sorted[i]), clauseCategory(sorted[j])
		if ci != cj {
			return ci < cj
		}
		return StringHash(sorted[i].Key()) < StringHash(sorted[j].Key())
	})

	full := sorted[0]
	for _, cl := range sorted[1:] {
		full = AppendTail(full, cl, CompositionAnd)
	}
	return full
}

func clauseCategory(c Clause) int {
	if strings.Contains(c.Key(), "[!") {
		return 0
	}
	if c.Type() == ClauseDeontic {
		switch c.AsDeonticClause().Deontic {
		case Prohibition:
			return 1
		case Obligation:
			return 2
		}
	}
	return 3
}

// StringHash is the classical polynomial string hash h = 31*h + codepoint
// with wrapping signed 32-bit arithmetic, computed over the runes of s.
func StringHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}
	return h
}

// Formatter renders clauses and actions with source identifiers instead of
// symbol ids. Rendering is for humans and exports; equality and caching
// always go through Key().
type Formatter struct {
	Table *SymbolTable
}

// FormatBasicAction renders a basic action with its source name.
func (f Formatter) FormatBasicAction(a BasicAction) string {
	name := f.Table.Name(a.Value)
	if a.Negation {
		name = "!" + name
	}
	return name
}

// FormatAction renders an action expression.
func (f Formatter) FormatAction(a Action) string {
	if a.Type() == ActionBasic {
		return f.FormatBasicAction(a.AsBasicAction())
	}

	ca := a.AsComposedAction()
	if ca.Operator == OpStar {
		return "(" + f.FormatAction(ca.Left) + ")*"
	}
	if ca.Operator == OpNegation {
		return "!(" + f.FormatAction(ca.Left) + ")"
	}
	return "(" + f.FormatAction(ca.Left) + " " + ca.Operator.Symbol() + " " + f.FormatAction(ca.Right) + ")"
}

// FormatRelativizedAction renders one concrete firing.
func (f Formatter) FormatRelativizedAction(a RelativizedAction) string {
	s := f.Table.Name(a.Sender) + "?" + f.FormatBasicAction(a.Action) + "?" + f.Table.Name(a.Receiver)
	if a.Negation {
		s = "!" + s
	}
	return s
}

// FormatClause renders a clause, composition spine included.
func (f Formatter) FormatClause(c Clause) string {
	var sb strings.Builder
	f.formatHead(&sb, c)

	if comp := c.Composition(); comp != nil {
		sb.WriteString(" " + comp.Type.Symbol() + " ")
		sb.WriteString(f.FormatClause(comp.Other))
	}
	return sb.String()
}

func (f Formatter) formatHead(sb *strings.Builder, c Clause) {
	switch c.Type() {
	case ClauseBoolean:
		if c.AsBooleanClause().Value {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}

	case ClauseDeontic:
		dc := c.AsDeonticClause()
		switch dc.Deontic {
		case Obligation:
			sb.WriteString("O")
		case Permission:
			sb.WriteString("P")
		case Prohibition:
			sb.WriteString("F")
		}
		sb.WriteString("[" + f.FormatAction(dc.Action) + "]")
		f.formatEndpoints(sb, dc.Rel, dc.SenderID, dc.ReceiverID)
		if dc.Penalty != nil {
			sb.WriteString(" / " + f.FormatClause(dc.Penalty) + " /")
		}

	case ClauseDynamic:
		dc := c.AsDynamicClause()
		sb.WriteString("[" + f.FormatAction(dc.Action))
		switch dc.Rel {
		case Relativized:
			sb.WriteString(":" + f.Table.Name(dc.SenderID))
		case Directed:
			sb.WriteString(":" + f.Table.Name(dc.SenderID) + "->" + f.Table.Name(dc.ReceiverID))
		}
		sb.WriteString("](" + f.FormatClause(dc.Inner) + ")")
	}
}

func (f Formatter) formatEndpoints(sb *strings.Builder, rel RelativizationType, sender, receiver ID) {
	switch rel {
	case Relativized:
		sb.WriteString("(" + f.Table.Name(sender) + ")")
	case Directed:
		sb.WriteString("(" + f.Table.Name(sender) + "->" + f.Table.Name(receiver) + ")")
	}
}
