// Package export renders finished automata into the formats the desktop UI
// and downstream tools consume. Everything here is one-way: nothing in the
// analysis reads these formats back, except the binary snapshot.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/rcl/syntax"
)

// DOT renders the automaton as a Graphviz digraph. Nodes are color-coded:
// black for unchecked or conflict-free states, red for violating, green for
// satisfaction, orange for conflicting.
func DOT(a *automaton.Automaton, f syntax.Formatter) string {
	g := dot.NewGraph(dot.Directed)

	nodes := map[int]dot.Node{}
	for _, s := range a.States() {
		n := g.Node(fmt.Sprintf("S%d", s.ID))
		n.Attr("color", situationColor(s.Situation))
		n.Attr("fontcolor", situationColor(s.Situation))
		if s.Clause != nil {
			n.Attr("tooltip", f.FormatClause(s.Clause))
		}
		nodes[s.ID] = n
	}

	for _, t := range a.Transitions() {
		edge := g.Edge(nodes[t.From], nodes[t.To])
		edge.Attr("label", transitionLabel(t, f))
	}

	return g.String()
}

// MinimizedDOT renders the automaton with parallel transitions between the
// same pair of states merged into one edge carrying the union of labels.
// The merge is cosmetic; the underlying automaton keeps every transition.
func MinimizedDOT(a *automaton.Automaton, f syntax.Formatter) string {
	g := dot.NewGraph(dot.Directed)

	nodes := map[int]dot.Node{}
	for _, s := range a.States() {
		n := g.Node(fmt.Sprintf("S%d", s.ID))
		n.Attr("color", situationColor(s.Situation))
		n.Attr("fontcolor", situationColor(s.Situation))
		nodes[s.ID] = n
	}

	type pair struct{ from, to int }
	merged := map[pair][]string{}
	var order []pair
	for _, t := range a.Transitions() {
		p := pair{t.From, t.To}
		if _, ok := merged[p]; !ok {
			order = append(order, p)
		}
		merged[p] = append(merged[p], transitionLabel(t, f))
	}

	for _, p := range order {
		labels := merged[p]
		sort.Strings(labels)
		edge := g.Edge(nodes[p.from], nodes[p.to])
		edge.Attr("label", strings.Join(labels, "\n"))
	}

	return g.String()
}

func situationColor(s automaton.Situation) string {
	switch s {
	case automaton.Violating:
		return "red"
	case automaton.Satisfaction:
		return "green"
	case automaton.Conflicting:
		return "orange"
	}
	return "black"
}

func transitionLabel(t automaton.Transition, f syntax.Formatter) string {
	actions := t.Actions()
	if len(actions) == 0 {
		return "∅"
	}

	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = f.FormatRelativizedAction(a)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
