package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/rcl/syntax"
)

// Text renders the automaton in the line-oriented exchange format:
//
//	A: declared actions
//	I: declared individuals
//	Q: state ids
//	V: violating state ids
//	S: satisfaction state ids
//	T: transitions, one "from-s?a?r,…-to;" group per transition
//
// Transition action triples are sender?action?receiver over symbol names.
func Text(a *automaton.Automaton, contract syntax.Contract, f syntax.Formatter) string {
	var sb strings.Builder

	sb.WriteString("A:")
	sb.WriteString(strings.Join(symbolNames(contract.Actions, f), ","))
	sb.WriteString("\nI:")
	sb.WriteString(strings.Join(symbolNames(contract.Individuals, f), ","))

	var stateIDs, violating, satisfying []string
	for _, s := range a.States() {
		id := strconv.Itoa(s.ID)
		stateIDs = append(stateIDs, id)
		switch s.Situation {
		case automaton.Violating:
			violating = append(violating, id)
		case automaton.Satisfaction:
			satisfying = append(satisfying, id)
		}
	}

	sb.WriteString("\nQ:")
	sb.WriteString(strings.Join(stateIDs, ","))
	sb.WriteString("\nV:")
	sb.WriteString(strings.Join(violating, ","))
	sb.WriteString("\nS:")
	sb.WriteString(strings.Join(satisfying, ","))

	sb.WriteString("\nT:")
	for _, t := range a.Transitions() {
		sb.WriteString(strconv.Itoa(t.From))
		sb.WriteByte('-')

		triples := make([]string, 0, len(t.SourceMap))
		for _, ra := range t.Actions() {
			triples = append(triples, f.FormatRelativizedAction(ra))
		}
		sb.WriteString(strings.Join(triples, ","))

		sb.WriteByte('-')
		sb.WriteString(strconv.Itoa(t.To))
		sb.WriteByte(';')
	}
	sb.WriteByte('\n')

	return sb.String()
}

func symbolNames(ids interface{ ToSlice() []syntax.ID }, f syntax.Formatter) []string {
	slice := ids.ToSlice()
	names := make([]string, 0, len(slice))
	for _, id := range slice {
		names = append(names, f.Table.Name(id))
	}
	sort.Strings(names)
	return names
}
