// Package automaton is the state/transition store the analysis builds. It
// is a plain graph over integer ids; the analysis semantics live in
// internal/analysis.
package automaton

import (
	"fmt"

	"github.com/pilati06/recall/rcl/syntax"
)

// Situation is the marking of a state.
type Situation int

const (
	NotChecked Situation = iota
	ConflictFree
	Conflicting
	Violating
	Satisfaction
)

func (s Situation) String() string {
	switch s {
	case NotChecked:
		return "NotChecked"
	case ConflictFree:
		return "ConflictFree"
	case Conflicting:
		return "Conflicting"
	case Violating:
		return "Violating"
	case Satisfaction:
		return "Satisfaction"
	}
	return "?"
}

// State is one residual contract. Trace holds the transitions that led here,
// most recent first; walking it backward through the transition table
// reconstructs a counterexample path.
type State struct {
	ID           int
	Clause       syntax.Clause
	Situation    Situation
	ConflictInfo *syntax.ConflictInformation
	Trace        []int
}

func (s *State) String() string {
	clause := "<none>"
	if s.Clause != nil {
		clause = s.Clause.Key()
	}
	return fmt.Sprintf("state %d [%s] %s", s.ID, s.Situation, clause)
}

// Transition is one labeled edge. The action set it carries is the set of
// bits of Mask indexed into SourceMap, which is shared between all
// transitions produced by the same enumeration.
type Transition struct {
	ID        int
	From      int
	To        int
	Mask      uint32
	SourceMap []syntax.RelativizedAction
}

// Actions decodes the transition's mask against its source map.
func (t Transition) Actions() []syntax.RelativizedAction {
	var out []syntax.RelativizedAction
	for i := 0; i < len(t.SourceMap); i++ {
		if t.Mask&(1<<uint(i)) != 0 {
			out = append(out, t.SourceMap[i])
		}
	}
	return out
}

// Automaton is the result graph. States are deduplicated by clause: the
// clause index is a function from canonical clause keys to state ids.
type Automaton struct {
	Initial       *State
	ConflictFound bool

	states      map[int]*State
	order       []int
	byClause    map[string]int
	transitions []Transition
}

// New creates an automaton whose initial state holds the given clause.
func New(initial syntax.Clause) *Automaton {
	a := &Automaton{
		states:   map[int]*State{},
		byClause: map[string]int{},
	}
	a.Initial = a.AddState(initial)
	return a
}

// AddState creates a state for clause and indexes it. The caller must have
// checked StateByClause first; adding a duplicate clause panics, because it
// would break the clause-index invariant.
func (a *Automaton) AddState(clause syntax.Clause) *State {
	key := clause.Key()
	if _, ok := a.byClause[key]; ok {
		panic(fmt.Sprintf("duplicate state for clause %s", key))
	}

	s := &State{ID: len(a.order), Clause: clause}
	a.states[s.ID] = s
	a.order = append(a.order, s.ID)
	a.byClause[key] = s.ID
	return s
}

// StateByClause returns the state holding a structurally equal clause, or
// nil.
func (a *Automaton) StateByClause(clause syntax.Clause) *State {
	id, ok := a.byClause[clause.Key()]
	if !ok {
		return nil
	}
	return a.states[id]
}

// StateByID returns the state with the given id, or nil.
func (a *Automaton) StateByID(id int) *State {
	return a.states[id]
}

// AddTransition records an edge and returns it.
func (a *Automaton) AddTransition(from, to int, mask uint32, sourceMap []syntax.RelativizedAction) Transition {
	t := Transition{
		ID:        len(a.transitions),
		From:      from,
		To:        to,
		Mask:      mask,
		SourceMap: sourceMap,
	}
	a.transitions = append(a.transitions, t)
	return t
}

// TransitionByID returns the transition with the given id.
func (a *Automaton) TransitionByID(id int) (Transition, bool) {
	if id < 0 || id >= len(a.transitions) {
		return Transition{}, false
	}
	return a.transitions[id], true
}

// States returns the states in creation order.
func (a *Automaton) States() []*State {
	out := make([]*State, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.states[id])
	}
	return out
}

// Transitions returns the transitions in creation order.
func (a *Automaton) Transitions() []Transition {
	return a.transitions
}

func (a *Automaton) StateCount() int      { return len(a.order) }
func (a *Automaton) TransitionCount() int { return len(a.transitions) }

// ConflictCount returns the number of states marked Conflicting.
func (a *Automaton) ConflictCount() int {
	n := 0
	for _, id := range a.order {
		if a.states[id].Situation == Conflicting {
			n++
		}
	}
	return n
}

// TracePath resolves a state's trace into transitions, most recent first.
func (a *Automaton) TracePath(s *State) []Transition {
	out := make([]Transition, 0, len(s.Trace))
	for _, id := range s.Trace {
		if t, ok := a.TransitionByID(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// SizeEstimate is a rough in-memory footprint in bytes, used by the metric
// output. It counts clause keys and transition records, not Go runtime
// overhead.
func (a *Automaton) SizeEstimate() int64 {
	var total int64
	for _, id := range a.order {
		s := a.states[id]
		if s.Clause != nil {
			total += int64(len(s.Clause.Key()))
		}
		total += int64(8 * (len(s.Trace) + 4))
	}
	for i := range a.transitions {
		total += int64(24 + 16*len(a.transitions[i].SourceMap))
	}
	return total
}
