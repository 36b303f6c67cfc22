package export

import (
	"fmt"

	"github.com/dekarrin/rezi"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/rcl/syntax"
)

// Snapshot is a self-contained dump of a (possibly still growing)
// automaton: enough to inspect states, transitions and conflict findings
// after the fact without re-running the analysis. Clauses and actions are
// stored in their rendered forms; a snapshot is a record of a run, not a
// resumable analysis.
type Snapshot struct {
	ConflictFound bool
	States        []SnapshotState
	Transitions   []SnapshotTransition
}

type SnapshotState struct {
	ID        int
	Clause    string
	Situation int
}

type SnapshotTransition struct {
	ID      int
	From    int
	To      int
	Mask    int
	Actions []string
}

// TakeSnapshot captures the automaton's current contents.
func TakeSnapshot(a *automaton.Automaton, f syntax.Formatter) Snapshot {
	snap := Snapshot{ConflictFound: a.ConflictFound}

	for _, s := range a.States() {
		clause := ""
		if s.Clause != nil {
			clause = f.FormatClause(s.Clause)
		}
		snap.States = append(snap.States, SnapshotState{
			ID:        s.ID,
			Clause:    clause,
			Situation: int(s.Situation),
		})
	}

	for _, t := range a.Transitions() {
		st := SnapshotTransition{
			ID:   t.ID,
			From: t.From,
			To:   t.To,
			Mask: int(t.Mask),
		}
		for _, ra := range t.Actions() {
			st.Actions = append(st.Actions, f.FormatRelativizedAction(ra))
		}
		snap.Transitions = append(snap.Transitions, st)
	}

	return snap
}

// Encode serializes the snapshot.
func (s Snapshot) Encode() []byte {
	return rezi.EncBinary(s)
}

// DecodeSnapshot deserializes a snapshot produced by Encode.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	n, err := rezi.DecBinary(data, &s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if n != len(data) {
		return Snapshot{}, fmt.Errorf("decoding snapshot: consumed %d/%d bytes", n, len(data))
	}
	return s, nil
}

func (s Snapshot) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, rezi.EncBool(s.ConflictFound)...)

	data = append(data, rezi.EncInt(len(s.States))...)
	for _, st := range s.States {
		data = append(data, rezi.EncInt(st.ID)...)
		data = append(data, rezi.EncString(st.Clause)...)
		data = append(data, rezi.EncInt(st.Situation)...)
	}

	data = append(data, rezi.EncInt(len(s.Transitions))...)
	for _, tr := range s.Transitions {
		data = append(data, rezi.EncInt(tr.ID)...)
		data = append(data, rezi.EncInt(tr.From)...)
		data = append(data, rezi.EncInt(tr.To)...)
		data = append(data, rezi.EncInt(tr.Mask)...)
		data = append(data, rezi.EncInt(len(tr.Actions))...)
		for _, a := range tr.Actions {
			data = append(data, rezi.EncString(a)...)
		}
	}

	return data, nil
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	s.ConflictFound, n, err = rezi.DecBool(data)
	if err != nil {
		return err
	}
	data = data[n:]

	var stateCount int
	stateCount, n, err = rezi.DecInt(data)
	if err != nil {
		return err
	}
	data = data[n:]

	s.States = nil
	for i := 0; i < stateCount; i++ {
		var st SnapshotState

		st.ID, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		st.Clause, n, err = rezi.DecString(data)
		if err != nil {
			return err
		}
		data = data[n:]

		st.Situation, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		s.States = append(s.States, st)
	}

	var transitionCount int
	transitionCount, n, err = rezi.DecInt(data)
	if err != nil {
		return err
	}
	data = data[n:]

	s.Transitions = nil
	for i := 0; i < transitionCount; i++ {
		var tr SnapshotTransition

		tr.ID, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		tr.From, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		tr.To, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		tr.Mask, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		var actionCount int
		actionCount, n, err = rezi.DecInt(data)
		if err != nil {
			return err
		}
		data = data[n:]

		for j := 0; j < actionCount; j++ {
			var a string
			a, n, err = rezi.DecString(data)
			if err != nil {
				return err
			}
			data = data[n:]
			tr.Actions = append(tr.Actions, a)
		}

		s.Transitions = append(s.Transitions, tr)
	}

	return nil
}
