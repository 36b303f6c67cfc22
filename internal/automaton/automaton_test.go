package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pilati06/recall/rcl/syntax"
)

func Test_Automaton_StateDedup(t *testing.T) {
	assert := assert.New(t)

	a := New(syntax.NewGlobalDeontic(syntax.Obligation, syntax.NewBasicAction(1)))
	assert.Equal(0, a.Initial.ID)
	assert.Equal(1, a.StateCount())

	s1 := a.AddState(syntax.True())
	assert.Equal(1, s1.ID)

	// lookup is structural, not identity-based
	found := a.StateByClause(syntax.True())
	assert.Same(s1, found)

	assert.Nil(a.StateByClause(syntax.False()))

	// the clause index is a function: a second state for the same clause
	// is a programming error
	assert.Panics(func() {
		a.AddState(syntax.True())
	})
}

func Test_Automaton_Transitions(t *testing.T) {
	assert := assert.New(t)

	a := New(syntax.NewGlobalDeontic(syntax.Obligation, syntax.NewBasicAction(1)))
	s1 := a.AddState(syntax.True())

	sourceMap := []syntax.RelativizedAction{
		syntax.NewRelativizedAction(10, syntax.NewBasicAction(1), 11),
		syntax.NewRelativizedAction(11, syntax.NewBasicAction(1), 10),
	}

	t0 := a.AddTransition(a.Initial.ID, s1.ID, 0b01, sourceMap)
	t1 := a.AddTransition(a.Initial.ID, s1.ID, 0b11, sourceMap)

	assert.Equal(0, t0.ID)
	assert.Equal(1, t1.ID)
	assert.Equal(2, a.TransitionCount())

	got, ok := a.TransitionByID(1)
	assert.True(ok)
	assert.Equal(t1.Mask, got.Mask)

	_, ok = a.TransitionByID(5)
	assert.False(ok)

	// decoding indexes set bits into the shared source map
	assert.Equal([]syntax.RelativizedAction{sourceMap[0]}, t0.Actions())
	assert.Equal(sourceMap, t1.Actions())
}

func Test_Automaton_TracePath(t *testing.T) {
	assert := assert.New(t)

	a := New(syntax.NewGlobalDeontic(syntax.Obligation, syntax.NewBasicAction(1)))
	mid := a.AddState(syntax.NewGlobalDeontic(syntax.Obligation, syntax.NewBasicAction(2)))
	leaf := a.AddState(syntax.False())

	t0 := a.AddTransition(a.Initial.ID, mid.ID, 1, nil)
	mid.Trace = append(mid.Trace, t0.ID)

	t1 := a.AddTransition(mid.ID, leaf.ID, 1, nil)
	leaf.Trace = append(leaf.Trace, t1.ID)
	leaf.Trace = append(leaf.Trace, mid.Trace...)

	path := a.TracePath(leaf)
	assert.Len(path, 2)
	assert.Equal(t1.ID, path[0].ID)
	assert.Equal(t0.ID, path[1].ID)
}

func Test_Automaton_ConflictCount(t *testing.T) {
	assert := assert.New(t)

	a := New(syntax.NewGlobalDeontic(syntax.Obligation, syntax.NewBasicAction(1)))
	assert.Zero(a.ConflictCount())

	a.Initial.Situation = Conflicting
	assert.Equal(1, a.ConflictCount())
}

func Test_Situation_String(t *testing.T) {
	testCases := []struct {
		name   string
		input  Situation
		expect string
	}{
		{name: "not checked", input: NotChecked, expect: "NotChecked"},
		{name: "conflict free", input: ConflictFree, expect: "ConflictFree"},
		{name: "conflicting", input: Conflicting, expect: "Conflicting"},
		{name: "violating", input: Violating, expect: "Violating"},
		{name: "satisfaction", input: Satisfaction, expect: "Satisfaction"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tc.expect, tc.input.String())
		})
	}
}
