package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Conflict_Symmetric(t *testing.T) {
	assert := assert.New(t)

	a := NewBasicAction(1)
	b := NewBasicAction(2)

	ab := NewConflict(a, b, ConflictGlobal)
	ba := NewConflict(b, a, ConflictGlobal)

	// the pair is unordered: key and equality agree both ways
	assert.Equal(ab.Key(), ba.Key())
	assert.True(ab.Equal(ba))
	assert.True(ba.Equal(&ab))

	// scope participates
	rel := NewConflict(a, b, ConflictRelativized)
	assert.False(ab.Equal(rel))
}

func Test_DeonticTag_Constructors(t *testing.T) {
	assert := assert.New(t)

	a := NewBasicAction(1)

	g := GlobalTag(Obligation, a)
	assert.Equal(Global, g.Relativization)
	assert.Equal(NoIndividual, g.Sender)
	assert.Equal(NoIndividual, g.Receiver)

	r := RelativizedTag(Prohibition, a, 7)
	assert.Equal(Relativized, r.Relativization)
	assert.Equal(ID(7), r.Sender)
	assert.Equal(NoIndividual, r.Receiver)

	d := DirectedTag(Permission, a, 7, 8)
	assert.Equal(Directed, d.Relativization)
	assert.Equal(ID(7), d.Sender)
	assert.Equal(ID(8), d.Receiver)

	// tags are comparable values usable as set elements
	assert.NotEqual(g, r)
	assert.Equal(g, GlobalTag(Obligation, a))
}

func Test_Formatter(t *testing.T) {
	table := NewSymbolTable()
	pay, _ := table.Intern("pay", SymbolAction)
	deliver, _ := table.Intern("deliver", SymbolAction)
	alice, _ := table.Intern("alice", SymbolIndividual)
	bob, _ := table.Intern("bob", SymbolIndividual)
	f := Formatter{Table: table}

	testCases := []struct {
		name   string
		clause Clause
		expect string
	}{
		{
			name:   "global deontic",
			clause: NewGlobalDeontic(Obligation, NewBasicAction(pay)),
			expect: "O[pay]",
		},
		{
			name:   "directed with penalty",
			clause: NewDirectedDeontic(Obligation, NewBasicAction(pay), alice, bob).WithPenalty(False()),
			expect: "O[pay](alice->bob) / false /",
		},
		{
			name:   "relativized permission",
			clause: NewRelativizedDeontic(Permission, NewBasicAction(deliver), bob),
			expect: "P[deliver](bob)",
		},
		{
			name:   "dynamic directed",
			clause: NewDirectedDynamic(NewBasicAction(pay), True(), alice, bob),
			expect: "[pay:alice->bob](true)",
		},
		{
			name: "composition",
			clause: AppendTail(
				NewGlobalDeontic(Prohibition, NewBasicAction(pay)),
				True(), CompositionOr),
			expect: "F[pay] | true",
		},
		{
			name:   "composed action",
			clause: NewGlobalDeontic(Obligation, SequenceAction(NewBasicAction(pay), NewBasicAction(deliver))),
			expect: "O[(pay . deliver)]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tc.expect, f.FormatClause(tc.clause))
		})
	}
}
