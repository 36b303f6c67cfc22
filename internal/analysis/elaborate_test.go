package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pilati06/recall/rcl/syntax"
)

func Test_Elaborate_Deontic(t *testing.T) {
	a1 := syntax.NewBasicAction(1)
	a2 := syntax.NewBasicAction(2)

	testCases := []struct {
		name   string
		input  syntax.Clause
		expect string
	}{
		{
			name:   "obligation over concurrency",
			input:  syntax.NewDirectedDeontic(syntax.Obligation, syntax.ConcurrencyAction(a1, a2), 10, 11),
			expect: "O_d{10,11}(1)&O_d{10,11}(2)",
		},
		{
			name:   "obligation over choice",
			input:  syntax.NewDirectedDeontic(syntax.Obligation, syntax.ChoiceAction(a1, a2), 10, 11),
			expect: "O_d{10,11}(1)|O_d{10,11}(2)",
		},
		{
			name:   "obligation over sequence guards the second step",
			input:  syntax.NewDirectedDeontic(syntax.Obligation, syntax.SequenceAction(a1, a2), 10, 11),
			expect: "O_d{10,11}(1)&d{10,11}[1](O_d{10,11}(2))",
		},
		{
			name:   "permission reuses the obligation rewrite",
			input:  syntax.NewDirectedDeontic(syntax.Permission, syntax.SequenceAction(a1, a2), 10, 11),
			expect: "P_d{10,11}(1)&d{10,11}[1](P_d{10,11}(2))",
		},
		{
			name:   "prohibition over choice",
			input:  syntax.NewDirectedDeontic(syntax.Prohibition, syntax.ChoiceAction(a1, a2), 10, 11),
			expect: "F_d{10,11}(1)&F_d{10,11}(2)",
		},
		{
			name:   "prohibition over concurrency",
			input:  syntax.NewDirectedDeontic(syntax.Prohibition, syntax.ConcurrencyAction(a1, a2), 10, 11),
			expect: "F_d{10,11}(1)&F_d{10,11}(2)",
		},
		{
			name:   "prohibition over sequence is disjunctive",
			input:  syntax.NewDirectedDeontic(syntax.Prohibition, syntax.SequenceAction(a1, a2), 10, 11),
			expect: "F_d{10,11}(1)|d{10,11}[1](F_d{10,11}(2))",
		},
		{
			name: "penalty is carried into both branches",
			input: syntax.NewDirectedDeontic(syntax.Obligation, syntax.ConcurrencyAction(a1, a2), 10, 11).
				WithPenalty(syntax.False()),
			expect: "O_d{10,11}(1)/false/&O_d{10,11}(2)/false/",
		},
		{
			name: "composition tail lands at the rightmost new clause",
			input: syntax.NewDirectedDeontic(syntax.Obligation, syntax.ConcurrencyAction(a1, a2), 10, 11).
				WithComposition(syntax.NewComposition(syntax.CompositionAnd, syntax.True())),
			expect: "O_d{10,11}(1)&O_d{10,11}(2)&true",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tc.expect, Elaborate(tc.input).Key())
		})
	}
}

func Test_Elaborate_Dynamic(t *testing.T) {
	a1 := syntax.NewBasicAction(1)
	a2 := syntax.NewBasicAction(2)

	testCases := []struct {
		name   string
		input  syntax.Clause
		expect string
	}{
		{
			name:   "sequence nests",
			input:  syntax.NewGlobalDynamic(syntax.SequenceAction(a1, a2), syntax.True()),
			expect: "g{-1,-1}[1](g{-1,-1}[2](true))",
		},
		{
			name:   "choice splits conjunctively",
			input:  syntax.NewGlobalDynamic(syntax.ChoiceAction(a1, a2), syntax.True()),
			expect: "g{-1,-1}[1](true)&g{-1,-1}[2](true)",
		},
		{
			name:   "star unrolls once",
			input:  syntax.NewGlobalDynamic(syntax.StarAction(a1), syntax.True()),
			expect: "true&g{-1,-1}[1](g{-1,-1}[(1)*](true))",
		},
		{
			name:   "negated concurrency",
			input:  syntax.NewGlobalDynamic(syntax.NegationAction(syntax.ConcurrencyAction(a1, a2)), syntax.True()),
			expect: "g{-1,-1}[!1](true)&g{-1,-1}[!2](true)",
		},
		{
			name:   "negated choice",
			input:  syntax.NewGlobalDynamic(syntax.NegationAction(syntax.ChoiceAction(a1, a2)), syntax.True()),
			expect: "g{-1,-1}[!1](true)|g{-1,-1}[!2](true)",
		},
		{
			name:  "negated sequence nests with the inner negation left for later",
			input: syntax.NewGlobalDynamic(syntax.NegationAction(syntax.SequenceAction(a1, a2)), syntax.True()),
			// the inner head is not on the spine, so its action is
			// elaborated only when a transition surfaces it
			expect: "g{-1,-1}[!1](g{-1,-1}[(!2)](true))",
		},
		{
			name:   "double negation cancels",
			input:  syntax.NewGlobalDynamic(syntax.NegationAction(syntax.NegationAction(syntax.ChoiceAction(a1, a2))), syntax.True()),
			expect: "g{-1,-1}[1](true)&g{-1,-1}[2](true)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			assert.Equal(tc.expect, Elaborate(tc.input).Key())
		})
	}
}

func Test_Elaborate_Idempotent(t *testing.T) {
	a1 := syntax.NewBasicAction(1)
	a2 := syntax.NewBasicAction(2)
	a3 := syntax.NewBasicAction(3)

	testCases := []struct {
		name  string
		input syntax.Clause
	}{
		{
			name:  "boolean",
			input: syntax.True(),
		},
		{
			name:  "basic deontic",
			input: syntax.NewGlobalDeontic(syntax.Obligation, a1),
		},
		{
			name:  "nested sequence",
			input: syntax.NewDirectedDeontic(syntax.Obligation, syntax.SequenceAction(syntax.SequenceAction(a1, a2), a3), 10, 11),
		},
		{
			name:  "choice of concurrency",
			input: syntax.NewGlobalDeontic(syntax.Prohibition, syntax.ChoiceAction(syntax.ConcurrencyAction(a1, a2), a3)),
		},
		{
			name:  "star over composed",
			input: syntax.NewGlobalDynamic(syntax.StarAction(syntax.SequenceAction(a1, a2)), syntax.False()),
		},
		{
			name: "spine of composed heads",
			input: syntax.AppendTail(
				syntax.NewGlobalDeontic(syntax.Obligation, syntax.ChoiceAction(a1, a2)),
				syntax.NewGlobalDynamic(syntax.NegationAction(syntax.ConcurrencyAction(a1, a3)), syntax.True()),
				syntax.CompositionXor,
			),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			once := Elaborate(tc.input)
			twice := Elaborate(once)

			assert.True(once.Equal(twice), "expected %s, got %s", once.Key(), twice.Key())
			assert.True(spineHeadsBasic(once), "spine heads still composed in %s", once.Key())
		})
	}
}

// spineHeadsBasic checks that no head on the composition spine carries a
// composed action.
func spineHeadsBasic(c syntax.Clause) bool {
	for {
		switch c.Type() {
		case syntax.ClauseDeontic:
			if c.AsDeonticClause().Action.Type() != syntax.ActionBasic {
				return false
			}
		case syntax.ClauseDynamic:
			if c.AsDynamicClause().Action.Type() != syntax.ActionBasic {
				return false
			}
		}

		comp := c.Composition()
		if comp == nil {
			return true
		}
		c = comp.Other
	}
}
