package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilati06/recall/rcl/syntax"
)

func Test_RelativizedActions_Modes(t *testing.T) {
	a1 := syntax.NewBasicAction(1)

	testCases := []struct {
		name        string
		individuals []syntax.ID
		clause      syntax.Clause
		expect      []syntax.RelativizedAction
	}{
		{
			name:        "directed yields exactly one firing",
			individuals: []syntax.ID{10, 11, 12},
			clause:      syntax.NewDirectedDeontic(syntax.Obligation, a1, 10, 11),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 11),
			},
		},
		{
			name:        "relativized quantifies the receiver and skips self",
			individuals: []syntax.ID{10, 11, 12},
			clause:      syntax.NewRelativizedDeontic(syntax.Obligation, a1, 10),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 11),
				syntax.NewRelativizedAction(10, a1, 12),
			},
		},
		{
			name:        "relativized with a lone individual keeps the self pair",
			individuals: []syntax.ID{10},
			clause:      syntax.NewRelativizedDeontic(syntax.Obligation, a1, 10),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 10),
			},
		},
		{
			name:        "global quantifies every ordered pair",
			individuals: []syntax.ID{10, 11},
			clause:      syntax.NewGlobalDeontic(syntax.Obligation, a1),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 11),
				syntax.NewRelativizedAction(11, a1, 10),
			},
		},
		{
			name:        "boolean leaves contribute nothing",
			individuals: []syntax.ID{10, 11},
			clause:      syntax.True(),
			expect:      nil,
		},
		{
			name:        "composition spine unions",
			individuals: []syntax.ID{10, 11},
			clause: syntax.AppendTail(
				syntax.NewDirectedDeontic(syntax.Obligation, a1, 10, 11),
				syntax.NewDirectedDynamic(syntax.NewBasicAction(2), syntax.True(), 11, 10),
				syntax.CompositionAnd,
			),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 11),
				syntax.NewRelativizedAction(11, syntax.NewBasicAction(2), 10),
			},
		},
		{
			name:        "composed actions contribute every leaf",
			individuals: []syntax.ID{10, 11},
			clause: syntax.NewDirectedDeontic(syntax.Obligation,
				syntax.ChoiceAction(a1, syntax.NewBasicAction(2)), 10, 11),
			expect: []syntax.RelativizedAction{
				syntax.NewRelativizedAction(10, a1, 11),
				syntax.NewRelativizedAction(10, syntax.NewBasicAction(2), 11),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			x := NewActionExtractor(nil)
			got := x.RelativizedActions(tc.clause, idSet(tc.individuals...))

			assert.ElementsMatch(tc.expect, got.ToSlice())
		})
	}
}

func Test_Extractor_CachesByElaboratedClause(t *testing.T) {
	assert := assert.New(t)

	x := NewActionExtractor(nil)
	clause := syntax.NewDirectedDeontic(syntax.Obligation, syntax.NewBasicAction(1), 10, 11)

	first, err := x.ConcurrentRelativizedActions(clause, idSet(10, 11), DefaultConfig(), nil)
	require.NoError(t, err)
	second, err := x.ConcurrentRelativizedActions(clause, idSet(10, 11), DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(first.ValidMasks, second.ValidMasks)
	assert.Equal(first.SourceMap, second.SourceMap)

	// a different individual set is a different enumeration
	other, err := x.ConcurrentRelativizedActions(
		syntax.NewRelativizedDeontic(syntax.Obligation, syntax.NewBasicAction(1), 10),
		idSet(10, 11, 12), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Len(other.SourceMap, 2)
}

func Test_Extractor_ErrorsPropagate(t *testing.T) {
	assert := assert.New(t)

	// a global clause over enough individuals exceeds the subset cap:
	// 6 senders * 6 receivers - self pairs = 30 firings of one action,
	// plus a second action pushes past 30
	clause := syntax.NewGlobalDeontic(syntax.Obligation,
		syntax.ChoiceAction(syntax.NewBasicAction(1), syntax.NewBasicAction(2)))

	x := NewActionExtractor(nil)
	_, err := x.ConcurrentRelativizedActions(clause, idSet(10, 11, 12, 13, 14, 15), DefaultConfig(), nil)

	assert.Error(err)
}
