package analysis

import (
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/rcl/syntax"
)

// ConcurrentActions is the compressed enumeration result for one clause:
// every valid subset of its relativized actions, each encoded as a bitmask
// over SourceMap. SourceMap is shared immutably by every transition built
// from this result.
type ConcurrentActions struct {
	SourceMap  []syntax.RelativizedAction
	ValidMasks []uint32
}

// ActionExtractor computes the relativized actions a clause can fire and
// their valid concurrent subsets. Results are memoized per elaborated
// clause for the duration of one contract's analysis; the cache is
// unbounded on purpose (the reachable clause set is finite).
type ActionExtractor struct {
	conflicts []syntax.Conflict
	cache     map[string]ConcurrentActions
}

func NewActionExtractor(conflicts []syntax.Conflict) *ActionExtractor {
	return &ActionExtractor{
		conflicts: conflicts,
		cache:     map[string]ConcurrentActions{},
	}
}

// ConcurrentRelativizedActions returns the valid concurrent subsets of the
// clause's relativized actions over the given individuals.
//
// If the clause has exactly one firable action, the negation of that action
// is appended as a synthetic source-map entry with its own singleton mask,
// so that "the agent refuses" is always an explorable transition and a
// lone obligation cannot look trivially satisfied.
func (x *ActionExtractor) ConcurrentRelativizedActions(
	clause syntax.Clause,
	individuals mapset.Set[syntax.ID],
	cfg Config,
	logger *rcllog.Logger,
) (ConcurrentActions, error) {
	processed := Elaborate(clause)

	cacheKey := processed.Key() + "@" + individualsKey(individuals)
	if cached, ok := x.cache[cacheKey]; ok {
		return cached, nil
	}

	actions := x.RelativizedActions(processed, individuals)

	logger.Logf(rcllog.Necessary, "Concurrent Relativized Actions for %s is [%s]",
		processed.Key(), actionSetString(actions))

	result, err := EnumerateConcurrent(actions, x.conflicts, cfg, logger)
	if err != nil {
		return ConcurrentActions{}, err
	}

	if len(result.SourceMap) == 1 {
		negation := syntax.NegatedRelativizedAction(result.SourceMap[0])
		result.SourceMap = append(result.SourceMap, negation)
		result.ValidMasks = append(result.ValidMasks, 1<<uint(len(result.SourceMap)-1))
	}

	x.cache[cacheKey] = result
	return result, nil
}

// RelativizedActions computes R(clause): the union over the composition
// spine of each head's concrete firings. Boolean leaves contribute nothing.
// Self-directed pairs are skipped whenever more than one individual is in
// scope.
func (x *ActionExtractor) RelativizedActions(clause syntax.Clause, individuals mapset.Set[syntax.ID]) mapset.Set[syntax.RelativizedAction] {
	actions := mapset.NewThreadUnsafeSet[syntax.RelativizedAction]()

	var sender, receiver syntax.ID
	var rel syntax.RelativizationType
	var action syntax.Action
	headless := false

	switch clause.Type() {
	case syntax.ClauseDeontic:
		dc := clause.AsDeonticClause()
		sender, receiver, rel, action = dc.SenderID, dc.ReceiverID, dc.Rel, dc.Action
	case syntax.ClauseDynamic:
		dc := clause.AsDynamicClause()
		sender, receiver, rel, action = dc.SenderID, dc.ReceiverID, dc.Rel, dc.Action
	default:
		headless = true
	}

	if !headless {
		ignoreSelf := individuals.Cardinality() > 1
		basics := action.BasicActions()

		switch rel {
		case syntax.Directed:
			for _, ba := range basics {
				actions.Add(syntax.NewRelativizedAction(sender, ba, receiver))
			}

		case syntax.Relativized:
			for _, j := range individuals.ToSlice() {
				if ignoreSelf && sender == j {
					continue
				}
				for _, ba := range basics {
					actions.Add(syntax.NewRelativizedAction(sender, ba, j))
				}
			}

		case syntax.Global:
			for _, i := range individuals.ToSlice() {
				for _, j := range individuals.ToSlice() {
					if ignoreSelf && i == j {
						continue
					}
					for _, ba := range basics {
						actions.Add(syntax.NewRelativizedAction(i, ba, j))
					}
				}
			}
		}
	}

	if comp := clause.Composition(); comp != nil {
		actions = actions.Union(x.RelativizedActions(comp.Other, individuals))
	}

	return actions
}

// PrunedIndividuals returns the individuals a clause's spine mentions as
// sender or receiver. If the spine mentions none, one arbitrary individual
// from the full set stands in, so that global quantification still ranges
// over something.
func PrunedIndividuals(clause syntax.Clause, all mapset.Set[syntax.ID]) mapset.Set[syntax.ID] {
	found := mapset.NewThreadUnsafeSet[syntax.ID]()
	collectIndividuals(clause, found)

	if found.IsEmpty() {
		slice := all.ToSlice()
		if len(slice) > 0 {
			sort.Slice(slice, func(i, j int) bool { return slice[i] < slice[j] })
			found.Add(slice[0])
		}
	}

	return found
}

func collectIndividuals(clause syntax.Clause, into mapset.Set[syntax.ID]) {
	if s := clause.Sender(); s > 0 {
		into.Add(s)
	}
	if r := clause.Receiver(); r > 0 {
		into.Add(r)
	}

	if comp := clause.Composition(); comp != nil {
		collectIndividuals(comp.Other, into)
	}
}

func individualsKey(individuals mapset.Set[syntax.ID]) string {
	ids := individuals.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(int64(id), 10))
	}
	return sb.String()
}

func actionSetString(actions mapset.Set[syntax.RelativizedAction]) string {
	parts := make([]string, 0, actions.Cardinality())
	for _, a := range actions.ToSlice() {
		parts = append(parts, a.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
