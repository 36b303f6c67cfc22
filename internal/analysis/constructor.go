package analysis

import (
	"runtime"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/rcl/syntax"
)

// AutomataConstructor drives the analysis fixpoint: starting from the
// contract's full clause it repeatedly decomposes states under every valid
// action subset until no new residual clause appears.
type AutomataConstructor struct {
	cfg       Config
	extractor *ActionExtractor
	contract  syntax.Contract
	result    *automaton.Automaton
	logger    *rcllog.Logger
}

func NewAutomataConstructor(cfg Config) *AutomataConstructor {
	return &AutomataConstructor{cfg: cfg}
}

// Process builds the automaton of a contract. The automaton is mutated only
// on the calling goroutine; workers just produce (mask, successor clause)
// records, so the automaton stays consistent after each integration even if
// the process is killed from outside mid-build.
func (c *AutomataConstructor) Process(contract syntax.Contract, logger *rcllog.Logger) (*automaton.Automaton, error) {
	c.contract = contract
	c.logger = logger
	c.extractor = NewActionExtractor(contract.AllConflicts())

	full := contract.FullClause()
	c.result = automaton.New(full)

	err := c.construct(c.result.Initial.ID)

	out := c.result
	c.result = nil
	c.logger = nil
	return out, err
}

func (c *AutomataConstructor) construct(stateID int) error {
	state := c.result.StateByID(stateID)
	if state == nil || state.Clause == nil {
		return nil
	}
	clause := state.Clause

	if clause.Type() == syntax.ClauseBoolean {
		c.markBooleanState(state, clause.AsBooleanClause().Value)
		return nil
	}

	individuals := c.individualsFor(clause)

	searcher := NewConflictSearcher(individuals, c.contract.AllConflicts())
	conflict := searcher.Check(state)
	if conflict {
		c.result.ConflictFound = true
		c.logger.Logf(rcllog.Necessary, "Conflict found in %s: %s", state, state.ConflictInfo)
	}

	if conflict && !c.cfg.ContinueOnConflict {
		return nil
	}

	actions, err := c.extractor.ConcurrentRelativizedActions(clause, individuals, c.cfg, c.logger)
	if err != nil {
		return err
	}

	sourceMap := actions.SourceMap
	masks := actions.ValidMasks
	batchSize := c.cfg.batchSize()

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	for start := 0; start < len(masks); start += batchSize {
		end := start + batchSize
		if end > len(masks) {
			end = len(masks)
		}
		chunk := masks[start:end]

		decomposer := NewClauseDecomposer(individuals, true)
		successors := make([]syntax.Clause, len(chunk))

		var g errgroup.Group
		g.SetLimit(workers)
		for i, mask := range chunk {
			i, mask := i, mask
			g.Go(func() error {
				successors[i] = decomposer.Decompose(clause, decodeMask(mask, sourceMap))
				return nil
			})
		}
		// decomposition never errors; Wait only joins the workers
		_ = g.Wait()

		// integrate sequentially in mask order so transition ids, and with
		// them state ids, are stable across runs
		for i, next := range successors {
			mask := chunk[i]

			if existing := c.result.StateByClause(next); existing != nil {
				c.result.AddTransition(stateID, existing.ID, mask, sourceMap)
				continue
			}

			newState := c.result.AddState(next)
			c.logger.Logf(rcllog.Necessary, "New State: %s", newState)

			t := c.result.AddTransition(stateID, newState.ID, mask, sourceMap)
			newState.Trace = append(newState.Trace, t.ID)
			newState.Trace = append(newState.Trace, state.Trace...)

			if err := c.construct(newState.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *AutomataConstructor) markBooleanState(state *automaton.State, value bool) {
	if value {
		state.Situation = automaton.Satisfaction
	} else {
		state.Situation = automaton.Violating
	}
}

func (c *AutomataConstructor) individualsFor(clause syntax.Clause) mapset.Set[syntax.ID] {
	if c.cfg.Pruning {
		return PrunedIndividuals(clause, c.contract.Individuals)
	}
	return c.contract.Individuals
}

func decodeMask(mask uint32, sourceMap []syntax.RelativizedAction) mapset.Set[syntax.RelativizedAction] {
	set := mapset.NewThreadUnsafeSet[syntax.RelativizedAction]()
	for i := 0; i < len(sourceMap); i++ {
		if mask&(1<<uint(i)) != 0 {
			set.Add(sourceMap[i])
		}
	}
	return set
}
