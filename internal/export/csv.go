package export

import (
	"fmt"
	"strings"

	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/rcl/syntax"
)

// CSV renders the state dump: one "id;clause;situation" line per state.
// Semicolons inside rendered clauses are replaced so rows stay parseable.
func CSV(a *automaton.Automaton, f syntax.Formatter) string {
	var sb strings.Builder
	sb.WriteString("id;clause;situation\n")

	for _, s := range a.States() {
		clause := ""
		if s.Clause != nil {
			clause = strings.ReplaceAll(f.FormatClause(s.Clause), ";", ",")
		}
		fmt.Fprintf(&sb, "%d;%s;%s\n", s.ID, clause, s.Situation)
	}

	return sb.String()
}

// Metrics is the payload of the RESULT_CSV line the test mode prints, and
// the row shape the batch results store records.
type Metrics struct {
	TimeMS        int64
	States        int
	Transitions   int
	Individuals   int
	Actions       int
	ConflictFound bool
	ConflictCount int
	SizeMB        float64
	PeakMemMB     float64
}

// CollectMetrics assembles the metric row for one finished analysis.
func CollectMetrics(a *automaton.Automaton, contract syntax.Contract, elapsedMS int64, peakMemMB float64) Metrics {
	return Metrics{
		TimeMS:        elapsedMS,
		States:        a.StateCount(),
		Transitions:   a.TransitionCount(),
		Individuals:   contract.Individuals.Cardinality(),
		Actions:       contract.Actions.Cardinality(),
		ConflictFound: a.ConflictFound,
		ConflictCount: a.ConflictCount(),
		SizeMB:        float64(a.SizeEstimate()) / (1 << 20),
		PeakMemMB:     peakMemMB,
	}
}

// ResultCSV renders the semicolon-separated metric payload:
// t_ms;states;transitions;individuals;actions;conflict;conflicts;size;mem;success
func (m Metrics) ResultCSV() string {
	conflict := 0
	if m.ConflictFound {
		conflict = 1
	}

	return fmt.Sprintf("%d;%d;%d;%d;%d;%d;%d;%.2f;%.2f;success",
		m.TimeMS, m.States, m.Transitions, m.Individuals, m.Actions,
		conflict, m.ConflictCount, m.SizeMB, m.PeakMemMB)
}
