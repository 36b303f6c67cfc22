// Package recall analyzes Relativized Contract Language contracts: it
// parses a contract, constructs the automaton of residual clauses, and
// reports normative conflicts found along the way.
package recall

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dekarrin/rosed"

	"github.com/pilati06/recall/internal/analysis"
	"github.com/pilati06/recall/internal/automaton"
	"github.com/pilati06/recall/internal/export"
	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/rcl"
	"github.com/pilati06/recall/rcl/syntax"
)

const summaryWidth = 80

// Config is the run configuration of the analyzer facade. The zero value
// means: prune individuals, stop on conflict, default batch size.
type Config struct {
	// NoPruning quantifies every state over the contract's full individual
	// set instead of the ones its clause mentions.
	NoPruning bool

	// ContinueOnConflict keeps expanding states after a conflict is found.
	ContinueOnConflict bool

	// BatchSize overrides the parallel decomposition batch size.
	BatchSize int

	// AllocationLimit caps the subset mask buffer, in bytes.
	AllocationLimit int64
}

func (c Config) analysisConfig() analysis.Config {
	return analysis.Config{
		ContinueOnConflict: c.ContinueOnConflict,
		Pruning:            !c.NoPruning,
		BatchSize:          c.BatchSize,
		AllocationLimit:    c.AllocationLimit,
	}
}

// Result is one finished analysis.
type Result struct {
	Contract  syntax.Contract
	Table     *syntax.SymbolTable
	Automaton *automaton.Automaton
	Elapsed   time.Duration
	PeakMemMB float64
}

// Analyzer runs analyses. One analyzer may process several contracts in
// sequence; each run gets a fresh symbol table, so contracts never share
// ids.
type Analyzer struct {
	cfg    Config
	logger *rcllog.Logger
}

// New creates an analyzer. logger may be nil to discard all log output.
func New(cfg Config, logger *rcllog.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, logger: logger}
}

// AnalyzeFile parses and analyzes the contract in the file at path.
func (a *Analyzer) AnalyzeFile(path string) (*Result, error) {
	a.logger.Logf(rcllog.Necessary, "Analysing contract in %s", path)

	table := syntax.NewSymbolTable()
	contract, err := rcl.LoadContract(path, table)
	if err != nil {
		return nil, err
	}

	return a.analyze(contract, table)
}

// AnalyzeText parses and analyzes contract source text directly.
func (a *Analyzer) AnalyzeText(src string) (*Result, error) {
	table := syntax.NewSymbolTable()
	contract, err := rcl.ParseContract(src, table)
	if err != nil {
		return nil, err
	}

	return a.analyze(contract, table)
}

func (a *Analyzer) analyze(contract syntax.Contract, table *syntax.SymbolTable) (*Result, error) {
	// the table is read-only from here on
	table.Freeze()

	a.logger.Logf(rcllog.Necessary, "%s", table)
	a.logger.Log(rcllog.Necessary, "Processing contract...")

	constructor := analysis.NewAutomataConstructor(a.cfg.analysisConfig())

	start := time.Now()
	result, err := constructor.Process(contract, a.logger)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &Result{
		Contract:  contract,
		Table:     table,
		Automaton: result,
		Elapsed:   elapsed,
		PeakMemMB: float64(mem.Sys) / (1 << 20),
	}, nil
}

// Metrics assembles the metric row of the result.
func (r *Result) Metrics() export.Metrics {
	return export.CollectMetrics(r.Automaton, r.Contract, r.Elapsed.Milliseconds(), r.PeakMemMB)
}

// Formatter returns a clause formatter over the result's symbol table.
func (r *Result) Formatter() syntax.Formatter {
	return syntax.Formatter{Table: r.Table}
}

// Summary renders the human-readable closing report.
func (r *Result) Summary() string {
	m := r.Metrics()

	verdict := "No normative conflicts were found."
	if m.ConflictFound {
		verdict = fmt.Sprintf("Normative conflicts were found in %d state(s).", m.ConflictCount)

		for _, s := range r.Automaton.States() {
			if s.ConflictInfo != nil {
				verdict += fmt.Sprintf(" First: %s.", s.ConflictInfo)
				break
			}
		}
	}

	body := fmt.Sprintf(
		"Automaton built in %d ms: %d states, %d transitions over %d individuals and %d actions. %s",
		m.TimeMS, m.States, m.Transitions, m.Individuals, m.Actions, verdict,
	)

	return rosed.Edit(body).Wrap(summaryWidth).String()
}
