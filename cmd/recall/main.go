/*
Recall analyzes a Relativized Contract Language contract and reports the
automaton it induces together with any normative conflicts.

Usage:

	recall <contract_file> [flags]
	recall --batch <directory> [flags]

The flags are:

	-h, --help
		Print this help and exit.

	-v, --verbose
		Log every analysis step instead of only the protocol lines.

	-g, --graph
		Export the automaton as DOT and CSV next to the contract file,
		along with the plain-text exchange format.

	-n, --no-prunning
		Quantify every state over the contract's full individual set
		instead of pruning to the individuals its clause mentions.

	-c, --continue
		Keep expanding states after a normative conflict is found.

	-m, --minimized
		Export a DOT rendering with parallel transitions merged.

	-t, --test
		Print the RESULT_CSV metric line for batch harnesses.

	-b, --batch DIR
		Analyze every .rcl file in DIR, writing batch_results.csv and a
		SQLite results store in the directory.

	--config FILE
		Read defaults from a TOML config file (default recall.toml, if
		present).

	--snapshot FILE
		Write a binary snapshot of the finished automaton to FILE.

Short flags combine: "recall contract.rcl -vt" is verbose test mode.

Exit codes: 0 on success, 1 on usage or contract errors, 101 on an
uncaught panic. Code 137 comes from the external memory watchdog, never
from this process.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/pilati06/recall"
	"github.com/pilati06/recall/internal/config"
	"github.com/pilati06/recall/internal/export"
	"github.com/pilati06/recall/internal/rcllog"
)

const (

	// ExitSuccess indicates a successful analysis.
	ExitSuccess = 0

	// ExitUsageError indicates bad arguments or an unreadable or invalid
	// contract.
	ExitUsageError = 1

	// ExitPanic indicates an uncaught panic.
	ExitPanic = 101
)

var (
	flagHelp      = pflag.BoolP("help", "h", false, "Print help and exit")
	flagVerbose   = pflag.BoolP("verbose", "v", false, "Log every analysis step")
	flagGraph     = pflag.BoolP("graph", "g", false, "Export DOT, CSV and text renderings")
	flagNoPrune   = pflag.BoolP("no-prunning", "n", false, "Disable individuals pruning")
	flagContinue  = pflag.BoolP("continue", "c", false, "Continue after a conflict is found")
	flagMinimized = pflag.BoolP("minimized", "m", false, "Export minimized DOT rendering")
	flagTest      = pflag.BoolP("test", "t", false, "Print the RESULT_CSV metric line")
	flagBatch     = pflag.StringP("batch", "b", "", "Analyze every .rcl file in the directory")
	flagConfig    = pflag.String("config", "", "Path to a TOML defaults file")
	flagSnapshot  = pflag.String("snapshot", "", "Write a binary automaton snapshot to this file")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", panicErr)
			os.Exit(ExitPanic)
		}
	}()

	pflag.Usage = printUsage
	pflag.Parse()

	if *flagHelp {
		printUsage()
		os.Exit(ExitSuccess)
	}

	fileCfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}

	cfg := recall.Config{
		NoPruning:          *flagNoPrune || fileCfg.NoPruning,
		ContinueOnConflict: *flagContinue || fileCfg.ContinueOnConflict,
		BatchSize:          fileCfg.BatchSize,
		AllocationLimit:    fileCfg.AllocationLimitMB << 20,
	}

	logger := buildLogger(fileCfg)

	if *flagBatch != "" {
		if err := runBatch(*flagBatch, cfg, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(ExitUsageError)
		}
		os.Exit(ExitSuccess)
	}

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: recall <contract_file> [options]")
		os.Exit(ExitUsageError)
	}

	if err := runSingle(pflag.Arg(0), cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsageError)
	}

	os.Exit(ExitSuccess)
}

func buildLogger(fileCfg config.File) *rcllog.Logger {
	level := rcllog.Minimal
	if *flagVerbose {
		level = rcllog.Additional
	} else if parsed, ok := rcllog.ParseType(fileCfg.LogLevel); ok {
		level = parsed
	}

	if *flagVerbose {
		zl, err := zap.NewDevelopment()
		if err == nil {
			return rcllog.New(level, rcllog.NewZapSink(zl))
		}
	}

	return rcllog.New(level, rcllog.WriterSink{W: os.Stdout})
}

func runSingle(path string, cfg recall.Config, logger *rcllog.Logger) error {
	result, err := recall.New(cfg, logger).AnalyzeFile(path)
	if err != nil {
		return err
	}

	f := result.Formatter()

	if *flagGraph {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		if err := writeExport(base+".dot", export.DOT(result.Automaton, f)); err != nil {
			return err
		}
		if err := writeExport(base+".csv", export.CSV(result.Automaton, f)); err != nil {
			return err
		}
		if err := writeExport(base+".txt", export.Text(result.Automaton, result.Contract, f)); err != nil {
			return err
		}
	}

	if *flagMinimized {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		if err := writeExport(base+".min.dot", export.MinimizedDOT(result.Automaton, f)); err != nil {
			return err
		}
	}

	if *flagSnapshot != "" {
		snap := export.TakeSnapshot(result.Automaton, f)
		if err := os.WriteFile(*flagSnapshot, snap.Encode(), 0o644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	fmt.Println("FINAL_SUMMARY_START")
	fmt.Println(result.Summary())
	fmt.Println("FINAL_SUMMARY_END")

	if *flagTest {
		fmt.Println("RESULT_CSV:" + result.Metrics().ResultCSV())
	} else {
		fmt.Println("Analysis completed.")
	}

	return nil
}

func writeExport(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printUsage() {
	header := "Recall analyzes an RCL contract and reports the induced " +
		"automaton together with any normative conflicts found during " +
		"construction."

	fmt.Println(rosed.Edit(header).Wrap(80).String())
	fmt.Println()
	fmt.Println("Usage: recall <contract_file> [flags]")
	fmt.Println()
	pflag.PrintDefaults()
}
