package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pilati06/recall"
	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/internal/results"
)

// runBatch analyzes every .rcl file in dir, accumulating one CSV of
// outcomes and recording the same rows in the directory's results store. A
// file that fails to analyze gets an error row instead of aborting the
// whole batch.
func runBatch(dir string, cfg recall.Config, logger *rcllog.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading batch directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".rcl" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no .rcl files found in %s", dir)
	}

	store, err := results.Open(filepath.Join(dir, "batch_results.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	var csv strings.Builder
	csv.WriteString("file;time_ms;states;transitions;individuals;actions;conflicting;conflict_count;automaton_size_mb;max_memory_mb;obs\n")

	ctx := context.Background()
	analyzer := recall.New(cfg, logger)

	for i, name := range files {
		logger.Logf(rcllog.Minimal, "[%d/%d] %s", i+1, len(files), name)

		result, err := analyzer.AnalyzeFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(&csv, "%s;-;-;-;-;-;-;-;-;-;%s\n", name,
				strings.ReplaceAll(strings.ReplaceAll(err.Error(), ";", ","), "\n", " "))

			row := results.Row{Run: logger.Run(), File: name, Obs: err.Error()}
			if storeErr := store.Record(ctx, row); storeErr != nil {
				return storeErr
			}
			continue
		}

		m := result.Metrics()
		fmt.Fprintf(&csv, "%s;%s\n", name, m.ResultCSV())

		row := results.Row{Run: logger.Run(), File: name, Metrics: m, Obs: "success"}
		if err := store.Record(ctx, row); err != nil {
			return err
		}
	}

	out := filepath.Join(dir, "batch_results.csv")
	if err := os.WriteFile(out, []byte(csv.String()), 0o644); err != nil {
		return fmt.Errorf("saving batch results: %w", err)
	}

	logger.Logf(rcllog.Minimal, "Batch analysis completed. Results saved to %s", out)
	return nil
}
