/*
Recallserver runs the analyzer behind an HTTP API for UI front ends.

Usage:

	recallserver [flags]

The flags are:

	-a, --address ADDRESS
		The address to listen on. Defaults to ":8180".

	-v, --verbose
		Log every analysis step of every request.

	-c, --continue
		Default every request to continue-on-conflict.

The only analysis endpoint is POST /analyze, which accepts a JSON body
{"text": "<contract source>", "mode": "Normal|Verbose|Test"} and replies
with the summary and metric counts; mode defaults to Normal, Verbose logs
every analysis step of that request, and Test additionally returns the
metric CSV payload. GET /health answers liveness probes.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/pilati06/recall"
	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/server"
)

const (

	// ExitSuccess indicates a clean shutdown.
	ExitSuccess = 0

	// ExitInitError indicates the server could not start or crashed.
	ExitInitError = 1
)

var (
	flagAddress  = pflag.StringP("address", "a", ":8180", "The address to listen on")
	flagVerbose  = pflag.BoolP("verbose", "v", false, "Log every analysis step")
	flagContinue = pflag.BoolP("continue", "c", false, "Continue after conflicts by default")
)

func main() {
	pflag.Parse()

	level := rcllog.Minimal
	if *flagVerbose {
		level = rcllog.Additional
	}

	zl, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logging: %v\n", err)
		os.Exit(ExitInitError)
	}

	srv := server.New(server.Config{
		Address: *flagAddress,
		Analyzer: recall.Config{
			ContinueOnConflict: *flagContinue,
		},
		Logger: rcllog.New(level, rcllog.NewZapSink(zl)),
	})

	fmt.Printf("Serving analysis API on %s\n", *flagAddress)
	if err := srv.ServeForever(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInitError)
	}

	os.Exit(ExitSuccess)
}
