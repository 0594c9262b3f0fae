// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command drawbench replays a TOML draw scenario through a render context and
// reports how many device binding calls the draw-call merger issued.
//
// Usage:
//
//	drawbench [-watch] [-log-level debug] scenario.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gogpu/drawstate"
)

func main() {
	var (
		watch    = flag.Bool("watch", false, "re-run when the scenario file changes")
		logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scenario.toml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := newLogger(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	drawstate.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path := flag.Arg(0)
	if *watch {
		err = Watch(ctx, path, logger, os.Stdout)
	} else {
		err = runFile(ctx, path, logger, os.Stdout)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("drawbench failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

// newLogger returns an slog logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           lvl,
		Prefix:          "drawbench",
	})
	return slog.New(handler), nil
}

func runFile(ctx context.Context, path string, logger *slog.Logger, out io.Writer) error {
	s, err := LoadScenario(path)
	if err != nil {
		return err
	}
	r, err := Run(ctx, s, logger)
	if err != nil {
		return err
	}
	return WriteReport(out, r)
}
