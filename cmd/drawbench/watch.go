// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch runs the scenario at path and runs it again every time the file is
// written, until ctx is canceled. Run errors are logged, not returned, so a
// broken edit does not stop the watch.
func Watch(ctx context.Context, path string, logger *slog.Logger, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors often replace the file on save.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	run := func() {
		if err := runFile(ctx, abs, logger, out); err != nil {
			logger.Error("drawbench: run failed", slog.String("err", err.Error()))
		}
	}
	run()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs {
				continue
			}
			if e.Op.Has(fsnotify.Write) || e.Op.Has(fsnotify.Create) {
				logger.Debug("drawbench: scenario changed", slog.String("op", e.Op.String()))
				run()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("drawbench: watch error", slog.String("err", err.Error()))
		}
	}
}
