// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/drawstate"
	"github.com/gogpu/drawstate/recording"
)

// pipelineCalls is the number of calls an unfiltered renderer issues per draw
// to set shaders, topology and the three state objects.
const pipelineCalls = 6

// Report summarizes one scenario run.
type Report struct {
	RunID    uuid.UUID
	Scenario string
	Elapsed  time.Duration

	Draws        uint64
	BindingCalls int
	// NaiveCalls is the number of binding calls issued if every category a
	// draw names were bound unconditionally.
	NaiveCalls int
	Commands   map[recording.CommandType]int

	Context drawstate.ContextStats
	Cache   drawstate.CacheStats
}

// Saved returns the fraction of naive binding calls that were filtered out.
func (r *Report) Saved() float64 {
	if r.NaiveCalls == 0 {
		return 0
	}
	return 1 - float64(r.BindingCalls)/float64(r.NaiveCalls)
}

// Run replays s against a recording device and collects statistics.
func Run(ctx context.Context, s *Scenario, logger *slog.Logger) (*Report, error) {
	descs, err := s.descriptors()
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger = logger.With(slog.String("run", runID.String()))
	start := time.Now()

	dev := recording.NewDevice(s.capabilities())
	cache := drawstate.NewPipelineStateCache(dev, drawstate.WithCacheLogger(logger))
	defer cache.ClearCache()
	merger := drawstate.NewDrawCallMerger(cache)
	rc := drawstate.NewRenderContext(dev,
		drawstate.WithContextID(runID),
		drawstate.WithLabel(s.Name),
		drawstate.WithContextLogger(logger))

	b := rc.NewBindingSet()
	naive := 0
	for pass := 0; pass < s.Repeat; pass++ {
		for i := range s.Draws {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d := &s.Draws[i]
			d.apply(b)
			call, _ := d.call()
			if err := merger.Submit(rc, b, descs[d.Pipeline], call); err != nil {
				return nil, fmt.Errorf("pass %d draw %d: %w", pass, i, err)
			}
			naive += d.naiveCalls()
		}
	}

	r := &Report{
		RunID:        runID,
		Scenario:     s.Name,
		Elapsed:      time.Since(start),
		Draws:        rc.Stats().Draws,
		BindingCalls: dev.BindingCalls(),
		NaiveCalls:   naive,
		Commands:     make(map[recording.CommandType]int),
		Context:      rc.Stats(),
		Cache:        cache.Stats(),
	}
	for _, c := range dev.Commands() {
		if c.Type().IsBinding() {
			r.Commands[c.Type()]++
		}
	}
	logger.Info("drawbench: run complete",
		slog.Uint64("draws", r.Draws),
		slog.Int("bindingCalls", r.BindingCalls),
		slog.Duration("elapsed", r.Elapsed))
	return r, nil
}

// naiveCalls counts the binding calls d would cost without filtering.
func (d *DrawConfig) naiveCalls() int {
	n := pipelineCalls
	lists := [][]uint64{
		d.Vertex, d.Targets,
		d.VertexConstantBuffers, d.VertexResources, d.VertexSamplers,
		d.FragmentConstantBuffers, d.FragmentResources, d.FragmentSamplers,
	}
	for _, l := range lists {
		if len(l) > 0 {
			n++
		}
	}
	for _, set := range []bool{d.InputLayout != nil, d.Index != nil, len(d.Viewport) > 0} {
		if set {
			n++
		}
	}
	return n
}

// WriteReport prints r as an aligned table.
func WriteReport(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "scenario\t%s\n", r.Scenario)
	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "elapsed\t%s\n", r.Elapsed)
	fmt.Fprintf(tw, "draws\t%d\n", r.Draws)
	fmt.Fprintf(tw, "binding calls\t%d\n", r.BindingCalls)
	fmt.Fprintf(tw, "naive calls\t%d\n", r.NaiveCalls)
	fmt.Fprintf(tw, "saved\t%.1f%%\n", r.Saved()*100)
	fmt.Fprintf(tw, "skipped categories\t%d\n", r.Context.SkippedCategories)
	fmt.Fprintf(tw, "pipeline switches\t%d\n", r.Context.PipelineSwitches)
	fmt.Fprintf(tw, "pipeline cache\t%d hits, %d misses\n", r.Cache.Hits, r.Cache.Misses)
	fmt.Fprintf(tw, "state objects\t%d raster, %d depth-stencil, %d blend\n",
		r.Cache.RasterStates, r.Cache.DepthStencilStates, r.Cache.BlendStates)
	for t := recording.CommandType(0); t.String() != "Unknown"; t++ {
		if n := r.Commands[t]; n > 0 {
			fmt.Fprintf(tw, "  %s\t%d\n", t, n)
		}
	}
	return tw.Flush()
}
