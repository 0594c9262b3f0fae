// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build drawstate_debug

package drawstate_test

import (
	"errors"
	"testing"

	"github.com/gogpu/drawstate"
	"github.com/gogpu/drawstate/recording"
)

func TestDebugValidation(t *testing.T) {
	tests := []struct {
		name  string
		caps  func(c *drawstate.Capabilities)
		bind  func(b *drawstate.ResourceBindingSet)
		call  drawstate.DrawCall
		error error
	}{
		{
			name: "vertex sampler without support",
			caps: func(c *drawstate.Capabilities) { c.VertexStageSampling = false },
			bind: func(b *drawstate.ResourceBindingSet) {
				b.SetSampler(drawstate.StageVertex, 0, 1)
			},
			call:  drawstate.NewDraw(3, 0),
			error: drawstate.ErrCapabilityUnsupported,
		},
		{
			name: "same view in two slots",
			bind: func(b *drawstate.ResourceBindingSet) {
				b.SetShaderResource(drawstate.StageFragment, 0, 7)
				b.SetShaderResource(drawstate.StageFragment, 3, 7)
			},
			call:  drawstate.NewDraw(3, 0),
			error: drawstate.ErrResourceAlreadyBound,
		},
		{
			name:  "indexed draw without index buffer",
			bind:  func(*drawstate.ResourceBindingSet) {},
			call:  drawstate.NewDrawIndexedInstanced(6, 2, 0, 0, 0),
			error: drawstate.ErrNoIndexBuffer,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := drawstate.DefaultCapabilities()
			if tt.caps != nil {
				tt.caps(&caps)
			}
			dev := recording.NewDevice(caps)
			merger := drawstate.NewDrawCallMerger(drawstate.NewPipelineStateCache(dev))
			ctx := drawstate.NewRenderContext(dev)

			b := ctx.NewBindingSet()
			tt.bind(b)
			desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

			err := merger.Submit(ctx, b, &desc, tt.call)
			if !errors.Is(err, tt.error) {
				t.Fatalf("Submit error = %v, want %v", err, tt.error)
			}
			if n := len(dev.Commands()); n != 0 {
				t.Errorf("device calls = %d, want 0", n)
			}
		})
	}
}

func TestDebugValidation_SameViewAcrossStages(t *testing.T) {
	dev := recording.NewDevice(drawstate.DefaultCapabilities())
	merger := drawstate.NewDrawCallMerger(drawstate.NewPipelineStateCache(dev))
	ctx := drawstate.NewRenderContext(dev)

	b := ctx.NewBindingSet()
	b.SetShaderResource(drawstate.StageVertex, 0, 7)
	b.SetShaderResource(drawstate.StageFragment, 0, 7)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	if err := merger.Submit(ctx, b, &desc, drawstate.NewDraw(3, 0)); err != nil {
		t.Errorf("Submit error = %v, want nil", err)
	}
}
