// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate_test

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawstate"
	"github.com/gogpu/drawstate/recording"
)

type testEnv struct {
	dev    *recording.Device
	cache  *drawstate.PipelineStateCache
	merger *drawstate.DrawCallMerger
	ctx    *drawstate.RenderContext
}

func newEnv(t testing.TB) *testEnv {
	t.Helper()
	dev := newDevice()
	cache := drawstate.NewPipelineStateCache(dev)
	return &testEnv{
		dev:    dev,
		cache:  cache,
		merger: drawstate.NewDrawCallMerger(cache),
		ctx:    drawstate.NewRenderContext(dev),
	}
}

func (e *testEnv) submit(t *testing.T, b *drawstate.ResourceBindingSet, d *drawstate.PipelineStateDescriptor) {
	t.Helper()
	if err := e.merger.Submit(e.ctx, b, d, drawstate.NewDraw(3, 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

// bindings returns the binding commands recorded since the last Reset.
func (e *testEnv) bindings() []recording.Command {
	var out []recording.Command
	for _, c := range e.dev.Commands() {
		if c.Type().IsBinding() {
			out = append(out, c)
		}
	}
	return out
}

func commandTypes(cmds []recording.Command) []recording.CommandType {
	out := make([]recording.CommandType, len(cmds))
	for i, c := range cmds {
		out[i] = c.Type()
	}
	return out
}

func fullBindingSet(ctx *drawstate.RenderContext) *drawstate.ResourceBindingSet {
	b := ctx.NewBindingSet()
	b.SetInputLayout(5)
	b.SetVertexBuffer(0, drawstate.VertexBufferBinding{Buffer: 10, Stride: 32})
	b.SetVertexBuffer(1, drawstate.VertexBufferBinding{Buffer: 11, Stride: 8})
	b.SetIndexBuffer(drawstate.IndexBufferBinding{Buffer: 12, Format: gputypes.IndexFormatUint16})
	for i := 0; i < 8; i++ {
		b.SetConstantBuffer(drawstate.StageFragment, i, drawstate.BufferID(100+i))
	}
	b.SetConstantBuffer(drawstate.StageVertex, 0, 200)
	b.SetShaderResource(drawstate.StageFragment, 0, 300)
	b.SetShaderResource(drawstate.StageFragment, 1, 301)
	b.SetSampler(drawstate.StageFragment, 0, 400)
	b.SetRenderTarget(0, 500)
	b.SetRenderTarget(1, 501)
	b.SetDepthStencilView(600)
	b.SetViewport(0, drawstate.Viewport{Width: 800, Height: 600, MaxDepth: 1})
	b.SetScissorRect(0, drawstate.ScissorRect{Right: 800, Bottom: 600})
	b.SetStencilRef(1)
	return b
}

func TestMerge_Idempotent(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	b := fullBindingSet(e.ctx)
	e.submit(t, b, &desc)
	e.dev.Reset()

	t.Run("same set", func(t *testing.T) {
		ch, err := e.merger.Merge(e.ctx, b, &desc)
		if err != nil {
			t.Fatal(err)
		}
		if !ch.Empty() {
			t.Errorf("Flags = %v, want None", ch.Flags)
		}
	})

	t.Run("rewritten set", func(t *testing.T) {
		e.dev.Reset()
		e.submit(t, fullBindingSet(e.ctx), &desc)
		if got := e.bindings(); len(got) != 0 {
			t.Errorf("binding calls for identical state: %v", commandTypes(got))
		}
		if e.dev.Count(recording.CmdDraw) != 2 {
			t.Errorf("draws = %d, want 2", e.dev.Count(recording.CmdDraw))
		}
	})

	if s := e.ctx.Stats(); s.SkippedCategories == 0 {
		t.Errorf("SkippedCategories = 0, want redundant writes counted")
	}
}

func TestMerge_EightConstantBuffers(t *testing.T) {
	tests := []struct {
		name  string
		write func(b *drawstate.ResourceBindingSet)
	}{
		{"single write", func(b *drawstate.ResourceBindingSet) {
			b.SetConstantBuffer(drawstate.StageFragment, 3, 999)
		}},
		{"rewrite all eight", func(b *drawstate.ResourceBindingSet) {
			for i := 0; i < 8; i++ {
				id := drawstate.BufferID(100 + i)
				if i == 3 {
					id = 999
				}
				b.SetConstantBuffer(drawstate.StageFragment, i, id)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
			b := fullBindingSet(e.ctx)
			e.submit(t, b, &desc)
			e.dev.Reset()

			tt.write(b)
			ch, err := e.merger.Merge(e.ctx, b, &desc)
			if err != nil {
				t.Fatal(err)
			}
			if got := ch.ConstantBuffers(drawstate.StageFragment); got != (drawstate.Range{Start: 3, Count: 1}) {
				t.Errorf("fragment constant buffer range = %v, want (3,1)", got)
			}
			if ch.Flags != drawstate.ChangeFragmentConstantBuffers {
				t.Errorf("Flags = %v, want FragmentConstantBuffers", ch.Flags)
			}
			if err := e.merger.Apply(e.ctx, ch); err != nil {
				t.Fatal(err)
			}

			cmds := e.dev.CommandsOf(recording.CmdSetConstantBuffers)
			if len(cmds) != 1 {
				t.Fatalf("SetConstantBuffers calls = %d, want 1", len(cmds))
			}
			got := cmds[0].(recording.SetConstantBuffersCommand)
			want := recording.SetConstantBuffersCommand{
				Stage:     gputypes.ShaderStageFragment,
				StartSlot: 3,
				Buffers:   []drawstate.BufferID{999},
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("command = %+v, want %+v", got, want)
			}
			if len(e.bindings()) != 1 {
				t.Errorf("binding calls = %v, want only SetConstantBuffers", commandTypes(e.bindings()))
			}
			if b.IsDirty() {
				t.Error("binding set still dirty after Apply")
			}
		})
	}
}

func TestMerge_RenderTargetAtomicity(t *testing.T) {
	tests := []struct {
		name  string
		write func(b *drawstate.ResourceBindingSet)
		want  recording.SetRenderTargetsCommand
	}{
		{
			"depth-stencil only",
			func(b *drawstate.ResourceBindingSet) { b.SetDepthStencilView(601) },
			recording.SetRenderTargetsCommand{Targets: []drawstate.RenderTargetViewID{500, 501}, DepthStencil: 601},
		},
		{
			"second color target",
			func(b *drawstate.ResourceBindingSet) { b.SetRenderTarget(1, 502) },
			recording.SetRenderTargetsCommand{Targets: []drawstate.RenderTargetViewID{500, 502}, DepthStencil: 600},
		},
		{
			"unbind all",
			func(b *drawstate.ResourceBindingSet) { b.UnbindRenderTargets() },
			recording.SetRenderTargetsCommand{Targets: []drawstate.RenderTargetViewID{}, DepthStencil: drawstate.InvalidID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
			b := fullBindingSet(e.ctx)
			e.submit(t, b, &desc)
			e.dev.Reset()

			tt.write(b)
			e.submit(t, b, &desc)

			cmds := e.bindings()
			if len(cmds) != 1 {
				t.Fatalf("binding calls = %v, want one SetRenderTargets", commandTypes(cmds))
			}
			got, ok := cmds[0].(recording.SetRenderTargetsCommand)
			if !ok {
				t.Fatalf("command = %T", cmds[0])
			}
			if len(got.Targets) != len(tt.want.Targets) || got.DepthStencil != tt.want.DepthStencil {
				t.Fatalf("SetRenderTargets = %+v, want %+v", got, tt.want)
			}
			for i := range got.Targets {
				if got.Targets[i] != tt.want.Targets[i] {
					t.Errorf("target %d = %d, want %d", i, got.Targets[i], tt.want.Targets[i])
				}
			}
		})
	}
}

func TestMerge_RenderTargetAtomicityFreshSet(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	e.submit(t, fullBindingSet(e.ctx), &desc)
	e.dev.Reset()

	b := e.ctx.NewBindingSet()
	b.SetStencilRef(1)
	b.SetDepthStencilView(601)
	e.submit(t, b, &desc)

	cmds := e.bindings()
	if len(cmds) != 1 {
		t.Fatalf("binding calls = %v, want one SetRenderTargets", commandTypes(cmds))
	}
	got := cmds[0].(recording.SetRenderTargetsCommand)
	if !reflect.DeepEqual(got.Targets, []drawstate.RenderTargetViewID{500, 501}) || got.DepthStencil != 601 {
		t.Errorf("SetRenderTargets = %+v, want targets [500 501] dsv 601", got)
	}

	// The next fresh set changes one color target and keeps the new view.
	e.dev.Reset()
	b = e.ctx.NewBindingSet()
	b.SetStencilRef(1)
	b.SetRenderTarget(1, 502)
	e.submit(t, b, &desc)

	s := e.dev.State()
	if s.RenderTargets[0] != 500 || s.RenderTargets[1] != 502 || s.DepthStencil != 601 {
		t.Errorf("device render targets = %v dsv %d, want [500 502 ...] dsv 601", s.RenderTargets, s.DepthStencil)
	}
}

func TestMerge_MinimalDiffMatchesDevice(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := e.ctx.NewBindingSet()
	caps := e.ctx.Capabilities()
	rng := rand.New(rand.NewPCG(1, 2))

	for draw := 0; draw < 200; draw++ {
		for w := rng.IntN(6); w >= 0; w-- {
			switch rng.IntN(7) {
			case 0:
				slot := rng.IntN(caps.MaxVertexBuffers)
				b.SetVertexBuffer(slot, drawstate.VertexBufferBinding{Buffer: drawstate.BufferID(rng.IntN(3)), Stride: 16})
			case 1:
				stage := drawstate.Stage(rng.IntN(2))
				b.SetConstantBuffer(stage, rng.IntN(caps.MaxConstantBuffers), drawstate.BufferID(rng.IntN(4)))
			case 2:
				// Unique per slot so debug builds never see a duplicate view.
				slot := rng.IntN(caps.MaxShaderResources)
				b.SetShaderResource(drawstate.StageFragment, slot, drawstate.ShaderResourceViewID(slot*10+rng.IntN(2)))
			case 3:
				b.SetSampler(drawstate.Stage(rng.IntN(2)), rng.IntN(caps.MaxSamplers), drawstate.SamplerID(rng.IntN(3)))
			case 4:
				b.SetRenderTarget(rng.IntN(caps.MaxRenderTargets), drawstate.RenderTargetViewID(rng.IntN(3)))
			case 5:
				b.SetDepthStencilView(drawstate.DepthStencilViewID(rng.IntN(2)))
			case 6:
				b.SetStencilRef(uint32(rng.IntN(3)))
			}
		}
		e.submit(t, b, &desc)

		s := e.dev.State()
		if !reflect.DeepEqual(s.VertexBuffers, b.VertexBuffers().Values()) {
			t.Fatalf("draw %d: vertex buffers %v, want %v", draw, s.VertexBuffers, b.VertexBuffers().Values())
		}
		for st := drawstate.StageVertex; st <= drawstate.StageFragment; st++ {
			if !reflect.DeepEqual(s.ConstantBuffers[st], b.ConstantBuffers(st).Values()) {
				t.Fatalf("draw %d: %v constant buffers %v, want %v", draw, st, s.ConstantBuffers[st], b.ConstantBuffers(st).Values())
			}
			if !reflect.DeepEqual(s.ShaderResources[st], b.ShaderResources(st).Values()) {
				t.Fatalf("draw %d: %v shader resources differ", draw, st)
			}
			if !reflect.DeepEqual(s.Samplers[st], b.Samplers(st).Values()) {
				t.Fatalf("draw %d: %v samplers differ", draw, st)
			}
		}
		if !reflect.DeepEqual(s.RenderTargets, b.RenderTargets().Values()) || s.DepthStencil != b.DepthStencilView() {
			t.Fatalf("draw %d: render targets %v/%d, want %v/%d", draw,
				s.RenderTargets, s.DepthStencil, b.RenderTargets().Values(), b.DepthStencilView())
		}
		if s.StencilRef != b.StencilRef() {
			t.Fatalf("draw %d: stencil ref %d, want %d", draw, s.StencilRef, b.StencilRef())
		}
	}

	// Every slot call must carry a changed value at both ends of its range.
	for _, c := range e.dev.CommandsOf(recording.CmdSetConstantBuffers) {
		if len(c.(recording.SetConstantBuffersCommand).Buffers) == 0 {
			t.Errorf("empty SetConstantBuffers call: %+v", c)
		}
	}
}

func TestMerge_FreshSetKeepsUnwrittenSlots(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	e.submit(t, fullBindingSet(e.ctx), &desc)
	e.dev.Reset()

	b := e.ctx.NewBindingSet()
	b.SetRenderTarget(0, 500)
	b.SetRenderTarget(1, 501)
	b.SetDepthStencilView(600)
	b.SetStencilRef(1)
	b.SetConstantBuffer(drawstate.StageVertex, 1, 201)
	e.submit(t, b, &desc)

	cmds := e.bindings()
	if len(cmds) != 1 || cmds[0].Type() != recording.CmdSetConstantBuffers {
		t.Fatalf("binding calls = %v, want only SetConstantBuffers", commandTypes(cmds))
	}
	s := e.dev.State()
	if s.ConstantBuffers[0][0] != 200 || s.ConstantBuffers[0][1] != 201 {
		t.Errorf("vertex constant buffers = %v", s.ConstantBuffers[0][:2])
	}
	if s.VertexBuffers[0].Buffer != 10 {
		t.Errorf("unwritten vertex buffer slot was unbound")
	}
}

func TestMerge_PipelineStateDiff(t *testing.T) {
	e := newEnv(t)
	d1 := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)
	e.submit(t, b, &d1)

	first := e.dev.Commands()
	for _, want := range []recording.CommandType{
		recording.CmdSetVertexShader, recording.CmdSetFragmentShader, recording.CmdSetRasterState,
		recording.CmdSetDepthStencilState, recording.CmdSetBlendState, recording.CmdSetTopology,
	} {
		found := false
		for _, c := range first {
			found = found || c.Type() == want
		}
		if !found {
			t.Errorf("first draw did not issue %v", want)
		}
	}

	tests := []struct {
		name   string
		mutate func(d *drawstate.PipelineStateDescriptor, b *drawstate.ResourceBindingSet)
		want   []recording.CommandType
	}{
		{"blend state", func(d *drawstate.PipelineStateDescriptor, _ *drawstate.ResourceBindingSet) {
			d.RenderTargetBlendStates = alphaTargets()
		}, []recording.CommandType{recording.CmdSetBlendState}},
		{"blend factor", func(_ *drawstate.PipelineStateDescriptor, b *drawstate.ResourceBindingSet) {
			b.SetBlendFactor(gputypes.Color{R: 0.5, G: 0.5, B: 0.5, A: 1})
		}, []recording.CommandType{recording.CmdSetBlendState}},
		{"sample mask", func(_ *drawstate.PipelineStateDescriptor, b *drawstate.ResourceBindingSet) {
			b.SetSampleMask(0x1)
		}, []recording.CommandType{recording.CmdSetBlendState}},
		{"stencil ref", func(_ *drawstate.PipelineStateDescriptor, b *drawstate.ResourceBindingSet) {
			b.SetStencilRef(7)
		}, []recording.CommandType{recording.CmdSetDepthStencilState}},
		{"raster", func(d *drawstate.PipelineStateDescriptor, _ *drawstate.ResourceBindingSet) {
			d.RasterState = wireframe()
		}, []recording.CommandType{recording.CmdSetRasterState}},
		{"fragment shader", func(d *drawstate.PipelineStateDescriptor, _ *drawstate.ResourceBindingSet) {
			d.FragmentShader = 9
		}, []recording.CommandType{recording.CmdSetFragmentShader}},
		{"topology", func(_ *drawstate.PipelineStateDescriptor, b *drawstate.ResourceBindingSet) {
			b.SetTopology(gputypes.PrimitiveTopologyLineList)
		}, []recording.CommandType{recording.CmdSetTopology}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Back to the baseline, then apply one change.
			base := drawstate.DefaultPipelineStateDescriptor(1, 2)
			e.submit(t, fullBindingSet(e.ctx), &base)
			e.dev.Reset()

			d := drawstate.DefaultPipelineStateDescriptor(1, 2)
			nb := fullBindingSet(e.ctx)
			tt.mutate(&d, nb)
			e.submit(t, nb, &d)

			if got := commandTypes(e.bindings()); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("binding calls = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge_ClearCacheSafety(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)
	e.submit(t, b, &desc)
	oldRaster := e.ctx.PipelineState().RasterState()

	b.SetConstantBuffer(drawstate.StageVertex, 2, 202)
	b.SetConstantBuffer(drawstate.StageVertex, 4, 204)
	pending := b.ConstantBuffers(drawstate.StageVertex).DirtyRange()

	e.cache.ClearCache()
	if got := b.ConstantBuffers(drawstate.StageVertex).DirtyRange(); got != pending {
		t.Errorf("DirtyRange after ClearCache = %v, want %v", got, pending)
	}
	b.SetConstantBuffer(drawstate.StageVertex, 2, drawstate.InvalidID)
	b.SetConstantBuffer(drawstate.StageVertex, 4, drawstate.InvalidID)
	e.dev.Reset()
	e.submit(t, b, &desc)

	got := commandTypes(e.bindings())
	want := []recording.CommandType{
		recording.CmdSetRasterState, recording.CmdSetDepthStencilState, recording.CmdSetBlendState,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("binding calls after ClearCache = %v, want %v", got, want)
	}
	if e.ctx.PipelineState().RasterState() == oldRaster {
		t.Error("draw after ClearCache bound the destroyed raster state")
	}
	if misuse := e.dev.Misuse(); len(misuse) != 0 {
		t.Errorf("device misuse: %v", misuse)
	}
	// Binding sets are unaffected: nothing else was rebound.
	if s := e.dev.State(); s.ConstantBuffers[1][7] != 107 {
		t.Errorf("constant buffers lost after ClearCache")
	}
}

func TestMerge_MissingShader(t *testing.T) {
	e := newEnv(t)
	b := fullBindingSet(e.ctx)

	for _, desc := range []*drawstate.PipelineStateDescriptor{nil, {FragmentShader: 2}} {
		err := e.merger.Submit(e.ctx, b, desc, drawstate.NewDraw(3, 0))
		if !errors.Is(err, drawstate.ErrMissingRequiredShader) {
			t.Errorf("Submit error = %v, want ErrMissingRequiredShader", err)
		}
	}
	if n := len(e.dev.Commands()); n != 0 {
		t.Errorf("device calls = %d, want 0", n)
	}
	if !b.IsDirty() {
		t.Error("failed merge cleared the dirty flags")
	}
}

func TestMerge_CreationFailureAppliesNothing(t *testing.T) {
	e := newEnv(t)
	e.dev.Fail(recording.CmdCreateRasterState, nil)
	b := fullBindingSet(e.ctx)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	err := e.merger.Submit(e.ctx, b, &desc, drawstate.NewDraw(3, 0))
	if !errors.Is(err, drawstate.ErrCreationFailed) {
		t.Fatalf("Submit error = %v, want ErrCreationFailed", err)
	}
	if got := e.bindings(); len(got) != 0 {
		t.Errorf("binding calls after failure: %v", commandTypes(got))
	}
}

func TestApply_StaleChanges(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)

	ch1, err := e.merger.Merge(e.ctx, b, &desc)
	if err != nil {
		t.Fatal(err)
	}
	ch2, err := e.merger.Merge(e.ctx, b, &desc)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.merger.Apply(e.ctx, ch1); err != nil {
		t.Fatalf("Apply(ch1): %v", err)
	}
	if err := e.merger.Apply(e.ctx, ch2); !errors.Is(err, drawstate.ErrStaleChanges) {
		t.Errorf("Apply(ch2) error = %v, want ErrStaleChanges", err)
	}
	if err := e.merger.Apply(e.ctx, ch1); !errors.Is(err, drawstate.ErrStaleChanges) {
		t.Errorf("second Apply(ch1) error = %v, want ErrStaleChanges", err)
	}

	ch3, _ := e.merger.Merge(e.ctx, b, &desc)
	e.ctx.Invalidate()
	if err := e.merger.Apply(e.ctx, ch3); !errors.Is(err, drawstate.ErrStaleChanges) {
		t.Errorf("Apply after Invalidate error = %v, want ErrStaleChanges", err)
	}
}

func TestRenderContext_Invalidate(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)
	e.submit(t, b, &desc)

	e.ctx.Invalidate()
	e.dev.Reset()
	e.submit(t, b, &desc)

	caps := e.ctx.Capabilities()
	var fragmentCB *recording.SetConstantBuffersCommand
	for _, c := range e.dev.CommandsOf(recording.CmdSetConstantBuffers) {
		c := c.(recording.SetConstantBuffersCommand)
		if c.Stage == gputypes.ShaderStageFragment {
			fragmentCB = &c
		}
	}
	if fragmentCB == nil {
		t.Fatal("fragment constant buffers not rebound after Invalidate")
	}
	if fragmentCB.StartSlot != 0 || len(fragmentCB.Buffers) != caps.MaxConstantBuffers {
		t.Errorf("rebound range = (%d,%d), want (0,%d)", fragmentCB.StartSlot, len(fragmentCB.Buffers), caps.MaxConstantBuffers)
	}
	for _, want := range []recording.CommandType{
		recording.CmdSetVertexShader, recording.CmdSetRasterState, recording.CmdSetRenderTargets,
		recording.CmdSetViewports, recording.CmdSetTopology, recording.CmdSetInputLayout,
	} {
		if len(e.dev.CommandsOf(want)) != 1 {
			t.Errorf("%v calls = %d, want 1", want, len(e.dev.CommandsOf(want)))
		}
	}

	// Back in sync: the next identical draw binds nothing.
	e.dev.Reset()
	e.submit(t, b, &desc)
	if got := e.bindings(); len(got) != 0 {
		t.Errorf("binding calls = %v, want none", commandTypes(got))
	}
}

func TestMerge_ViewportPrefix(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)
	b.SetViewport(1, drawstate.Viewport{Width: 100, Height: 100, MaxDepth: 1})
	e.submit(t, b, &desc)
	e.dev.Reset()

	b.SetViewport(0, drawstate.Viewport{Width: 1024, Height: 768, MaxDepth: 1})
	e.submit(t, b, &desc)

	cmds := e.dev.CommandsOf(recording.CmdSetViewports)
	if len(cmds) != 1 {
		t.Fatalf("SetViewports calls = %d, want 1", len(cmds))
	}
	if got := cmds[0].(recording.SetViewportsCommand).Viewports; len(got) != 2 || got[1].Width != 100 {
		t.Errorf("SetViewports = %+v, want both bound viewports", got)
	}
}

func TestMerge_ViewportPrefixFreshSet(t *testing.T) {
	e := newEnv(t)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	b := fullBindingSet(e.ctx)
	b.SetViewport(1, drawstate.Viewport{Width: 100, Height: 100, MaxDepth: 1})
	b.SetScissorRect(1, drawstate.ScissorRect{Right: 100, Bottom: 100})
	e.submit(t, b, &desc)
	e.dev.Reset()

	fresh := e.ctx.NewBindingSet()
	fresh.SetStencilRef(1)
	fresh.SetViewport(1, drawstate.Viewport{Width: 20, Height: 20, MaxDepth: 1})
	fresh.SetScissorRect(1, drawstate.ScissorRect{Right: 20, Bottom: 20})
	e.submit(t, fresh, &desc)

	s := e.dev.State()
	wantVP := []drawstate.Viewport{
		{Width: 800, Height: 600, MaxDepth: 1},
		{Width: 20, Height: 20, MaxDepth: 1},
	}
	if !reflect.DeepEqual(s.Viewports, wantVP) {
		t.Errorf("device viewports = %+v, want %+v", s.Viewports, wantVP)
	}
	wantSC := []drawstate.ScissorRect{{Right: 800, Bottom: 600}, {Right: 20, Bottom: 20}}
	if !reflect.DeepEqual(s.ScissorRects, wantSC) {
		t.Errorf("device scissor rects = %+v, want %+v", s.ScissorRects, wantSC)
	}

	// The snapshot kept viewport 0, so rewriting it with the same value is free.
	e.dev.Reset()
	fresh = e.ctx.NewBindingSet()
	fresh.SetStencilRef(1)
	fresh.SetViewport(0, drawstate.Viewport{Width: 800, Height: 600, MaxDepth: 1})
	e.submit(t, fresh, &desc)
	if n := len(e.dev.CommandsOf(recording.CmdSetViewports)); n != 0 {
		t.Errorf("SetViewports calls = %d, want 0", n)
	}
}

func TestMerge_BindingSetMismatch(t *testing.T) {
	e := newEnv(t)
	caps := drawstate.DefaultCapabilities()
	caps.MaxConstantBuffers = 4
	b := drawstate.NewResourceBindingSet(caps)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	if _, err := e.merger.Merge(e.ctx, b, &desc); !errors.Is(err, drawstate.ErrBindingSetMismatch) {
		t.Errorf("Merge error = %v, want ErrBindingSetMismatch", err)
	}
	if _, err := e.merger.Merge(e.ctx, nil, &desc); !errors.Is(err, drawstate.ErrBindingSetMismatch) {
		t.Errorf("Merge(nil set) error = %v, want ErrBindingSetMismatch", err)
	}
}

func TestSubmit_DrawKinds(t *testing.T) {
	tests := []struct {
		call drawstate.DrawCall
		want recording.CommandType
	}{
		{drawstate.NewDraw(3, 0), recording.CmdDraw},
		{drawstate.NewDrawIndexed(6, 0, 0), recording.CmdDrawIndexed},
		{drawstate.NewDrawInstanced(3, 4, 0, 0), recording.CmdDrawInstanced},
		{drawstate.NewDrawIndexedInstanced(6, 4, 0, 2, 1), recording.CmdDrawIndexedInstanced},
	}
	for _, tt := range tests {
		t.Run(tt.call.Kind.String(), func(t *testing.T) {
			e := newEnv(t)
			desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
			if err := e.merger.Submit(e.ctx, fullBindingSet(e.ctx), &desc, tt.call); err != nil {
				t.Fatal(err)
			}
			cmds := e.dev.CommandsOf(tt.want)
			if len(cmds) != 1 {
				t.Fatalf("%v calls = %d, want 1", tt.want, len(cmds))
			}
			if got := cmds[0].(recording.DrawCommand).Call; got != tt.call {
				t.Errorf("draw = %+v, want %+v", got, tt.call)
			}
			if e.ctx.Stats().Draws != 1 {
				t.Errorf("Draws = %d, want 1", e.ctx.Stats().Draws)
			}
		})
	}
}

func TestSubmit_DrawError(t *testing.T) {
	e := newEnv(t)
	e.dev.Fail(recording.CmdDrawIndexed, nil)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	err := e.merger.Submit(e.ctx, fullBindingSet(e.ctx), &desc, drawstate.NewDrawIndexed(6, 0, 0))
	if !errors.Is(err, recording.ErrInjected) {
		t.Fatalf("Submit error = %v, want ErrInjected", err)
	}
	if e.ctx.Stats().Draws != 0 {
		t.Errorf("failed draw counted")
	}
}

func TestRenderContext_Options(t *testing.T) {
	dev := newDevice()
	caps := drawstate.DefaultCapabilities()
	caps.MaxViewports = 4

	ctx := drawstate.NewRenderContext(dev, drawstate.WithCapabilities(caps), drawstate.WithLabel("main"))
	if ctx.Capabilities().MaxViewports != 4 {
		t.Errorf("MaxViewports = %d, want 4", ctx.Capabilities().MaxViewports)
	}
	if ctx.NewBindingSet().Viewports().Len() != 4 {
		t.Error("binding set not sized from context capabilities")
	}
	if ctx.Label() != "main" {
		t.Errorf("Label() = %q", ctx.Label())
	}
	if ctx.ID() == drawstate.NewRenderContext(dev).ID() {
		t.Error("contexts share an ID")
	}
}

func TestRenderContext_UnknownDeviceState(t *testing.T) {
	dev := newDevice()
	cache := drawstate.NewPipelineStateCache(dev)
	merger := drawstate.NewDrawCallMerger(cache)
	ctx := drawstate.NewRenderContext(dev, drawstate.WithUnknownDeviceState())

	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)
	if err := merger.Submit(ctx, ctx.NewBindingSet(), &desc, drawstate.NewDraw(3, 0)); err != nil {
		t.Fatal(err)
	}
	// An empty set still unbinds every category.
	if n := len(dev.CommandsOf(recording.CmdSetShaderResources)); n != 2 {
		t.Errorf("SetShaderResources calls = %d, want 2", n)
	}
}
