// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawstate"
)

func newTestDevice() *Device {
	return NewDevice(drawstate.DefaultCapabilities())
}

func TestDevice_CreateDestroy(t *testing.T) {
	d := newTestDevice()

	rs := drawstate.DefaultRasterState()
	r, err := d.CreateRasterState(&rs)
	if err != nil {
		t.Fatalf("CreateRasterState: %v", err)
	}
	ds := drawstate.DefaultDepthStencilState()
	z, err := d.CreateDepthStencilState(&ds)
	if err != nil {
		t.Fatalf("CreateDepthStencilState: %v", err)
	}
	bd := drawstate.BlendDescriptor{RenderTargets: []drawstate.RenderTargetBlend{drawstate.DefaultRenderTargetBlend()}}
	b, err := d.CreateBlendState(&bd)
	if err != nil {
		t.Fatalf("CreateBlendState: %v", err)
	}

	if r == drawstate.InvalidID || z == drawstate.InvalidID || b == drawstate.InvalidID {
		t.Fatalf("got invalid ID: raster=%d depth=%d blend=%d", r, z, b)
	}
	if d.Live() != 3 {
		t.Errorf("Live() = %d, want 3", d.Live())
	}

	d.DestroyRasterState(r)
	d.DestroyDepthStencilState(z)
	d.DestroyBlendState(b)
	if d.Live() != 0 {
		t.Errorf("Live() after destroy = %d, want 0", d.Live())
	}
	if len(d.Misuse()) != 0 {
		t.Errorf("Misuse() = %v, want none", d.Misuse())
	}

	// Second destroy is misuse.
	d.DestroyRasterState(r)
	if len(d.Misuse()) != 1 {
		t.Errorf("Misuse() after double destroy = %d errors, want 1", len(d.Misuse()))
	}
}

func TestDevice_DestroyWrongKind(t *testing.T) {
	d := newTestDevice()
	rs := drawstate.DefaultRasterState()
	r, _ := d.CreateRasterState(&rs)

	d.DestroyBlendState(drawstate.BlendStateID(r))
	if len(d.Misuse()) != 1 {
		t.Fatalf("destroying a raster ID as blend state: Misuse() = %v", d.Misuse())
	}
	if d.Live() != 1 {
		t.Errorf("Live() = %d, want 1", d.Live())
	}
}

func TestDevice_Fail(t *testing.T) {
	d := newTestDevice()
	boom := errors.New("boom")
	d.Fail(CmdCreateBlendState, boom)

	bd := drawstate.BlendDescriptor{}
	if _, err := d.CreateBlendState(&bd); !errors.Is(err, boom) {
		t.Fatalf("CreateBlendState error = %v, want %v", err, boom)
	}
	// Failure is one-shot.
	if _, err := d.CreateBlendState(&bd); err != nil {
		t.Fatalf("second CreateBlendState error = %v, want nil", err)
	}

	d.Fail(CmdDrawIndexed, nil)
	if err := d.DrawIndexed(3, 0, 0); !errors.Is(err, ErrInjected) {
		t.Errorf("DrawIndexed error = %v, want ErrInjected", err)
	}
	if d.Count(CmdDrawIndexed) != 0 {
		t.Errorf("failed draw was recorded")
	}
}

func TestDevice_BindingsMirrorState(t *testing.T) {
	d := newTestDevice()

	d.SetConstantBuffers(gputypes.ShaderStageFragment, 2, []drawstate.BufferID{7, 8})
	d.SetRenderTargets([]drawstate.RenderTargetViewID{1, 2}, 9)
	d.SetRenderTargets([]drawstate.RenderTargetViewID{3}, 9)
	d.SetBlendState(4, gputypes.Color{R: 1}, 0xF)

	s := d.State()
	if got := s.ConstantBuffers[1][2:4]; !reflect.DeepEqual(got, []drawstate.BufferID{7, 8}) {
		t.Errorf("fragment constant buffers[2:4] = %v", got)
	}
	if s.ConstantBuffers[0][2] != drawstate.InvalidID {
		t.Errorf("vertex stage was modified")
	}
	if s.RenderTargets[0] != 3 || s.RenderTargets[1] != drawstate.InvalidID {
		t.Errorf("render targets = %v, want [3 0 ...]", s.RenderTargets[:2])
	}
	if s.BlendState != 4 || s.SampleMask != 0xF || s.BlendFactor.R != 1 {
		t.Errorf("blend state = %d factor=%v mask=%#x", s.BlendState, s.BlendFactor, s.SampleMask)
	}
	if d.BindingCalls() != 4 {
		t.Errorf("BindingCalls() = %d, want 4", d.BindingCalls())
	}
}

func TestDevice_CommandsAreCopies(t *testing.T) {
	d := newTestDevice()
	buffers := []drawstate.BufferID{1, 2}
	d.SetConstantBuffers(gputypes.ShaderStageVertex, 0, buffers)
	buffers[0] = 99

	cmd := d.CommandsOf(CmdSetConstantBuffers)[0].(SetConstantBuffersCommand)
	if cmd.Buffers[0] != 1 {
		t.Errorf("recorded slice aliases caller memory: %v", cmd.Buffers)
	}
}

func TestDevice_Reset(t *testing.T) {
	d := newTestDevice()
	d.SetTopology(gputypes.PrimitiveTopologyLineList)
	d.Reset()
	if len(d.Commands()) != 0 {
		t.Errorf("Commands() after Reset = %d, want 0", len(d.Commands()))
	}
	if d.Count(CmdSetTopology) != 1 {
		t.Errorf("Count survives Reset: got %d, want 1", d.Count(CmdSetTopology))
	}
	if d.State().Topology != gputypes.PrimitiveTopologyLineList {
		t.Errorf("state lost on Reset")
	}
}

func TestPlayback(t *testing.T) {
	src := newTestDevice()
	src.SetVertexShader(1)
	src.SetFragmentShader(2)
	src.SetShaderResources(gputypes.ShaderStageFragment, 0, []drawstate.ShaderResourceViewID{5})
	src.SetViewports([]drawstate.Viewport{{Width: 640, Height: 480, MaxDepth: 1}})
	if err := src.DrawInstanced(3, 2, 0, 0); err != nil {
		t.Fatal(err)
	}

	dst := newTestDevice()
	if err := Playback(src.Commands(), dst); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if !reflect.DeepEqual(src.State(), dst.State()) {
		t.Errorf("state after playback differs:\n src=%+v\n dst=%+v", src.State(), dst.State())
	}
	if dst.Count(CmdDrawInstanced) != 1 {
		t.Errorf("draw not replayed")
	}
}

func TestPlayback_DrawError(t *testing.T) {
	src := newTestDevice()
	_ = src.Draw(3, 0)

	dst := newTestDevice()
	dst.Fail(CmdDraw, nil)
	if err := Playback(src.Commands(), dst); !errors.Is(err, ErrInjected) {
		t.Errorf("Playback error = %v, want ErrInjected", err)
	}
}

func TestDevice_WithMerger(t *testing.T) {
	d := newTestDevice()
	cache := drawstate.NewPipelineStateCache(d)
	merger := drawstate.NewDrawCallMerger(cache)
	ctx := drawstate.NewRenderContext(d)

	b := ctx.NewBindingSet()
	b.SetVertexBuffer(0, drawstate.VertexBufferBinding{Buffer: 10, Stride: 16})
	b.SetConstantBuffer(drawstate.StageVertex, 1, 20)
	b.SetRenderTarget(0, 30)
	desc := drawstate.DefaultPipelineStateDescriptor(1, 2)

	if err := merger.Submit(ctx, b, &desc, drawstate.NewDraw(3, 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s := d.State()
	if s.VertexBuffers[0].Buffer != 10 || s.ConstantBuffers[0][1] != 20 || s.RenderTargets[0] != 30 {
		t.Errorf("device state does not match request: %+v", s)
	}
	if s.VertexShader != 1 || s.FragmentShader != 2 {
		t.Errorf("shaders = %d/%d, want 1/2", s.VertexShader, s.FragmentShader)
	}
	if d.Count(CmdDraw) != 1 {
		t.Errorf("Count(CmdDraw) = %d, want 1", d.Count(CmdDraw))
	}
}
