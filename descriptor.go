// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawstate/internal/fnvhash"
)

// FillMode selects how triangles are rasterized.
type FillMode uint8

const (
	// FillSolid fills triangle interiors. This is the zero value.
	FillSolid FillMode = iota
	// FillWireframe draws triangle edges only.
	FillWireframe
)

// RasterStateDescriptor describes a native rasterizer state object.
type RasterStateDescriptor struct {
	FillMode  FillMode
	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace

	DepthBias            int32
	DepthBiasClamp       float32
	SlopeScaledDepthBias float32

	DepthClipEnabled       bool
	ScissorEnabled         bool
	MultisampleEnabled     bool
	AntialiasedLineEnabled bool
}

// DefaultRasterState returns solid fill, back-face culling and depth clipping.
func DefaultRasterState() RasterStateDescriptor {
	return RasterStateDescriptor{
		FillMode:         FillSolid,
		CullMode:         gputypes.CullModeBack,
		FrontFace:        gputypes.FrontFaceCCW,
		DepthClipEnabled: true,
	}
}

// NaN never compares equal, so a descriptor holding one could not be interned.
func isNaN(f float32) bool { return f != f }

func (r *RasterStateDescriptor) hash() uint64 {
	h := fnvhash.New()
	h.Uint32(uint32(r.FillMode))
	h.Uint32(uint32(r.CullMode))
	h.Uint32(uint32(r.FrontFace))
	h.Int32(r.DepthBias)
	h.Float32(r.DepthBiasClamp)
	h.Float32(r.SlopeScaledDepthBias)
	h.Bool(r.DepthClipEnabled)
	h.Bool(r.ScissorEnabled)
	h.Bool(r.MultisampleEnabled)
	h.Bool(r.AntialiasedLineEnabled)
	return h.Sum64()
}

// DepthStencilDescriptor describes a native depth-stencil state object.
type DepthStencilDescriptor struct {
	DepthEnabled      bool
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction

	StencilEnabled   bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	StencilFront     gputypes.StencilFaceState
	StencilBack      gputypes.StencilFaceState
}

// DefaultDepthStencilState returns depth testing with Less, depth writes on,
// and stencil disabled.
func DefaultDepthStencilState() DepthStencilDescriptor {
	return DepthStencilDescriptor{
		DepthEnabled:      true,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLess,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
		StencilFront:      gputypes.DefaultStencilFaceState(),
		StencilBack:       gputypes.DefaultStencilFaceState(),
	}
}

func (d *DepthStencilDescriptor) hash() uint64 {
	h := fnvhash.New()
	h.Bool(d.DepthEnabled)
	h.Bool(d.DepthWriteEnabled)
	h.Uint32(uint32(d.DepthCompare))
	h.Bool(d.StencilEnabled)
	h.Uint32(uint32(d.StencilReadMask))
	h.Uint32(uint32(d.StencilWriteMask))
	hashStencilFace(h, d.StencilFront)
	hashStencilFace(h, d.StencilBack)
	return h.Sum64()
}

func hashStencilFace(h *fnvhash.Hasher, f gputypes.StencilFaceState) {
	h.Uint32(uint32(f.Compare))
	h.Uint32(uint32(f.FailOp))
	h.Uint32(uint32(f.DepthFailOp))
	h.Uint32(uint32(f.PassOp))
}

// RenderTargetBlend describes blending for one color target.
type RenderTargetBlend struct {
	BlendEnabled bool
	Blend        gputypes.BlendState
	WriteMask    gputypes.ColorWriteMask
}

// DefaultRenderTargetBlend returns blending disabled with every channel written.
func DefaultRenderTargetBlend() RenderTargetBlend {
	return RenderTargetBlend{
		Blend:     gputypes.BlendStateReplace(),
		WriteMask: gputypes.ColorWriteMaskAll,
	}
}

// BlendDescriptor describes a native blend state object. It is the blend
// part of a PipelineStateDescriptor, passed to StateFactory.CreateBlendState.
type BlendDescriptor struct {
	AlphaToCoverageEnabled  bool
	IndependentBlendEnabled bool
	RenderTargets           []RenderTargetBlend
}

// target returns the effective blend for color target i. Without independent
// blending only target 0 is meaningful; missing targets use the default.
func (b *BlendDescriptor) target(i int) RenderTargetBlend {
	if !b.IndependentBlendEnabled {
		i = 0
	}
	if i < len(b.RenderTargets) {
		return b.RenderTargets[i]
	}
	return DefaultRenderTargetBlend()
}

// effectiveTargets is the number of targets that take part in equality.
func (b *BlendDescriptor) effectiveTargets() int {
	if !b.IndependentBlendEnabled {
		return 1
	}
	n := len(b.RenderTargets)
	for n > 0 && b.RenderTargets[n-1] == DefaultRenderTargetBlend() {
		n--
	}
	return max(n, 1)
}

// Equal reports whether b and o describe the same native blend state.
func (b *BlendDescriptor) Equal(o *BlendDescriptor) bool {
	if b.AlphaToCoverageEnabled != o.AlphaToCoverageEnabled ||
		b.IndependentBlendEnabled != o.IndependentBlendEnabled {
		return false
	}
	n := b.effectiveTargets()
	if n != o.effectiveTargets() {
		return false
	}
	for i := 0; i < n; i++ {
		if b.target(i) != o.target(i) {
			return false
		}
	}
	return true
}

func (b *BlendDescriptor) hash() uint64 {
	h := fnvhash.New()
	h.Bool(b.AlphaToCoverageEnabled)
	h.Bool(b.IndependentBlendEnabled)
	n := b.effectiveTargets()
	h.Uint32(uint32(n)) //nolint:gosec // bounded by MaxRenderTargets
	for i := 0; i < n; i++ {
		t := b.target(i)
		h.Bool(t.BlendEnabled)
		h.Uint32(uint32(t.Blend.Color.SrcFactor))
		h.Uint32(uint32(t.Blend.Color.DstFactor))
		h.Uint32(uint32(t.Blend.Color.Operation))
		h.Uint32(uint32(t.Blend.Alpha.SrcFactor))
		h.Uint32(uint32(t.Blend.Alpha.DstFactor))
		h.Uint32(uint32(t.Blend.Alpha.Operation))
		h.Uint32(uint32(t.WriteMask))
	}
	return h.Sum64()
}

func (b *BlendDescriptor) clone() BlendDescriptor {
	c := *b
	c.RenderTargets = append([]RenderTargetBlend(nil), b.RenderTargets...)
	return c
}

// PipelineStateDescriptor is an immutable description of the shaders and
// fixed-function state of a draw. Equality is structural; see Equal.
type PipelineStateDescriptor struct {
	// VertexShader is required.
	VertexShader ShaderID
	// FragmentShader is optional (depth-only passes).
	FragmentShader ShaderID

	RasterState       RasterStateDescriptor
	DepthStencilState DepthStencilDescriptor

	RenderTargetBlendStates []RenderTargetBlend
	IndependentBlendEnabled bool
	AlphaToCoverageEnabled  bool
}

// DefaultPipelineStateDescriptor returns a descriptor with default
// fixed-function state for the given shaders.
func DefaultPipelineStateDescriptor(vs, fs ShaderID) PipelineStateDescriptor {
	return PipelineStateDescriptor{
		VertexShader:            vs,
		FragmentShader:          fs,
		RasterState:             DefaultRasterState(),
		DepthStencilState:       DefaultDepthStencilState(),
		RenderTargetBlendStates: []RenderTargetBlend{DefaultRenderTargetBlend()},
	}
}

// BlendDescriptor returns the blend sub-description of d.
func (d *PipelineStateDescriptor) BlendDescriptor() BlendDescriptor {
	return BlendDescriptor{
		AlphaToCoverageEnabled:  d.AlphaToCoverageEnabled,
		IndependentBlendEnabled: d.IndependentBlendEnabled,
		RenderTargets:           d.RenderTargetBlendStates,
	}
}

// Equal reports whether d and o are structurally equal.
func (d *PipelineStateDescriptor) Equal(o *PipelineStateDescriptor) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.VertexShader != o.VertexShader ||
		d.FragmentShader != o.FragmentShader ||
		d.RasterState != o.RasterState ||
		d.DepthStencilState != o.DepthStencilState {
		return false
	}
	bd, od := d.BlendDescriptor(), o.BlendDescriptor()
	return bd.Equal(&od)
}

// Hash computes an FNV-1a hash over every field that takes part in Equal.
// Equal descriptors have equal hashes.
func (d *PipelineStateDescriptor) Hash() uint64 {
	h := fnvhash.New()
	h.Uint64(uint64(d.VertexShader))
	h.Uint64(uint64(d.FragmentShader))
	h.Uint64(d.RasterState.hash())
	h.Uint64(d.DepthStencilState.hash())
	bd := d.BlendDescriptor()
	h.Uint64(bd.hash())
	return h.Sum64()
}

// clone returns a deep copy that does not alias the caller's slices.
func (d *PipelineStateDescriptor) clone() PipelineStateDescriptor {
	c := *d
	c.RenderTargetBlendStates = append([]RenderTargetBlend(nil), d.RenderTargetBlendStates...)
	return c
}
