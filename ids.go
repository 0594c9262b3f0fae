// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs name device objects. Each Device implementation keeps the
// mapping between IDs and its native resources. The zero value of every ID is
// the null binding: setting a slot to InvalidID unbinds it.

// BufferID is an opaque handle to a vertex, index, or constant buffer.
type BufferID uint64

// ShaderResourceViewID is an opaque handle to a shader-readable view.
type ShaderResourceViewID uint64

// SamplerID is an opaque handle to a sampler state.
type SamplerID uint64

// RenderTargetViewID is an opaque handle to a color attachment view.
type RenderTargetViewID uint64

// DepthStencilViewID is an opaque handle to a depth/stencil attachment view.
type DepthStencilViewID uint64

// InputLayoutID is an opaque handle to a vertex input layout (the format
// descriptor paired with the bound vertex buffers).
type InputLayoutID uint64

// ShaderID is an opaque handle to a compiled shader program for one stage.
type ShaderID uint64

// RasterStateID is an opaque handle to a native rasterizer state object.
type RasterStateID uint64

// DepthStencilStateID is an opaque handle to a native depth-stencil state object.
type DepthStencilStateID uint64

// BlendStateID is an opaque handle to a native blend state object.
type BlendStateID uint64

// InvalidID is the zero value, representing a null resource.
const InvalidID = 0

// VertexBufferBinding binds one vertex buffer slot.
type VertexBufferBinding struct {
	Buffer BufferID
	Stride uint32
	Offset uint32
}

// IndexBufferBinding binds the index buffer.
type IndexBufferBinding struct {
	Buffer BufferID
	Format gputypes.IndexFormat
	Offset uint32
}

// Viewport is a device viewport rectangle with its depth range.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// ScissorRect is a scissor rectangle in pixels. Right and Bottom are exclusive.
type ScissorRect struct {
	Left, Top     int32
	Right, Bottom int32
}

// Stage selects a programmable shader stage for per-stage bindings.
type Stage uint8

const (
	// StageVertex is the vertex shader stage.
	StageVertex Stage = iota
	// StageFragment is the fragment (pixel) shader stage.
	StageFragment

	numStages = 2
)

// ShaderStage returns the gputypes stage flag for s.
func (s Stage) ShaderStage() gputypes.ShaderStage {
	if s == StageVertex {
		return gputypes.ShaderStageVertex
	}
	return gputypes.ShaderStageFragment
}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "Vertex"
	case StageFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}
