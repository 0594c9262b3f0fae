// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "strings"

// ChangeFlags is a bitset of binding categories that differ from the device.
type ChangeFlags uint32

const (
	ChangeVertexBuffers ChangeFlags = 1 << iota
	ChangeInputLayout
	ChangeIndexBuffer
	ChangeTopology
	ChangeVertexConstantBuffers
	ChangeFragmentConstantBuffers
	ChangeVertexShaderResources
	ChangeFragmentShaderResources
	ChangeVertexSamplers
	ChangeFragmentSamplers
	ChangeRenderTargets
	ChangeViewports
	ChangeScissorRects
	ChangeVertexShader
	ChangeFragmentShader
	ChangeRasterState
	ChangeDepthStencilState
	ChangeBlendState
	ChangeBlendFactor
	ChangeSampleMask
	ChangeStencilRef

	changeFlagCount = iota
)

// ChangeNone means the device already holds the requested state.
const ChangeNone ChangeFlags = 0

var changeFlagNames = [changeFlagCount]string{
	"VertexBuffers",
	"InputLayout",
	"IndexBuffer",
	"Topology",
	"VertexConstantBuffers",
	"FragmentConstantBuffers",
	"VertexShaderResources",
	"FragmentShaderResources",
	"VertexSamplers",
	"FragmentSamplers",
	"RenderTargets",
	"Viewports",
	"ScissorRects",
	"VertexShader",
	"FragmentShader",
	"RasterState",
	"DepthStencilState",
	"BlendState",
	"BlendFactor",
	"SampleMask",
	"StencilRef",
}

// Has reports whether every bit of mask is set in f.
func (f ChangeFlags) Has(mask ChangeFlags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set in f.
func (f ChangeFlags) Any(mask ChangeFlags) bool {
	return f&mask != 0
}

// Count returns the number of set bits.
func (f ChangeFlags) Count() int {
	n := 0
	for i := 0; i < changeFlagCount; i++ {
		if f&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// String returns the set flag names joined by "|", or "None".
func (f ChangeFlags) String() string {
	if f == ChangeNone {
		return "None"
	}
	var sb strings.Builder
	for i := 0; i < changeFlagCount; i++ {
		if f&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(changeFlagNames[i])
	}
	if rest := f &^ (1<<changeFlagCount - 1); rest != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("Unknown")
	}
	return sb.String()
}

func constantBufferFlag(s Stage) ChangeFlags {
	if s == StageVertex {
		return ChangeVertexConstantBuffers
	}
	return ChangeFragmentConstantBuffers
}

func shaderResourceFlag(s Stage) ChangeFlags {
	if s == StageVertex {
		return ChangeVertexShaderResources
	}
	return ChangeFragmentShaderResources
}

func samplerFlag(s Stage) ChangeFlags {
	if s == StageVertex {
		return ChangeVertexSamplers
	}
	return ChangeFragmentSamplers
}

// StageRanges holds the dirty ranges of one stage's resource categories.
type StageRanges struct {
	ConstantBuffers Range
	ShaderResources Range
	Samplers        Range
}

// Changes is the result of a merge: which categories differ from the
// device and, for slot categories, the minimal range to rebind.
//
// A Changes value is tied to the snapshot it was merged against and may be
// applied at most once.
type Changes struct {
	Flags ChangeFlags

	VertexBuffers Range
	Stages        [numStages]StageRanges
	RenderTargets Range
	Viewports     Range
	ScissorRects  Range

	// State is the resolved pipeline state for the draw.
	State *PipelineState

	bindings   *ResourceBindingSet
	generation uint64
}

// Empty reports whether no device call is needed.
func (c *Changes) Empty() bool {
	return c.Flags == ChangeNone
}

// ConstantBuffers returns the constant buffer range of stage.
func (c *Changes) ConstantBuffers(stage Stage) Range { return c.Stages[stage].ConstantBuffers }

// ShaderResources returns the shader resource range of stage.
func (c *Changes) ShaderResources(stage Stage) Range { return c.Stages[stage].ShaderResources }

// Samplers returns the sampler range of stage.
func (c *Changes) Samplers(stage Stage) Range { return c.Stages[stage].Samplers }
