// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawstate"
)

// CommandType identifies the type of a command.
// Each command type corresponds to one device method.
type CommandType uint8

const (
	// State object commands
	CmdCreateRasterState        CommandType = iota // Create rasterizer state
	CmdCreateDepthStencilState                     // Create depth-stencil state
	CmdCreateBlendState                            // Create blend state
	CmdDestroyRasterState                          // Destroy rasterizer state
	CmdDestroyDepthStencilState                    // Destroy depth-stencil state
	CmdDestroyBlendState                           // Destroy blend state

	// Binding commands
	CmdSetVertexBuffers     // Bind vertex buffer range
	CmdSetInputLayout       // Bind input layout
	CmdSetIndexBuffer       // Bind index buffer
	CmdSetConstantBuffers   // Bind constant buffer range
	CmdSetShaderResources   // Bind shader resource range
	CmdSetSamplers          // Bind sampler range
	CmdSetRenderTargets     // Bind color targets and depth/stencil view
	CmdSetViewports         // Set viewports
	CmdSetScissorRects      // Set scissor rectangles
	CmdSetTopology          // Set primitive topology
	CmdSetVertexShader      // Bind vertex shader
	CmdSetFragmentShader    // Bind fragment shader
	CmdSetRasterState       // Bind rasterizer state
	CmdSetDepthStencilState // Bind depth-stencil state and stencil reference
	CmdSetBlendState        // Bind blend state, blend factor and sample mask

	// Draw commands
	CmdDraw                 // Non-indexed draw
	CmdDrawIndexed          // Indexed draw
	CmdDrawInstanced        // Instanced draw
	CmdDrawIndexedInstanced // Indexed instanced draw

	numCommandTypes
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdCreateRasterState:        "CreateRasterState",
	CmdCreateDepthStencilState:  "CreateDepthStencilState",
	CmdCreateBlendState:         "CreateBlendState",
	CmdDestroyRasterState:       "DestroyRasterState",
	CmdDestroyDepthStencilState: "DestroyDepthStencilState",
	CmdDestroyBlendState:        "DestroyBlendState",
	CmdSetVertexBuffers:         "SetVertexBuffers",
	CmdSetInputLayout:           "SetInputLayout",
	CmdSetIndexBuffer:           "SetIndexBuffer",
	CmdSetConstantBuffers:       "SetConstantBuffers",
	CmdSetShaderResources:       "SetShaderResources",
	CmdSetSamplers:              "SetSamplers",
	CmdSetRenderTargets:         "SetRenderTargets",
	CmdSetViewports:             "SetViewports",
	CmdSetScissorRects:          "SetScissorRects",
	CmdSetTopology:              "SetTopology",
	CmdSetVertexShader:          "SetVertexShader",
	CmdSetFragmentShader:        "SetFragmentShader",
	CmdSetRasterState:           "SetRasterState",
	CmdSetDepthStencilState:     "SetDepthStencilState",
	CmdSetBlendState:            "SetBlendState",
	CmdDraw:                     "Draw",
	CmdDrawIndexed:              "DrawIndexed",
	CmdDrawInstanced:            "DrawInstanced",
	CmdDrawIndexedInstanced:     "DrawIndexedInstanced",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// IsBinding reports whether c is a binding command.
func (c CommandType) IsBinding() bool {
	return c >= CmdSetVertexBuffers && c <= CmdSetBlendState
}

// IsDraw reports whether c is a draw command.
func (c CommandType) IsDraw() bool {
	return c >= CmdDraw && c <= CmdDrawIndexedInstanced
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// State Object Commands
// --------------------------------------------------------------------------

// CreateRasterStateCommand records a rasterizer state creation.
type CreateRasterStateCommand struct {
	Desc drawstate.RasterStateDescriptor
	ID   drawstate.RasterStateID
}

// Type implements Command.
func (CreateRasterStateCommand) Type() CommandType { return CmdCreateRasterState }

// CreateDepthStencilStateCommand records a depth-stencil state creation.
type CreateDepthStencilStateCommand struct {
	Desc drawstate.DepthStencilDescriptor
	ID   drawstate.DepthStencilStateID
}

// Type implements Command.
func (CreateDepthStencilStateCommand) Type() CommandType { return CmdCreateDepthStencilState }

// CreateBlendStateCommand records a blend state creation.
type CreateBlendStateCommand struct {
	Desc drawstate.BlendDescriptor
	ID   drawstate.BlendStateID
}

// Type implements Command.
func (CreateBlendStateCommand) Type() CommandType { return CmdCreateBlendState }

// DestroyRasterStateCommand records a rasterizer state destruction.
type DestroyRasterStateCommand struct {
	ID drawstate.RasterStateID
}

// Type implements Command.
func (DestroyRasterStateCommand) Type() CommandType { return CmdDestroyRasterState }

// DestroyDepthStencilStateCommand records a depth-stencil state destruction.
type DestroyDepthStencilStateCommand struct {
	ID drawstate.DepthStencilStateID
}

// Type implements Command.
func (DestroyDepthStencilStateCommand) Type() CommandType { return CmdDestroyDepthStencilState }

// DestroyBlendStateCommand records a blend state destruction.
type DestroyBlendStateCommand struct {
	ID drawstate.BlendStateID
}

// Type implements Command.
func (DestroyBlendStateCommand) Type() CommandType { return CmdDestroyBlendState }

// --------------------------------------------------------------------------
// Binding Commands
// --------------------------------------------------------------------------

// SetVertexBuffersCommand binds Buffers starting at StartSlot.
type SetVertexBuffersCommand struct {
	StartSlot int
	Buffers   []drawstate.VertexBufferBinding
}

// Type implements Command.
func (SetVertexBuffersCommand) Type() CommandType { return CmdSetVertexBuffers }

// SetInputLayoutCommand binds an input layout.
type SetInputLayoutCommand struct {
	Layout drawstate.InputLayoutID
}

// Type implements Command.
func (SetInputLayoutCommand) Type() CommandType { return CmdSetInputLayout }

// SetIndexBufferCommand binds the index buffer.
type SetIndexBufferCommand struct {
	Binding drawstate.IndexBufferBinding
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// SetConstantBuffersCommand binds constant buffers of one stage.
type SetConstantBuffersCommand struct {
	Stage     gputypes.ShaderStage
	StartSlot int
	Buffers   []drawstate.BufferID
}

// Type implements Command.
func (SetConstantBuffersCommand) Type() CommandType { return CmdSetConstantBuffers }

// SetShaderResourcesCommand binds shader resource views of one stage.
type SetShaderResourcesCommand struct {
	Stage     gputypes.ShaderStage
	StartSlot int
	Views     []drawstate.ShaderResourceViewID
}

// Type implements Command.
func (SetShaderResourcesCommand) Type() CommandType { return CmdSetShaderResources }

// SetSamplersCommand binds samplers of one stage.
type SetSamplersCommand struct {
	Stage     gputypes.ShaderStage
	StartSlot int
	Samplers  []drawstate.SamplerID
}

// Type implements Command.
func (SetSamplersCommand) Type() CommandType { return CmdSetSamplers }

// SetRenderTargetsCommand binds color targets and the depth/stencil view.
type SetRenderTargetsCommand struct {
	Targets      []drawstate.RenderTargetViewID
	DepthStencil drawstate.DepthStencilViewID
}

// Type implements Command.
func (SetRenderTargetsCommand) Type() CommandType { return CmdSetRenderTargets }

// SetViewportsCommand sets the active viewports.
type SetViewportsCommand struct {
	Viewports []drawstate.Viewport
}

// Type implements Command.
func (SetViewportsCommand) Type() CommandType { return CmdSetViewports }

// SetScissorRectsCommand sets the active scissor rectangles.
type SetScissorRectsCommand struct {
	Rects []drawstate.ScissorRect
}

// Type implements Command.
func (SetScissorRectsCommand) Type() CommandType { return CmdSetScissorRects }

// SetTopologyCommand sets the primitive topology.
type SetTopologyCommand struct {
	Topology gputypes.PrimitiveTopology
}

// Type implements Command.
func (SetTopologyCommand) Type() CommandType { return CmdSetTopology }

// SetVertexShaderCommand binds the vertex shader.
type SetVertexShaderCommand struct {
	Shader drawstate.ShaderID
}

// Type implements Command.
func (SetVertexShaderCommand) Type() CommandType { return CmdSetVertexShader }

// SetFragmentShaderCommand binds the fragment shader.
type SetFragmentShaderCommand struct {
	Shader drawstate.ShaderID
}

// Type implements Command.
func (SetFragmentShaderCommand) Type() CommandType { return CmdSetFragmentShader }

// SetRasterStateCommand binds a rasterizer state.
type SetRasterStateCommand struct {
	State drawstate.RasterStateID
}

// Type implements Command.
func (SetRasterStateCommand) Type() CommandType { return CmdSetRasterState }

// SetDepthStencilStateCommand binds a depth-stencil state with its reference.
type SetDepthStencilStateCommand struct {
	State      drawstate.DepthStencilStateID
	StencilRef uint32
}

// Type implements Command.
func (SetDepthStencilStateCommand) Type() CommandType { return CmdSetDepthStencilState }

// SetBlendStateCommand binds a blend state with its factor and sample mask.
type SetBlendStateCommand struct {
	State      drawstate.BlendStateID
	Factor     gputypes.Color
	SampleMask uint32
}

// Type implements Command.
func (SetBlendStateCommand) Type() CommandType { return CmdSetBlendState }

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// DrawCommand records a draw of any kind. Kind selects which fields apply.
type DrawCommand struct {
	Call drawstate.DrawCall
}

// Type implements Command.
func (c DrawCommand) Type() CommandType {
	switch c.Call.Kind {
	case drawstate.DrawKindIndexed:
		return CmdDrawIndexed
	case drawstate.DrawKindInstanced:
		return CmdDrawInstanced
	case drawstate.DrawKindIndexedInstanced:
		return CmdDrawIndexedInstanced
	default:
		return CmdDraw
	}
}
