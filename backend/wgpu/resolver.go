// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawstate"
	"github.com/gogpu/drawstate/internal/fnvhash"
)

// Bind group indices used for per-stage resources.
const (
	VertexBindGroup   = 0
	FragmentBindGroup = 1
)

// PipelineKey identifies a render pipeline. Two draws with equal keys share
// one hal.RenderPipeline.
type PipelineKey struct {
	InputLayout       drawstate.InputLayoutID
	VertexShader      drawstate.ShaderID
	FragmentShader    drawstate.ShaderID
	Topology          gputypes.PrimitiveTopology
	RasterState       drawstate.RasterStateID
	DepthStencilState drawstate.DepthStencilStateID
	BlendState        drawstate.BlendStateID
	SampleMask        uint32

	// ColorTargets is the number of bound color attachments.
	ColorTargets int
	// DepthStencil reports whether a depth/stencil attachment is bound.
	DepthStencil bool
}

// PipelineRequest is passed to Resolver.CreateRenderPipeline with the state
// descriptors the key refers to.
type PipelineRequest struct {
	Key          PipelineKey
	Raster       drawstate.RasterStateDescriptor
	DepthStencil drawstate.DepthStencilDescriptor
	Blend        drawstate.BlendDescriptor
}

// BindGroupRequest lists the resources of one shader stage. Trailing unbound
// slots are trimmed; unbound slots inside the range are zero.
type BindGroupRequest struct {
	Stage           gputypes.ShaderStage
	ConstantBuffers []drawstate.BufferID
	ShaderResources []drawstate.ShaderResourceViewID
	Samplers        []drawstate.SamplerID
}

// Empty reports whether the stage has no resources bound.
func (r *BindGroupRequest) Empty() bool {
	return len(r.ConstantBuffers) == 0 && len(r.ShaderResources) == 0 && len(r.Samplers) == 0
}

func (r *BindGroupRequest) hash() uint64 {
	h := fnvhash.New()
	h.Uint32(uint32(r.Stage))
	h.Uint32(uint32(len(r.ConstantBuffers)))
	for _, id := range r.ConstantBuffers {
		h.Uint64(uint64(id))
	}
	h.Uint32(uint32(len(r.ShaderResources)))
	for _, id := range r.ShaderResources {
		h.Uint64(uint64(id))
	}
	h.Uint32(uint32(len(r.Samplers)))
	for _, id := range r.Samplers {
		h.Uint64(uint64(id))
	}
	return h.Sum64()
}

// bindGroupKey keys the bind group cache.
type bindGroupKey struct {
	stage gputypes.ShaderStage
	hash  uint64
}

// Resolver maps drawstate IDs to hal objects and builds the pipelines and
// bind groups the encoder needs. The destroy methods match hal.Device, so an
// implementation can forward them to the device directly.
type Resolver interface {
	// Buffer returns the hal buffer for id.
	Buffer(id drawstate.BufferID) (hal.Buffer, error)

	// CreateRenderPipeline builds a pipeline for req.
	CreateRenderPipeline(req *PipelineRequest) (hal.RenderPipeline, error)

	// CreateBindGroup builds the bind group of one stage. It is only called
	// for non-empty requests.
	CreateBindGroup(req *BindGroupRequest) (hal.BindGroup, error)

	// DestroyRenderPipeline releases a pipeline evicted from the cache.
	DestroyRenderPipeline(pipeline hal.RenderPipeline)

	// DestroyBindGroup releases a bind group evicted from the cache.
	DestroyBindGroup(group hal.BindGroup)
}

// trimZero returns s without its trailing zero values.
func trimZero[T comparable](s []T) []T {
	var zero T
	n := len(s)
	for n > 0 && s[n-1] == zero {
		n--
	}
	return s[:n]
}
