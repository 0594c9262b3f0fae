// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Slot counts used when a limit is zero or the device does not report one.
const (
	DefaultMaxViewports    = 16
	DefaultMaxScissorRects = 16
)

// Capabilities sizes binding sets and gates optional features.
type Capabilities struct {
	// Adapter identifies the physical adapter. Informational only.
	Adapter gpucontext.AdapterInfo

	MaxVertexBuffers   int
	MaxConstantBuffers int // per stage
	MaxShaderResources int // per stage
	MaxSamplers        int // per stage
	MaxRenderTargets   int
	MaxViewports       int
	MaxScissorRects    int

	// VertexStageSampling reports whether samplers may be bound to the
	// vertex stage. Only checked in debug builds.
	VertexStageSampling bool
}

// CapabilityReporter is implemented by devices that know their own limits.
// NewRenderContext uses it when no capabilities are passed explicitly.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// CapabilitiesFromLimits derives slot counts from WebGPU-style device limits.
func CapabilitiesFromLimits(limits gputypes.Limits, adapter gpucontext.AdapterInfo) Capabilities {
	return Capabilities{
		Adapter:             adapter,
		MaxVertexBuffers:    int(limits.MaxVertexBuffers),
		MaxConstantBuffers:  int(limits.MaxUniformBuffersPerShaderStage),
		MaxShaderResources:  int(limits.MaxSampledTexturesPerShaderStage),
		MaxSamplers:         int(limits.MaxSamplersPerShaderStage),
		MaxRenderTargets:    int(limits.MaxColorAttachments),
		MaxViewports:        DefaultMaxViewports,
		MaxScissorRects:     DefaultMaxScissorRects,
		VertexStageSampling: limits.MaxSamplersPerShaderStage > 0,
	}.Normalized()
}

// CapabilitiesFromProvider derives capabilities from limits and the adapter
// reported by a host device provider.
func CapabilitiesFromProvider(provider gpucontext.DeviceProvider, limits gputypes.Limits) Capabilities {
	info := gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	if provider != nil {
		info = provider.AdapterInfo()
	}
	return CapabilitiesFromLimits(limits, info)
}

// DefaultCapabilities returns capabilities for the WebGPU default limits.
func DefaultCapabilities() Capabilities {
	return CapabilitiesFromLimits(gputypes.DefaultLimits(), gpucontext.AdapterInfo{
		Type: gpucontext.AdapterTypeUnknown,
	})
}

// Normalized returns c with every unset slot count replaced by its default.
func (c Capabilities) Normalized() Capabilities {
	if c.MaxVertexBuffers <= 0 {
		c.MaxVertexBuffers = 8
	}
	if c.MaxConstantBuffers <= 0 {
		c.MaxConstantBuffers = 12
	}
	if c.MaxShaderResources <= 0 {
		c.MaxShaderResources = 16
	}
	if c.MaxSamplers <= 0 {
		c.MaxSamplers = 16
	}
	if c.MaxRenderTargets <= 0 {
		c.MaxRenderTargets = 8
	}
	if c.MaxViewports <= 0 {
		c.MaxViewports = DefaultMaxViewports
	}
	if c.MaxScissorRects <= 0 {
		c.MaxScissorRects = DefaultMaxScissorRects
	}
	return c
}
