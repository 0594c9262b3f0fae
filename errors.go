// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor is returned by PipelineStateCache.GetOrCreate when the
	// descriptor is nil or has no vertex shader.
	ErrInvalidDescriptor = errors.New("drawstate: invalid pipeline state descriptor")

	// ErrMissingRequiredShader is returned by Merge when the descriptor has no
	// vertex-stage shader. No device call is made.
	ErrMissingRequiredShader = errors.New("drawstate: missing required vertex shader")

	// ErrCapabilityUnsupported is returned in debug builds when a draw needs a
	// feature the device does not provide (e.g. vertex-stage sampling).
	ErrCapabilityUnsupported = errors.New("drawstate: capability unsupported by device")

	// ErrResourceAlreadyBound is returned in debug builds when one shader
	// resource view is bound to two slots of the same stage.
	ErrResourceAlreadyBound = errors.New("drawstate: shader resource view already bound")

	// ErrCreationFailed matches every *CreationError.
	ErrCreationFailed = errors.New("drawstate: native state creation failed")

	// ErrStaleChanges is returned by Apply when the Changes were merged against
	// an older snapshot than the one currently held by the context.
	ErrStaleChanges = errors.New("drawstate: changes were merged against a stale snapshot")

	// ErrNoIndexBuffer is returned in debug builds for indexed draws without a
	// bound index buffer.
	ErrNoIndexBuffer = errors.New("drawstate: indexed draw without an index buffer")

	// ErrNilDevice is the panic value of NewPipelineStateCache and
	// NewRenderContext when called without a device.
	ErrNilDevice = errors.New("drawstate: device is nil")

	// ErrBindingSetMismatch is returned by Merge when the binding set was sized
	// with different slot counts than the render context.
	ErrBindingSetMismatch = errors.New("drawstate: binding set capacities do not match the render context")
)

// SubState identifies one native sub-object of a pipeline state.
type SubState uint8

const (
	// SubStateRaster is the rasterizer state.
	SubStateRaster SubState = iota
	// SubStateDepthStencil is the depth-stencil state.
	SubStateDepthStencil
	// SubStateBlend is the blend state.
	SubStateBlend
)

// String returns the sub-state name.
func (s SubState) String() string {
	switch s {
	case SubStateRaster:
		return "rasterizer"
	case SubStateDepthStencil:
		return "depth-stencil"
	case SubStateBlend:
		return "blend"
	default:
		return "unknown"
	}
}

// CreationError reports a native object creation failure for one sub-state.
type CreationError struct {
	SubState SubState
	Err      error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("drawstate: create %s state: %v", e.SubState, e.Err)
}

// Unwrap returns the device error.
func (e *CreationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCreationFailed.
func (e *CreationError) Is(target error) bool {
	return target == ErrCreationFailed
}
