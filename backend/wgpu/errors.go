// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

// Encoder errors.
var (
	// ErrNilPass is returned when NewEncoder is called without a render pass.
	ErrNilPass = errors.New("wgpu: render pass encoder is nil")

	// ErrNilResolver is returned when NewEncoder is called without a resolver.
	ErrNilResolver = errors.New("wgpu: resolver is nil")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("wgpu: nil DeviceProvider")

	// ErrUnknownState is returned when a pipeline references a state object
	// that was never created or was already destroyed.
	ErrUnknownState = errors.New("wgpu: unknown state object")

	// ErrEncoderClosed is returned by draws after Close.
	ErrEncoderClosed = errors.New("wgpu: encoder is closed")
)
