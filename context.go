// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
)

// ContextOption configures a RenderContext during creation.
//
// Example:
//
//	ctx := drawstate.NewRenderContext(dev,
//	    drawstate.WithCapabilities(caps),
//	    drawstate.WithContextLogger(logger))
type ContextOption func(*contextOptions)

type contextOptions struct {
	caps    *Capabilities
	logger  *slog.Logger
	id      uuid.UUID
	label   string
	unknown bool
}

// WithCapabilities sizes the context and its binding sets with caps instead of
// asking the device.
func WithCapabilities(caps Capabilities) ContextOption {
	return func(o *contextOptions) {
		o.caps = &caps
	}
}

// WithContextLogger sets the logger used by the context instead of the
// package-wide Logger.
func WithContextLogger(l *slog.Logger) ContextOption {
	return func(o *contextOptions) {
		o.logger = l
	}
}

// WithContextID sets the identity used to correlate log records.
// By default a random UUID is generated.
func WithContextID(id uuid.UUID) ContextOption {
	return func(o *contextOptions) {
		o.id = id
	}
}

// WithLabel sets an optional debug name.
func WithLabel(label string) ContextOption {
	return func(o *contextOptions) {
		o.label = label
	}
}

// WithUnknownDeviceState makes the first draw rebind every category, for
// devices that were used by other code before the context was created.
func WithUnknownDeviceState() ContextOption {
	return func(o *contextOptions) {
		o.unknown = true
	}
}

// ContextStats holds render context counters.
type ContextStats struct {
	// Draws counts dispatched draw calls.
	Draws uint64
	// Merges counts successful merges.
	Merges uint64
	// BindingCalls counts device binding calls issued by Apply.
	BindingCalls uint64
	// SkippedCategories counts written categories that needed no device call
	// because the device already held the requested values.
	SkippedCategories uint64
	// PipelineSwitches counts applies that bound a different pipeline state.
	PipelineSwitches uint64
}

// snapshot is the state the device holds after the last applied draw.
//
// bound mirrors every slot array; its dirty ranges mark slots whose device
// value is unknown and must be rebound regardless of value equality.
type snapshot struct {
	bound *ResourceBindingSet

	// scalarsUnknown forces topology, blend factor, sample mask and stencil
	// reference on the next draw.
	scalarsUnknown bool

	vertexShader   ShaderID
	fragmentShader ShaderID
	shadersUnknown bool

	// state is the last applied pipeline state and cache the cache it came
	// from. Its native sub-objects are rebound if the cache was cleared.
	state *PipelineState
	cache *PipelineStateCache
}

// RenderContext owns the device binding surface and the snapshot of what the
// device currently holds. Every draw goes through a DrawCallMerger against a
// RenderContext.
//
// RenderContext is not safe for concurrent use. Use one context per
// device context or command list.
type RenderContext struct {
	device CommandContext
	caps   Capabilities
	id     uuid.UUID
	label  string
	log    *slog.Logger

	snap       snapshot
	generation uint64
	stats      ContextStats
}

// NewRenderContext creates a context for device.
//
// Capabilities come from WithCapabilities, then from the device if it
// implements CapabilityReporter, then DefaultCapabilities. The device is
// assumed to hold default bindings unless WithUnknownDeviceState is given.
// NewRenderContext panics with ErrNilDevice if device is nil.
func NewRenderContext(device CommandContext, opts ...ContextOption) *RenderContext {
	if device == nil {
		panic(ErrNilDevice)
	}
	var o contextOptions
	for _, opt := range opts {
		opt(&o)
	}

	var caps Capabilities
	switch {
	case o.caps != nil:
		caps = *o.caps
	default:
		if r, ok := device.(CapabilityReporter); ok {
			caps = r.Capabilities()
		} else {
			caps = DefaultCapabilities()
		}
	}
	caps = caps.Normalized()

	id := o.id
	if id == uuid.Nil {
		id = uuid.New()
	}

	rc := &RenderContext{
		device: device,
		caps:   caps,
		id:     id,
		label:  o.label,
		log:    o.logger,
		snap: snapshot{
			bound:          NewResourceBindingSet(caps),
			scalarsUnknown: true,
			shadersUnknown: true,
		},
	}
	if o.unknown {
		rc.snap.bound.markAllDirty()
	}
	rc.logger().Info("drawstate: render context created",
		slog.String("id", id.String()),
		slog.String("label", o.label),
		slog.String("adapter", caps.Adapter.Name))
	return rc
}

func (c *RenderContext) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}

// ID returns the context identity used in log records.
func (c *RenderContext) ID() uuid.UUID { return c.id }

// Label returns the debug name.
func (c *RenderContext) Label() string { return c.label }

// Device returns the command context the context binds on.
func (c *RenderContext) Device() CommandContext { return c.device }

// Capabilities returns the normalized capabilities of the context.
func (c *RenderContext) Capabilities() Capabilities { return c.caps }

// Stats returns a copy of the context counters.
func (c *RenderContext) Stats() ContextStats { return c.stats }

// Generation returns a counter that advances whenever the snapshot changes.
func (c *RenderContext) Generation() uint64 { return c.generation }

// NewBindingSet returns an empty binding set sized to the context.
func (c *RenderContext) NewBindingSet() *ResourceBindingSet {
	return NewResourceBindingSet(c.caps)
}

// PipelineState returns the last applied pipeline state, or nil.
func (c *RenderContext) PipelineState() *PipelineState { return c.snap.state }

// Invalidate marks the whole device state unknown. The next draw rebinds
// every category. Call it after other code has used the device directly.
// Pending Changes become stale.
func (c *RenderContext) Invalidate() {
	c.snap.bound.markAllDirty()
	c.snap.scalarsUnknown = true
	c.snap.shadersUnknown = true
	c.snap.state = nil
	c.snap.cache = nil
	c.generation++
	c.logger().Debug("drawstate: render context invalidated", slog.String("id", c.id.String()))
}

// compatible reports whether b was sized like the context.
func (c *RenderContext) compatible(b *ResourceBindingSet) bool {
	bc := b.caps
	return bc.MaxVertexBuffers == c.caps.MaxVertexBuffers &&
		bc.MaxConstantBuffers == c.caps.MaxConstantBuffers &&
		bc.MaxShaderResources == c.caps.MaxShaderResources &&
		bc.MaxSamplers == c.caps.MaxSamplers &&
		bc.MaxRenderTargets == c.caps.MaxRenderTargets &&
		bc.MaxViewports == c.caps.MaxViewports &&
		bc.MaxScissorRects == c.caps.MaxScissorRects
}

// effectiveIndexBuffer returns the index buffer the device will hold after b
// is applied.
func (c *RenderContext) effectiveIndexBuffer(b *ResourceBindingSet) IndexBufferBinding {
	if b.indexBuffer.IsDirty() {
		return b.IndexBuffer()
	}
	return c.snap.bound.IndexBuffer()
}

// BoundTopology returns the primitive topology the device holds.
func (c *RenderContext) BoundTopology() gputypes.PrimitiveTopology {
	return c.snap.bound.topology
}
