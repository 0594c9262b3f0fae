// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// PipelineState is an interned combination of shaders and native
// fixed-function state objects.
//
// Sub-objects are shared with every other PipelineState whose matching
// sub-description is equal. A PipelineState is invalid after the owning
// cache is cleared.
type PipelineState struct {
	id           uint64
	epoch        uint64
	index        int
	hash         uint64
	desc         PipelineStateDescriptor
	raster       RasterStateID
	depthStencil DepthStencilStateID
	blend        BlendStateID
}

// ID returns a serial number unique among all states the cache has created,
// including states discarded by ClearCache.
func (p *PipelineState) ID() uint64 { return p.id }

// Index returns the position of the state in its cache.
func (p *PipelineState) Index() int { return p.index }

// Hash returns the descriptor hash the state was interned under.
func (p *PipelineState) Hash() uint64 { return p.hash }

// VertexShader returns the vertex shader.
func (p *PipelineState) VertexShader() ShaderID { return p.desc.VertexShader }

// FragmentShader returns the fragment shader, or InvalidID for depth-only states.
func (p *PipelineState) FragmentShader() ShaderID { return p.desc.FragmentShader }

// RasterState returns the native rasterizer state.
func (p *PipelineState) RasterState() RasterStateID { return p.raster }

// DepthStencilState returns the native depth-stencil state.
func (p *PipelineState) DepthStencilState() DepthStencilStateID { return p.depthStencil }

// BlendState returns the native blend state.
func (p *PipelineState) BlendState() BlendStateID { return p.blend }

// Descriptor returns a copy of the descriptor the state was created from.
func (p *PipelineState) Descriptor() PipelineStateDescriptor { return p.desc.clone() }

// CacheStats holds pipeline cache counters.
type CacheStats struct {
	Hits   uint64
	Misses uint64

	// Native sub-objects currently owned by the cache.
	RasterStates       int
	DepthStencilStates int
	BlendStates        int
}

// CacheOption configures a PipelineStateCache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	logger *slog.Logger
}

// WithCacheLogger sets the logger used by the cache instead of the
// package-wide Logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(o *cacheOptions) {
		o.logger = l
	}
}

type rasterEntry struct {
	hash uint64
	desc RasterStateDescriptor
	id   RasterStateID
}

type depthStencilEntry struct {
	hash uint64
	desc DepthStencilDescriptor
	id   DepthStencilStateID
}

type blendEntry struct {
	hash uint64
	desc BlendDescriptor
	id   BlendStateID
}

// PipelineStateCache interns pipeline states by structural equality.
//
// Whole descriptors are looked up by hash, with Equal as the collision
// fallback. On a miss, each sub-state (rasterizer, depth-stencil, blend) is
// matched independently against every sub-object created so far, and only
// unmatched sub-states are created on the StateFactory.
//
// Thread Safety:
// PipelineStateCache is safe for concurrent use. It uses RWMutex with
// double-check locking: whole hits take the read lock only, and creation
// happens under the write lock so concurrent identical requests never create
// duplicate native objects.
type PipelineStateCache struct {
	factory StateFactory
	log     *slog.Logger

	mu      sync.RWMutex
	byHash  map[uint64][]*PipelineState
	states  []*PipelineState
	rasters []rasterEntry
	depths  []depthStencilEntry
	blends  []blendEntry

	nextID uint64
	// epoch counts ClearCache calls; states from older epochs are invalid.
	epoch atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewPipelineStateCache creates an empty cache creating native objects on factory.
// It panics if factory is nil.
func NewPipelineStateCache(factory StateFactory, opts ...CacheOption) *PipelineStateCache {
	if factory == nil {
		panic(ErrNilDevice)
	}
	var o cacheOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &PipelineStateCache{
		factory: factory,
		log:     o.logger,
		byHash:  make(map[uint64][]*PipelineState),
	}
}

func (c *PipelineStateCache) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}

// GetOrCreate returns the pipeline state for desc, creating native
// sub-objects only for sub-states no earlier entry shares.
//
// Returns an error wrapping ErrInvalidDescriptor if desc is nil, has no
// vertex shader or has a NaN depth bias, or a *CreationError if the factory
// fails. Sub-objects created before a failure stay interned until ClearCache.
func (c *PipelineStateCache) GetOrCreate(desc *PipelineStateDescriptor) (*PipelineState, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	if desc.VertexShader == InvalidID {
		return nil, fmt.Errorf("%w: no vertex shader", ErrInvalidDescriptor)
	}
	if r := &desc.RasterState; isNaN(r.DepthBiasClamp) || isNaN(r.SlopeScaledDepthBias) {
		return nil, fmt.Errorf("%w: NaN depth bias", ErrInvalidDescriptor)
	}

	h := desc.Hash()

	// Fast path: read lock
	c.mu.RLock()
	if ps := c.lookupLocked(h, desc); ps != nil {
		c.mu.RUnlock()
		c.hits.Add(1)
		return ps, nil
	}
	c.mu.RUnlock()

	// Slow path: write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()

	if ps := c.lookupLocked(h, desc); ps != nil {
		c.hits.Add(1)
		return ps, nil
	}
	c.misses.Add(1)

	raster, err := c.rasterLocked(&desc.RasterState)
	if err != nil {
		return nil, err
	}
	depth, err := c.depthStencilLocked(&desc.DepthStencilState)
	if err != nil {
		return nil, err
	}
	bd := desc.BlendDescriptor()
	blend, err := c.blendLocked(&bd)
	if err != nil {
		return nil, err
	}

	c.nextID++
	ps := &PipelineState{
		id:           c.nextID,
		epoch:        c.epoch.Load(),
		index:        len(c.states),
		hash:         h,
		desc:         desc.clone(),
		raster:       raster,
		depthStencil: depth,
		blend:        blend,
	}
	c.states = append(c.states, ps)
	c.byHash[h] = append(c.byHash[h], ps)

	c.logger().Debug("drawstate: pipeline state created",
		slog.Int("index", ps.index),
		slog.Uint64("raster", uint64(raster)),
		slog.Uint64("depthStencil", uint64(depth)),
		slog.Uint64("blend", uint64(blend)))
	return ps, nil
}

func (c *PipelineStateCache) lookupLocked(h uint64, desc *PipelineStateDescriptor) *PipelineState {
	for _, ps := range c.byHash[h] {
		if ps.desc.Equal(desc) {
			return ps
		}
	}
	return nil
}

func (c *PipelineStateCache) rasterLocked(d *RasterStateDescriptor) (RasterStateID, error) {
	h := d.hash()
	for i := range c.rasters {
		if c.rasters[i].hash == h && c.rasters[i].desc == *d {
			return c.rasters[i].id, nil
		}
	}
	id, err := c.factory.CreateRasterState(d)
	if err != nil {
		c.logger().Warn("drawstate: rasterizer state creation failed", slog.Any("err", err))
		return InvalidID, &CreationError{SubState: SubStateRaster, Err: err}
	}
	c.rasters = append(c.rasters, rasterEntry{hash: h, desc: *d, id: id})
	c.logger().Debug("drawstate: rasterizer state created", slog.Uint64("id", uint64(id)))
	return id, nil
}

func (c *PipelineStateCache) depthStencilLocked(d *DepthStencilDescriptor) (DepthStencilStateID, error) {
	h := d.hash()
	for i := range c.depths {
		if c.depths[i].hash == h && c.depths[i].desc == *d {
			return c.depths[i].id, nil
		}
	}
	id, err := c.factory.CreateDepthStencilState(d)
	if err != nil {
		c.logger().Warn("drawstate: depth-stencil state creation failed", slog.Any("err", err))
		return InvalidID, &CreationError{SubState: SubStateDepthStencil, Err: err}
	}
	c.depths = append(c.depths, depthStencilEntry{hash: h, desc: *d, id: id})
	c.logger().Debug("drawstate: depth-stencil state created", slog.Uint64("id", uint64(id)))
	return id, nil
}

func (c *PipelineStateCache) blendLocked(d *BlendDescriptor) (BlendStateID, error) {
	h := d.hash()
	for i := range c.blends {
		if c.blends[i].hash == h && c.blends[i].desc.Equal(d) {
			return c.blends[i].id, nil
		}
	}
	id, err := c.factory.CreateBlendState(d)
	if err != nil {
		c.logger().Warn("drawstate: blend state creation failed", slog.Any("err", err))
		return InvalidID, &CreationError{SubState: SubStateBlend, Err: err}
	}
	c.blends = append(c.blends, blendEntry{hash: h, desc: d.clone(), id: id})
	c.logger().Debug("drawstate: blend state created", slog.Uint64("id", uint64(id)))
	return id, nil
}

// Len returns the number of interned pipeline states.
func (c *PipelineStateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}

// At returns the pipeline state at index, or nil if out of range.
func (c *PipelineStateCache) At(index int) *PipelineState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.states) {
		return nil
	}
	return c.states[index]
}

// Stats returns cache statistics.
//
// Hits and misses are read atomically and may not be perfectly synchronized
// with the object counts.
func (c *PipelineStateCache) Stats() CacheStats {
	c.mu.RLock()
	s := CacheStats{
		RasterStates:       len(c.rasters),
		DepthStencilStates: len(c.depths),
		BlendStates:        len(c.blends),
	}
	c.mu.RUnlock()
	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	return s
}

// HitRate returns the cache hit rate (0.0 to 1.0).
//
// Returns 0.0 if no requests have been made.
func (c *PipelineStateCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// ClearCache destroys every native sub-object exactly once, empties the
// cache and resets statistics.
//
// Every PipelineState returned before the call becomes invalid. Render
// contexts still referencing one must not draw until a new state is merged.
func (c *PipelineStateCache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.rasters {
		c.factory.DestroyRasterState(e.id)
	}
	for _, e := range c.depths {
		c.factory.DestroyDepthStencilState(e.id)
	}
	for _, e := range c.blends {
		c.factory.DestroyBlendState(e.id)
	}

	c.logger().Info("drawstate: pipeline cache cleared",
		slog.Int("states", len(c.states)),
		slog.Int("raster", len(c.rasters)),
		slog.Int("depthStencil", len(c.depths)),
		slog.Int("blend", len(c.blends)))

	c.byHash = make(map[uint64][]*PipelineState)
	c.states = nil
	c.rasters = nil
	c.depths = nil
	c.blends = nil
	c.hits.Store(0)
	c.misses.Store(0)
	c.epoch.Add(1)
}

// valid reports whether ps was created by c since the last ClearCache.
func (c *PipelineStateCache) valid(ps *PipelineState) bool {
	return ps != nil && ps.epoch == c.epoch.Load()
}
