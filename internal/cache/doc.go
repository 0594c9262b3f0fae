// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU object cache for native GPU objects.
//
// Cache[K, V] bounds the number of live objects and hands every entry that
// leaves the cache to an eviction callback, so the owner can release the
// native object it holds.
//
//	pipelines := cache.New[PipelineKey, hal.RenderPipeline](64,
//	    func(_ PipelineKey, p hal.RenderPipeline) { dev.DestroyRenderPipeline(p) })
//	p, err := pipelines.GetOrCreate(key, func() (hal.RenderPipeline, error) {
//	    return dev.CreateRenderPipeline(desc)
//	})
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
// The eviction callback runs without the cache lock held.
package cache
