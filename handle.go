// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import "fmt"

// Handle is a stable opaque reference to a resource owned by a [Context].
// Handles are issued by builders and remain valid for the lifetime of the
// context: registries only ever grow, so a handle never dangles. Two
// handles are equal exactly when they refer to the same entry of the same
// resource kind.
type Handle[T any] struct {
	index int
}

func (h Handle[T]) String() string {
	var v T
	return fmt.Sprintf("%T[%d]", v, h.index)
}

// Handle types for each resource kind owned by a [Context].
type (
	BufferHandle          = Handle[*Buffer]
	TextureHandle         = Handle[*Texture]
	SamplerHandle         = Handle[*Sampler]
	ShaderHandle          = Handle[*Shader]
	BindGroupHandle       = Handle[*BindGroup]
	RenderPipelineHandle  = Handle[*RenderPipeline]
	ComputePipelineHandle = Handle[*ComputePipeline]
	RenderPassHandle      = Handle[*RenderPass]
	ComputePassHandle     = Handle[*ComputePass]
)

// SurfaceTexture is a sentinel [TextureHandle] addressing the presentation
// surface itself. Use it as a render pass color attachment target to draw
// directly to the screen.
var SurfaceTexture = TextureHandle{index: -1}

// registry is an append-only store of resources of one kind.
// Entries are never removed, so an index, once issued, stays valid
// for the life of the registry.
type registry[T any] struct {
	items []T
}

// add appends the given resource and returns its handle.
func (r *registry[T]) add(v T) Handle[T] {
	r.items = append(r.items, v)
	return Handle[T]{index: len(r.items) - 1}
}

// get returns the resource for the given handle, and whether it resolves.
// A false result for a handle obtained from this same registry indicates
// a programming error upstream (e.g., a handle from another context) and
// must be treated as fatal by the caller, not silently tolerated.
func (r *registry[T]) get(h Handle[T]) (T, bool) {
	if h.index < 0 || h.index >= len(r.items) {
		var zero T
		return zero, false
	}
	return r.items[h.index], true
}

// mustGet returns the resource for the given handle, panicking if it does
// not resolve. Only for handles already validated at build time.
func (r *registry[T]) mustGet(h Handle[T]) T {
	v, ok := r.get(h)
	if !ok {
		panic(fmt.Sprintf("gpukit: %v does not resolve in its registry", h))
	}
	return v
}
