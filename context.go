// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"
	"image"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns every GPU-resident resource: the registries of buffers,
// textures, samplers, shaders, bind groups, pipelines, and passes, plus
// the global pass execution order. Construct one at startup with
// [NewContext] and thread it into every builder; never share resources
// between contexts. All operations are single-threaded and synchronous;
// nothing is ever removed from a registry for the context's lifetime.
type Context struct {
	gpu     *GPU
	device  *Device
	surface *Surface

	buffers          registry[*Buffer]
	textures         registry[*Texture]
	samplers         registry[*Sampler]
	shaders          registry[*Shader]
	bindGroups       registry[*BindGroup]
	renderPipelines  registry[*RenderPipeline]
	computePipelines registry[*ComputePipeline]
	renderPasses     registry[*RenderPass]
	computePasses    registry[*ComputePass]

	// passOrder is the global execution order of all passes, render and
	// compute interleaved, in the order they were built.
	passOrder []passRef
}

// passRef refers to one pass in the global execution order.
type passRef struct {
	render      bool
	renderPass  RenderPassHandle
	computePass ComputePassHandle
}

// NewContext returns a new context rendering to the given surface,
// which may be nil for compute-only or test use (in which case
// [Context.Render] is unavailable).
func NewContext(gp *GPU, dev *Device, sf *Surface) *Context {
	return &Context{gpu: gp, device: dev, surface: sf}
}

// GPU returns the GPU the context was made with.
func (ctx *Context) GPU() *GPU { return ctx.gpu }

// Device returns the logical device owning all of the context's resources.
func (ctx *Context) Device() *Device { return ctx.device }

// Surface returns the presentation surface, nil if headless.
func (ctx *Context) Surface() *Surface { return ctx.surface }

// Resize updates the presentation surface configuration to the new size,
// reallocates every surface-relative texture at its new extent, and then
// rebuilds every bind group whose dependency set intersects a reallocated
// texture, exactly once per notification. The cascade completes before
// Resize returns, so the next [Context.Render] never observes a stale
// binding. Redundant notifications are safe.
func (ctx *Context) Resize(size image.Point) error {
	if ctx.surface == nil {
		return errors.Log(errors.New("gpukit.Context.Resize: no surface"))
	}
	ctx.surface.SetSize(size)
	resized := map[int]bool{}
	for i, tx := range ctx.textures.items {
		if !tx.Policy.surfaceRelative() {
			continue
		}
		tx.Size = tx.surfaceExtent(ctx.surface.Size)
		if err := tx.create(); err != nil {
			return err
		}
		resized[i] = true
	}
	if len(resized) == 0 {
		return nil
	}
	var errs []error
	for _, bg := range ctx.bindGroups.items {
		for _, th := range bg.Textures {
			if resized[th.index] {
				errs = append(errs, bg.recreate(ctx))
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Recreate forces a presentation-surface reconfiguration, for recovery
// after a transient loss reported as a [FrameReconfigure] error.
func (ctx *Context) Recreate() error {
	if ctx.surface == nil {
		return errors.Log(errors.New("gpukit.Context.Recreate: no surface"))
	}
	ctx.surface.Reconfigure()
	return nil
}

// ResizeTexture changes the extent of the texture at the given handle,
// destroying and reallocating the backing image, and rebuilds every bind
// group depending on it. The new extent must be expressible in the
// texture's dimensionality; resizing across dimensionalities is an error.
// Reports a structural change on success, exactly like buffer growth.
// The texture keeps its size policy: a surface-relative texture returns
// to tracking the surface on the next resize notification.
func (ctx *Context) ResizeTexture(h TextureHandle, size wgpu.Extent3D) (bool, error) {
	tx, ok := ctx.textures.get(h)
	if !ok {
		return false, errors.Log(fmt.Errorf("gpukit.ResizeTexture: %v does not resolve", h))
	}
	if err := validateExtent(tx.Dimension, size); err != nil {
		return false, errors.Log(err)
	}
	tx.Size = size
	if err := tx.create(); err != nil {
		return false, err
	}
	if err := ctx.recreateTextureDependents(h); err != nil {
		return true, err
	}
	return true, nil
}

// recreateBufferDependents rebuilds every bind group depending on the
// given buffer, after it underwent a structural change.
func (ctx *Context) recreateBufferDependents(h BufferHandle) error {
	var errs []error
	for _, bg := range ctx.bindGroups.items {
		if bg.dependsOnBuffer(h) {
			errs = append(errs, bg.recreate(ctx))
		}
	}
	return errors.Join(errs...)
}

// recreateTextureDependents rebuilds every bind group depending on the
// given texture, after it underwent a structural change.
func (ctx *Context) recreateTextureDependents(h TextureHandle) error {
	var errs []error
	for _, bg := range ctx.bindGroups.items {
		if bg.dependsOnTexture(h) {
			errs = append(errs, bg.recreate(ctx))
		}
	}
	return errors.Join(errs...)
}

// Render executes one frame: it acquires the presentation target, records
// every pass in the global order into one command encoder, submits the
// commands, and presents. Acquisition failures are classified
// [FrameError]s and abort the frame with no side effects; recording
// failures (a reported misuse such as mismatched element counts) abort
// the frame before submission. No new GPU resources are allocated here.
func (ctx *Context) Render() error {
	if ctx.surface == nil {
		return errors.Log(errors.New("gpukit.Context.Render: no surface"))
	}
	tex, view, err := ctx.surface.acquire()
	if err != nil {
		return err
	}
	cmd, err := ctx.device.Device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		view.Release()
		tex.Release()
		return err
	}
	for _, pr := range ctx.passOrder {
		if pr.render {
			err = ctx.encodeRenderPass(cmd, ctx.renderPasses.mustGet(pr.renderPass), view)
		} else {
			err = ctx.encodeComputePass(cmd, ctx.computePasses.mustGet(pr.computePass))
		}
		if err != nil {
			cmd.Release()
			view.Release()
			tex.Release()
			return err
		}
	}
	cmdBuffer, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		cmd.Release()
		view.Release()
		tex.Release()
		return err
	}
	ctx.device.Queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	cmd.Release()
	ctx.surface.Present()
	view.Release()
	tex.Release()
	return nil
}

// encodeRenderPass records one render pass: resolves the attachment
// views, opens the render scope, and draws each pipeline in order.
// A presentation-bound attachment resolves to the just-acquired target
// view; any other attachment resolves to that texture's current view.
func (ctx *Context) encodeRenderPass(cmd *wgpu.CommandEncoder, ps *RenderPass, surfaceView *wgpu.TextureView) error {
	atts := make([]wgpu.RenderPassColorAttachment, len(ps.attachments))
	for i, at := range ps.attachments {
		ca := wgpu.RenderPassColorAttachment{
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpDiscard,
		}
		if at.Store {
			ca.StoreOp = wgpu.StoreOpStore
		}
		if at.Clear != nil {
			ca.LoadOp = wgpu.LoadOpClear
			ca.ClearValue = *at.Clear
		}
		if at.Texture == SurfaceTexture {
			ca.View = surfaceView
		} else {
			tx, ok := ctx.textures.get(at.Texture)
			if !ok {
				return errors.Log(fmt.Errorf("gpukit: pass %q: attachment %v does not resolve", ps.Label, at.Texture))
			}
			ca.View = tx.view
		}
		atts[i] = ca
	}
	desc := &wgpu.RenderPassDescriptor{
		Label:            ps.Label,
		ColorAttachments: atts,
	}
	if ps.depth != nil {
		tx, ok := ctx.textures.get(ps.depth.Texture)
		if !ok {
			return errors.Log(fmt.Errorf("gpukit: pass %q: depth attachment %v does not resolve", ps.Label, ps.depth.Texture))
		}
		desc.DepthStencilAttachment = depthStencilAttachment(tx.view, ps.depth)
	}
	rpe := cmd.BeginRenderPass(desc)
	for _, ph := range ps.pipelines {
		pl, ok := ctx.renderPipelines.get(ph)
		if !ok {
			rpe.End()
			rpe.Release()
			return errors.Log(fmt.Errorf("gpukit: pass %q: %v does not resolve", ps.Label, ph))
		}
		if err := ctx.encodeDraw(rpe, pl); err != nil {
			rpe.End()
			rpe.Release()
			return err
		}
	}
	rpe.End()
	rpe.Release()
	return nil
}

// encodeDraw records one pipeline's bindings and draw call. With an index
// buffer attached, every vertex buffer must report the same element count
// and likewise every instance buffer, and an indexed draw covers the full
// index range with instance count from the instance buffers (1 if none).
// Without one, a non-indexed draw covers the minimum element count across
// the vertex buffers (exactly 1 vertex if none).
func (ctx *Context) encodeDraw(rpe *wgpu.RenderPassEncoder, pl *RenderPipeline) error {
	rpe.SetPipeline(pl.pipeline)
	for i, bh := range pl.bindGroups {
		bg, ok := ctx.bindGroups.get(bh)
		if !ok {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: bind group %v does not resolve", pl.Label, bh))
		}
		rpe.SetBindGroup(uint32(i), bg.group, nil)
	}
	slot := uint32(0)
	vertexCounts := make([]int, 0, len(pl.vertexBuffers))
	for _, vh := range pl.vertexBuffers {
		bf, ok := ctx.buffers.get(vh)
		if !ok {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: vertex buffer %v does not resolve", pl.Label, vh))
		}
		rpe.SetVertexBuffer(slot, bf.buffer, 0, wgpu.WholeSize)
		vertexCounts = append(vertexCounts, bf.count)
		slot++
	}
	instanceCounts := make([]int, 0, len(pl.instanceBuffers))
	for _, ih := range pl.instanceBuffers {
		bf, ok := ctx.buffers.get(ih)
		if !ok {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: instance buffer %v does not resolve", pl.Label, ih))
		}
		rpe.SetVertexBuffer(slot, bf.buffer, 0, wgpu.WholeSize)
		instanceCounts = append(instanceCounts, bf.count)
		slot++
	}
	if pl.hasIndex {
		if !equalCounts(vertexCounts) {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: vertex buffers disagree on element count: %v", pl.Label, vertexCounts))
		}
		if !equalCounts(instanceCounts) {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: instance buffers disagree on element count: %v", pl.Label, instanceCounts))
		}
		ib, ok := ctx.buffers.get(pl.indexBuffer)
		if !ok {
			return errors.Log(fmt.Errorf("gpukit: pipeline %q: index buffer %v does not resolve", pl.Label, pl.indexBuffer))
		}
		rpe.SetIndexBuffer(ib.buffer, pl.indexFormat, 0, wgpu.WholeSize)
		rpe.DrawIndexed(uint32(ib.count), uint32(drawCount(instanceCounts)), 0, 0, 0)
	} else {
		rpe.Draw(uint32(drawCount(vertexCounts)), uint32(drawCount(instanceCounts)), 0, 0)
	}
	return nil
}

// depthStencilAttachment maps a [DepthAttachment] to its backend
// descriptor: a non-nil Clear loads by clearing to that depth, otherwise
// prior contents are loaded, and Store controls write-back.
func depthStencilAttachment(view *wgpu.TextureView, at *DepthAttachment) *wgpu.RenderPassDepthStencilAttachment {
	da := &wgpu.RenderPassDepthStencilAttachment{
		View:         view,
		DepthLoadOp:  wgpu.LoadOpLoad,
		DepthStoreOp: wgpu.StoreOpDiscard,
	}
	if at.Clear != nil {
		da.DepthLoadOp = wgpu.LoadOpClear
		da.DepthClearValue = *at.Clear
	}
	if at.Store {
		da.DepthStoreOp = wgpu.StoreOpStore
	}
	return da
}

// encodeComputePass records one compute pass: for each pipeline in order,
// bind it and its groups and dispatch its fixed workgroup count.
func (ctx *Context) encodeComputePass(cmd *wgpu.CommandEncoder, ps *ComputePass) error {
	cpe := cmd.BeginComputePass(&wgpu.ComputePassDescriptor{Label: ps.Label})
	for _, ph := range ps.pipelines {
		pl, ok := ctx.computePipelines.get(ph)
		if !ok {
			cpe.End()
			cpe.Release()
			return errors.Log(fmt.Errorf("gpukit: pass %q: %v does not resolve", ps.Label, ph))
		}
		cpe.SetPipeline(pl.pipeline)
		for i, bh := range pl.bindGroups {
			bg, ok := ctx.bindGroups.get(bh)
			if !ok {
				cpe.End()
				cpe.Release()
				return errors.Log(fmt.Errorf("gpukit: pipeline %q: bind group %v does not resolve", pl.Label, bh))
			}
			cpe.SetBindGroup(uint32(i), bg.group, nil)
		}
		cpe.DispatchWorkgroups(pl.workgroups[0], pl.workgroups[1], pl.workgroups[2])
	}
	cpe.End()
	cpe.Release()
	return nil
}

// drawCount reduces buffer element counts to the count used for a draw:
// the minimum across the buffers, or 1 if there are none.
func drawCount(counts []int) int {
	if len(counts) == 0 {
		return 1
	}
	n := counts[0]
	for _, c := range counts[1:] {
		n = min(n, c)
	}
	return n
}

// equalCounts reports whether all counts are the same (trivially true
// for one or none).
func equalCounts(counts []int) bool {
	for _, c := range counts {
		if c != counts[0] {
			return false
		}
	}
	return true
}
