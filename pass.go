// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// ColorAttachment is one color output of a render pass. Texture is the
// target; [SurfaceTexture] targets the presentation surface. A non-nil
// Clear clears the attachment to that color at the start of the pass,
// otherwise prior contents are preserved. Store controls whether results
// are written back at the end of the pass.
type ColorAttachment struct {
	Texture TextureHandle
	Clear   *wgpu.Color
	Store   bool
}

// DepthAttachment is the optional depth/stencil output of a render pass.
// A non-nil Clear clears the depth to that value at the start of the
// pass, otherwise prior contents are preserved, mirroring
// [ColorAttachment].
type DepthAttachment struct {
	Texture TextureHandle
	Clear   *float32
	Store   bool
}

// RenderPass is an ordered list of render pipelines sharing a set of
// output attachments. Passes execute in the order they were built;
// the pipeline order can be replaced wholesale with
// [Context.ReorderPipelines].
type RenderPass struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	attachments []ColorAttachment
	depth       *DepthAttachment
	pipelines   []RenderPipelineHandle
}

// Pipelines returns the current pipeline order.
func (ps *RenderPass) Pipelines() []RenderPipelineHandle { return ps.pipelines }

// ComputePass is an ordered list of compute pipelines with no output
// attachments.
type ComputePass struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	pipelines []ComputePipelineHandle
}

// Pipelines returns the current pipeline order.
func (ps *ComputePass) Pipelines() []ComputePipelineHandle { return ps.pipelines }

// RenderPassBuilder accumulates attachments and pipelines for a new
// [RenderPass]. Get one with [Context.NewRenderPassBuilder]. If no color
// attachment is ever added, the pass defaults to drawing directly to the
// presentation surface, preserving its prior contents, with store
// enabled, so the common case needs no attachment boilerplate.
type RenderPassBuilder struct {
	ctx         *Context
	label       string
	attachments []ColorAttachment
	depth       *DepthAttachment
	pipelines   []RenderPipelineHandle
}

// NewRenderPassBuilder returns a builder for a new render pass.
func (ctx *Context) NewRenderPassBuilder(label string) *RenderPassBuilder {
	return &RenderPassBuilder{ctx: ctx, label: label}
}

// AddAttachment adds a color attachment.
func (pb *RenderPassBuilder) AddAttachment(att ColorAttachment) *RenderPassBuilder {
	pb.attachments = append(pb.attachments, att)
	return pb
}

// SetDepthAttachment sets the depth/stencil attachment.
func (pb *RenderPassBuilder) SetDepthAttachment(att DepthAttachment) *RenderPassBuilder {
	pb.depth = &att
	return pb
}

// AddPipeline appends a pipeline to the pass, executed in the order added.
func (pb *RenderPassBuilder) AddPipeline(h RenderPipelineHandle) *RenderPassBuilder {
	pb.pipelines = append(pb.pipelines, h)
	return pb
}

// Build validates the handles, registers the pass at the end of the
// context's execution order, and returns its handle.
func (pb *RenderPassBuilder) Build() (RenderPassHandle, error) {
	for _, h := range pb.pipelines {
		if _, ok := pb.ctx.renderPipelines.get(h); !ok {
			return RenderPassHandle{}, errors.Log(fmt.Errorf("gpukit.RenderPassBuilder %q: %v does not resolve", pb.label, h))
		}
	}
	for _, at := range pb.attachments {
		if at.Texture == SurfaceTexture {
			continue
		}
		if _, ok := pb.ctx.textures.get(at.Texture); !ok {
			return RenderPassHandle{}, errors.Log(fmt.Errorf("gpukit.RenderPassBuilder %q: attachment %v does not resolve", pb.label, at.Texture))
		}
	}
	if pb.depth != nil {
		if _, ok := pb.ctx.textures.get(pb.depth.Texture); !ok {
			return RenderPassHandle{}, errors.Log(fmt.Errorf("gpukit.RenderPassBuilder %q: depth attachment %v does not resolve", pb.label, pb.depth.Texture))
		}
	}
	atts := pb.attachments
	if len(atts) == 0 {
		atts = []ColorAttachment{{Texture: SurfaceTexture, Store: true}}
	}
	ps := &RenderPass{Label: pb.label, attachments: atts, depth: pb.depth, pipelines: pb.pipelines}
	h := pb.ctx.renderPasses.add(ps)
	pb.ctx.passOrder = append(pb.ctx.passOrder, passRef{render: true, renderPass: h})
	return h, nil
}

// ComputePassBuilder accumulates pipelines for a new [ComputePass].
// Get one with [Context.NewComputePassBuilder].
type ComputePassBuilder struct {
	ctx       *Context
	label     string
	pipelines []ComputePipelineHandle
}

// NewComputePassBuilder returns a builder for a new compute pass.
func (ctx *Context) NewComputePassBuilder(label string) *ComputePassBuilder {
	return &ComputePassBuilder{ctx: ctx, label: label}
}

// AddPipeline appends a pipeline to the pass, executed in the order added.
func (pb *ComputePassBuilder) AddPipeline(h ComputePipelineHandle) *ComputePassBuilder {
	pb.pipelines = append(pb.pipelines, h)
	return pb
}

// Build validates the handles, registers the pass at the end of the
// context's execution order, and returns its handle.
func (pb *ComputePassBuilder) Build() (ComputePassHandle, error) {
	for _, h := range pb.pipelines {
		if _, ok := pb.ctx.computePipelines.get(h); !ok {
			return ComputePassHandle{}, errors.Log(fmt.Errorf("gpukit.ComputePassBuilder %q: %v does not resolve", pb.label, h))
		}
	}
	ps := &ComputePass{Label: pb.label, pipelines: pb.pipelines}
	h := pb.ctx.computePasses.add(ps)
	pb.ctx.passOrder = append(pb.ctx.passOrder, passRef{computePass: h})
	return h, nil
}

// ReorderPipelines replaces the pipeline order of the given render pass
// wholesale. Every handle must resolve; contents are not otherwise
// revalidated.
func (ctx *Context) ReorderPipelines(pass RenderPassHandle, pipelines []RenderPipelineHandle) error {
	ps, ok := ctx.renderPasses.get(pass)
	if !ok {
		return errors.Log(fmt.Errorf("gpukit.ReorderPipelines: %v does not resolve", pass))
	}
	for _, h := range pipelines {
		if _, ok := ctx.renderPipelines.get(h); !ok {
			return errors.Log(fmt.Errorf("gpukit.ReorderPipelines %q: %v does not resolve", ps.Label, h))
		}
	}
	ps.pipelines = pipelines
	return nil
}

// ReorderComputePipelines replaces the pipeline order of the given
// compute pass wholesale. Every handle must resolve.
func (ctx *Context) ReorderComputePipelines(pass ComputePassHandle, pipelines []ComputePipelineHandle) error {
	ps, ok := ctx.computePasses.get(pass)
	if !ok {
		return errors.Log(fmt.Errorf("gpukit.ReorderComputePipelines: %v does not resolve", pass))
	}
	for _, h := range pipelines {
		if _, ok := ctx.computePipelines.get(h); !ok {
			return errors.Log(fmt.Errorf("gpukit.ReorderComputePipelines %q: %v does not resolve", ps.Label, h))
		}
	}
	ps.pipelines = pipelines
	return nil
}
