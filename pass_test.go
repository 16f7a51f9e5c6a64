// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestRenderPassDefaults(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	h, err := ctx.NewRenderPassBuilder("surface").Build()
	assert.NoError(t, err)
	ps := ctx.renderPasses.mustGet(h)
	// with no attachments the pass draws straight to the surface,
	// preserving prior contents
	assert.Equal(t, []ColorAttachment{{Texture: SurfaceTexture, Store: true}}, ps.attachments)
	assert.Empty(t, ps.Pipelines())
}

func TestRenderPassValidation(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	_, err := ctx.NewRenderPassBuilder("badpipe").
		AddPipeline(RenderPipelineHandle{index: 4}).
		Build()
	assert.ErrorContains(t, err, "does not resolve")

	_, err = ctx.NewRenderPassBuilder("badattach").
		AddAttachment(ColorAttachment{Texture: TextureHandle{index: 2}, Store: true}).
		Build()
	assert.ErrorContains(t, err, "attachment")

	_, err = ctx.NewRenderPassBuilder("baddepth").
		SetDepthAttachment(DepthAttachment{Texture: TextureHandle{index: 2}}).
		Build()
	assert.ErrorContains(t, err, "depth attachment")

	// SurfaceTexture is exempt from attachment resolution
	clear := wgpu.Color{R: 0, G: 0, B: 0, A: 1}
	_, err = ctx.NewRenderPassBuilder("surfaceclear").
		AddAttachment(ColorAttachment{Texture: SurfaceTexture, Clear: &clear, Store: true}).
		Build()
	assert.NoError(t, err)
}

func TestPassOrder(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	r0, err := ctx.NewRenderPassBuilder("r0").Build()
	assert.NoError(t, err)
	c0, err := ctx.NewComputePassBuilder("c0").Build()
	assert.NoError(t, err)
	r1, err := ctx.NewRenderPassBuilder("r1").Build()
	assert.NoError(t, err)

	// passes execute in build order, render and compute interleaved
	assert.Equal(t, []passRef{
		{render: true, renderPass: r0},
		{computePass: c0},
		{render: true, renderPass: r1},
	}, ctx.passOrder)

	// labels carry through to the registered passes (and from there to
	// the recorded pass scopes)
	assert.Equal(t, "r0", ctx.renderPasses.mustGet(r0).Label)
	assert.Equal(t, "c0", ctx.computePasses.mustGet(c0).Label)
}

func TestReorderPipelines(t *testing.T) {
	ctx := NewContext(nil, nil, nil)
	p0 := ctx.renderPipelines.add(&RenderPipeline{Label: "p0"})
	p1 := ctx.renderPipelines.add(&RenderPipeline{Label: "p1"})

	h, err := ctx.NewRenderPassBuilder("pass").AddPipeline(p0).AddPipeline(p1).Build()
	assert.NoError(t, err)
	ps := ctx.renderPasses.mustGet(h)
	assert.Equal(t, []RenderPipelineHandle{p0, p1}, ps.Pipelines())

	err = ctx.ReorderPipelines(h, []RenderPipelineHandle{p1, p0})
	assert.NoError(t, err)
	assert.Equal(t, []RenderPipelineHandle{p1, p0}, ps.Pipelines())

	err = ctx.ReorderPipelines(h, []RenderPipelineHandle{{index: 9}})
	assert.Error(t, err)
	// a failed reorder leaves the order untouched
	assert.Equal(t, []RenderPipelineHandle{p1, p0}, ps.Pipelines())

	err = ctx.ReorderPipelines(RenderPassHandle{index: 9}, nil)
	assert.Error(t, err)
}

func TestDepthAttachmentOps(t *testing.T) {
	// no clear value loads prior depth contents
	da := depthStencilAttachment(nil, &DepthAttachment{})
	assert.Equal(t, wgpu.LoadOpLoad, da.DepthLoadOp)
	assert.Equal(t, wgpu.StoreOpDiscard, da.DepthStoreOp)

	clear := float32(1)
	da = depthStencilAttachment(nil, &DepthAttachment{Clear: &clear, Store: true})
	assert.Equal(t, wgpu.LoadOpClear, da.DepthLoadOp)
	assert.Equal(t, float32(1), da.DepthClearValue)
	assert.Equal(t, wgpu.StoreOpStore, da.DepthStoreOp)
}

func TestReorderComputePipelines(t *testing.T) {
	ctx := NewContext(nil, nil, nil)
	p0 := ctx.computePipelines.add(&ComputePipeline{Label: "p0"})
	p1 := ctx.computePipelines.add(&ComputePipeline{Label: "p1"})

	h, err := ctx.NewComputePassBuilder("pass").AddPipeline(p0).AddPipeline(p1).Build()
	assert.NoError(t, err)
	ps := ctx.computePasses.mustGet(h)

	err = ctx.ReorderComputePipelines(h, []ComputePipelineHandle{p1})
	assert.NoError(t, err)
	assert.Equal(t, []ComputePipelineHandle{p1}, ps.Pipelines())

	err = ctx.ReorderComputePipelines(ComputePassHandle{index: 4}, nil)
	assert.Error(t, err)
}
