// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// PolygonMode selects how polygons are rasterized. The WebGPU core API
// only rasterizes filled polygons, so the non-fill modes fail at build
// time with a descriptive error.
type PolygonMode int32

const (
	// PolygonFill rasterizes filled polygons (the default).
	PolygonFill PolygonMode = iota

	// PolygonLine would rasterize polygon edges only.
	PolygonLine

	// PolygonPoint would rasterize polygon vertices only.
	PolygonPoint
)

func (pm PolygonMode) String() string {
	switch pm {
	case PolygonLine:
		return "Line"
	case PolygonPoint:
		return "Point"
	default:
		return "Fill"
	}
}

// RenderPipeline is a compiled render program plus its fixed-function
// configuration and the resource handles it draws from. Immutable after
// build; vertex and instance layouts are snapshotted from the attached
// buffers at build time.
type RenderPipeline struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	pipeline        *wgpu.RenderPipeline
	bindGroups      []BindGroupHandle
	vertexBuffers   []BufferHandle
	instanceBuffers []BufferHandle
	indexBuffer     BufferHandle
	hasIndex        bool
	indexFormat     wgpu.IndexFormat
}

// depthConfig is the optional depth-stencil configuration of a render
// pipeline.
type depthConfig struct {
	format         wgpu.TextureFormat
	writeEnabled   bool
	compare        wgpu.CompareFunction
	bias           int32
	biasSlopeScale float32
}

// RenderPipelineBuilder accumulates configuration for a new
// [RenderPipeline]. Get one with [Context.NewRenderPipelineBuilder].
// A vertex shader entry, a primitive topology, and a front-face winding
// are mandatory; everything else has documented defaults (no culling,
// filled polygons, no depth test, no blending, single-sampled).
type RenderPipelineBuilder struct {
	ctx             *Context
	label           string
	vertexShader    ShaderHandle
	vertexEntry     string
	hasVertex       bool
	fragmentShader  ShaderHandle
	fragmentEntry   string
	hasFragment     bool
	topology        wgpu.PrimitiveTopology
	hasTopology     bool
	frontFace       wgpu.FrontFace
	hasFrontFace    bool
	cullMode        wgpu.CullMode
	polygonMode     PolygonMode
	depth           *depthConfig
	colorFormat     wgpu.TextureFormat
	hasColorFormat  bool
	sampleCount     uint32
	vertexBuffers   []BufferHandle
	instanceBuffers []BufferHandle
	indexBuffer     BufferHandle
	hasIndex        bool
	bindGroups      []BindGroupHandle
}

// NewRenderPipelineBuilder returns a builder for a new render pipeline.
func (ctx *Context) NewRenderPipelineBuilder(label string) *RenderPipelineBuilder {
	return &RenderPipelineBuilder{
		ctx:         ctx,
		label:       label,
		cullMode:    wgpu.CullModeNone,
		sampleCount: 1,
	}
}

// SetVertexShader sets the vertex stage entry point. Mandatory.
func (pb *RenderPipelineBuilder) SetVertexShader(h ShaderHandle, entry string) *RenderPipelineBuilder {
	pb.vertexShader = h
	pb.vertexEntry = entry
	pb.hasVertex = true
	return pb
}

// SetFragmentShader sets the fragment stage entry point. Optional:
// without it the pipeline writes no color output.
func (pb *RenderPipelineBuilder) SetFragmentShader(h ShaderHandle, entry string) *RenderPipelineBuilder {
	pb.fragmentShader = h
	pb.fragmentEntry = entry
	pb.hasFragment = true
	return pb
}

// SetTopology sets the primitive topology. Mandatory.
func (pb *RenderPipelineBuilder) SetTopology(topo wgpu.PrimitiveTopology) *RenderPipelineBuilder {
	pb.topology = topo
	pb.hasTopology = true
	return pb
}

// SetFrontFace sets the winding order that counts as front-facing.
// Mandatory.
func (pb *RenderPipelineBuilder) SetFrontFace(face wgpu.FrontFace) *RenderPipelineBuilder {
	pb.frontFace = face
	pb.hasFrontFace = true
	return pb
}

// SetCullMode sets the face culling mode. Default is no culling.
func (pb *RenderPipelineBuilder) SetCullMode(mode wgpu.CullMode) *RenderPipelineBuilder {
	pb.cullMode = mode
	return pb
}

// SetPolygonMode sets the polygon rasterization mode. Default is
// [PolygonFill], the only mode the backend supports.
func (pb *RenderPipelineBuilder) SetPolygonMode(mode PolygonMode) *RenderPipelineBuilder {
	pb.polygonMode = mode
	return pb
}

// SetDepthStencil enables depth testing against an attachment of the
// given format. Default is no depth test.
func (pb *RenderPipelineBuilder) SetDepthStencil(format wgpu.TextureFormat, writeEnabled bool, compare wgpu.CompareFunction) *RenderPipelineBuilder {
	pb.depth = &depthConfig{format: format, writeEnabled: writeEnabled, compare: compare}
	return pb
}

// SetDepthBias sets the depth bias values. Only meaningful with
// [RenderPipelineBuilder.SetDepthStencil].
func (pb *RenderPipelineBuilder) SetDepthBias(bias int32, slopeScale float32) *RenderPipelineBuilder {
	if pb.depth != nil {
		pb.depth.bias = bias
		pb.depth.biasSlopeScale = slopeScale
	}
	return pb
}

// SetColorFormat overrides the color target format. Default is the
// presentation surface format.
func (pb *RenderPipelineBuilder) SetColorFormat(format wgpu.TextureFormat) *RenderPipelineBuilder {
	pb.colorFormat = format
	pb.hasColorFormat = true
	return pb
}

// SetSampleCount sets the multisampling count. Default is 1.
func (pb *RenderPipelineBuilder) SetSampleCount(count uint32) *RenderPipelineBuilder {
	pb.sampleCount = count
	return pb
}

// AddVertexBuffer attaches a per-vertex attribute buffer. Buffers are
// bound in the order added, starting at slot 0.
func (pb *RenderPipelineBuilder) AddVertexBuffer(h BufferHandle) *RenderPipelineBuilder {
	pb.vertexBuffers = append(pb.vertexBuffers, h)
	return pb
}

// AddInstanceBuffer attaches a per-instance attribute buffer. Instance
// buffers are bound after all vertex buffers, in the order added.
func (pb *RenderPipelineBuilder) AddInstanceBuffer(h BufferHandle) *RenderPipelineBuilder {
	pb.instanceBuffers = append(pb.instanceBuffers, h)
	return pb
}

// SetIndexBuffer attaches an index buffer. The index format is resolved
// from the buffer's element width: 2 bytes is 16-bit, 4 bytes is 32-bit,
// and anything else fails at build.
func (pb *RenderPipelineBuilder) SetIndexBuffer(h BufferHandle) *RenderPipelineBuilder {
	pb.indexBuffer = h
	pb.hasIndex = true
	return pb
}

// AddBindGroup attaches a bind group. Groups are bound at the slot given
// by the order added, starting at 0.
func (pb *RenderPipelineBuilder) AddBindGroup(h BindGroupHandle) *RenderPipelineBuilder {
	pb.bindGroups = append(pb.bindGroups, h)
	return pb
}

// Build validates the configuration, compiles the pipeline, registers it,
// and returns its handle.
func (pb *RenderPipelineBuilder) Build() (RenderPipelineHandle, error) {
	pl, err := pb.make()
	if err != nil {
		return RenderPipelineHandle{}, errors.Log(err)
	}
	return pb.ctx.renderPipelines.add(pl), nil
}

func (pb *RenderPipelineBuilder) make() (*RenderPipeline, error) {
	switch {
	case !pb.hasVertex:
		return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: no vertex shader set", pb.label)
	case !pb.hasTopology:
		return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: no topology set", pb.label)
	case !pb.hasFrontFace:
		return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: no front face set", pb.label)
	}
	if pb.polygonMode != PolygonFill {
		return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: polygon mode %v is not supported by the WebGPU backend", pb.label, pb.polygonMode)
	}
	vsh, ok := pb.ctx.shaders.get(pb.vertexShader)
	if !ok {
		return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: vertex shader %v does not resolve", pb.label, pb.vertexShader)
	}

	// snapshot the captured layouts of the attached buffers:
	// vertex buffers first, then instance buffers.
	var layouts []wgpu.VertexBufferLayout
	for _, h := range pb.vertexBuffers {
		vl, err := pb.bufferLayout(h, wgpu.VertexStepModeVertex)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, vl)
	}
	for _, h := range pb.instanceBuffers {
		vl, err := pb.bufferLayout(h, wgpu.VertexStepModeInstance)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, vl)
	}

	pl := &RenderPipeline{
		Label:           pb.label,
		bindGroups:      pb.bindGroups,
		vertexBuffers:   pb.vertexBuffers,
		instanceBuffers: pb.instanceBuffers,
		indexBuffer:     pb.indexBuffer,
		hasIndex:        pb.hasIndex,
	}

	primitive := wgpu.PrimitiveState{
		Topology:  pb.topology,
		FrontFace: pb.frontFace,
		CullMode:  pb.cullMode,
	}
	if pb.hasIndex {
		ib, ok := pb.ctx.buffers.get(pb.indexBuffer)
		if !ok {
			return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: index buffer %v does not resolve", pb.label, pb.indexBuffer)
		}
		ifmt, err := indexFormatForSize(ib.elemSize)
		if err != nil {
			return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: %w", pb.label, err)
		}
		pl.indexFormat = ifmt
		if isStripTopology(pb.topology) {
			primitive.StripIndexFormat = ifmt
		}
	}

	lay, err := pb.pipelineLayout()
	if err != nil {
		return nil, err
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  pb.label,
		Layout: lay,
		Vertex: wgpu.VertexState{
			Module:     vsh.module,
			EntryPoint: pb.vertexEntry,
			Buffers:    layouts,
		},
		Primitive: primitive,
		Multisample: wgpu.MultisampleState{
			Count: pb.sampleCount,
			Mask:  0xFFFFFFFF,
		},
	}
	if pb.hasFragment {
		fsh, ok := pb.ctx.shaders.get(pb.fragmentShader)
		if !ok {
			return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: fragment shader %v does not resolve", pb.label, pb.fragmentShader)
		}
		format := pb.colorFormat
		if !pb.hasColorFormat {
			if pb.ctx.surface == nil {
				return nil, fmt.Errorf("gpukit.RenderPipelineBuilder %q: no color format set and no surface to take it from", pb.label)
			}
			format = pb.ctx.surface.Format
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     fsh.module,
			EntryPoint: pb.fragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		}
	}
	if pb.depth != nil {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              pb.depth.format,
			DepthWriteEnabled:   pb.depth.writeEnabled,
			DepthCompare:        pb.depth.compare,
			DepthBias:           pb.depth.bias,
			DepthBiasSlopeScale: pb.depth.biasSlopeScale,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	wpl, err := pb.ctx.device.Device.CreateRenderPipeline(desc)
	if errors.Log(err) != nil {
		return nil, err
	}
	pl.pipeline = wpl
	return pl, nil
}

// bufferLayout resolves the captured layout of a vertex or instance
// buffer, failing if the buffer was never marked as such a source or was
// marked with the other step granularity.
func (pb *RenderPipelineBuilder) bufferLayout(h BufferHandle, step wgpu.VertexStepMode) (wgpu.VertexBufferLayout, error) {
	bf, ok := pb.ctx.buffers.get(h)
	if !ok {
		return wgpu.VertexBufferLayout{}, fmt.Errorf("gpukit.RenderPipelineBuilder %q: %v does not resolve", pb.label, h)
	}
	if bf.Layout == nil {
		return wgpu.VertexBufferLayout{}, fmt.Errorf("gpukit.RenderPipelineBuilder %q: buffer %q carries no vertex layout", pb.label, bf.Label)
	}
	if bf.Layout.StepMode != step {
		return wgpu.VertexBufferLayout{}, fmt.Errorf("gpukit.RenderPipelineBuilder %q: buffer %q has step mode %v, want %v", pb.label, bf.Label, bf.Layout.StepMode, step)
	}
	return bf.Layout.bufferLayout(), nil
}

// pipelineLayout resolves the attached bind groups to their compiled
// layouts and combines them into the pipeline layout.
func (pb *RenderPipelineBuilder) pipelineLayout() (*wgpu.PipelineLayout, error) {
	return combinedLayout(pb.ctx, pb.label, pb.bindGroups)
}

// combinedLayout builds a pipeline layout from the compiled layouts of
// the given bind groups, in slot order.
func combinedLayout(ctx *Context, label string, groups []BindGroupHandle) (*wgpu.PipelineLayout, error) {
	lays := make([]*wgpu.BindGroupLayout, len(groups))
	for i, h := range groups {
		bg, ok := ctx.bindGroups.get(h)
		if !ok {
			return nil, fmt.Errorf("gpukit: pipeline %q: bind group %v does not resolve", label, h)
		}
		lays[i] = bg.layout
	}
	lay, err := ctx.device.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: lays,
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	return lay, nil
}

// indexFormatForSize resolves the index format from an index buffer's
// element width: 2 bytes is 16-bit and 4 bytes is 32-bit; any other
// width has no index format.
func indexFormatForSize(elemSize int) (wgpu.IndexFormat, error) {
	switch elemSize {
	case 2:
		return wgpu.IndexFormatUint16, nil
	case 4:
		return wgpu.IndexFormatUint32, nil
	}
	return wgpu.IndexFormatUndefined, fmt.Errorf("index element width %d has no index format (must be 2 or 4)", elemSize)
}

// isStripTopology reports whether the topology is a strip variant, which
// needs a strip restart format when indexed.
func isStripTopology(topo wgpu.PrimitiveTopology) bool {
	return topo == wgpu.PrimitiveTopologyLineStrip || topo == wgpu.PrimitiveTopologyTriangleStrip
}
