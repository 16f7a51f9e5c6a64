// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import "github.com/cogentcore/webgpu/wgpu"

// Vertexer is implemented by element types used as vertex or instance
// data. The attribute metadata is static and already resolved: byte
// offsets, shader locations, and wire formats are computed ahead of time
// (typically by code generation over the struct definition) and simply
// reported here.
type Vertexer interface {
	// VertexAttributes returns the attributes of one element, in
	// shader-location order, with offsets relative to the element start.
	VertexAttributes() []wgpu.VertexAttribute
}

// VertexLayout is the layout captured from a buffer marked as a vertex or
// instance source: the per-element stride, the step granularity, and the
// attribute list. It is snapshotted into each pipeline at build time.
type VertexLayout struct {
	// ArrayStride is the byte size of one element.
	ArrayStride uint64

	// StepMode is per-vertex or per-instance advancement.
	StepMode wgpu.VertexStepMode

	// Attributes are the element's attributes.
	Attributes []wgpu.VertexAttribute
}

func (vl *VertexLayout) bufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: vl.ArrayStride,
		StepMode:    vl.StepMode,
		Attributes:  vl.Attributes,
	}
}
