// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// ComputePipeline is a compiled compute program plus the bind groups it
// reads and writes and a fixed 3-axis workgroup dispatch count.
// Immutable after build.
type ComputePipeline struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	pipeline   *wgpu.ComputePipeline
	bindGroups []BindGroupHandle
	workgroups [3]uint32
}

// ComputePipelineBuilder accumulates configuration for a new
// [ComputePipeline]. Get one with [Context.NewComputePipelineBuilder].
// The shader entry point and the workgroup count are both mandatory.
type ComputePipelineBuilder struct {
	ctx        *Context
	label      string
	shader     ShaderHandle
	entry      string
	hasShader  bool
	workgroups [3]uint32
	hasGroups  bool
	bindGroups []BindGroupHandle
}

// NewComputePipelineBuilder returns a builder for a new compute pipeline.
func (ctx *Context) NewComputePipelineBuilder(label string) *ComputePipelineBuilder {
	return &ComputePipelineBuilder{ctx: ctx, label: label}
}

// SetShader sets the compute entry point. Mandatory.
func (cb *ComputePipelineBuilder) SetShader(h ShaderHandle, entry string) *ComputePipelineBuilder {
	cb.shader = h
	cb.entry = entry
	cb.hasShader = true
	return cb
}

// SetWorkgroups sets the fixed 3-axis workgroup count dispatched each
// frame. Mandatory.
func (cb *ComputePipelineBuilder) SetWorkgroups(x, y, z uint32) *ComputePipelineBuilder {
	cb.workgroups = [3]uint32{x, y, z}
	cb.hasGroups = true
	return cb
}

// AddBindGroup attaches a bind group. Groups are bound at the slot given
// by the order added, starting at 0.
func (cb *ComputePipelineBuilder) AddBindGroup(h BindGroupHandle) *ComputePipelineBuilder {
	cb.bindGroups = append(cb.bindGroups, h)
	return cb
}

// Build validates the configuration, compiles the pipeline, registers it,
// and returns its handle.
func (cb *ComputePipelineBuilder) Build() (ComputePipelineHandle, error) {
	pl, err := cb.make()
	if err != nil {
		return ComputePipelineHandle{}, errors.Log(err)
	}
	return cb.ctx.computePipelines.add(pl), nil
}

func (cb *ComputePipelineBuilder) make() (*ComputePipeline, error) {
	switch {
	case !cb.hasShader:
		return nil, fmt.Errorf("gpukit.ComputePipelineBuilder %q: no shader set", cb.label)
	case !cb.hasGroups:
		return nil, fmt.Errorf("gpukit.ComputePipelineBuilder %q: no workgroup count set", cb.label)
	}
	sh, ok := cb.ctx.shaders.get(cb.shader)
	if !ok {
		return nil, fmt.Errorf("gpukit.ComputePipelineBuilder %q: shader %v does not resolve", cb.label, cb.shader)
	}
	lay, err := combinedLayout(cb.ctx, cb.label, cb.bindGroups)
	if err != nil {
		return nil, err
	}
	wpl, err := cb.ctx.device.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  cb.label,
		Layout: lay,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     sh.module,
			EntryPoint: cb.entry,
		},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	return &ComputePipeline{
		Label:      cb.label,
		pipeline:   wpl,
		bindGroups: cb.bindGroups,
		workgroups: cb.workgroups,
	}, nil
}
