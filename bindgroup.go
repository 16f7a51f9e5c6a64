// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// bindingKind is the resource kind of one bind group entry.
type bindingKind int32

const (
	bindUniformBuffer bindingKind = iota
	bindStorageBuffer
	bindSampledTexture
	bindStorageTexture
	bindSampler
)

// binding is one entry of a bind group: the compiled layout entry plus
// the handle it resolves against.
type binding struct {
	kind    bindingKind
	layout  wgpu.BindGroupLayoutEntry
	buffer  BufferHandle
	texture TextureHandle
	sampler SamplerHandle
}

// BindGroup is a composite resource: an ordered set of bindings compiled
// into a layout, the dependency lists of handles it resolves against, and
// a live resolved instantiation. When a dependency is destructively
// reallocated, the owning context rebuilds the instantiation in place via
// recreate; the handle and layout never change.
type BindGroup struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	// Buffers, Textures, and Samplers are the dependency lists: exactly
	// the handles appearing in the layout, in binding order.
	Buffers  []BufferHandle
	Textures []TextureHandle
	Samplers []SamplerHandle

	bindings []binding
	layout   *wgpu.BindGroupLayout
	group    *wgpu.BindGroup
	device   *Device
}

// Layout returns the compiled bind group layout.
func (bg *BindGroup) Layout() *wgpu.BindGroupLayout { return bg.layout }

// Group returns the current resolved instantiation.
func (bg *BindGroup) Group() *wgpu.BindGroup { return bg.group }

// dependsOnBuffer reports whether the given buffer is in the dependency list.
func (bg *BindGroup) dependsOnBuffer(h BufferHandle) bool {
	for _, b := range bg.Buffers {
		if b == h {
			return true
		}
	}
	return false
}

// dependsOnTexture reports whether the given texture is in the dependency list.
func (bg *BindGroup) dependsOnTexture(h TextureHandle) bool {
	for _, t := range bg.Textures {
		if t == h {
			return true
		}
	}
	return false
}

// recreate re-resolves every binding against the current resource state
// and rebuilds only the instantiation; the layout and dependency lists
// are untouched. Calling it twice with no intervening dependency change
// resolves to the identical result both times, so redundant cascades are
// harmless.
func (bg *BindGroup) recreate(ctx *Context) error {
	entries := make([]wgpu.BindGroupEntry, len(bg.bindings))
	for i, bd := range bg.bindings {
		e := wgpu.BindGroupEntry{Binding: bd.layout.Binding}
		switch bd.kind {
		case bindUniformBuffer, bindStorageBuffer:
			bf, ok := ctx.buffers.get(bd.buffer)
			if !ok {
				return errors.Log(fmt.Errorf("gpukit.BindGroup %q: %v does not resolve", bg.Label, bd.buffer))
			}
			e.Buffer = bf.buffer
			e.Size = wgpu.WholeSize
		case bindSampledTexture, bindStorageTexture:
			tx, ok := ctx.textures.get(bd.texture)
			if !ok {
				return errors.Log(fmt.Errorf("gpukit.BindGroup %q: %v does not resolve", bg.Label, bd.texture))
			}
			e.TextureView = tx.view
		case bindSampler:
			sm, ok := ctx.samplers.get(bd.sampler)
			if !ok {
				return errors.Log(fmt.Errorf("gpukit.BindGroup %q: %v does not resolve", bg.Label, bd.sampler))
			}
			e.Sampler = sm.sampler
		}
		entries[i] = e
	}
	if bg.group != nil {
		bg.group.Release()
		bg.group = nil
	}
	g, err := bg.device.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   bg.Label,
		Layout:  bg.layout,
		Entries: entries,
	})
	if errors.Log(err) != nil {
		return err
	}
	bg.group = g
	return nil
}

// BindGroupBuilder accumulates layout entries and the handles they
// resolve against. Get one with [Context.NewBindGroupBuilder]; finish
// with [BindGroupBuilder.Build], which compiles the layout once and
// performs the first resolution.
type BindGroupBuilder struct {
	ctx      *Context
	label    string
	bindings []binding
	err      error
}

// NewBindGroupBuilder returns a builder for a new bind group.
func (ctx *Context) NewBindGroupBuilder(label string) *BindGroupBuilder {
	return &BindGroupBuilder{ctx: ctx, label: label}
}

func (bb *BindGroupBuilder) fail(format string, args ...any) *BindGroupBuilder {
	if bb.err == nil {
		bb.err = fmt.Errorf("gpukit.BindGroupBuilder %q: "+format, append([]any{bb.label}, args...)...)
	}
	return bb
}

// AddUniformBuffer adds a uniform buffer binding at the given slot,
// visible to the given shader stages.
func (bb *BindGroupBuilder) AddUniformBuffer(slot uint32, visibility wgpu.ShaderStage, h BufferHandle) *BindGroupBuilder {
	if _, ok := bb.ctx.buffers.get(h); !ok {
		return bb.fail("%v does not resolve", h)
	}
	bb.bindings = append(bb.bindings, binding{
		kind:   bindUniformBuffer,
		buffer: h,
		layout: wgpu.BindGroupLayoutEntry{
			Binding:    slot,
			Visibility: visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		},
	})
	return bb
}

// AddStorageBuffer adds a storage buffer binding at the given slot,
// visible to the given shader stages.
func (bb *BindGroupBuilder) AddStorageBuffer(slot uint32, visibility wgpu.ShaderStage, h BufferHandle, readOnly bool) *BindGroupBuilder {
	if _, ok := bb.ctx.buffers.get(h); !ok {
		return bb.fail("%v does not resolve", h)
	}
	ty := wgpu.BufferBindingTypeStorage
	if readOnly {
		ty = wgpu.BufferBindingTypeReadOnlyStorage
	}
	bb.bindings = append(bb.bindings, binding{
		kind:   bindStorageBuffer,
		buffer: h,
		layout: wgpu.BindGroupLayoutEntry{
			Binding:    slot,
			Visibility: visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: ty},
		},
	})
	return bb
}

// AddTexture adds a sampled texture binding at the given slot, visible to
// the given shader stages. The view dimension and multisampling are taken
// from the referenced texture.
func (bb *BindGroupBuilder) AddTexture(slot uint32, visibility wgpu.ShaderStage, h TextureHandle) *BindGroupBuilder {
	tx, ok := bb.ctx.textures.get(h)
	if !ok {
		return bb.fail("%v does not resolve", h)
	}
	bb.bindings = append(bb.bindings, binding{
		kind:    bindSampledTexture,
		texture: h,
		layout: wgpu.BindGroupLayoutEntry{
			Binding:    slot,
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: viewDimension(tx.Dimension),
				Multisampled:  tx.SampleCount > 1,
			},
		},
	})
	return bb
}

// AddStorageTexture adds a write-only storage texture binding at the
// given slot, visible to the given shader stages. The pixel format is
// derived from the referenced texture's current format, rather than
// respecified here.
func (bb *BindGroupBuilder) AddStorageTexture(slot uint32, visibility wgpu.ShaderStage, h TextureHandle) *BindGroupBuilder {
	tx, ok := bb.ctx.textures.get(h)
	if !ok {
		return bb.fail("%v does not resolve", h)
	}
	bb.bindings = append(bb.bindings, binding{
		kind:    bindStorageTexture,
		texture: h,
		layout: wgpu.BindGroupLayoutEntry{
			Binding:    slot,
			Visibility: visibility,
			StorageTexture: wgpu.StorageTextureBindingLayout{
				Access:        wgpu.StorageTextureAccessWriteOnly,
				Format:        tx.Format,
				ViewDimension: viewDimension(tx.Dimension),
			},
		},
	})
	return bb
}

// AddSampler adds a sampler binding at the given slot, visible to the
// given shader stages. Samplers resolve by handle exactly like buffers
// and textures.
func (bb *BindGroupBuilder) AddSampler(slot uint32, visibility wgpu.ShaderStage, h SamplerHandle) *BindGroupBuilder {
	if _, ok := bb.ctx.samplers.get(h); !ok {
		return bb.fail("%v does not resolve", h)
	}
	bb.bindings = append(bb.bindings, binding{
		kind:    bindSampler,
		sampler: h,
		layout: wgpu.BindGroupLayoutEntry{
			Binding:    slot,
			Visibility: visibility,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
	})
	return bb
}

// Build compiles the layout, performs the first resolution, registers the
// bind group, and returns its handle.
func (bb *BindGroupBuilder) Build() (BindGroupHandle, error) {
	if bb.err != nil {
		return BindGroupHandle{}, errors.Log(bb.err)
	}
	bg := &BindGroup{Label: bb.label, bindings: bb.bindings, device: bb.ctx.device}
	entries := make([]wgpu.BindGroupLayoutEntry, len(bb.bindings))
	for i, bd := range bb.bindings {
		entries[i] = bd.layout
		switch bd.kind {
		case bindUniformBuffer, bindStorageBuffer:
			bg.Buffers = append(bg.Buffers, bd.buffer)
		case bindSampledTexture, bindStorageTexture:
			bg.Textures = append(bg.Textures, bd.texture)
		case bindSampler:
			bg.Samplers = append(bg.Samplers, bd.sampler)
		}
	}
	lay, err := bb.ctx.device.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   bb.label,
		Entries: entries,
	})
	if errors.Log(err) != nil {
		return BindGroupHandle{}, err
	}
	bg.layout = lay
	if err := bg.recreate(bb.ctx); err != nil {
		return BindGroupHandle{}, err
	}
	return bb.ctx.bindGroups.add(bg), nil
}

// viewDimension maps a texture dimensionality to its default view
// dimension.
func viewDimension(dim wgpu.TextureDimension) wgpu.TextureViewDimension {
	switch dim {
	case wgpu.TextureDimension1D:
		return wgpu.TextureViewDimension1D
	case wgpu.TextureDimension3D:
		return wgpu.TextureViewDimension3D
	default:
		return wgpu.TextureViewDimension2D
	}
}
