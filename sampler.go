// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Sampler is an immutable filtering and addressing configuration.
// Samplers have no mutation protocol: once built they never change,
// so bind groups referencing them never need rebuilding on their account.
type Sampler struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	sampler *wgpu.Sampler
}

// SamplerBuilder accumulates configuration for a new [Sampler].
// Get one with [Context.NewSamplerBuilder]; finish with
// [SamplerBuilder.Build]. Defaults are clamp-to-edge addressing and
// linear filtering.
type SamplerBuilder struct {
	ctx  *Context
	desc wgpu.SamplerDescriptor
}

// NewSamplerBuilder returns a builder for a new sampler.
func (ctx *Context) NewSamplerBuilder(label string) *SamplerBuilder {
	return &SamplerBuilder{ctx: ctx, desc: wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}}
}

// SetAddressMode sets the texture addressing mode on all three axes.
func (sb *SamplerBuilder) SetAddressMode(mode wgpu.AddressMode) *SamplerBuilder {
	sb.desc.AddressModeU = mode
	sb.desc.AddressModeV = mode
	sb.desc.AddressModeW = mode
	return sb
}

// SetFilter sets the magnification and minification filters.
func (sb *SamplerBuilder) SetFilter(mag, min wgpu.FilterMode) *SamplerBuilder {
	sb.desc.MagFilter = mag
	sb.desc.MinFilter = min
	return sb
}

// SetMipmapFilter sets the filter used between mip levels.
func (sb *SamplerBuilder) SetMipmapFilter(filter wgpu.MipmapFilterMode) *SamplerBuilder {
	sb.desc.MipmapFilter = filter
	return sb
}

// SetLodClamp sets the level-of-detail clamp range.
func (sb *SamplerBuilder) SetLodClamp(minLod, maxLod float32) *SamplerBuilder {
	sb.desc.LodMinClamp = minLod
	sb.desc.LodMaxClamp = maxLod
	return sb
}

// SetMaxAnisotropy sets the maximum anisotropy level.
func (sb *SamplerBuilder) SetMaxAnisotropy(n uint16) *SamplerBuilder {
	sb.desc.MaxAnisotropy = n
	return sb
}

// SetCompare makes this a comparison sampler with the given function.
func (sb *SamplerBuilder) SetCompare(fn wgpu.CompareFunction) *SamplerBuilder {
	sb.desc.Compare = fn
	return sb
}

// Build creates the sampler, registers it, and returns its handle.
func (sb *SamplerBuilder) Build() (SamplerHandle, error) {
	sm, err := sb.ctx.device.Device.CreateSampler(&sb.desc)
	if errors.Log(err) != nil {
		return SamplerHandle{}, err
	}
	return sb.ctx.samplers.add(&Sampler{Label: sb.desc.Label, sampler: sm}), nil
}
