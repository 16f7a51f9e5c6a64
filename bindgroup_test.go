// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestBindGroupBuilderMisuse(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	_, err := ctx.NewBindGroupBuilder("badbuf").
		AddUniformBuffer(0, wgpu.ShaderStageVertex, BufferHandle{index: 3}).
		Build()
	assert.ErrorContains(t, err, "does not resolve")

	_, err = ctx.NewBindGroupBuilder("badstorage").
		AddStorageBuffer(0, wgpu.ShaderStageCompute, BufferHandle{index: 3}, false).
		Build()
	assert.ErrorContains(t, err, "does not resolve")

	_, err = ctx.NewBindGroupBuilder("badtex").
		AddTexture(0, wgpu.ShaderStageFragment, TextureHandle{index: 3}).
		Build()
	assert.ErrorContains(t, err, "does not resolve")

	_, err = ctx.NewBindGroupBuilder("badstoragetex").
		AddStorageTexture(0, wgpu.ShaderStageCompute, TextureHandle{index: 3}).
		Build()
	assert.ErrorContains(t, err, "does not resolve")

	_, err = ctx.NewBindGroupBuilder("badsampler").
		AddSampler(0, wgpu.ShaderStageFragment, SamplerHandle{index: 3}).
		Build()
	assert.ErrorContains(t, err, "does not resolve")
}

func TestBindGroupDependencies(t *testing.T) {
	var bg BindGroup
	b0 := BufferHandle{index: 0}
	b1 := BufferHandle{index: 1}
	t0 := TextureHandle{index: 0}
	bg.Buffers = []BufferHandle{b0}
	bg.Textures = []TextureHandle{t0}

	assert.True(t, bg.dependsOnBuffer(b0))
	assert.False(t, bg.dependsOnBuffer(b1))
	assert.True(t, bg.dependsOnTexture(t0))
	assert.False(t, bg.dependsOnTexture(TextureHandle{index: 1}))
}

func TestViewDimension(t *testing.T) {
	assert.Equal(t, wgpu.TextureViewDimension1D, viewDimension(wgpu.TextureDimension1D))
	assert.Equal(t, wgpu.TextureViewDimension2D, viewDimension(wgpu.TextureDimension2D))
	assert.Equal(t, wgpu.TextureViewDimension3D, viewDimension(wgpu.TextureDimension3D))
}

func TestBindGroupRecreate(t *testing.T) {
	t.Skip("Need software GPU on CI")
	gp, dev, err := NoDisplayGPU()
	assert.NoError(t, err)
	defer dev.Release()
	defer gp.Release()
	ctx := NewContext(gp, dev, nil)

	buf, err := NewBufferBuilder[float32](ctx, "data").Storage().Build(4)
	assert.NoError(t, err)

	h, err := ctx.NewBindGroupBuilder("group").
		AddStorageBuffer(0, wgpu.ShaderStageCompute, buf, false).
		Build()
	assert.NoError(t, err)
	bg := ctx.bindGroups.mustGet(h)
	assert.Equal(t, []BufferHandle{buf}, bg.Buffers)
	layout := bg.Layout()
	group := bg.Group()
	assert.NotNil(t, layout)
	assert.NotNil(t, group)

	// growing the buffer reallocates it, which rebuilds the bind group
	// but never its layout
	structural, err := WriteBuffer(ctx, buf, make([]float32, 16))
	assert.NoError(t, err)
	assert.True(t, structural)
	assert.Same(t, layout, bg.Layout())
	assert.NotSame(t, group, bg.Group())

	// an in-place write leaves the bind group alone
	group = bg.Group()
	structural, err = WriteBuffer(ctx, buf, make([]float32, 8))
	assert.NoError(t, err)
	assert.False(t, structural)
	assert.Same(t, group, bg.Group())

	// recreate with nothing changed resolves to an equivalent group
	assert.NoError(t, bg.recreate(ctx))
	assert.NoError(t, bg.recreate(ctx))
	assert.Same(t, layout, bg.Layout())
}

func TestBindGroupSampler(t *testing.T) {
	t.Skip("Need software GPU on CI")
	gp, dev, err := NoDisplayGPU()
	assert.NoError(t, err)
	defer dev.Release()
	defer gp.Release()
	ctx := NewContext(gp, dev, nil)

	tex, err := NewTextureBuilder[[4]uint8](ctx, "tex").
		SetFormat(wgpu.TextureFormatRGBA8Unorm).
		Fixed(wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}).
		Build()
	assert.NoError(t, err)
	smp, err := ctx.NewSamplerBuilder("smp").
		SetAddressMode(wgpu.AddressModeRepeat).
		Build()
	assert.NoError(t, err)

	// samplers resolve by handle just like buffers and textures
	h, err := ctx.NewBindGroupBuilder("sampled").
		AddTexture(0, wgpu.ShaderStageFragment, tex).
		AddSampler(1, wgpu.ShaderStageFragment, smp).
		Build()
	assert.NoError(t, err)
	bg := ctx.bindGroups.mustGet(h)
	assert.Equal(t, []TextureHandle{tex}, bg.Textures)
	assert.Equal(t, []SamplerHandle{smp}, bg.Samplers)
	assert.NotNil(t, bg.Group())
}
