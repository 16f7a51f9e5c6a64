// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"image"
	"reflect"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestSizePolicyString(t *testing.T) {
	assert.Equal(t, "Undefined", SizeUndefined.String())
	assert.Equal(t, "Fixed", SizeFixed.String())
	assert.Equal(t, "Surface", SizeSurface.String())
	assert.Equal(t, "SurfaceScaled", SizeSurfaceScaled.String())

	assert.False(t, SizeFixed.surfaceRelative())
	assert.True(t, SizeSurface.surfaceRelative())
	assert.True(t, SizeSurfaceScaled.surfaceRelative())
}

func TestSurfaceExtent(t *testing.T) {
	tx := &Texture{Policy: SizeSurface}
	sz := tx.surfaceExtent(image.Point{800, 600})
	assert.Equal(t, wgpu.Extent3D{Width: 800, Height: 600, DepthOrArrayLayers: 1}, sz)

	// axes are clamped so a collapsed window never yields a zero extent
	sz = tx.surfaceExtent(image.Point{0, 0})
	assert.Equal(t, wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}, sz)

	tx = &Texture{Policy: SizeSurfaceScaled, Scale: 0.5}
	sz = tx.surfaceExtent(image.Point{801, 601})
	assert.Equal(t, wgpu.Extent3D{Width: 400, Height: 300, DepthOrArrayLayers: 1}, sz)

	tx.Scale = 0.001
	sz = tx.surfaceExtent(image.Point{100, 100})
	assert.Equal(t, wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1}, sz)

	// fixed textures keep their own extent
	tx = &Texture{Policy: SizeFixed, Size: wgpu.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1}}
	sz = tx.surfaceExtent(image.Point{800, 600})
	assert.Equal(t, tx.Size, sz)
}

func TestValidateExtent(t *testing.T) {
	assert.NoError(t, validateExtent(wgpu.TextureDimension2D, wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}))
	assert.NoError(t, validateExtent(wgpu.TextureDimension1D, wgpu.Extent3D{Width: 4, Height: 1, DepthOrArrayLayers: 1}))
	assert.NoError(t, validateExtent(wgpu.TextureDimension3D, wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 4}))

	assert.Error(t, validateExtent(wgpu.TextureDimension2D, wgpu.Extent3D{Width: 0, Height: 4, DepthOrArrayLayers: 1}))
	assert.Error(t, validateExtent(wgpu.TextureDimension2D, wgpu.Extent3D{Width: 4, Height: 0, DepthOrArrayLayers: 1}))
	assert.Error(t, validateExtent(wgpu.TextureDimension1D, wgpu.Extent3D{Width: 4, Height: 2, DepthOrArrayLayers: 1}))
	assert.Error(t, validateExtent(wgpu.TextureDimension1D, wgpu.Extent3D{Width: 4, Height: 1, DepthOrArrayLayers: 2}))
	assert.Error(t, validateExtent(wgpu.TextureDimension3D, wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 0}))
}

func TestTextureBuilderMisuse(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	_, err := NewTextureBuilder[[4]uint8](ctx, "nopolicy").Build()
	assert.ErrorContains(t, err, "no size policy")

	// [4]uint8 texels are 4 bytes, R32Float texels are 4 bytes: ok path
	// is exercised with a device elsewhere. Here a 2-byte element against
	// a 4-byte format must fail before touching the device.
	_, err = NewTextureBuilder[uint16](ctx, "badsize").
		SetFormat(wgpu.TextureFormatRGBA8Unorm).
		Fixed(wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}).
		Build()
	assert.ErrorContains(t, err, "bytes")

	_, err = NewTextureBuilder[[4]uint8](ctx, "nosurface").SurfaceBound().Build()
	assert.ErrorContains(t, err, "no surface")

	_, err = NewTextureBuilder[[4]uint8](ctx, "badextent").
		Fixed(wgpu.Extent3D{Width: 0, Height: 4, DepthOrArrayLayers: 1}).
		Build()
	assert.ErrorContains(t, err, "width")
}

func TestWriteTextureMisuse(t *testing.T) {
	ctx := NewContext(nil, nil, nil)

	err := WriteTexture(ctx, TextureHandle{index: 9}, []uint8{})
	assert.ErrorContains(t, err, "does not resolve")

	h := ctx.textures.add(&Texture{
		Label:    "tex",
		Size:     wgpu.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 1},
		elemType: reflect.TypeFor[[4]uint8](),
		elemSize: 4,
	})
	err = WriteTexture(ctx, h, []float32{1, 2, 3, 4})
	assert.ErrorContains(t, err, "element type")

	err = WriteTexture(ctx, h, make([][4]uint8, 3))
	assert.ErrorContains(t, err, "texel")
}
