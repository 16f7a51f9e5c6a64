// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"
	"image"
	"reflect"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// SizePolicy determines how a texture's extent responds to surface
// resize notifications delivered through [Context.Resize].
type SizePolicy int32

const (
	// SizeUndefined is the zero policy. Building a texture without
	// setting an explicit policy is a construction error.
	SizeUndefined SizePolicy = iota

	// SizeFixed keeps the extent given at build time; resize
	// notifications do not affect the texture.
	SizeFixed

	// SizeSurface tracks the presentation surface extent.
	SizeSurface

	// SizeSurfaceScaled tracks a fixed fraction of the surface extent.
	SizeSurfaceScaled
)

func (sp SizePolicy) String() string {
	switch sp {
	case SizeFixed:
		return "Fixed"
	case SizeSurface:
		return "Surface"
	case SizeSurfaceScaled:
		return "SurfaceScaled"
	default:
		return "Undefined"
	}
}

// surfaceRelative reports whether the policy tracks the surface size.
func (sp SizePolicy) surfaceRelative() bool {
	return sp == SizeSurface || sp == SizeSurfaceScaled
}

// TextureFormatSizes gives the byte size per texel of the texture
// formats supported for host writes.
var TextureFormatSizes = map[wgpu.TextureFormat]int{
	wgpu.TextureFormatR16Sint:             2,
	wgpu.TextureFormatR16Uint:             2,
	wgpu.TextureFormatR32Sint:             4,
	wgpu.TextureFormatR32Uint:             4,
	wgpu.TextureFormatR32Float:            4,
	wgpu.TextureFormatRG32Sint:            8,
	wgpu.TextureFormatRG32Uint:            8,
	wgpu.TextureFormatRG32Float:           8,
	wgpu.TextureFormatRGBA32Uint:          16,
	wgpu.TextureFormatRGBA32Sint:          16,
	wgpu.TextureFormatRGBA32Float:         16,
	wgpu.TextureFormatRGBA8Sint:           4,
	wgpu.TextureFormatRGBA8Unorm:          4,
	wgpu.TextureFormatRGBA8UnormSrgb:      4,
	wgpu.TextureFormatBGRA8Unorm:          4,
	wgpu.TextureFormatBGRA8UnormSrgb:      4,
	wgpu.TextureFormatDepth32Float:        4,
	wgpu.TextureFormatDepth24PlusStencil8: 4,
}

// Texture owns device image memory and a view onto it. Size is governed
// by the [SizePolicy]: surface-relative textures are reallocated whenever
// the owning context receives a resize notification. Explicit resizes
// via [Context.ResizeTexture] always destroy and reallocate the image.
type Texture struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	// Format is the pixel format.
	Format wgpu.TextureFormat

	// Dimension is 1D, 2D, or 3D. Resizes never change it.
	Dimension wgpu.TextureDimension

	// Usage is the usage bitset the image is created with.
	Usage wgpu.TextureUsage

	// Policy is the size policy.
	Policy SizePolicy

	// Scale is the surface fraction, for [SizeSurfaceScaled] only.
	Scale float32

	// Size is the current extent.
	Size wgpu.Extent3D

	// MipLevelCount is the number of mip levels.
	MipLevelCount uint32

	// SampleCount is the multisampling count.
	SampleCount uint32

	elemType reflect.Type
	elemSize int
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	device   *Device
}

// View returns the current texture view.
func (tx *Texture) View() *wgpu.TextureView { return tx.view }

// create releases any current image and makes a new one, with a view,
// from the current settings.
func (tx *Texture) create() error {
	tx.Release()
	t, err := tx.device.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         tx.Label,
		Size:          tx.Size,
		MipLevelCount: tx.MipLevelCount,
		SampleCount:   tx.SampleCount,
		Dimension:     tx.Dimension,
		Format:        tx.Format,
		Usage:         tx.Usage,
	})
	if errors.Log(err) != nil {
		return err
	}
	tx.texture = t
	vw, err := t.CreateView(nil)
	if errors.Log(err) != nil {
		return err
	}
	tx.view = vw
	return nil
}

// surfaceExtent returns the extent this texture should have for the given
// surface size, under its surface-relative policy. Axes never go below 1.
func (tx *Texture) surfaceExtent(size image.Point) wgpu.Extent3D {
	switch tx.Policy {
	case SizeSurface:
		return wgpu.Extent3D{
			Width:              max(uint32(size.X), 1),
			Height:             max(uint32(size.Y), 1),
			DepthOrArrayLayers: 1,
		}
	case SizeSurfaceScaled:
		return wgpu.Extent3D{
			Width:              max(uint32(float32(size.X)*tx.Scale), 1),
			Height:             max(uint32(float32(size.Y)*tx.Scale), 1),
			DepthOrArrayLayers: 1,
		}
	}
	return tx.Size
}

// Release releases the view and image.
func (tx *Texture) Release() {
	if tx.view != nil {
		tx.view.Release()
		tx.view = nil
	}
	if tx.texture != nil {
		tx.texture.Release()
		tx.texture = nil
	}
}

// validateExtent checks that the given extent is expressible in the given
// dimensionality: axes a dimensionality does not use must be exactly 1.
func validateExtent(dim wgpu.TextureDimension, size wgpu.Extent3D) error {
	if size.Width < 1 {
		return fmt.Errorf("gpukit: texture width must be at least 1, got %d", size.Width)
	}
	switch dim {
	case wgpu.TextureDimension1D:
		if size.Height != 1 || size.DepthOrArrayLayers != 1 {
			return fmt.Errorf("gpukit: 1D texture extent must have height and depth 1, got %dx%d", size.Height, size.DepthOrArrayLayers)
		}
	case wgpu.TextureDimension2D:
		if size.Height < 1 || size.DepthOrArrayLayers < 1 {
			return fmt.Errorf("gpukit: 2D texture extent axes must be at least 1")
		}
	case wgpu.TextureDimension3D:
		if size.Height < 1 || size.DepthOrArrayLayers < 1 {
			return fmt.Errorf("gpukit: 3D texture extent axes must be at least 1")
		}
	}
	return nil
}

// TextureBuilder accumulates configuration for a new [Texture] whose
// texels are written from elements of type T. Get one with
// [NewTextureBuilder]; a size policy must be set before
// [TextureBuilder.Build].
type TextureBuilder[T any] struct {
	ctx       *Context
	label     string
	usage     wgpu.TextureUsage
	format    wgpu.TextureFormat
	dimension wgpu.TextureDimension
	policy    SizePolicy
	scale     float32
	size      wgpu.Extent3D
	mips      uint32
	samples   uint32
}

// NewTextureBuilder returns a builder for a texture written from T
// elements, defaulting to a 2D, single-sample, single-mip, sRGB RGBA
// texture usable as a binding and copy destination.
func NewTextureBuilder[T any](ctx *Context, label string) *TextureBuilder[T] {
	return &TextureBuilder[T]{
		ctx:       ctx,
		label:     label,
		usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		format:    wgpu.TextureFormatRGBA8UnormSrgb,
		dimension: wgpu.TextureDimension2D,
		mips:      1,
		samples:   1,
	}
}

// SetFormat sets the pixel format.
func (tb *TextureBuilder[T]) SetFormat(format wgpu.TextureFormat) *TextureBuilder[T] {
	tb.format = format
	return tb
}

// SetDimension sets the dimensionality (1D, 2D, or 3D).
func (tb *TextureBuilder[T]) SetDimension(dim wgpu.TextureDimension) *TextureBuilder[T] {
	tb.dimension = dim
	return tb
}

// AddUsage adds the given usage flags.
func (tb *TextureBuilder[T]) AddUsage(usage wgpu.TextureUsage) *TextureBuilder[T] {
	tb.usage |= usage
	return tb
}

// SetMipLevelCount sets the number of mip levels.
func (tb *TextureBuilder[T]) SetMipLevelCount(mips uint32) *TextureBuilder[T] {
	tb.mips = mips
	return tb
}

// SetSampleCount sets the multisampling count.
func (tb *TextureBuilder[T]) SetSampleCount(samples uint32) *TextureBuilder[T] {
	tb.samples = samples
	return tb
}

// Fixed sets a fixed extent that resize notifications do not affect.
func (tb *TextureBuilder[T]) Fixed(size wgpu.Extent3D) *TextureBuilder[T] {
	tb.policy = SizeFixed
	tb.size = size
	return tb
}

// SurfaceBound sizes the texture to the presentation surface, tracking
// it across resizes.
func (tb *TextureBuilder[T]) SurfaceBound() *TextureBuilder[T] {
	tb.policy = SizeSurface
	return tb
}

// SurfaceScaled sizes the texture to the given fraction of the
// presentation surface, tracking it across resizes.
func (tb *TextureBuilder[T]) SurfaceScaled(scale float32) *TextureBuilder[T] {
	tb.policy = SizeSurfaceScaled
	tb.scale = scale
	return tb
}

// Build allocates the image, registers the texture, and returns its
// handle. A size policy is mandatory.
func (tb *TextureBuilder[T]) Build() (TextureHandle, error) {
	if tb.policy == SizeUndefined {
		return TextureHandle{}, errors.Log(fmt.Errorf("gpukit.TextureBuilder %q: no size policy set", tb.label))
	}
	et := reflect.TypeFor[T]()
	if fs, ok := TextureFormatSizes[tb.format]; ok && fs != int(et.Size()) {
		return TextureHandle{}, errors.Log(fmt.Errorf("gpukit.TextureBuilder %q: element type %v is %d bytes but format texels are %d bytes", tb.label, et, et.Size(), fs))
	}
	tx := &Texture{
		Label:         tb.label,
		Format:        tb.format,
		Dimension:     tb.dimension,
		Usage:         tb.usage,
		Policy:        tb.policy,
		Scale:         tb.scale,
		Size:          tb.size,
		MipLevelCount: tb.mips,
		SampleCount:   tb.samples,
		elemType:      et,
		elemSize:      int(et.Size()),
		device:        tb.ctx.device,
	}
	if tb.policy.surfaceRelative() {
		if tb.ctx.surface == nil {
			return TextureHandle{}, errors.Log(fmt.Errorf("gpukit.TextureBuilder %q: surface-relative policy with no surface", tb.label))
		}
		tx.Size = tx.surfaceExtent(tb.ctx.surface.Size)
	}
	if err := validateExtent(tx.Dimension, tx.Size); err != nil {
		return TextureHandle{}, errors.Log(err)
	}
	if err := tx.create(); err != nil {
		return TextureHandle{}, err
	}
	return tb.ctx.textures.add(tx), nil
}

// WriteTexture replaces the full contents of the texture at the given
// handle with the given texel data, which must cover the current extent
// exactly. The element type must match the type the texture was built
// with. Content writes never reallocate the image.
func WriteTexture[T any](ctx *Context, h TextureHandle, data []T) error {
	tx, ok := ctx.textures.get(h)
	if !ok {
		return errors.Log(fmt.Errorf("gpukit.WriteTexture: %v does not resolve", h))
	}
	if et := reflect.TypeFor[T](); et != tx.elemType {
		return errors.Log(fmt.Errorf("gpukit.WriteTexture %q: element type %v does not match declared type %v", tx.Label, et, tx.elemType))
	}
	texels := uint64(tx.Size.Width) * uint64(tx.Size.Height) * uint64(tx.Size.DepthOrArrayLayers)
	if uint64(len(data)) != texels {
		return errors.Log(fmt.Errorf("gpukit.WriteTexture %q: %d elements do not cover the %d-texel extent", tx.Label, len(data), texels))
	}
	tx.device.Queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  tx.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
		},
		wgpu.ToBytes(data),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(tx.elemSize) * tx.Size.Width,
			RowsPerImage: tx.Size.Height,
		},
		&tx.Size,
	)
	return nil
}
