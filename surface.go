// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"image"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface manages the presentation surface for a window: its
// configuration, per-frame target acquisition, and presentation.
// WebGPU has no internal notion of window size changes, so resizes
// must be driven externally via [Surface.SetSize] (usually through
// [Context.Resize]).
type Surface struct {
	// Format is the texture format the surface is configured with,
	// which is the preferred format reported by its capabilities.
	Format wgpu.TextureFormat

	// Size is the current size of the surface, in raw pixels.
	Size image.Point

	surface *wgpu.Surface
	config  wgpu.SurfaceConfiguration
	gpu     *GPU
	device  *Device
}

// NewSurface configures the given WebGPU surface at the given size,
// using its preferred format and alpha mode.
func NewSurface(gp *GPU, dev *Device, wsf *wgpu.Surface, size image.Point) (*Surface, error) {
	sf := &Surface{surface: wsf, gpu: gp, device: dev, Size: size}
	caps := wsf.GetCapabilities(gp.Adapter)
	if len(caps.Formats) == 0 {
		return nil, errors.Log(errors.New("gpukit.NewSurface: surface reports no supported formats"))
	}
	sf.Format = caps.Formats[0]
	alpha := wgpu.CompositeAlphaModeAuto
	if len(caps.AlphaModes) > 0 {
		alpha = caps.AlphaModes[0]
	}
	sf.config = wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      sf.Format,
		Width:       uint32(size.X),
		Height:      uint32(size.Y),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alpha,
	}
	sf.Reconfigure()
	return sf, nil
}

// SetSize reconfigures the surface for the given new size.
// Sizes with a non-positive dimension are ignored, and setting the
// current size again is harmless, so redundant notifications are safe.
func (sf *Surface) SetSize(size image.Point) {
	if size.X <= 0 || size.Y <= 0 {
		return
	}
	sf.Size = size
	sf.config.Width = uint32(size.X)
	sf.config.Height = uint32(size.Y)
	sf.Reconfigure()
}

// Reconfigure reapplies the current surface configuration.
// Call after a transient surface loss ([FrameReconfigure]).
// No-op without a live backend surface (headless stand-ins).
func (sf *Surface) Reconfigure() {
	if sf.surface == nil {
		return
	}
	sf.surface.Configure(sf.gpu.Adapter, sf.device.Device, &sf.config)
}

// acquire returns the current presentation texture and a view onto it.
// A failure is returned as a classified [FrameError]; for
// [FrameReconfigure] errors the reconfiguration has already been applied,
// so the caller can simply retry on the next frame.
func (sf *Surface) acquire() (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := sf.surface.GetCurrentTexture()
	if err != nil {
		fe := classifyAcquire(err)
		if fe.Kind == FrameReconfigure {
			sf.Reconfigure()
		}
		return nil, nil, fe
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, &FrameError{Kind: FrameSkip, Err: err}
	}
	return tex, view, nil
}

// Present presents the last acquired texture to the window.
func (sf *Surface) Present() {
	sf.surface.Present()
}

// Release releases the surface.
func (sf *Surface) Release() {
	if sf.surface == nil {
		return
	}
	sf.surface.Release()
	sf.surface = nil
}
