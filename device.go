// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"log/slog"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

var theInstance *wgpu.Instance

// Instance returns the shared WebGPU instance, creating it on first use.
func Instance() *wgpu.Instance {
	if theInstance == nil {
		theInstance = wgpu.CreateInstance(nil)
	}
	return theInstance
}

// GPU represents the physical GPU hardware: the WebGPU adapter and its
// properties. One logical [Device] is made from it for all resources.
type GPU struct {
	// Instance is the shared WebGPU instance.
	Instance *wgpu.Instance

	// Adapter is the selected adapter.
	Adapter *wgpu.Adapter

	// Limits are the supported limits of the adapter.
	Limits wgpu.SupportedLimits
}

// NewGPU returns a new GPU with an adapter compatible with the given
// surface, which may be nil for non-presenting use.
func NewGPU(sf *wgpu.Surface) (*GPU, error) {
	gp := &GPU{Instance: Instance()}
	ad, err := gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
		CompatibleSurface: sf,
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	gp.Adapter = ad
	gp.Limits = ad.GetLimits()
	if Debug {
		slog.Info("gpukit: adapter acquired")
	}
	return gp, nil
}

// NoDisplayGPU returns a GPU and Device for non-display use (e.g., on a
// CI machine), forcing the fallback software adapter.
func NoDisplayGPU() (*GPU, *Device, error) {
	gp := &GPU{Instance: Instance()}
	ad, err := gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: true,
	})
	if errors.Log(err) != nil {
		return nil, nil, err
	}
	gp.Adapter = ad
	gp.Limits = ad.GetLimits()
	dev, err := NewDevice(gp)
	return gp, dev, err
}

// Release releases the adapter.
func (gp *GPU) Release() {
	if gp.Adapter == nil {
		return
	}
	gp.Adapter.Release()
	gp.Adapter = nil
}

// Device holds the logical device and associated queue that all
// resources are allocated on and all commands are submitted to.
type Device struct {
	// Device is the logical device.
	Device *wgpu.Device

	// Queue is the command submission queue.
	Queue *wgpu.Queue
}

// NewDevice returns a new device for the given GPU, with default limits.
func NewDevice(gp *GPU) (*Device, error) {
	wdev, err := gp.Adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "gpukit",
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	return &Device{Device: wdev, Queue: wdev.GetQueue()}, nil
}

// WaitDone waits until the device is done with all submitted work.
func (dv *Device) WaitDone() {
	dv.Device.Poll(true, nil)
}

// Release releases the device.
func (dv *Device) Release() {
	if dv.Device == nil {
		return
	}
	dv.Device.Release()
	dv.Device = nil
	dv.Queue = nil
}
