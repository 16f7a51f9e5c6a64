// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"
	"reflect"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// mapAlignment is the minimum mapping alignment of the device: the byte
// size of any shader-visible (uniform or storage) buffer must be a
// multiple of it.
const mapAlignment = 8

// Buffer owns a block of device memory holding elements of one declared
// type. Contents are replaced wholesale with [WriteBuffer]: writes that
// fit the current capacity go in place through the queue; larger writes
// destroy the allocation and remake it at exactly the new size.
type Buffer struct {
	// Label is the debug label, used in backend descriptors.
	Label string

	// Usage is the usage bitset the allocation is created with.
	Usage wgpu.BufferUsage

	// Layout is the captured vertex layout. It is non-nil only if the
	// buffer was marked as a vertex or instance source when built.
	Layout *VertexLayout

	elemType reflect.Type
	elemSize int
	count    int
	capacity uint64
	buffer   *wgpu.Buffer
	device   *Device
}

// Count returns the number of elements currently in the buffer,
// from the last build or write.
func (bf *Buffer) Count() int { return bf.count }

// Capacity returns the byte capacity of the current allocation.
func (bf *Buffer) Capacity() uint64 { return bf.capacity }

// ElemType returns the declared element type tag.
func (bf *Buffer) ElemType() reflect.Type { return bf.elemType }

// allocate makes a new allocation of the given byte size, releasing any
// current one only after the new one exists, so a failed allocation
// leaves the buffer (and anything bound to it) on the old allocation.
func (bf *Buffer) allocate(size uint64) error {
	b, err := bf.device.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: bf.Label,
		Size:  size,
		Usage: bf.Usage,
	})
	if errors.Log(err) != nil {
		return err
	}
	if bf.buffer != nil {
		bf.buffer.Release()
	}
	bf.buffer = b
	bf.capacity = size
	return nil
}

// write replaces the buffer contents with the given bytes, holding count
// elements. Reports whether the backing allocation was replaced.
func (bf *Buffer) write(data []byte, count int) (bool, error) {
	structural := false
	if uint64(len(data)) > bf.capacity {
		if err := bf.allocate(uint64(len(data))); err != nil {
			return false, err
		}
		structural = true
	}
	if len(data) > 0 {
		bf.device.Queue.WriteBuffer(bf.buffer, 0, data)
	}
	bf.count = count
	return structural, nil
}

// Release releases the device allocation.
func (bf *Buffer) Release() {
	if bf.buffer == nil {
		return
	}
	bf.buffer.Release()
	bf.buffer = nil
	bf.capacity = 0
}

// BufferBuilder accumulates configuration for a new [Buffer] with
// elements of type T. Get one with [NewBufferBuilder] and finish with
// [BufferBuilder.Build] or [BufferBuilder.BuildInit], which register the
// buffer and return its handle. All validation happens at that point.
type BufferBuilder[T any] struct {
	ctx    *Context
	label  string
	usage  wgpu.BufferUsage
	layout *VertexLayout
	err    error
}

// NewBufferBuilder returns a builder for a buffer of T elements.
// The buffer is always writable through the queue; add other usages
// with the role methods or [BufferBuilder.AddUsage].
func NewBufferBuilder[T any](ctx *Context, label string) *BufferBuilder[T] {
	return &BufferBuilder[T]{ctx: ctx, label: label, usage: wgpu.BufferUsageCopyDst}
}

// AddUsage adds the given usage flags.
func (bb *BufferBuilder[T]) AddUsage(usage wgpu.BufferUsage) *BufferBuilder[T] {
	bb.usage |= usage
	return bb
}

// Uniform marks the buffer as a uniform binding source.
func (bb *BufferBuilder[T]) Uniform() *BufferBuilder[T] {
	bb.usage |= wgpu.BufferUsageUniform
	return bb
}

// Storage marks the buffer as a storage binding source.
func (bb *BufferBuilder[T]) Storage() *BufferBuilder[T] {
	bb.usage |= wgpu.BufferUsageStorage
	return bb
}

// Index marks the buffer as an index source. The element type must be
// 2 or 4 bytes wide to resolve an index format; that is checked when the
// buffer is attached to a pipeline.
func (bb *BufferBuilder[T]) Index() *BufferBuilder[T] {
	bb.usage |= wgpu.BufferUsageIndex
	return bb
}

// Vertex marks the buffer as a per-vertex attribute source, capturing the
// element layout. T must implement [Vertexer].
func (bb *BufferBuilder[T]) Vertex() *BufferBuilder[T] {
	return bb.vertex(wgpu.VertexStepModeVertex)
}

// Instance marks the buffer as a per-instance attribute source, capturing
// the element layout. T must implement [Vertexer].
func (bb *BufferBuilder[T]) Instance() *BufferBuilder[T] {
	return bb.vertex(wgpu.VertexStepModeInstance)
}

func (bb *BufferBuilder[T]) vertex(step wgpu.VertexStepMode) *BufferBuilder[T] {
	var zero T
	vx, ok := any(zero).(Vertexer)
	if !ok {
		bb.err = fmt.Errorf("gpukit.BufferBuilder %q: element type %T provides no vertex attributes", bb.label, zero)
		return bb
	}
	bb.usage |= wgpu.BufferUsageVertex
	bb.layout = &VertexLayout{
		ArrayStride: uint64(reflect.TypeFor[T]().Size()),
		StepMode:    step,
		Attributes:  vx.VertexAttributes(),
	}
	return bb
}

// Build allocates capacity for count zero-initialized elements,
// registers the buffer, and returns its handle.
func (bb *BufferBuilder[T]) Build(count int) (BufferHandle, error) {
	bf, err := bb.make(count)
	if err != nil {
		return BufferHandle{}, err
	}
	return bb.ctx.buffers.add(bf), nil
}

// BuildInit allocates capacity sized exactly to the given data, uploads
// it, registers the buffer, and returns its handle.
func (bb *BufferBuilder[T]) BuildInit(data []T) (BufferHandle, error) {
	bf, err := bb.make(len(data))
	if err != nil {
		return BufferHandle{}, err
	}
	if _, err := bf.write(wgpu.ToBytes(data), len(data)); err != nil {
		return BufferHandle{}, err
	}
	return bb.ctx.buffers.add(bf), nil
}

func (bb *BufferBuilder[T]) make(count int) (*Buffer, error) {
	if bb.err != nil {
		return nil, errors.Log(bb.err)
	}
	if count < 0 {
		return nil, errors.Log(fmt.Errorf("gpukit.BufferBuilder %q: negative element count %d", bb.label, count))
	}
	et := reflect.TypeFor[T]()
	es := int(et.Size())
	size := uint64(count) * uint64(es)
	if bb.usage&(wgpu.BufferUsageUniform|wgpu.BufferUsageStorage) != 0 && size%mapAlignment != 0 {
		return nil, errors.Log(fmt.Errorf("gpukit.BufferBuilder %q: shader-visible buffer size %d is not a multiple of the mapping alignment %d", bb.label, size, mapAlignment))
	}
	bf := &Buffer{
		Label:    bb.label,
		Usage:    bb.usage,
		Layout:   bb.layout,
		elemType: et,
		elemSize: es,
		count:    count,
		device:   bb.ctx.device,
	}
	if err := bf.allocate(size); err != nil {
		return nil, err
	}
	return bf, nil
}

// WriteBuffer replaces the entire contents of the buffer at the given
// handle. Data that fits the current capacity is queued in place and no
// structural change is reported; larger data destroys the allocation,
// remakes it at exactly the data size, rebuilds every bind group
// depending on the buffer, and reports a structural change. The element
// type must match the type the buffer was built with.
func WriteBuffer[T any](ctx *Context, h BufferHandle, data []T) (bool, error) {
	bf, ok := ctx.buffers.get(h)
	if !ok {
		return false, errors.Log(fmt.Errorf("gpukit.WriteBuffer: %v does not resolve", h))
	}
	if et := reflect.TypeFor[T](); et != bf.elemType {
		return false, errors.Log(fmt.Errorf("gpukit.WriteBuffer %q: element type %v does not match declared type %v", bf.Label, et, bf.elemType))
	}
	structural, err := bf.write(wgpu.ToBytes(data), len(data))
	if err != nil {
		return false, err
	}
	if structural {
		if err := ctx.recreateBufferDependents(h); err != nil {
			return true, err
		}
	}
	return structural, nil
}
