// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	var reg registry[*Buffer]
	a := &Buffer{Label: "a"}
	b := &Buffer{Label: "b"}
	ha := reg.add(a)
	hb := reg.add(b)
	assert.NotEqual(t, ha, hb)

	got, ok := reg.get(ha)
	assert.True(t, ok)
	assert.Same(t, a, got)

	got, ok = reg.get(hb)
	assert.True(t, ok)
	assert.Same(t, b, got)

	// handles never dangle: entries are only appended
	for i := 0; i < 100; i++ {
		reg.add(&Buffer{})
	}
	got, ok = reg.get(ha)
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistryAbsent(t *testing.T) {
	var reg registry[*Buffer]
	_, ok := reg.get(BufferHandle{index: 0})
	assert.False(t, ok)
	reg.add(&Buffer{})
	_, ok = reg.get(BufferHandle{index: 1})
	assert.False(t, ok)
	_, ok = reg.get(BufferHandle{index: -2})
	assert.False(t, ok)

	assert.Panics(t, func() {
		reg.mustGet(BufferHandle{index: 5})
	})
}

func TestHandleEquality(t *testing.T) {
	var reg registry[*Buffer]
	h0 := reg.add(&Buffer{})
	h1 := reg.add(&Buffer{})
	assert.Equal(t, h0, BufferHandle{index: 0})
	assert.NotEqual(t, h0, h1)
	assert.NotEqual(t, SurfaceTexture, TextureHandle{index: 0})
}
