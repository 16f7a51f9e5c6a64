// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpukit is a mid-level GPU resource and frame-execution layer
// over WebGPU. A single [Context] owns append-only registries of
// buffers, textures, samplers, shaders, bind groups, pipelines, and
// passes, all addressed by stable opaque handles. Resources are declared
// once through builders, and [Context.Render] replays the declared
// passes each frame into one command stream, submits it, and presents.
//
// Buffers and textures support whole-content writes that update in place
// when the data fits the current allocation and destructively reallocate
// when it does not; the context then rebuilds every bind group that
// depends on the reallocated resource, so a bind group never observes a
// destroyed resource. See [WriteBuffer], [WriteTexture], and
// [Context.Resize].
package gpukit

import "os"

// Debug enables additional debugging output and error printing.
// It can also be set with the GPUKIT_DEBUG environment variable.
var Debug = false

func init() {
	if os.Getenv("GPUKIT_DEBUG") != "" {
		Debug = true
	}
}
