// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"os"
	"path/filepath"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Shader is a compiled WGSL shader module. One module can provide
// multiple entry points, referenced by name from pipelines.
type Shader struct {
	// Name is the registered name, used in backend descriptors.
	Name string

	module *wgpu.ShaderModule
}

// RegisterShader compiles the given WGSL source text and registers the
// module under the given name, returning its handle. Compilation is
// opaque to this layer: source in, module or error out.
func (ctx *Context) RegisterShader(name, src string) (ShaderHandle, error) {
	mod, err := ctx.device.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if errors.Log(err) != nil {
		return ShaderHandle{}, err
	}
	return ctx.shaders.add(&Shader{Name: name, module: mod}), nil
}

// RegisterShaderFile reads WGSL source from the given file and registers
// it under the file's base name.
func (ctx *Context) RegisterShaderFile(fname string) (ShaderHandle, error) {
	b, err := os.ReadFile(fname)
	if errors.Log(err) != nil {
		return ShaderHandle{}, err
	}
	return ctx.RegisterShader(filepath.Base(fname), string(b))
}
