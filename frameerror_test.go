// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAcquire(t *testing.T) {
	tests := []struct {
		msg  string
		kind FrameErrorKind
	}{
		{"Surface was Lost", FrameReconfigure},
		{"device out of memory", FrameReconfigure},
		{"OutOfMemory acquiring texture", FrameReconfigure},
		{"Timeout acquiring next texture", FrameSkip},
		{"surface is Outdated", FrameFatal},
		{"something unheard of", FrameFatal},
	}
	for _, tt := range tests {
		fe := classifyAcquire(fmt.Errorf("%s", tt.msg))
		assert.Equal(t, tt.kind, fe.Kind, tt.msg)
	}
}

func TestFrameErrorIs(t *testing.T) {
	base := fmt.Errorf("surface was lost")
	fe := classifyAcquire(base)
	assert.True(t, errors.Is(fe, ErrReconfigure))
	assert.False(t, errors.Is(fe, ErrSkipFrame))
	assert.False(t, errors.Is(fe, ErrFatal))
	assert.Equal(t, base, errors.Unwrap(fe))

	fe = classifyAcquire(fmt.Errorf("timeout"))
	assert.True(t, errors.Is(fe, ErrSkipFrame))

	fe = classifyAcquire(fmt.Errorf("outdated"))
	assert.True(t, errors.Is(fe, ErrFatal))

	var target *FrameError
	assert.True(t, errors.As(fe, &target))
	assert.Equal(t, FrameFatal, target.Kind)
}

func TestFrameErrorKindString(t *testing.T) {
	assert.Equal(t, "Reconfigure", FrameReconfigure.String())
	assert.Equal(t, "Skip", FrameSkip.String())
	assert.Equal(t, "Fatal", FrameFatal.String())
}
