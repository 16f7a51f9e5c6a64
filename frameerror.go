// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpukit

import (
	"fmt"
	"strings"

	"cogentcore.org/core/base/errors"
)

// Sentinel errors that a [FrameError] matches via [errors.Is],
// according to its [FrameErrorKind].
var (
	// ErrReconfigure indicates the presentation surface was transiently
	// lost or the device was transiently out of memory. The surface has
	// been reconfigured; retry on the next frame.
	ErrReconfigure = errors.New("surface needs reconfiguration")

	// ErrSkipFrame indicates a transient timeout acquiring the
	// presentation target. The frame was skipped with no state change.
	ErrSkipFrame = errors.New("frame skipped")

	// ErrFatal indicates the surface configuration is permanently
	// outdated in a way reconfiguration cannot fix. The caller should
	// terminate or fully reinitialize the context.
	ErrFatal = errors.New("fatal surface error")
)

// FrameErrorKind classifies a runtime presentation error from
// [Context.Render] into the action the caller should take.
type FrameErrorKind int32

const (
	// FrameFatal: the surface configuration is permanently outdated;
	// terminate or fully reinitialize.
	FrameFatal FrameErrorKind = iota

	// FrameReconfigure: the surface was transiently lost or the device
	// transiently out of memory; reconfigured, retry next frame.
	FrameReconfigure

	// FrameSkip: transient timeout acquiring the target; the frame was
	// skipped with no state change.
	FrameSkip
)

func (fk FrameErrorKind) String() string {
	switch fk {
	case FrameReconfigure:
		return "Reconfigure"
	case FrameSkip:
		return "Skip"
	default:
		return "Fatal"
	}
}

// FrameError is a classified runtime error from [Context.Render]'s
// presentation-target acquisition. Construction-time misuse is reported
// as plain errors from the builders instead; only device and presentation
// conditions are classified.
type FrameError struct {
	Kind FrameErrorKind
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("gpukit: frame error (%v): %v", e.Kind, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Is matches the sentinel corresponding to the error's kind, so callers
// can switch with errors.Is(err, ErrReconfigure) etc.
func (e *FrameError) Is(target error) bool {
	switch target {
	case ErrReconfigure:
		return e.Kind == FrameReconfigure
	case ErrSkipFrame:
		return e.Kind == FrameSkip
	case ErrFatal:
		return e.Kind == FrameFatal
	}
	return false
}

// classifyAcquire maps a target-acquisition error from the device layer
// to a [FrameError]. Unrecognized conditions are fatal.
func classifyAcquire(err error) *FrameError {
	msg := strings.ToLower(err.Error())
	kind := FrameFatal
	switch {
	case strings.Contains(msg, "timeout"):
		kind = FrameSkip
	case strings.Contains(msg, "lost"),
		strings.Contains(msg, "out of memory"),
		strings.Contains(msg, "out-of-memory"),
		strings.Contains(msg, "outofmemory"):
		kind = FrameReconfigure
	case strings.Contains(msg, "outdated"):
		kind = FrameFatal
	}
	return &FrameError{Kind: kind, Err: err}
}
