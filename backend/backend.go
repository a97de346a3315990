// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend selects the compute backend operations dispatch to.
//
// Operations call Select with their operand arrays and run their
// kernels on whichever backend it returns: the accelerated BLAS
// backend when any operand lives on the BLAS device, the plain CPU
// backend otherwise. Both backends produce identical results; the
// choice only affects speed.
package backend

import (
	"github.com/born-ml/tricycle/internal/backend"
	"github.com/born-ml/tricycle/internal/tensor"
)

// Default returns the plain CPU backend.
func Default() tensor.Backend {
	return backend.Default()
}

// Accelerated returns the BLAS-accelerated backend.
func Accelerated() tensor.Backend {
	return backend.Accelerated()
}

// Select picks a backend for the given operand arrays. The accelerated
// backend is chosen iff at least one operand lives on the BLAS device.
func Select(arrays ...*tensor.Dense) tensor.Backend {
	return backend.Select(arrays...)
}
