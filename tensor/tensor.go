// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the Tricycle tensor and
// computation-graph types.
//
// A Tensor wraps a Dense n-dimensional float64 array together with the
// metadata reverse-mode differentiation needs: whether gradients are
// required, whether axis 0 is a virtual batch axis, the tensors it was
// computed from and one backward function per such input, and the
// gradient accumulated by the last backward pass.
//
// Example:
//
//	x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3})
//	y, _ := ops.UnaryPower{N: 2}.Forward(x)
//	loss, _ := ops.ReduceSum{}.Forward(y)
//	_ = loss.Backward()
//	fmt.Println(x.Grad()) // dy/dx = 2x
package tensor

import (
	"github.com/born-ml/tricycle/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Batching says whether axis 0 of a tensor is a virtual batch axis.
type Batching = tensor.Batching

// Batching states.
const (
	Unbatched Batching = tensor.Unbatched
	Batched   Batching = tensor.Batched
)

// Device identifies which backend produced a Dense array.
type Device = tensor.Device

// Device constants.
const (
	CPU  Device = tensor.CPU
	BLAS Device = tensor.BLAS
)

// Dense is the raw n-dimensional float64 array underneath a Tensor.
type Dense = tensor.Dense

// Tensor is one value in a computation and a node of the graph.
type Tensor = tensor.Tensor

// BackFn maps an output gradient to one input's gradient contribution.
type BackFn = tensor.BackFn

// Backend is the pluggable compute interface operations dispatch to.
type Backend = tensor.Backend

// Error types surfaced by operations.
type (
	// ShapeMismatchError reports incompatible binary-operation shapes.
	ShapeMismatchError = tensor.ShapeMismatchError
	// GradientContractError reports a gradient-requiring tensor in a
	// position that forbids it.
	GradientContractError = tensor.GradientContractError
	// SubscriptError reports a malformed einsum subscript.
	SubscriptError = tensor.SubscriptError
)

// New creates a leaf tensor wrapping an existing array.
func New(d *Dense) *Tensor {
	return tensor.New(d)
}

// FromSlice creates a leaf tensor from a slice of values and a shape.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a leaf tensor holding a single value with shape (1).
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// Zeros creates a leaf tensor of zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a leaf tensor of ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// FromOp creates an operation result wired into the graph.
// Operation implementations outside the ops package use this.
func FromOp(out *Dense, batching Batching, args []*Tensor, backFns []BackFn) *Tensor {
	return tensor.FromOp(out, batching, args, backFns)
}

// NewDense allocates a zeroed array with the given shape.
func NewDense(shape Shape) *Dense {
	return tensor.NewDense(shape)
}

// DenseFromSlice creates a Dense from existing data. The slice is copied.
func DenseFromSlice(data []float64, shape Shape) (*Dense, error) {
	return tensor.DenseFromSlice(data, shape)
}
