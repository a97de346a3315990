// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ops provides the public differentiable operations.
//
// Every operation is a stateless value implementing Op. Forward runs
// the computation on the inputs' arrays and returns a result wired
// into the computation graph, one backward function per input. Call
// Backward on any downstream result to populate gradients.
//
// Example:
//
//	sum, _ := ops.BinaryAdd{}.Forward(a, b)
//	prod, _ := ops.MustEinsum("ij,jk->ik").Forward(w, x)
package ops

import (
	"github.com/born-ml/tricycle/internal/ops"
)

// Op is a differentiable operation over tensors.
type Op = ops.Op

// Binary operations over two tensors of matching shape.
type (
	// BinaryAdd computes a + b elementwise.
	BinaryAdd = ops.BinaryAdd
	// BinarySubtract computes a - b elementwise.
	BinarySubtract = ops.BinarySubtract
	// BinaryMultiply computes a * b elementwise.
	BinaryMultiply = ops.BinaryMultiply
	// BinaryDivide computes a / b elementwise.
	BinaryDivide = ops.BinaryDivide
	// BinaryMax computes max(a, b) elementwise. Where elements are
	// equal the gradient flows to the second operand.
	BinaryMax = ops.BinaryMax
	// BinaryMin computes min(a, b) elementwise. Where elements are
	// equal the gradient flows to the second operand.
	BinaryMin = ops.BinaryMin
	// BinaryMask keeps elements of the first operand where the mask
	// is nonzero and zeroes the rest. The mask must not require a
	// gradient.
	BinaryMask = ops.BinaryMask
)

// Unary operations over a single tensor.
type (
	// UnaryAdd computes x + C elementwise.
	UnaryAdd = ops.UnaryAdd
	// UnaryMultiply computes x * C elementwise.
	UnaryMultiply = ops.UnaryMultiply
	// UnarySubtract computes x - C elementwise.
	UnarySubtract = ops.UnarySubtract
	// UnaryNegate computes -x elementwise.
	UnaryNegate = ops.UnaryNegate
	// UnaryDivide computes C / x elementwise.
	UnaryDivide = ops.UnaryDivide
	// UnaryPower computes x**N elementwise.
	UnaryPower = ops.UnaryPower
	// UnaryExp computes e**x elementwise.
	UnaryExp = ops.UnaryExp
	// UnaryLog computes the natural log elementwise.
	UnaryLog = ops.UnaryLog
	// UnarySin computes sin(x) elementwise.
	UnarySin = ops.UnarySin
	// UnaryCos computes cos(x) elementwise.
	UnaryCos = ops.UnaryCos
	// UnarySquareRoot computes sqrt(x) elementwise.
	UnarySquareRoot = ops.UnarySquareRoot
	// Reshape reinterprets a tensor's shape without moving data. The
	// batch axis, if any, is preserved.
	Reshape = ops.Reshape
	// Permute reorders a tensor's axes. The batch axis, if any, stays
	// in front.
	Permute = ops.Permute
)

// Reductions over all elements or a single axis.
type (
	// ReduceSum sums every element down to a scalar.
	ReduceSum = ops.ReduceSum
	// ReduceSumAxis sums along one axis.
	ReduceSumAxis = ops.ReduceSumAxis
	// ReduceMean averages every element down to a scalar.
	ReduceMean = ops.ReduceMean
	// ReduceMeanAxis averages along one axis.
	ReduceMeanAxis = ops.ReduceMeanAxis
)

// Einsum contracts tensors according to an Einstein-summation
// subscript such as "ij,jk->ik".
type Einsum = ops.Einsum

// NewEinsum parses a subscript into an operation. The subscript must
// contain "->"; an empty output means full contraction to a scalar.
func NewEinsum(spec string) (*Einsum, error) {
	return ops.NewEinsum(spec)
}

// MustEinsum is NewEinsum that panics on a malformed subscript. Use it
// for subscripts fixed at compile time.
func MustEinsum(spec string) *Einsum {
	return ops.MustEinsum(spec)
}
