// Package tensor provides the core array and graph-node types for the
// Tricycle autograd engine.
package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
// An empty Shape is a scalar.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Batching says whether axis 0 of a tensor is a virtual batch axis.
//
// Batching is metadata, not layout: a batched tensor stores its batch
// axis like any other axis, but shape-compatibility checks and shape
// transforms (reshape, permute) treat only the remaining axes as the
// tensor's semantic shape.
type Batching uint8

// Batching states.
const (
	// Unbatched means every axis is a semantic axis.
	Unbatched Batching = iota
	// Batched means axis 0 is a batch axis and is excluded from
	// shape-compatibility checks.
	Batched
)

// String returns a human-readable batching state.
func (b Batching) String() string {
	switch b {
	case Unbatched:
		return "unbatched"
	case Batched:
		return "batched"
	default:
		return "unknown"
	}
}

// Or combines two batching states: the result is Batched if either is.
// This is the propagation rule for every operation's output.
func (b Batching) Or(other Batching) Batching {
	if b == Batched || other == Batched {
		return Batched
	}
	return Unbatched
}

// Strip returns the semantic shape: for a Batched tensor the leading
// batch axis is removed, otherwise the shape is returned unchanged.
// This is the single place batch stripping happens.
func (b Batching) Strip(s Shape) Shape {
	if b == Batched && len(s) > 0 {
		return s[1:]
	}
	return s
}
