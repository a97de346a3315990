package tensor

import (
	"fmt"
	"math"
)

// Device identifies which backend produced a Dense array.
// Operations inspect it to pick the backend that computes their result.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	BLAS
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case BLAS:
		return "BLAS"
	default:
		return "Unknown"
	}
}

// Dense is the raw n-dimensional float64 array underneath a Tensor.
// Data is contiguous in row-major order. The shape is fixed at creation;
// only backend kernels write into the data after that.
type Dense struct {
	data   []float64
	shape  Shape
	stride []int
	device Device
}

// NewDense allocates a zeroed Dense with the given shape on the CPU device.
func NewDense(shape Shape) *Dense {
	return NewDenseOn(shape, CPU)
}

// NewDenseOn allocates a zeroed Dense with the given shape and device tag.
// Panics on an invalid shape: callers construct shapes, so a bad one is a
// programmer error.
func NewDenseOn(shape Shape, device Device) *Dense {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("dense: %v", err))
	}
	return &Dense{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: device,
	}
}

// DenseFromSlice creates a Dense from existing data. The slice is copied.
func DenseFromSlice(data []float64, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	d := NewDense(shape)
	copy(d.data, data)
	return d, nil
}

// Shape returns the array's shape.
func (d *Dense) Shape() Shape {
	return d.shape
}

// Strides returns the row-major strides.
func (d *Dense) Strides() []int {
	return d.stride
}

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int {
	return len(d.data)
}

// Device returns the device that produced this array.
func (d *Dense) Device() Device {
	return d.device
}

// Data returns the underlying storage.
// The slice directly accesses the array's memory (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the array.
func (d *Dense) Data() []float64 {
	return d.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (d *Dense) At(indices ...int) float64 {
	return d.data[d.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (d *Dense) Set(value float64, indices ...int) {
	d.data[d.offset(indices)] = value
}

func (d *Dense) offset(indices []int) int {
	if len(indices) != len(d.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(d.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= d.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, d.shape[i]))
		}
		offset += idx * d.stride[i]
	}
	return offset
}

// Item returns the value of a single-element array.
// Panics if the array holds more than one element.
func (d *Dense) Item() float64 {
	if len(d.data) != 1 {
		panic(fmt.Sprintf("Item() only works for single-element arrays, got shape %v", d.shape))
	}
	return d.data[0]
}

// Clone creates a deep copy of the array.
func (d *Dense) Clone() *Dense {
	clone := NewDenseOn(d.shape, d.device)
	copy(clone.data, d.data)
	return clone
}

// WithShape returns a view over the same data with a different shape.
// The element count must match. The view shares storage with d.
func (d *Dense) WithShape(shape Shape) (*Dense, error) {
	if shape.NumElements() != len(d.data) {
		return nil, fmt.Errorf("cannot view shape %v as %v: element counts differ", d.shape, shape)
	}
	return &Dense{
		data:   d.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: d.device,
	}, nil
}

// CloseTo reports whether two arrays have the same shape and elementwise
// values within the given absolute tolerance.
func (d *Dense) CloseTo(other *Dense, tol float64) bool {
	if !d.shape.Equal(other.shape) {
		return false
	}
	for i, v := range d.data {
		if math.Abs(v-other.data[i]) > tol {
			return false
		}
	}
	return true
}

// String returns a human-readable representation of the array.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense%v on %s", d.shape, d.device)
}
