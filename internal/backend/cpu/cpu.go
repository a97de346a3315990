// Package cpu implements the default pure-Go compute backend.
//
// Elementwise kernels are built on gonum/floats where a vectorized
// routine exists and fall back to plain loops elsewhere. The GEMM
// kernel is a scaled-row accumulation; the blas backend overrides it
// with a tuned implementation.
package cpu

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/tricycle/internal/tensor"
)

// Backend implements tensor.Backend on the CPU.
type Backend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU}
}

// NewWithDevice creates a CPU backend that stamps results with the
// given device tag. Used by backends that reuse these kernels.
func NewWithDevice(device tensor.Device) *Backend {
	return &Backend{device: device}
}

// Name returns the backend name.
func (cpu *Backend) Name() string {
	return "CPU"
}

// Device returns the device tag stamped on results.
func (cpu *Backend) Device() tensor.Device {
	return cpu.device
}

// Zeros allocates a zeroed array on this backend.
func (cpu *Backend) Zeros(shape tensor.Shape) *tensor.Dense {
	return tensor.NewDenseOn(shape, cpu.device)
}

// Ones allocates an array of ones on this backend.
func (cpu *Backend) Ones(shape tensor.Shape) *tensor.Dense {
	out := tensor.NewDenseOn(shape, cpu.device)
	data := out.Data()
	for i := range data {
		data[i] = 1
	}
	return out
}

// Add performs element-wise addition.
func (cpu *Backend) Add(a, b *tensor.Dense) *tensor.Dense {
	out := tensor.NewDenseOn(a.Shape(), cpu.device)
	floats.AddTo(out.Data(), a.Data(), b.Data())
	return out
}

// Sub performs element-wise subtraction.
func (cpu *Backend) Sub(a, b *tensor.Dense) *tensor.Dense {
	out := tensor.NewDenseOn(a.Shape(), cpu.device)
	floats.SubTo(out.Data(), a.Data(), b.Data())
	return out
}

// Mul performs element-wise multiplication.
func (cpu *Backend) Mul(a, b *tensor.Dense) *tensor.Dense {
	out := tensor.NewDenseOn(a.Shape(), cpu.device)
	floats.MulTo(out.Data(), a.Data(), b.Data())
	return out
}

// Div performs element-wise division.
func (cpu *Backend) Div(a, b *tensor.Dense) *tensor.Dense {
	out := tensor.NewDenseOn(a.Shape(), cpu.device)
	floats.DivTo(out.Data(), a.Data(), b.Data())
	return out
}

// Maximum returns the element-wise maximum of a and b.
// Equal elements resolve to a's value.
func (cpu *Backend) Maximum(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x >= y {
			return x
		}
		return y
	})
}

// Minimum returns the element-wise minimum of a and b.
// Equal elements resolve to a's value.
func (cpu *Backend) Minimum(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x <= y {
			return x
		}
		return y
	})
}

// Greater returns a 0/1 mask of a > b.
func (cpu *Backend) Greater(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x > y {
			return 1
		}
		return 0
	})
}

// GreaterEqual returns a 0/1 mask of a >= b.
func (cpu *Backend) GreaterEqual(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x >= y {
			return 1
		}
		return 0
	})
}

// Lower returns a 0/1 mask of a < b.
func (cpu *Backend) Lower(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x < y {
			return 1
		}
		return 0
	})
}

// LowerEqual returns a 0/1 mask of a <= b.
func (cpu *Backend) LowerEqual(a, b *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(a, b, func(x, y float64) float64 {
		if x <= y {
			return 1
		}
		return 0
	})
}

// Where keeps x where the mask is non-zero and yields 0 elsewhere.
func (cpu *Backend) Where(mask, x *tensor.Dense) *tensor.Dense {
	return cpu.zipWith(mask, x, func(m, v float64) float64 {
		if m != 0 {
			return v
		}
		return 0
	})
}

// Neg returns the element-wise negation.
func (cpu *Backend) Neg(x *tensor.Dense) *tensor.Dense {
	return cpu.Scale(x, -1)
}

// Exp returns the element-wise exponential.
func (cpu *Backend) Exp(x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, math.Exp)
}

// Log returns the element-wise natural logarithm.
func (cpu *Backend) Log(x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, math.Log)
}

// Sin returns the element-wise sine.
func (cpu *Backend) Sin(x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, math.Sin)
}

// Cos returns the element-wise cosine.
func (cpu *Backend) Cos(x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, math.Cos)
}

// Sqrt returns the element-wise square root.
func (cpu *Backend) Sqrt(x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, math.Sqrt)
}

// Pow raises every element to the power n.
func (cpu *Backend) Pow(x *tensor.Dense, n float64) *tensor.Dense {
	if n == 2 {
		return cpu.Mul(x, x)
	}
	return cpu.mapWith(x, func(v float64) float64 { return math.Pow(v, n) })
}

// Scale multiplies every element by c.
func (cpu *Backend) Scale(x *tensor.Dense, c float64) *tensor.Dense {
	out := tensor.NewDenseOn(x.Shape(), cpu.device)
	floats.ScaleTo(out.Data(), c, x.Data())
	return out
}

// AddConst adds c to every element.
func (cpu *Backend) AddConst(x *tensor.Dense, c float64) *tensor.Dense {
	out := tensor.NewDenseOn(x.Shape(), cpu.device)
	copy(out.Data(), x.Data())
	floats.AddConst(c, out.Data())
	return out
}

// ConstDiv computes c / x element-wise.
func (cpu *Backend) ConstDiv(c float64, x *tensor.Dense) *tensor.Dense {
	return cpu.mapWith(x, func(v float64) float64 { return c / v })
}

// Gemm computes c = a @ b for row-major blocks, a being m x k and b
// being k x n, by accumulating scaled rows of b.
func (cpu *Backend) Gemm(m, n, k int, a, b []float64) []float64 {
	c := make([]float64, m*n)
	for i := 0; i < m; i++ {
		row := c[i*n : (i+1)*n]
		for l := 0; l < k; l++ {
			av := a[i*k+l]
			if av == 0 {
				continue
			}
			floats.AddScaled(row, av, b[l*n:(l+1)*n])
		}
	}
	return c
}

func (cpu *Backend) zipWith(a, b *tensor.Dense, f func(x, y float64) float64) *tensor.Dense {
	out := tensor.NewDenseOn(a.Shape(), cpu.device)
	ad, bd, od := a.Data(), b.Data(), out.Data()
	for i := range od {
		od[i] = f(ad[i], bd[i])
	}
	return out
}

func (cpu *Backend) mapWith(x *tensor.Dense, f func(v float64) float64) *tensor.Dense {
	out := tensor.NewDenseOn(x.Shape(), cpu.device)
	xd, od := x.Data(), out.Data()
	for i := range od {
		od[i] = f(xd[i])
	}
	return out
}
