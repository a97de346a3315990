// Package blas implements the accelerated compute backend.
//
// Contractions go through gonum's blas64 GEMM and large elementwise
// kernels run on a chunked worker pool. Arrays produced here carry the
// BLAS device tag, so the backend selector keeps follow-up operations
// on this backend.
package blas

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/tricycle/internal/backend/cpu"
	"github.com/born-ml/tricycle/internal/parallel"
	"github.com/born-ml/tricycle/internal/tensor"
)

// Backend implements tensor.Backend with BLAS-backed contractions.
// Kernels without an accelerated path reuse the CPU implementations,
// stamped with the BLAS device tag.
type Backend struct {
	*cpu.Backend
	cfg parallel.Config
}

// New creates a new accelerated backend with default parallelism.
func New() *Backend {
	log.Debug().Msg("BLAS backend enabled (gonum blas64)")
	return &Backend{
		Backend: cpu.NewWithDevice(tensor.BLAS),
		cfg:     parallel.DefaultConfig(),
	}
}

// NewWithConfig creates an accelerated backend with explicit
// parallelism settings. Used by tests to force the sequential path.
func NewWithConfig(cfg parallel.Config) *Backend {
	return &Backend{
		Backend: cpu.NewWithDevice(tensor.BLAS),
		cfg:     cfg,
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "BLAS"
}

// Gemm computes c = a @ b via blas64 for row-major blocks.
func (b *Backend) Gemm(m, n, k int, a, bb []float64) []float64 {
	c := make([]float64, m*n)
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas64.General{Rows: k, Cols: n, Stride: n, Data: bb},
		0,
		blas64.General{Rows: m, Cols: n, Stride: n, Data: c})
	return c
}

// Add performs element-wise addition on the worker pool.
func (b *Backend) Add(x, y *tensor.Dense) *tensor.Dense {
	return b.zip(x, y, func(u, v float64) float64 { return u + v })
}

// Sub performs element-wise subtraction on the worker pool.
func (b *Backend) Sub(x, y *tensor.Dense) *tensor.Dense {
	return b.zip(x, y, func(u, v float64) float64 { return u - v })
}

// Mul performs element-wise multiplication on the worker pool.
func (b *Backend) Mul(x, y *tensor.Dense) *tensor.Dense {
	return b.zip(x, y, func(u, v float64) float64 { return u * v })
}

// Div performs element-wise division on the worker pool.
func (b *Backend) Div(x, y *tensor.Dense) *tensor.Dense {
	return b.zip(x, y, func(u, v float64) float64 { return u / v })
}

// zip applies f element-wise over disjoint chunks of the operands.
// Each chunk writes a distinct range of the output, so the workers
// never share mutable state.
func (b *Backend) zip(x, y *tensor.Dense, f func(u, v float64) float64) *tensor.Dense {
	out := tensor.NewDenseOn(x.Shape(), tensor.BLAS)
	xd, yd, od := x.Data(), y.Data(), out.Data()
	parallel.For(len(od), func(start, end int) {
		for i := start; i < end; i++ {
			od[i] = f(xd[i], yd[i])
		}
	}, b.cfg)
	return out
}
