// Package backend selects the compute backend for an operation from
// the arrays taking part in it.
package backend

import (
	"sync"

	"github.com/born-ml/tricycle/internal/backend/blas"
	"github.com/born-ml/tricycle/internal/backend/cpu"
	"github.com/born-ml/tricycle/internal/tensor"
)

var (
	defaultBackend = sync.OnceValue(func() tensor.Backend { return cpu.New() })
	accelerated    = sync.OnceValue(func() tensor.Backend { return blas.New() })
)

// Default returns the CPU backend.
func Default() tensor.Backend {
	return defaultBackend()
}

// Accelerated returns the BLAS backend.
func Accelerated() tensor.Backend {
	return accelerated()
}

// Select picks the backend that should compute an operation over the
// given arrays: if any operand was produced by the accelerated
// backend, the accelerated backend is chosen, otherwise the default.
// Deterministic and side-effect-free.
func Select(arrays ...*tensor.Dense) tensor.Backend {
	for _, a := range arrays {
		if a != nil && a.Device() == tensor.BLAS {
			return Accelerated()
		}
	}
	return Default()
}
