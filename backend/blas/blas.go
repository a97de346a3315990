// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package blas exposes the BLAS-accelerated backend.
//
// Matrix products go through gonum's blas64 and elementwise kernels
// run across a worker pool. Arrays produced here carry the BLAS device
// tag, so downstream operations keep using this backend.
package blas

import (
	"github.com/born-ml/tricycle/internal/backend/blas"
	"github.com/born-ml/tricycle/internal/parallel"
)

// Backend is the BLAS-accelerated implementation of tensor.Backend.
type Backend = blas.Backend

// Config controls the elementwise worker pool.
type Config = parallel.Config

// DefaultConfig returns the worker-pool configuration New uses.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// New creates an accelerated backend with the default worker pool.
func New() *Backend {
	return blas.New()
}

// NewWithConfig creates an accelerated backend with an explicit
// parallelism configuration.
func NewWithConfig(cfg Config) *Backend {
	return blas.NewWithConfig(cfg)
}
