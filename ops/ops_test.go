// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tricycle/ops"
	"github.com/born-ml/tricycle/tensor"
)

// TestEndToEnd_MSE wires a full forward and backward pass through the
// public API: loss = mean((pred - target)²).
func TestEndToEnd_MSE(t *testing.T) {
	pred, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{4})
	require.NoError(t, err)
	target, err := tensor.FromSlice([]float64{0, 2, 2, 6}, tensor.Shape{4})
	require.NoError(t, err)
	target.NoGrad()

	diff, err := ops.BinarySubtract{}.Forward(pred, target)
	require.NoError(t, err)
	sq, err := ops.UnaryPower{N: 2}.Forward(diff)
	require.NoError(t, err)
	loss, err := ops.ReduceMean{}.Forward(sq)
	require.NoError(t, err)

	// Errors are [1, 0, 1, -2]: mean of squares is 6/4.
	assert.InDelta(t, 1.5, loss.Item(), 1e-12)

	require.NoError(t, loss.Backward())
	// dL/dpred = 2 (pred - target) / n.
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.5, -1}, pred.Grad().Data(), 1e-12)
	assert.Nil(t, target.Grad())
}

// TestEndToEnd_GradientDescent fits w to y = 2x and expects the loss
// to shrink every step.
func TestEndToEnd_GradientDescent(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{4})
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float64{2, 4, 6, 8}, tensor.Shape{4})
	require.NoError(t, err)
	x.NoGrad()
	y.NoGrad()

	w := tensor.Scalar(0).Named("w")

	loss := func() *tensor.Tensor {
		pred, err := ops.MustEinsum("i,k->i").Forward(x, w)
		require.NoError(t, err)
		diff, err := ops.BinarySubtract{}.Forward(pred, y)
		require.NoError(t, err)
		sq, err := ops.UnaryPower{N: 2}.Forward(diff)
		require.NoError(t, err)
		out, err := ops.ReduceMean{}.Forward(sq)
		require.NoError(t, err)
		return out
	}

	prev := loss().Item()
	for step := 0; step < 25; step++ {
		l := loss()
		require.NoError(t, l.Backward())
		w.Data()[0] -= 0.02 * w.Grad().Item()
		w.ZeroGrad()

		cur := loss().Item()
		require.LessOrEqual(t, cur, prev, "loss should not increase at step %d", step)
		prev = cur
	}

	assert.InDelta(t, 2.0, w.Item(), 1e-2)
	assert.Less(t, prev, 1e-3)
}

// TestEndToEnd_BatchedPipeline pushes a batch of rows through a shared
// weight matrix and checks the weight gradient sums over the batch.
func TestEndToEnd_BatchedPipeline(t *testing.T) {
	batch, err := tensor.FromSlice([]float64{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	require.NoError(t, err)
	x := batch.ToBatched()

	w, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	h, err := ops.MustEinsum("i,ij->j").Forward(x, w)
	require.NoError(t, err)
	assert.True(t, h.IsBatched())
	assert.Equal(t, tensor.Shape{3, 2}, h.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 4, 6}, h.Data())

	loss, err := ops.ReduceSum{}.Forward(h)
	require.NoError(t, err)
	require.NoError(t, loss.Backward())

	// dL/dw[i][j] = sum over the batch of x[i].
	assert.Equal(t, tensor.Shape{2, 2}, w.Grad().Shape())
	assert.Equal(t, []float64{2, 2, 2, 2}, w.Grad().Data())
}

// TestConvergenceGradCheck guards the composed rules with one finite
// difference probe through the public surface.
func TestConvergenceGradCheck(t *testing.T) {
	x, err := tensor.FromSlice([]float64{0.5, 1.5}, tensor.Shape{2})
	require.NoError(t, err)

	loss := func() *tensor.Tensor {
		e, err := ops.UnaryExp{}.Forward(x)
		require.NoError(t, err)
		s, err := ops.ReduceSum{}.Forward(e)
		require.NoError(t, err)
		return s
	}

	l := loss()
	require.NoError(t, l.Backward())
	analytic := append([]float64(nil), x.Grad().Data()...)

	const eps = 1e-4
	for i := range x.Data() {
		orig := x.Data()[i]
		x.Data()[i] = orig + eps
		plus := loss().Item()
		x.Data()[i] = orig - eps
		minus := loss().Item()
		x.Data()[i] = orig

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, analytic[i], 1e-3)
	}
}
