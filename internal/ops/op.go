// Package ops implements the differentiable operations of the engine.
//
// Every operation is a stateless value satisfying Op: Forward computes
// the result on the backend selected from the operands' arrays and
// returns a new tensor wired into the computation graph, carrying one
// backward function per retained operand. Per-call state needed by a
// backward function (comparison masks, captured operands) lives in the
// closure built during that forward call, never on the operation
// value, so operations are safe to reuse and to call concurrently.
package ops

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/tricycle/internal/tensor"
)

// Op is the contract every differentiable operation implements.
// Forward takes the operation's fixed number of tensor operands and
// returns the result tensor, or an error before any array computation
// if the operands violate the operation's preconditions.
type Op interface {
	Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error)
}

// one validates arity for unary operations.
func one(op string, inputs []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(inputs) != 1 {
		return nil, &tensor.GradientContractError{Op: op, Reason: "expects exactly one operand"}
	}
	return inputs[0], nil
}

// two validates arity for binary operations.
func two(op string, inputs []*tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	if len(inputs) != 2 {
		return nil, nil, &tensor.GradientContractError{Op: op, Reason: "expects exactly two operands"}
	}
	return inputs[0], inputs[1], nil
}

// shapesMatch gates every binary operation: the operands' semantic
// (non-batch) shapes must be identical. No broadcasting, ever.
func shapesMatch(op string, a, b *tensor.Tensor) error {
	sa, sb := a.SemanticShape(), b.SemanticShape()
	if !sa.Equal(sb) {
		return &tensor.ShapeMismatchError{Op: op, Left: sa, Right: sb}
	}
	if a.IsBatched() && b.IsBatched() && !a.Shape().Equal(b.Shape()) {
		return &tensor.ShapeMismatchError{Op: op, Left: a.Shape(), Right: b.Shape()}
	}
	return nil
}

// gradient wraps an array produced by a backward function.
func gradient(d *tensor.Dense, b tensor.Batching) *tensor.Tensor {
	return tensor.New(d).NoGrad().WithBatching(b)
}

// alignBatch brings two semantically equal operands to identical full
// shapes: when exactly one side is batched, the unbatched side is
// tiled along the batch axis. Callers have already run shapesMatch.
func alignBatch(xp tensor.Backend, a, b *tensor.Tensor) (*tensor.Dense, *tensor.Dense) {
	if a.Shape().Equal(b.Shape()) {
		return a.Dense(), b.Dense()
	}
	if a.IsBatched() {
		return a.Dense(), tile(xp, b.Dense(), a.Shape()[0])
	}
	return tile(xp, a.Dense(), b.Shape()[0]), b.Dense()
}

// tile repeats an array batch times along a new leading axis.
func tile(xp tensor.Backend, d *tensor.Dense, batch int) *tensor.Dense {
	shape := append(tensor.Shape{batch}, d.Shape()...)
	out := xp.Zeros(shape)
	n := d.NumElements()
	for i := 0; i < batch; i++ {
		copy(out.Data()[i*n:(i+1)*n], d.Data())
	}
	return out
}

// reduceTo shrinks a gradient to an operand's shape. When the gradient
// carries a batch axis the operand does not have, contributions are
// summed over the batch, so the accumulated grad always matches the
// operand's own shape.
func reduceTo(grad *tensor.Tensor, operand *tensor.Tensor) *tensor.Tensor {
	return reduceDenseTo(grad.Dense(), operand)
}

func reduceDenseTo(d *tensor.Dense, operand *tensor.Tensor) *tensor.Tensor {
	target := operand.Shape()
	if d.Shape().Equal(target) {
		return gradient(d, operand.Batching())
	}
	if len(d.Shape()) != len(target)+1 || !tensor.Shape(d.Shape()[1:]).Equal(target) {
		// Let the traversal's shape check report the mismatch.
		return gradient(d, operand.Batching())
	}
	sum := tensor.NewDense(target.Clone())
	n := sum.NumElements()
	for i := 0; i < d.Shape()[0]; i++ {
		floats.Add(sum.Data(), d.Data()[i*n:(i+1)*n])
	}
	return gradient(sum, operand.Batching())
}
