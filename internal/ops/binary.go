package ops

import (
	"github.com/born-ml/tricycle/internal/backend"
	"github.com/born-ml/tricycle/internal/tensor"
)

// BinaryAdd computes the element-wise sum of two tensors.
// The gradient flows through unchanged to both operands.
type BinaryAdd struct{}

// Forward computes a + b.
func (BinaryAdd) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("badd", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("badd", a, b); err != nil {
		return nil, err
	}
	xp := backend.Select(a.Dense(), b.Dense())
	ad, bd := alignBatch(xp, a, b)
	out := xp.Add(ad, bd)

	backA := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		return reduceTo(grad, a), nil
	}
	backB := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		return reduceTo(grad, b), nil
	}
	result := tensor.FromOp(out, a.Batching().Or(b.Batching()),
		[]*tensor.Tensor{a, b}, []tensor.BackFn{backA, backB})
	return result.Named("badd"), nil
}

// BinarySubtract computes the element-wise difference of two tensors.
// The gradient passes through to the first operand and is negated for
// the second.
type BinarySubtract struct{}

// Forward computes a - b.
func (BinarySubtract) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("bsub", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bsub", a, b); err != nil {
		return nil, err
	}
	xp := backend.Select(a.Dense(), b.Dense())
	ad, bd := alignBatch(xp, a, b)
	out := xp.Sub(ad, bd)

	backA := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		return reduceTo(grad, a), nil
	}
	backB := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense())
		return reduceDenseTo(gxp.Neg(grad.Dense()), b), nil
	}
	result := tensor.FromOp(out, a.Batching().Or(b.Batching()),
		[]*tensor.Tensor{a, b}, []tensor.BackFn{backA, backB})
	return result.Named("bsub"), nil
}

// BinaryMultiply computes the element-wise product of two tensors via
// the einsum contraction "...,...->...". Gradients come from the
// einsum backward rule: each operand receives the upstream gradient
// contracted against the other operand.
type BinaryMultiply struct{}

// Forward computes a * b.
func (BinaryMultiply) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("bmul", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bmul", a, b); err != nil {
		return nil, err
	}
	result, err := elementwiseEinsum.Forward(a, b)
	if err != nil {
		return nil, err
	}
	return result.Named("bmul"), nil
}

// elementwiseEinsum is the shared "...,...->..." contraction behind
// BinaryMultiply. Einsum values are stateless, so sharing one is safe.
var elementwiseEinsum = MustEinsum("...,...->...")

// BinaryDivide computes the element-wise quotient of two tensors as
// multiply(a, 1/b); both backward rules are composed from the multiply
// and reciprocal rules.
type BinaryDivide struct{}

// Forward computes a / b.
func (BinaryDivide) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("bdiv", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bdiv", a, b); err != nil {
		return nil, err
	}
	recip, err := UnaryDivide{C: 1}.Forward(b)
	if err != nil {
		return nil, err
	}
	result, err := BinaryMultiply{}.Forward(a, recip)
	if err != nil {
		return nil, err
	}
	return result.Named("bdiv"), nil
}

// BinaryMax compares two tensors element-wise, returning the maximum
// of each pair. Equal elements take the first operand's value; their
// gradient goes entirely to the second operand, because grad1 is
// masked by the strict a > b and grad2 by its complement a <= b.
type BinaryMax struct{}

// Forward computes max(a, b).
func (BinaryMax) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("bmax", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bmax", a, b); err != nil {
		return nil, err
	}
	xp := backend.Select(a.Dense(), b.Dense())
	ad, bd := alignBatch(xp, a, b)
	out := xp.Maximum(ad, bd)

	isBigger1 := xp.Greater(ad, bd)
	isBigger2 := xp.LowerEqual(ad, bd)

	backA := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), isBigger1)
		return reduceDenseTo(gxp.Mul(grad.Dense(), isBigger1), a), nil
	}
	backB := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), isBigger2)
		return reduceDenseTo(gxp.Mul(grad.Dense(), isBigger2), b), nil
	}
	result := tensor.FromOp(out, a.Batching().Or(b.Batching()),
		[]*tensor.Tensor{a, b}, []tensor.BackFn{backA, backB})
	return result.Named("bmax"), nil
}

// BinaryMin compares two tensors element-wise, returning the minimum
// of each pair. The tie-break mirrors BinaryMax: equal elements take
// the first operand's value and credit the second operand's gradient.
type BinaryMin struct{}

// Forward computes min(a, b).
func (BinaryMin) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	a, b, err := two("bmin", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bmin", a, b); err != nil {
		return nil, err
	}
	xp := backend.Select(a.Dense(), b.Dense())
	ad, bd := alignBatch(xp, a, b)
	out := xp.Minimum(ad, bd)

	isSmaller1 := xp.Lower(ad, bd)
	isSmaller2 := xp.GreaterEqual(ad, bd)

	backA := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), isSmaller1)
		return reduceDenseTo(gxp.Mul(grad.Dense(), isSmaller1), a), nil
	}
	backB := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), isSmaller2)
		return reduceDenseTo(gxp.Mul(grad.Dense(), isSmaller2), b), nil
	}
	result := tensor.FromOp(out, a.Batching().Or(b.Batching()),
		[]*tensor.Tensor{a, b}, []tensor.BackFn{backA, backB})
	return result.Named("bmin"), nil
}

// BinaryMask keeps the first operand's elements where the mask is
// non-zero and yields 0 elsewhere. The mask must not require
// gradients; it is not retained in the graph, and the tensor operand's
// gradient is the upstream gradient filtered through the same mask.
type BinaryMask struct{}

// Forward computes where(mask, t, 0) for operands (t, mask).
func (BinaryMask) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	t, mask, err := two("bmask", inputs)
	if err != nil {
		return nil, err
	}
	if err := shapesMatch("bmask", t, mask); err != nil {
		return nil, err
	}
	if mask.RequiresGrad() {
		return nil, &tensor.GradientContractError{
			Op:     "bmask",
			Reason: "cannot compute gradient of a binary mask",
		}
	}
	xp := backend.Select(t.Dense(), mask.Dense())
	td, md := alignBatch(xp, t, mask)
	out := xp.Where(md, td)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), md)
		return reduceDenseTo(gxp.Where(md, grad.Dense()), t), nil
	}
	result := tensor.FromOp(out, t.Batching().Or(mask.Batching()),
		[]*tensor.Tensor{t}, []tensor.BackFn{back})
	return result.Named("bmask"), nil
}
