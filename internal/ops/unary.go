package ops

import (
	"fmt"

	"github.com/born-ml/tricycle/internal/backend"
	"github.com/born-ml/tricycle/internal/tensor"
)

// UnaryAdd adds the constant C to every element.
type UnaryAdd struct {
	C float64
}

// Forward computes x + C.
func (op UnaryAdd) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("uadd", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	out := xp.AddConst(x.Dense(), op.C)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		return gradient(grad.Dense(), x.Batching()), nil
	}
	return wired(out, x, back).Named("uadd"), nil
}

// UnaryMultiply multiplies every element by the constant C.
type UnaryMultiply struct {
	C float64
}

// Forward computes C * x.
func (op UnaryMultiply) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("umul", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	out := xp.Scale(x.Dense(), op.C)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense())
		return gradient(gxp.Scale(grad.Dense(), op.C), x.Batching()), nil
	}
	return wired(out, x, back).Named("umul"), nil
}

// UnarySubtract subtracts the constant C from every element.
type UnarySubtract struct {
	C float64
}

// Forward computes x - C.
func (op UnarySubtract) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	result, err := UnaryAdd{C: -op.C}.Forward(inputs...)
	if err != nil {
		return nil, err
	}
	return result.Named("usub"), nil
}

// UnaryNegate negates every element.
type UnaryNegate struct{}

// Forward computes -x.
func (UnaryNegate) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("uneg", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	out := xp.Neg(x.Dense())

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense())
		return gradient(gxp.Neg(grad.Dense()), x.Batching()), nil
	}
	return wired(out, x, back).Named("uneg"), nil
}

// UnaryDivide divides the constant C by every element.
// The derivative of C/x is -C/x², so the backward rule for the
// reciprocal composes into BinaryDivide's gradients.
type UnaryDivide struct {
	C float64
}

// Forward computes C / x.
func (op UnaryDivide) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("udiv", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	xd := x.Dense()
	out := xp.ConstDiv(op.C, xd)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), xd)
		deriv := gxp.ConstDiv(-op.C, gxp.Mul(xd, xd))
		return gradient(gxp.Mul(grad.Dense(), deriv), x.Batching()), nil
	}
	return wired(out, x, back).Named("udiv"), nil
}

// UnaryPower raises every element to the power N.
type UnaryPower struct {
	N float64
}

// Forward computes x^N.
func (op UnaryPower) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("upow", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	xd := x.Dense()
	out := xp.Pow(xd, op.N)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), xd)
		deriv := gxp.Scale(gxp.Pow(xd, op.N-1), op.N)
		return gradient(gxp.Mul(grad.Dense(), deriv), x.Batching()), nil
	}
	return wired(out, x, back).Named("upow"), nil
}

// UnaryExp applies the exponential function element-wise.
type UnaryExp struct{}

// Forward computes exp(x).
func (UnaryExp) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("uexp", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	out := xp.Exp(x.Dense())

	// d(exp(x))/dx = exp(x), which is the forward result.
	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), out)
		return gradient(gxp.Mul(grad.Dense(), out), x.Batching()), nil
	}
	return wired(out, x, back).Named("uexp"), nil
}

// UnaryLog applies the natural logarithm element-wise.
type UnaryLog struct{}

// Forward computes log(x).
func (UnaryLog) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("ulog", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	xd := x.Dense()
	out := xp.Log(xd)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), xd)
		return gradient(gxp.Div(grad.Dense(), xd), x.Batching()), nil
	}
	return wired(out, x, back).Named("ulog"), nil
}

// UnarySin applies the sine function element-wise.
type UnarySin struct{}

// Forward computes sin(x).
func (UnarySin) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("usin", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	xd := x.Dense()
	out := xp.Sin(xd)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), xd)
		return gradient(gxp.Mul(grad.Dense(), gxp.Cos(xd)), x.Batching()), nil
	}
	return wired(out, x, back).Named("usin"), nil
}

// UnaryCos applies the cosine function element-wise.
type UnaryCos struct{}

// Forward computes cos(x).
func (UnaryCos) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("ucos", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	xd := x.Dense()
	out := xp.Cos(xd)

	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), xd)
		return gradient(gxp.Neg(gxp.Mul(grad.Dense(), gxp.Sin(xd))), x.Batching()), nil
	}
	return wired(out, x, back).Named("ucos"), nil
}

// UnarySquareRoot applies the square root element-wise.
type UnarySquareRoot struct{}

// Forward computes sqrt(x).
func (UnarySquareRoot) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("usqrt", inputs)
	if err != nil {
		return nil, err
	}
	xp := backend.Select(x.Dense())
	out := xp.Sqrt(x.Dense())

	// d(sqrt(x))/dx = 1 / (2 sqrt(x)).
	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		gxp := backend.Select(grad.Dense(), out)
		return gradient(gxp.Scale(gxp.Div(grad.Dense(), out), 0.5), x.Batching()), nil
	}
	return wired(out, x, back).Named("usqrt"), nil
}

// Reshape reinterprets the semantic axes of a tensor with a new shape.
// A batched tensor keeps its leading batch axis; only the remaining
// axes are reshaped. Backward applies the inverse reshape to the
// incoming gradient.
type Reshape struct {
	Shape tensor.Shape
}

// Forward reshapes x.
func (op Reshape) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("reshape", inputs)
	if err != nil {
		return nil, err
	}
	full := op.Shape.Clone()
	if x.IsBatched() {
		full = append(tensor.Shape{x.Shape()[0]}, full...)
	}
	out, err := x.Dense().WithShape(full)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}

	srcShape := x.Shape().Clone()
	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		g, err := grad.Dense().WithShape(srcShape)
		if err != nil {
			return nil, fmt.Errorf("reshape backward: %w", err)
		}
		return gradient(g, x.Batching()), nil
	}
	return wired(out, x, back).Named("reshape"), nil
}

// Permute reorders the semantic axes of a tensor. Order is a
// permutation of the semantic axis indices; a batched tensor's batch
// axis stays in front. Backward applies the inverse permutation.
type Permute struct {
	Order []int
}

// Forward permutes x's axes.
func (op Permute) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("permute", inputs)
	if err != nil {
		return nil, err
	}
	sem := len(x.SemanticShape())
	if err := validPermutation(op.Order, sem); err != nil {
		return nil, fmt.Errorf("permute: %w", err)
	}

	full := fullOrder(op.Order, x.IsBatched())
	out := transpose(x.Dense(), full)

	inverse := invertPermutation(op.Order)
	back := func(grad *tensor.Tensor) (*tensor.Tensor, error) {
		g := transpose(grad.Dense(), fullOrder(inverse, x.IsBatched()))
		return gradient(g, x.Batching()), nil
	}
	return wired(out, x, back).Named("permute"), nil
}

// wired builds the single-operand graph node shared by the unary ops.
func wired(out *tensor.Dense, x *tensor.Tensor, back tensor.BackFn) *tensor.Tensor {
	return tensor.FromOp(out, x.Batching(), []*tensor.Tensor{x}, []tensor.BackFn{back})
}

func validPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("order %v does not cover %d axes", order, n)
	}
	seen := make([]bool, n)
	for _, axis := range order {
		if axis < 0 || axis >= n || seen[axis] {
			return fmt.Errorf("order %v is not a permutation of %d axes", order, n)
		}
		seen[axis] = true
	}
	return nil
}

// fullOrder maps a semantic-axis permutation to a full-axis one,
// pinning the batch axis at position 0 when present.
func fullOrder(order []int, batched bool) []int {
	if !batched {
		return order
	}
	full := make([]int, 0, len(order)+1)
	full = append(full, 0)
	for _, axis := range order {
		full = append(full, axis+1)
	}
	return full
}

func invertPermutation(order []int) []int {
	inverse := make([]int, len(order))
	for i, axis := range order {
		inverse[axis] = i
	}
	return inverse
}

// transpose copies d into a new array with axes reordered by order.
func transpose(d *tensor.Dense, order []int) *tensor.Dense {
	src := d.Shape()
	outShape := make(tensor.Shape, len(order))
	for i, axis := range order {
		outShape[i] = src[axis]
	}
	out := tensor.NewDenseOn(outShape, d.Device())

	srcStride := d.Strides()
	// Stride of output axis i in the source layout.
	stride := make([]int, len(order))
	for i, axis := range order {
		stride[i] = srcStride[axis]
	}

	idx := make([]int, len(order))
	outData, srcData := out.Data(), d.Data()
	for o := range outData {
		offset := 0
		for i, v := range idx {
			offset += v * stride[i]
		}
		outData[o] = srcData[offset]
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < outShape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return out
}
