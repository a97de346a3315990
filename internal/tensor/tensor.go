package tensor

import "fmt"

// BackFn maps the gradient flowing into an operation's output to the
// gradient contribution for one of its inputs. Operations build one
// BackFn per retained input as a closure over the forward call's
// transient state, so a single operation value can be reused freely.
type BackFn func(grad *Tensor) (*Tensor, error)

// Tensor is one value in a computation and, when produced by an
// operation, a node in the computation graph.
//
// The graph is a DAG of shared references: args point at the tensors
// this one was computed from, and the same tensor may appear as an arg
// of many outputs. A tensor created directly from data is a leaf with
// no args.
type Tensor struct {
	dense        *Dense
	requiresGrad bool
	batching     Batching
	args         []*Tensor
	backFns      []BackFn
	grad         *Tensor
	name         string
}

// New creates a leaf tensor wrapping an existing array.
// Leaves require gradients by default; use NoGrad for constants.
func New(d *Dense) *Tensor {
	return &Tensor{dense: d, requiresGrad: true}
}

// FromSlice creates a leaf tensor from a slice of values and a shape.
// The data is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	d, err := DenseFromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	return New(d), nil
}

// Scalar creates a leaf tensor holding a single value with shape (1).
func Scalar(v float64) *Tensor {
	d := NewDense(Shape{1})
	d.data[0] = v
	return New(d)
}

// Zeros creates a leaf tensor of zeros.
func Zeros(shape Shape) *Tensor {
	return New(NewDense(shape))
}

// Ones creates a leaf tensor of ones.
func Ones(shape Shape) *Tensor {
	d := NewDense(shape)
	for i := range d.data {
		d.data[i] = 1
	}
	return New(d)
}

// FromOp creates a tensor produced by an operation, wiring it into the
// graph. args are the operands the gradient should flow back to and
// backFns the matching per-operand backward functions.
//
// The result requires gradients iff any arg does; a result none of
// whose inputs require gradients is a constant and its provenance is
// dropped so backward traversal never visits it.
func FromOp(out *Dense, batching Batching, args []*Tensor, backFns []BackFn) *Tensor {
	if len(args) != len(backFns) {
		panic(fmt.Sprintf("tensor: %d args with %d backward functions", len(args), len(backFns)))
	}
	t := &Tensor{dense: out, batching: batching}
	for _, arg := range args {
		if arg.requiresGrad {
			t.requiresGrad = true
		}
	}
	if t.requiresGrad {
		t.args = args
		t.backFns = backFns
	}
	return t
}

// Shape returns the tensor's full shape, including any batch axis.
func (t *Tensor) Shape() Shape {
	return t.dense.shape
}

// SemanticShape returns the shape with the batch axis stripped.
// This is the shape binary-operation compatibility is checked on.
func (t *Tensor) SemanticShape() Shape {
	return t.batching.Strip(t.dense.shape)
}

// Dense returns the underlying array.
func (t *Tensor) Dense() *Dense {
	return t.dense
}

// Data returns the underlying storage (zero-copy).
func (t *Tensor) Data() []float64 {
	return t.dense.data
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() float64 {
	return t.dense.Item()
}

// RequiresGrad returns true if backward traversal should descend into
// this tensor.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

// RequireGrad marks the tensor for gradient computation.
// Returns the tensor itself for chaining.
func (t *Tensor) RequireGrad() *Tensor {
	t.requiresGrad = true
	return t
}

// NoGrad marks the tensor as a constant: backward traversal prunes the
// whole subgraph behind it. Returns the tensor itself for chaining.
func (t *Tensor) NoGrad() *Tensor {
	t.requiresGrad = false
	return t
}

// WithBatching sets the batching state without touching the graph.
// Operations use it when constructing results and gradients; client
// code should prefer ToBatched, which keeps gradients flowing.
// Returns the tensor itself for chaining.
func (t *Tensor) WithBatching(b Batching) *Tensor {
	t.batching = b
	return t
}

// Batching returns the tensor's batching state.
func (t *Tensor) Batching() Batching {
	return t.batching
}

// IsBatched returns true if axis 0 is a virtual batch axis.
func (t *Tensor) IsBatched() bool {
	return t.batching == Batched
}

// Named sets a diagnostic label. It has no semantic effect.
// Returns the tensor itself for chaining.
func (t *Tensor) Named(name string) *Tensor {
	t.name = name
	return t
}

// Name returns the diagnostic label.
func (t *Tensor) Name() string {
	return t.name
}

// Grad returns the accumulated gradient, or nil before any backward pass.
// Its shape always equals the tensor's shape.
func (t *Tensor) Grad() *Tensor {
	return t.grad
}

// ZeroGrad clears the accumulated gradient. Backward overwrites grad on
// every call, so this is only needed to release a gradient between
// passes or to make "no gradient yet" observable again.
func (t *Tensor) ZeroGrad() {
	t.grad = nil
}

// Args returns the tensors this one was computed from (empty for leaves).
func (t *Tensor) Args() []*Tensor {
	return t.args
}

// IsLeaf returns true if the tensor has no recorded provenance.
func (t *Tensor) IsLeaf() bool {
	return len(t.args) == 0
}

// ToBatched returns a tensor marking axis 0 as a batch axis.
//
// The result shares the underlying array and is wired into the graph:
// gradients flow through unchanged, landing with the receiver's own
// batching state.
func (t *Tensor) ToBatched() *Tensor {
	was := t.batching
	back := func(grad *Tensor) (*Tensor, error) {
		g := New(grad.dense)
		g.batching = was
		g.requiresGrad = false
		return g, nil
	}
	out := FromOp(t.dense, Batched, []*Tensor{t}, []BackFn{back})
	out.name = "batch"
	return out
}

// FromBatched returns a tensor with the batch axis demoted to an
// ordinary semantic axis, wired for gradient flow like ToBatched.
func (t *Tensor) FromBatched() *Tensor {
	was := t.batching
	back := func(grad *Tensor) (*Tensor, error) {
		g := New(grad.dense)
		g.batching = was
		g.requiresGrad = false
		return g, nil
	}
	out := FromOp(t.dense, Unbatched, []*Tensor{t}, []BackFn{back})
	out.name = "unbatch"
	return out
}

// Index returns the i-th subtensor along axis 0, wired for gradient
// flow: the backward function scatters the incoming gradient into a
// zero array at position i.
func (t *Tensor) Index(i int) (*Tensor, error) {
	shape := t.dense.shape
	if len(shape) == 0 {
		return nil, fmt.Errorf("cannot index a scalar tensor")
	}
	if i < 0 || i >= shape[0] {
		return nil, fmt.Errorf("index %d out of bounds for axis 0 (size %d)", i, shape[0])
	}

	subShape := shape[1:].Clone()
	n := subShape.NumElements()
	sub := NewDenseOn(subShape, t.dense.device)
	copy(sub.data, t.dense.data[i*n:(i+1)*n])

	srcShape := shape.Clone()
	back := func(grad *Tensor) (*Tensor, error) {
		full := NewDense(srcShape)
		copy(full.data[i*n:(i+1)*n], grad.dense.data)
		g := New(full)
		g.requiresGrad = false
		return g, nil
	}
	out := FromOp(sub, Unbatched, []*Tensor{t}, []BackFn{back})
	out.name = fmt.Sprintf("index[%d]", i)
	return out, nil
}

// CloseTo reports whether two tensors hold the same shape and values
// within the given absolute tolerance.
func (t *Tensor) CloseTo(other *Tensor, tol float64) bool {
	return t.dense.CloseTo(other.dense, tol)
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	if t.name != "" {
		return fmt.Sprintf("Tensor(%s)%v %s", t.name, t.dense.shape, t.batching)
	}
	return fmt.Sprintf("Tensor%v %s", t.dense.shape, t.batching)
}
