package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual array math for operations; which backend runs
// a given call is decided per call from the operands' Device tags.
//
// Implementations:
//   - cpu: pure Go kernels over gonum/floats
//   - blas: BLAS-accelerated GEMM with a chunked parallel elementwise path
//
// Every method allocates its result (operands are never written to) and
// tags it with the backend's own Device.
type Backend interface {
	// Name returns the backend name.
	Name() string
	// Device returns the device tag stamped on every result.
	Device() Device

	// Zeros and Ones allocate constant arrays on this backend.
	Zeros(shape Shape) *Dense
	Ones(shape Shape) *Dense

	// Element-wise binary operations. Operand shapes must already be
	// identical; backends do not broadcast.
	Add(a, b *Dense) *Dense
	Sub(a, b *Dense) *Dense
	Mul(a, b *Dense) *Dense
	Div(a, b *Dense) *Dense
	Maximum(a, b *Dense) *Dense
	Minimum(a, b *Dense) *Dense

	// Comparison operations producing 0/1 masks.
	Greater(a, b *Dense) *Dense      // a > b
	GreaterEqual(a, b *Dense) *Dense // a >= b
	Lower(a, b *Dense) *Dense        // a < b
	LowerEqual(a, b *Dense) *Dense   // a <= b

	// Where keeps x where the mask is non-zero and yields 0 elsewhere.
	Where(mask, x *Dense) *Dense

	// Element-wise unary operations.
	Neg(x *Dense) *Dense
	Exp(x *Dense) *Dense
	Log(x *Dense) *Dense
	Sin(x *Dense) *Dense
	Cos(x *Dense) *Dense
	Sqrt(x *Dense) *Dense
	Pow(x *Dense, n float64) *Dense

	// Scalar forms.
	Scale(x *Dense, c float64) *Dense    // c * x
	AddConst(x *Dense, c float64) *Dense // x + c
	ConstDiv(c float64, x *Dense) *Dense // c / x

	// Gemm computes the matrix product c = a @ b for row-major dense
	// blocks, where a is m x k and b is k x n. It is the contraction
	// kernel behind the einsum matmul fast path.
	Gemm(m, n, k int, a, b []float64) []float64
}
