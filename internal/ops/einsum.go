package ops

import (
	"strings"

	"github.com/born-ml/tricycle/internal/backend"
	"github.com/born-ml/tricycle/internal/tensor"
)

// label identifies one einsum index. Subscript letters map to their
// rune value; negative values are synthetic: the reserved batch index
// and the indices an ellipsis expands to.
type label int32

const labelBatch label = -1

// ellipsisLabel returns the synthetic label for position j (from the
// left) of the global ellipsis block.
func ellipsisLabel(j int) label {
	return -2 - label(j)
}

// token is one comma-separated piece of a subscript specification.
type token struct {
	pre      []label // labels before the ellipsis (all labels when none)
	post     []label // labels after the ellipsis
	ellipsis bool
}

func (t token) named() int {
	return len(t.pre) + len(t.post)
}

// Einsum computes a generalized tensor contraction driven by a
// subscript specification, e.g. "ij,jk->ik" for matrix multiply or
// "...,...->..." for an elementwise product. The specification must
// name its output explicitly with "->".
//
// Index resolution follows three rules:
//   - "..." expands right-aligned over the axes the named indices do
//     not cover; expanded sizes must agree between operands, though an
//     operand may cover fewer of them.
//   - A batched operand whose indices name all but the leading axis
//     gets the reserved batch index prepended, and so does the output:
//     the batch index is never summed over.
//   - Indices missing from the output are summed over.
//
// The backward function for operand i contracts the incoming gradient
// (labelled with the output indices) against the other operands, with
// operand i's own indices as the output: the standard einsum transpose
// rule. Indices absent from that output are summed, which also folds
// batched gradients back onto unbatched operands.
type Einsum struct {
	spec     string
	operands []token
	output   token
}

// NewEinsum parses a subscript specification. Malformed specifications
// are rejected here; shape-dependent problems surface at Forward.
func NewEinsum(spec string) (*Einsum, error) {
	compact := strings.ReplaceAll(spec, " ", "")
	parts := strings.Split(compact, "->")
	if len(parts) != 2 {
		return nil, &tensor.SubscriptError{Subscript: spec, Reason: `must contain exactly one "->"`}
	}
	if parts[0] == "" {
		return nil, &tensor.SubscriptError{Subscript: spec, Reason: "needs at least one operand subscript"}
	}

	e := &Einsum{spec: compact}
	for _, raw := range strings.Split(parts[0], ",") {
		tok, err := parseToken(raw, spec)
		if err != nil {
			return nil, err
		}
		e.operands = append(e.operands, tok)
	}
	out, err := parseToken(parts[1], spec)
	if err != nil {
		return nil, err
	}
	e.output = out

	if err := e.validate(spec); err != nil {
		return nil, err
	}
	return e, nil
}

// MustEinsum is NewEinsum for compile-time-constant subscripts.
// Panics on a malformed specification.
func MustEinsum(spec string) *Einsum {
	e, err := NewEinsum(spec)
	if err != nil {
		panic(err)
	}
	return e
}

func parseToken(raw, spec string) (token, error) {
	var tok token
	body := raw
	if i := strings.Index(raw, "..."); i >= 0 {
		if strings.Count(raw, ".") != 3 {
			return tok, &tensor.SubscriptError{Subscript: spec, Reason: "stray '.' outside an ellipsis"}
		}
		tok.ellipsis = true
		tok.pre = parseLabels(raw[:i])
		tok.post = parseLabels(raw[i+3:])
		body = raw[:i] + raw[i+3:]
	} else {
		tok.pre = parseLabels(raw)
	}
	for _, r := range body {
		if !isIndexLetter(r) {
			return tok, &tensor.SubscriptError{Subscript: spec, Reason: "index characters must be letters"}
		}
	}
	return tok, nil
}

func parseLabels(s string) []label {
	labels := make([]label, 0, len(s))
	for _, r := range s {
		labels = append(labels, label(r))
	}
	return labels
}

func isIndexLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func (e *Einsum) validate(spec string) error {
	inInputs := make(map[label]bool)
	for _, op := range e.operands {
		for _, l := range op.pre {
			inInputs[l] = true
		}
		for _, l := range op.post {
			inInputs[l] = true
		}
	}
	seen := make(map[label]bool)
	check := func(l label) error {
		if seen[l] {
			return &tensor.SubscriptError{Subscript: spec, Reason: "output indices must be unique"}
		}
		seen[l] = true
		if !inInputs[l] {
			return &tensor.SubscriptError{Subscript: spec, Reason: "output index missing from every operand"}
		}
		return nil
	}
	for _, l := range e.output.pre {
		if err := check(l); err != nil {
			return err
		}
	}
	for _, l := range e.output.post {
		if err := check(l); err != nil {
			return err
		}
	}
	return nil
}

// resolution is the outcome of binding a parsed specification to
// concrete operands: one label per axis per operand, the output label
// list, and the size of every label.
type resolution struct {
	operands [][]label
	output   []label
	sizes    map[label]int
}

func (e *Einsum) resolve(ts []*tensor.Tensor) (*resolution, error) {
	if len(ts) != len(e.operands) {
		return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "operand count does not match subscript"}
	}

	// Global ellipsis rank: the widest expansion among the operands.
	ellRank := 0
	for i, tok := range e.operands {
		if !tok.ellipsis {
			continue
		}
		d := len(ts[i].Shape()) - tok.named()
		if d < 0 {
			return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "operand has fewer axes than named indices"}
		}
		if d > ellRank {
			ellRank = d
		}
	}

	res := &resolution{sizes: make(map[label]int)}
	usedBatch := false

	for i, tok := range e.operands {
		t := ts[i]
		shape := t.Shape()
		ndim := len(shape)

		var labels []label
		switch {
		case tok.ellipsis:
			d := ndim - tok.named()
			if d < 0 {
				return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "operand has fewer axes than named indices"}
			}
			labels = append(labels, tok.pre...)
			for j := ellRank - d; j < ellRank; j++ {
				labels = append(labels, ellipsisLabel(j))
			}
			labels = append(labels, tok.post...)
		case t.IsBatched() && tok.named() == ndim-1:
			labels = append([]label{labelBatch}, tok.pre...)
			usedBatch = true
		case tok.named() == ndim:
			labels = tok.pre
		default:
			return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "operand axes do not match subscript indices"}
		}

		for axis, l := range labels {
			if size, ok := res.sizes[l]; ok && size != shape[axis] {
				return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "conflicting sizes for one index"}
			}
			res.sizes[l] = shape[axis]
		}
		res.operands = append(res.operands, labels)
	}

	out := append([]label{}, e.output.pre...)
	if e.output.ellipsis {
		ell := make([]label, 0, ellRank)
		for j := 0; j < ellRank; j++ {
			ell = append(ell, ellipsisLabel(j))
		}
		out = append(out, append(ell, e.output.post...)...)
	} else {
		out = append(out, e.output.post...)
	}
	if usedBatch {
		out = append([]label{labelBatch}, out...)
	}
	for _, l := range out {
		if _, ok := res.sizes[l]; !ok {
			return nil, &tensor.SubscriptError{Subscript: e.spec, Reason: "output index missing from every operand"}
		}
	}
	res.output = out
	return res, nil
}

// Forward computes the contraction over the given operands.
func (e *Einsum) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	res, err := e.resolve(inputs)
	if err != nil {
		return nil, err
	}

	denses := make([]*tensor.Dense, len(inputs))
	batching := tensor.Unbatched
	for i, t := range inputs {
		denses[i] = t.Dense()
		batching = batching.Or(t.Batching())
	}

	out := contract(res.operands, res.output, res.sizes, denses)

	backFns := make([]tensor.BackFn, len(inputs))
	for i := range inputs {
		operand := inputs[i]
		otherLabels := make([][]label, 0, len(inputs))
		otherDenses := make([]*tensor.Dense, 0, len(inputs))
		for j := range inputs {
			if j != i {
				otherLabels = append(otherLabels, res.operands[j])
				otherDenses = append(otherDenses, denses[j])
			}
		}
		own := res.operands[i]
		backFns[i] = func(grad *tensor.Tensor) (*tensor.Tensor, error) {
			labels := append([][]label{res.output}, otherLabels...)
			args := append([]*tensor.Dense{grad.Dense()}, otherDenses...)
			g := contract(labels, own, res.sizes, args)
			return gradient(g, operand.Batching()), nil
		}
	}

	result := tensor.FromOp(out, batching, inputs, backFns)
	return result.Named("einsum " + e.spec), nil
}

// contract executes one resolved contraction. Elementwise and matmul
// patterns dispatch to backend kernels; everything else runs the
// general stride-folded loop, which also covers repeated indices and
// broadcast gradients (labels absent from an operand read or write
// with stride zero).
func contract(operands [][]label, out []label, sizes map[label]int, denses []*tensor.Dense) *tensor.Dense {
	xp := backend.Select(denses...)

	if isElementwise(operands, out) {
		result := denses[0]
		if len(denses) == 1 {
			return result.Clone()
		}
		for _, d := range denses[1:] {
			result = xp.Mul(result, d)
		}
		return result
	}

	if m, n, k, ok := gemmPlan(operands, out, sizes); ok {
		product := xp.Gemm(m, n, k, denses[0].Data(), denses[1].Data())
		result := xp.Zeros(shapeOf(out, sizes))
		copy(result.Data(), product)
		return result
	}

	return generalContract(xp, operands, out, sizes, denses)
}

// isElementwise reports whether every operand carries exactly the
// output's labels in the output's order, with no repeats.
func isElementwise(operands [][]label, out []label) bool {
	if hasRepeats(out) {
		return false
	}
	for _, labels := range operands {
		if len(labels) != len(out) {
			return false
		}
		for i, l := range labels {
			if l != out[i] {
				return false
			}
		}
	}
	return true
}

// gemmPlan detects the two-operand matmul pattern
// (P..., S...) x (S..., Q...) -> (P..., Q...) over contiguous
// row-major operands and returns the flattened GEMM dimensions.
func gemmPlan(operands [][]label, out []label, sizes map[label]int) (m, n, k int, ok bool) {
	if len(operands) != 2 || hasRepeats(out) {
		return 0, 0, 0, false
	}
	a, b := operands[0], operands[1]
	if hasRepeats(a) || hasRepeats(b) {
		return 0, 0, 0, false
	}

	inOut := make(map[label]bool, len(out))
	for _, l := range out {
		inOut[l] = true
	}

	// The summed labels must form a suffix of a.
	p := len(a)
	for p > 0 && !inOut[a[p-1]] {
		p--
	}
	shared := a[p:]
	for _, l := range a[:p] {
		if !inOut[l] {
			return 0, 0, 0, false
		}
	}

	// ...and the same labels, in the same order, a prefix of b.
	if len(b) < len(shared) {
		return 0, 0, 0, false
	}
	for i, l := range shared {
		if b[i] != l {
			return 0, 0, 0, false
		}
	}
	tail := b[len(shared):]
	for _, l := range tail {
		if !inOut[l] {
			return 0, 0, 0, false
		}
	}

	// Output must be exactly a's prefix then b's tail.
	if len(out) != p+len(tail) {
		return 0, 0, 0, false
	}
	for i := 0; i < p; i++ {
		if out[i] != a[i] {
			return 0, 0, 0, false
		}
	}
	for i, l := range tail {
		if out[p+i] != l {
			return 0, 0, 0, false
		}
	}
	if len(shared) == 0 {
		return 0, 0, 0, false
	}

	m, n, k = 1, 1, 1
	for _, l := range a[:p] {
		m *= sizes[l]
	}
	for _, l := range tail {
		n *= sizes[l]
	}
	for _, l := range shared {
		k *= sizes[l]
	}
	return m, n, k, true
}

func hasRepeats(labels []label) bool {
	seen := make(map[label]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return true
		}
		seen[l] = true
	}
	return false
}

func shapeOf(labels []label, sizes map[label]int) tensor.Shape {
	shape := make(tensor.Shape, len(labels))
	for i, l := range labels {
		shape[i] = sizes[l]
	}
	return shape
}

// generalContract walks every distinct assignment of the output labels
// and sums the operand products over the remaining labels. Per-operand
// (and output) offsets use stride folding: the stride of a label is
// the sum of the strides of every axis carrying it, which makes
// repeated indices and absent indices (stride zero) fall out of the
// same bookkeeping.
func generalContract(xp tensor.Backend, operands [][]label, out []label, sizes map[label]int, denses []*tensor.Dense) *tensor.Dense {
	result := xp.Zeros(shapeOf(out, sizes))

	outDistinct := distinct(out)
	summed := summedLabels(operands, out)
	all := append(append([]label{}, outDistinct...), summed...)

	dims := make([]int, len(all))
	for i, l := range all {
		dims[i] = sizes[l]
	}

	foldedStrides := func(labels []label, strides []int) []int {
		folded := make([]int, len(all))
		for i, l := range all {
			for axis, al := range labels {
				if al == l {
					folded[i] += strides[axis]
				}
			}
		}
		return folded
	}

	outStride := foldedStrides(out, result.Strides())
	opStride := make([][]int, len(denses))
	for i, d := range denses {
		opStride[i] = foldedStrides(operands[i], d.Strides())
	}

	nOut := len(outDistinct)
	idx := make([]int, len(all))
	data := result.Data()
	for {
		// Offset of the current output cell.
		outOffset := 0
		for i := 0; i < nOut; i++ {
			outOffset += idx[i] * outStride[i]
		}

		term := 1.0
		for i, d := range denses {
			offset := 0
			for j, v := range idx {
				offset += v * opStride[i][j]
			}
			term *= d.Data()[offset]
		}
		data[outOffset] += term

		carry := len(all) - 1
		for ; carry >= 0; carry-- {
			idx[carry]++
			if idx[carry] < dims[carry] {
				break
			}
			idx[carry] = 0
		}
		if carry < 0 {
			break
		}
	}
	return result
}

func distinct(labels []label) []label {
	seen := make(map[label]bool, len(labels))
	result := make([]label, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			result = append(result, l)
		}
	}
	return result
}

func summedLabels(operands [][]label, out []label) []label {
	inOut := make(map[label]bool, len(out))
	for _, l := range out {
		inOut[l] = true
	}
	seen := make(map[label]bool)
	summed := make([]label, 0, 4)
	for _, labels := range operands {
		for _, l := range labels {
			if !inOut[l] && !seen[l] {
				seen[l] = true
				summed = append(summed, l)
			}
		}
	}
	return summed
}
