package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Backward runs reverse-mode gradient propagation from this tensor back
// to every reachable tensor that requires gradients.
//
// The traversal is seeded with a gradient of ones matching the output's
// shape: callers differentiating a non-scalar output accept that
// seeding. Walking the graph in reverse topological order, each node's
// gradient is pushed through the per-arg backward functions and summed
// into the pending gradient of each arg, so a tensor consumed by
// several operations receives the sum of all contributions. Subgraphs
// behind tensors that do not require gradients are never visited.
//
// On return, grad is set on every visited tensor that requires
// gradients. A later Backward call on any output overwrites those
// gradients; use ZeroGrad to clear them explicitly between passes.
func (t *Tensor) Backward() error {
	seed := New(t.dense.shape.onesLike())
	seed.batching = t.batching
	seed.requiresGrad = false

	// Reverse topological order over the requires-grad subgraph.
	order := make([]*Tensor, 0, 64)
	visited := make(map[*Tensor]bool)
	var visit func(node *Tensor)
	visit = func(node *Tensor) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, arg := range node.args {
			if arg.requiresGrad {
				visit(arg)
			}
		}
		order = append(order, node)
	}
	visit(t)

	grads := make(map[*Tensor]*Tensor, len(order))
	grads[t] = seed

	for i := len(order) - 1; i >= 0; i-- {
		node := order[i]
		grad, ok := grads[node]
		if !ok {
			// Unreachable from the output through differentiable paths.
			continue
		}
		for j, arg := range node.args {
			if !arg.requiresGrad {
				continue
			}
			contribution, err := node.backFns[j](grad)
			if err != nil {
				return fmt.Errorf("backward through %q: %w", node.describe(), err)
			}
			if !contribution.dense.shape.Equal(arg.dense.shape) {
				return fmt.Errorf("backward through %q: gradient shape %v does not match arg shape %v",
					node.describe(), contribution.dense.shape, arg.dense.shape)
			}
			if existing, ok := grads[arg]; ok {
				grads[arg] = accumulate(existing, contribution)
			} else {
				grads[arg] = contribution
			}
		}
	}

	for node, grad := range grads {
		if node.requiresGrad {
			node.grad = grad
		}
	}
	return nil
}

// accumulate sums two gradient contributions. The first operand is
// cloned so back functions may hand out shared arrays safely.
func accumulate(a, b *Tensor) *Tensor {
	sum := a.dense.Clone()
	floats.Add(sum.data, b.dense.data)
	out := New(sum)
	out.batching = a.batching.Or(b.batching)
	out.requiresGrad = false
	return out
}

func (t *Tensor) describe() string {
	if t.name != "" {
		return t.name
	}
	return fmt.Sprintf("tensor%v", t.dense.shape)
}

func (s Shape) onesLike() *Dense {
	d := NewDense(s)
	for i := range d.data {
		d.data[i] = 1
	}
	return d
}
