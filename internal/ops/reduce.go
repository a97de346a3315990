package ops

import (
	"fmt"

	"github.com/born-ml/tricycle/internal/tensor"
)

const axisLetters = "abcdefghijklmnopqrstuvwxyz"

// ReduceSum sums a tensor over all of its semantic axes. A batched
// tensor keeps its batch axis, yielding one sum per batch element.
// Built on Einsum, so the backward rule (broadcast the gradient back
// across the reduced axes) comes for free.
type ReduceSum struct{}

// Forward computes the sum.
func (ReduceSum) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("radd", inputs)
	if err != nil {
		return nil, err
	}
	letters, err := semanticLetters(x)
	if err != nil {
		return nil, err
	}
	if letters == "" {
		// Summing a scalar is the identity.
		return x, nil
	}
	e, err := NewEinsum(letters + "->")
	if err != nil {
		return nil, err
	}
	result, err := e.Forward(x)
	if err != nil {
		return nil, err
	}
	return result.Named("radd"), nil
}

// ReduceSumAxis sums a tensor along one semantic axis.
type ReduceSumAxis struct {
	Axis int
}

// Forward computes the sum along the configured axis.
func (op ReduceSumAxis) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("radd", inputs)
	if err != nil {
		return nil, err
	}
	letters, err := semanticLetters(x)
	if err != nil {
		return nil, err
	}
	if op.Axis < 0 || op.Axis >= len(letters) {
		return nil, fmt.Errorf("radd: axis %d out of range for %d semantic axes", op.Axis, len(letters))
	}
	e, err := NewEinsum(letters + "->" + letters[:op.Axis] + letters[op.Axis+1:])
	if err != nil {
		return nil, err
	}
	result, err := e.Forward(x)
	if err != nil {
		return nil, err
	}
	return result.Named("radd"), nil
}

// ReduceMean averages a tensor over all of its semantic axes: the sum
// divided (via a scalar multiply) by the number of reduced elements.
type ReduceMean struct{}

// Forward computes the mean.
func (ReduceMean) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("rmean", inputs)
	if err != nil {
		return nil, err
	}
	sum, err := ReduceSum{}.Forward(x)
	if err != nil {
		return nil, err
	}
	n := x.SemanticShape().NumElements()
	result, err := UnaryMultiply{C: 1 / float64(n)}.Forward(sum)
	if err != nil {
		return nil, err
	}
	return result.Named("rmean"), nil
}

// ReduceMeanAxis averages a tensor along one semantic axis.
type ReduceMeanAxis struct {
	Axis int
}

// Forward computes the mean along the configured axis.
func (op ReduceMeanAxis) Forward(inputs ...*tensor.Tensor) (*tensor.Tensor, error) {
	x, err := one("rmean", inputs)
	if err != nil {
		return nil, err
	}
	sum, err := ReduceSumAxis{Axis: op.Axis}.Forward(x)
	if err != nil {
		return nil, err
	}
	n := x.SemanticShape()[op.Axis]
	result, err := UnaryMultiply{C: 1 / float64(n)}.Forward(sum)
	if err != nil {
		return nil, err
	}
	return result.Named("rmean"), nil
}

func semanticLetters(x *tensor.Tensor) (string, error) {
	n := len(x.SemanticShape())
	if n > len(axisLetters) {
		return "", fmt.Errorf("reduce: tensors with more than %d semantic axes are not supported", len(axisLetters))
	}
	return axisLetters[:n], nil
}
