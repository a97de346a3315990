package tensor

import "fmt"

// ShapeMismatchError reports that a binary operation received operands
// whose semantic (non-batch) shapes differ. It is raised before any
// array computation happens; shapes are never silently broadcast.
type ShapeMismatchError struct {
	Op    string
	Left  Shape
	Right Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shapes %v and %v do not match", e.Op, e.Left, e.Right)
}

// GradientContractError reports that an operation received a tensor
// requiring gradients in a position that forbids it, such as the mask
// operand of a masking operation.
type GradientContractError struct {
	Op     string
	Reason string
}

func (e *GradientContractError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// SubscriptError reports a malformed or inapplicable einsum subscript.
// It is raised at operation construction for syntax problems, or at the
// forward call when the subscript cannot be resolved against the
// operands' shapes.
type SubscriptError struct {
	Subscript string
	Reason    string
}

func (e *SubscriptError) Error() string {
	return fmt.Sprintf("einsum %q: %s", e.Subscript, e.Reason)
}
