package tensor

import (
	"testing"
)

// Test helpers

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

// Shape tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected int
	}{
		{Shape{}, 1},         // Scalar
		{Shape{5}, 5},        // 1D
		{Shape{2, 3}, 6},     // 2D
		{Shape{2, 3, 4}, 24}, // 3D
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.expected {
			t.Errorf("Shape%v.NumElements() = %d, want %d", tt.shape, got, tt.expected)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Shape{2, 3}.Validate() = %v, want nil", err)
	}
	if err := (Shape{}).Validate(); err != nil {
		t.Errorf("Shape{}.Validate() = %v, want nil", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Shape{2, 0}.Validate() = nil, want error")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("Shape{-1, 3}.Validate() = nil, want error")
	}
}

func TestShapeEqual(t *testing.T) {
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("Shape{2, 3} should equal Shape{2, 3}")
	}
	if (Shape{2, 3}).Equal(Shape{3, 2}) {
		t.Error("Shape{2, 3} should not equal Shape{3, 2}")
	}
	if (Shape{2, 3}).Equal(Shape{2, 3, 1}) {
		t.Error("Shapes of different rank should not be equal")
	}
}

func TestShapeClone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 7
	if s[0] != 2 {
		t.Error("Clone should not share storage with the original")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected []int
	}{
		{Shape{5}, []int{1}},
		{Shape{2, 3}, []int{3, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
	}

	for _, tt := range tests {
		got := tt.shape.ComputeStrides()
		if len(got) != len(tt.expected) {
			t.Fatalf("Shape%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.expected)
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("Shape%v.ComputeStrides() = %v, want %v", tt.shape, got, tt.expected)
				break
			}
		}
	}
}

// Batching tests

func TestBatchingOr(t *testing.T) {
	if Unbatched.Or(Unbatched) != Unbatched {
		t.Error("Unbatched | Unbatched should be Unbatched")
	}
	if Unbatched.Or(Batched) != Batched {
		t.Error("Unbatched | Batched should be Batched")
	}
	if Batched.Or(Unbatched) != Batched {
		t.Error("Batched | Unbatched should be Batched")
	}
	if Batched.Or(Batched) != Batched {
		t.Error("Batched | Batched should be Batched")
	}
}

func TestBatchingStrip(t *testing.T) {
	assertEqualShape(t, Shape{3, 4}, Batched.Strip(Shape{8, 3, 4}), "Batched strip")
	assertEqualShape(t, Shape{8, 3, 4}, Unbatched.Strip(Shape{8, 3, 4}), "Unbatched strip")
	assertEqualShape(t, Shape{}, Batched.Strip(Shape{8}), "Batched strip to scalar")
}

func TestBatchingString(t *testing.T) {
	if Unbatched.String() != "unbatched" {
		t.Errorf("Unbatched.String() = %q", Unbatched.String())
	}
	if Batched.String() != "batched" {
		t.Errorf("Batched.String() = %q", Batched.String())
	}
}
