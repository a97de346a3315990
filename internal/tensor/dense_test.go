package tensor

import (
	"testing"
)

func TestNewDenseZeroed(t *testing.T) {
	d := NewDense(Shape{2, 3})
	assertEqualShape(t, Shape{2, 3}, d.Shape(), "NewDense shape")
	if d.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", d.NumElements())
	}
	for i, v := range d.Data() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
	if d.Device() != CPU {
		t.Errorf("Device() = %v, want CPU", d.Device())
	}
}

func TestNewDenseOnDeviceTag(t *testing.T) {
	d := NewDenseOn(Shape{2}, BLAS)
	if d.Device() != BLAS {
		t.Errorf("Device() = %v, want BLAS", d.Device())
	}
}

func TestNewDenseInvalidShapePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewDense(Shape{2, 0}) should panic")
		}
	}()
	NewDense(Shape{2, 0})
}

func TestDenseFromSlice(t *testing.T) {
	d, err := DenseFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("DenseFromSlice failed: %v", err)
	}
	if d.At(1, 2) != 6 {
		t.Errorf("At(1, 2) = %v, want 6", d.At(1, 2))
	}
	if d.At(0, 1) != 2 {
		t.Errorf("At(0, 1) = %v, want 2", d.At(0, 1))
	}
}

func TestDenseFromSliceCopiesData(t *testing.T) {
	src := []float64{1, 2, 3}
	d, err := DenseFromSlice(src, Shape{3})
	if err != nil {
		t.Fatalf("DenseFromSlice failed: %v", err)
	}
	src[0] = 99
	if d.At(0) != 1 {
		t.Error("DenseFromSlice should copy the input slice")
	}
}

func TestDenseFromSliceLengthMismatch(t *testing.T) {
	if _, err := DenseFromSlice([]float64{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("expected error for 3 elements with shape (2, 2)")
	}
}

func TestDenseSet(t *testing.T) {
	d := NewDense(Shape{2, 2})
	d.Set(7, 1, 0)
	if d.At(1, 0) != 7 {
		t.Errorf("At(1, 0) = %v, want 7", d.At(1, 0))
	}
	if d.Data()[2] != 7 {
		t.Error("Set should write row-major storage")
	}
}

func TestDenseItem(t *testing.T) {
	d, _ := DenseFromSlice([]float64{42}, Shape{1})
	if d.Item() != 42 {
		t.Errorf("Item() = %v, want 42", d.Item())
	}
}

func TestDenseItemPanicsOnMultipleElements(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Item() should panic for a multi-element array")
		}
	}()
	NewDense(Shape{2}).Item()
}

func TestDenseClone(t *testing.T) {
	d, _ := DenseFromSlice([]float64{1, 2, 3}, Shape{3})
	c := d.Clone()
	c.Set(99, 0)
	if d.At(0) != 1 {
		t.Error("Clone should not share storage")
	}
	if c.Device() != d.Device() {
		t.Error("Clone should keep the device tag")
	}
}

func TestDenseWithShape(t *testing.T) {
	d, _ := DenseFromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	v, err := d.WithShape(Shape{3, 2})
	if err != nil {
		t.Fatalf("WithShape failed: %v", err)
	}
	assertEqualShape(t, Shape{3, 2}, v.Shape(), "view shape")
	// The view shares storage.
	v.Set(99, 0, 0)
	if d.At(0, 0) != 99 {
		t.Error("WithShape should return a view over the same data")
	}

	if _, err := d.WithShape(Shape{4}); err == nil {
		t.Error("expected error for element-count mismatch")
	}
}

func TestDenseCloseTo(t *testing.T) {
	a, _ := DenseFromSlice([]float64{1, 2, 3}, Shape{3})
	b, _ := DenseFromSlice([]float64{1, 2, 3.0005}, Shape{3})
	if !a.CloseTo(b, 1e-3) {
		t.Error("arrays within tolerance should be close")
	}
	if a.CloseTo(b, 1e-6) {
		t.Error("arrays outside tolerance should not be close")
	}
	c, _ := DenseFromSlice([]float64{1, 2, 3}, Shape{3, 1})
	if a.CloseTo(c, 1) {
		t.Error("arrays with different shapes should not be close")
	}
}
