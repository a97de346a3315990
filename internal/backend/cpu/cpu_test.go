package cpu

import (
	"math"
	"testing"

	"github.com/born-ml/tricycle/internal/tensor"
)

func dense(t *testing.T, data []float64, shape tensor.Shape) *tensor.Dense {
	t.Helper()
	d, err := tensor.DenseFromSlice(data, shape)
	if err != nil {
		t.Fatalf("DenseFromSlice failed: %v", err)
	}
	return d
}

func assertData(t *testing.T, expected []float64, actual *tensor.Dense, msg string) {
	t.Helper()
	data := actual.Data()
	if len(data) != len(expected) {
		t.Fatalf("%s: expected %d elements, got %d", msg, len(expected), len(data))
	}
	for i := range expected {
		if math.Abs(data[i]-expected[i]) > 1e-12 {
			t.Errorf("%s: element %d = %v, want %v", msg, i, data[i], expected[i])
		}
	}
}

func TestArithmetic(t *testing.T) {
	cpu := New()
	a := dense(t, []float64{1, 2, 3, 4}, tensor.Shape{4})
	b := dense(t, []float64{4, 3, 2, 1}, tensor.Shape{4})

	assertData(t, []float64{5, 5, 5, 5}, cpu.Add(a, b), "Add")
	assertData(t, []float64{-3, -1, 1, 3}, cpu.Sub(a, b), "Sub")
	assertData(t, []float64{4, 6, 6, 4}, cpu.Mul(a, b), "Mul")
	assertData(t, []float64{0.25, 2.0 / 3, 1.5, 4}, cpu.Div(a, b), "Div")
}

func TestZerosOnes(t *testing.T) {
	cpu := New()
	assertData(t, []float64{0, 0, 0, 0, 0, 0}, cpu.Zeros(tensor.Shape{2, 3}), "Zeros")
	assertData(t, []float64{1, 1, 1, 1, 1, 1}, cpu.Ones(tensor.Shape{2, 3}), "Ones")
	if cpu.Zeros(tensor.Shape{1}).Device() != tensor.CPU {
		t.Error("results should carry the CPU device tag")
	}
}

func TestMaximumMinimumTies(t *testing.T) {
	cpu := New()
	a := dense(t, []float64{1, 5, 3}, tensor.Shape{3})
	b := dense(t, []float64{2, 5, 1}, tensor.Shape{3})

	assertData(t, []float64{2, 5, 3}, cpu.Maximum(a, b), "Maximum")
	assertData(t, []float64{1, 5, 1}, cpu.Minimum(a, b), "Minimum")
}

func TestComparisons(t *testing.T) {
	cpu := New()
	a := dense(t, []float64{1, 5, 3}, tensor.Shape{3})
	b := dense(t, []float64{2, 5, 1}, tensor.Shape{3})

	assertData(t, []float64{0, 0, 1}, cpu.Greater(a, b), "Greater")
	assertData(t, []float64{0, 1, 1}, cpu.GreaterEqual(a, b), "GreaterEqual")
	assertData(t, []float64{1, 0, 0}, cpu.Lower(a, b), "Lower")
	assertData(t, []float64{1, 1, 0}, cpu.LowerEqual(a, b), "LowerEqual")
}

func TestWhere(t *testing.T) {
	cpu := New()
	mask := dense(t, []float64{1, 0, 0.5, 0}, tensor.Shape{4})
	x := dense(t, []float64{10, 20, 30, 40}, tensor.Shape{4})
	assertData(t, []float64{10, 0, 30, 0}, cpu.Where(mask, x), "Where")
}

func TestElementwiseFunctions(t *testing.T) {
	cpu := New()
	x := dense(t, []float64{0, 1}, tensor.Shape{2})

	assertData(t, []float64{1, math.E}, cpu.Exp(x), "Exp")
	assertData(t, []float64{0, -1}, cpu.Neg(x), "Neg")

	y := dense(t, []float64{1, math.E}, tensor.Shape{2})
	assertData(t, []float64{0, 1}, cpu.Log(y), "Log")

	z := dense(t, []float64{4, 9}, tensor.Shape{2})
	assertData(t, []float64{2, 3}, cpu.Sqrt(z), "Sqrt")
	assertData(t, []float64{16, 81}, cpu.Pow(z, 2), "Pow squared")
	assertData(t, []float64{64, 729}, cpu.Pow(z, 3), "Pow cubed")
	assertData(t, []float64{8, 18}, cpu.Scale(z, 2), "Scale")
	assertData(t, []float64{5, 10}, cpu.AddConst(z, 1), "AddConst")
	assertData(t, []float64{3, 4.0 / 3}, cpu.ConstDiv(12, z), "ConstDiv")

	trig := dense(t, []float64{0, math.Pi / 2}, tensor.Shape{2})
	assertData(t, []float64{0, 1}, cpu.Sin(trig), "Sin")
	got := cpu.Cos(trig)
	if math.Abs(got.Data()[0]-1) > 1e-12 || math.Abs(got.Data()[1]) > 1e-12 {
		t.Errorf("Cos = %v, want [1 0]", got.Data())
	}
}

func TestGemm(t *testing.T) {
	cpu := New()
	// (2x3) @ (3x2)
	a := []float64{1, 2, 3, 4, 5, 6}
	b := []float64{7, 8, 9, 10, 11, 12}
	c := cpu.Gemm(2, 2, 3, a, b)

	expected := []float64{58, 64, 139, 154}
	for i := range expected {
		if c[i] != expected[i] {
			t.Errorf("Gemm[%d] = %v, want %v", i, c[i], expected[i])
		}
	}
}

func TestGemmSkipsZeroRows(t *testing.T) {
	cpu := New()
	a := []float64{0, 0, 1, 0}
	b := []float64{5, 6, 7, 8}
	c := cpu.Gemm(2, 2, 2, a, b)

	expected := []float64{0, 0, 5, 6}
	for i := range expected {
		if c[i] != expected[i] {
			t.Errorf("Gemm[%d] = %v, want %v", i, c[i], expected[i])
		}
	}
}

func TestDeviceTag(t *testing.T) {
	tagged := NewWithDevice(tensor.BLAS)
	a := dense(t, []float64{1, 2}, tensor.Shape{2})
	b := dense(t, []float64{3, 4}, tensor.Shape{2})
	if tagged.Add(a, b).Device() != tensor.BLAS {
		t.Error("NewWithDevice should stamp results with the given device")
	}
	if tagged.Name() != "CPU" {
		t.Errorf("Name() = %q, want CPU", tagged.Name())
	}
}
