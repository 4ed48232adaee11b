package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Tensor is a simple n-D array backed by a flat []float64.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a Tensor of given shape (product of dims = len(Data)).
func New(shape ...int) *Tensor {
	total := 1
	for _, d := range shape {
		total *= d
	}
	return &Tensor{
		Data:  make([]float64, total),
		Shape: append([]int(nil), shape...),
	}
}

// NewWithData creates a 1-D tensor from existing data slice.
func NewWithData(data []float64) *Tensor {
	return &Tensor{
		Data:  append([]float64(nil), data...),
		Shape: []int{len(data)},
	}
}

// NewMatrix creates a rows×cols tensor holding a copy of data in row-major order.
func NewMatrix(rows, cols int, data []float64) (*Tensor, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("matrix %dx%d needs %d values, got %d", rows, cols, rows*cols, len(data))
	}
	return &Tensor{
		Data:  append([]float64(nil), data...),
		Shape: []int{rows, cols},
	}, nil
}

// Len returns the number of scalars held by t.
func (t *Tensor) Len() int {
	return len(t.Data)
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Data:  append([]float64(nil), t.Data...),
		Shape: append([]int(nil), t.Shape...),
	}
}

// Equal reports whether a and b have the same shape and identical values.
func Equal(a, b *Tensor) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return floats.Equal(a.Data, b.Data)
}

// Dense views a 2-D tensor as a gonum matrix. The matrix shares t.Data.
func (t *Tensor) Dense() (*mat.Dense, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("Dense requires a 2-D tensor, got %v", t.Shape)
	}
	return mat.NewDense(t.Shape[0], t.Shape[1], t.Data), nil
}

// Add returns a+b (same shape), or error if shapes differ.
func Add(a, b *Tensor) (*Tensor, error) {
	if len(a.Shape) != len(b.Shape) {
		return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return nil, fmt.Errorf("shape mismatch: %v vs %v", a.Shape, b.Shape)
		}
	}
	out := a.Clone()
	floats.Add(out.Data, b.Data)
	return out, nil
}

// VecMat returns v×m for a vector v of length rows and a rows×cols tensor m.
func VecMat(v []float64, m *Tensor) ([]float64, error) {
	w, err := m.Dense()
	if err != nil {
		return nil, err
	}
	r, c := w.Dims()
	if len(v) != r {
		return nil, fmt.Errorf("inner dimensions must match: %d vs %d", len(v), r)
	}
	out := mat.NewVecDense(c, nil)
	out.MulVec(w.T(), mat.NewVecDense(r, v))
	return out.RawVector().Data, nil
}

// At returns the element at the given indices.
// For a 2D tensor [a, b], At(i, j) returns the element at position [i][j].
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("At: expected %d indices, got %d", len(t.Shape), len(indices)))
	}
	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("At: index %d out of bounds for dimension %d (shape: %v)", indices[i], i, t.Shape))
		}
		idx += indices[i] * stride
		stride *= t.Shape[i]
	}
	return t.Data[idx]
}
