package tensor

import "fmt"

// Tensor is a dense row-major float32 array. Image batches use the
// [batch, channel, height, width] layout throughout this module.
type Tensor struct {
	Data    []float32
	Shape   []int // row-major
	Strides []int
}

// New allocates a zero-filled tensor with the given shape.
func New(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return Tensor{Data: make([]float32, n), Shape: shape, Strides: stridesOf(shape)}
}

// FromSlice wraps an existing slice without copying. The data length must
// match the shape exactly.
func FromSlice(data []float32, shape ...int) (Tensor, error) {
	want := 1
	for _, d := range shape {
		want *= d
	}
	if len(data) != want {
		return Tensor{}, fmt.Errorf("data length %d does not match shape %v (want %d)", len(data), shape, want)
	}
	return Tensor{Data: data, Shape: shape, Strides: stridesOf(shape)}, nil
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

// Size returns the number of elements implied by the shape.
func (t Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int {
	return len(t.Shape)
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	data := make([]float32, len(t.Data))
	copy(data, t.Data)
	shape := make([]int, len(t.Shape))
	copy(shape, t.Shape)
	return Tensor{Data: data, Shape: shape, Strides: stridesOf(shape)}
}

// At reads the element at the given multi-dimensional index.
func (t Tensor) At(idx ...int) float32 {
	off := 0
	for i, v := range idx {
		off += v * t.Strides[i]
	}
	return t.Data[off]
}

// Set writes the element at the given multi-dimensional index.
func (t Tensor) Set(v float32, idx ...int) {
	off := 0
	for i, d := range idx {
		off += d * t.Strides[i]
	}
	t.Data[off] = v
}
