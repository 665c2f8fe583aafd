// Package tensor provides dense tensors and the Backend interface the rest
// of the framework is written against. A Tensor pairs a RawTensor with the
// Backend that produced it, so model code can chain operations without
// threading the backend through every call.
package tensor

import "fmt"

// Tensor is the user-facing tensor type. Operations delegate to the
// attached Backend, which may be a plain compute backend or an autodiff
// decorator that records the operation for backpropagation.
type Tensor struct {
	raw     *RawTensor
	backend Backend
}

// New creates a Tensor from a RawTensor and a backend.
func New(raw *RawTensor, b Backend) *Tensor {
	return &Tensor{raw: raw, backend: b}
}

// FromSlice creates a float32 tensor from a Go slice. The data is copied.
func FromSlice(data []float32, shape Shape, b Backend) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsFloat32(), data)
	return New(raw, b), nil
}

// FromInt32Slice creates an int32 tensor from a Go slice. The data is copied.
func FromInt32Slice(data []int32, shape Shape, b Backend) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, Int32)
	if err != nil {
		return nil, err
	}
	copy(raw.AsInt32(), data)
	return New(raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.raw.Shape() }

// DType returns the tensor's element type.
func (t *Tensor) DType() DataType { return t.raw.DType() }

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying RawTensor.
func (t *Tensor) Raw() *RawTensor { return t.raw }

// Backend returns the computation backend.
func (t *Tensor) Backend() Backend { return t.backend }

// Data returns the float32 view of the tensor's buffer.
// Modifications to the returned slice modify the tensor.
func (t *Tensor) Data() []float32 { return t.raw.AsFloat32() }

// Int32Data returns the int32 view of the tensor's buffer.
func (t *Tensor) Int32Data() []int32 { return t.raw.AsInt32() }

// Item returns the value of a single-element float32 tensor.
func (t *Tensor) Item() float32 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() requires a single-element tensor, got shape %v", t.Shape()))
	}
	return t.raw.AsFloat32()[0]
}

// At returns the float32 element at the given indices.
func (t *Tensor) At(indices ...int) float32 {
	return t.raw.AsFloat32()[t.offsetOf(indices)]
}

// Set assigns the float32 element at the given indices.
func (t *Tensor) Set(value float32, indices ...int) {
	t.raw.AsFloat32()[t.offsetOf(indices)] = value
}

func (t *Tensor) offsetOf(indices []int) int {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{raw: t.raw.Clone(), backend: t.backend}
}

// Add returns t + other (element-wise, broadcasting).
func (t *Tensor) Add(other *Tensor) *Tensor {
	return New(t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns t - other (element-wise, broadcasting).
func (t *Tensor) Sub(other *Tensor) *Tensor {
	return New(t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns t * other (element-wise, broadcasting).
func (t *Tensor) Mul(other *Tensor) *Tensor {
	return New(t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul returns the 2-D matrix product t @ other.
func (t *Tensor) MatMul(other *Tensor) *Tensor {
	return New(t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Transpose returns the 2-D transpose of t.
func (t *Tensor) Transpose() *Tensor {
	return New(t.backend.Transpose(t.raw), t.backend)
}

// Reshape returns t reinterpreted under a new shape.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	return New(t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// MulScalar returns t * s.
func (t *Tensor) MulScalar(s float32) *Tensor {
	return New(t.backend.MulScalar(t.raw, s), t.backend)
}

// AddScalar returns t + s.
func (t *Tensor) AddScalar(s float32) *Tensor {
	return New(t.backend.AddScalar(t.raw, s), t.backend)
}

// Tanh applies the hyperbolic tangent element-wise.
func (t *Tensor) Tanh() *Tensor {
	return New(t.backend.Tanh(t.raw), t.backend)
}

// Sigmoid applies the logistic function element-wise.
func (t *Tensor) Sigmoid() *Tensor {
	return New(t.backend.Sigmoid(t.raw), t.backend)
}

// Softmax normalizes along the last dimension.
func (t *Tensor) Softmax() *Tensor {
	return New(t.backend.Softmax(t.raw), t.backend)
}

// Sum reduces the tensor to a single-element tensor.
func (t *Tensor) Sum() *Tensor {
	return New(t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along one dimension.
func (t *Tensor) SumDim(dim int, keepDim bool) *Tensor {
	return New(t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// String returns a short human-readable description.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.DType(), t.Shape(), t.backend.Name())
}
