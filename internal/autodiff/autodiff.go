// Package autodiff implements reverse-mode automatic differentiation as a
// decorator around any tensor.Backend. The decorator forwards every
// operation to the wrapped backend and, while recording is enabled, pushes
// an entry onto a gradient tape. Walking the tape in reverse applies the
// chain rule and yields a gradient per input tensor.
package autodiff

import (
	"github.com/laurent-dinh/blocks/internal/autodiff/ops"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Backend wraps a compute backend and records operations on a tape.
type Backend struct {
	inner tensor.Backend
	tape  *Tape
}

// New creates an autodiff Backend wrapping the given compute backend.
func New(inner tensor.Backend) *Backend {
	return &Backend{inner: inner, tape: NewTape()}
}

// Tape returns the gradient tape for recording control.
func (b *Backend) Tape() *Tape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "autodiff(" + b.inner.Name() + ")"
}

// Add performs element-wise addition and records the operation.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, out))
	return out
}

// Reshape reshapes a tensor and records the operation so gradients reach
// the original parameter, not just the reshaped copy.
func (b *Backend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(x, newShape)
	b.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

// Transpose transposes a 2-D tensor and records the operation.
func (b *Backend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Transpose(x)
	b.tape.Record(ops.NewTransposeOp(x, out))
	return out
}

// MulScalar multiplies by a constant and records the operation.
func (b *Backend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := b.inner.MulScalar(x, s)
	b.tape.Record(ops.NewMulScalarOp(x, out, s))
	return out
}

// AddScalar adds a constant and records the operation.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := b.inner.AddScalar(x, s)
	b.tape.Record(ops.NewAddScalarOp(x, out))
	return out
}

// Tanh applies tanh and records the operation.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Tanh(x)
	b.tape.Record(ops.NewTanhOp(x, out))
	return out
}

// Sigmoid applies the logistic function and records the operation.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sigmoid(x)
	b.tape.Record(ops.NewSigmoidOp(x, out))
	return out
}

// Softmax normalizes along the last dimension and records the operation.
func (b *Backend) Softmax(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Softmax(x)
	b.tape.Record(ops.NewSoftmaxOp(x, out))
	return out
}

// Sum reduces to a scalar and records the operation.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, out))
	return out
}

// SumDim sums along one dimension and records the operation.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := b.inner.SumDim(x, dim, keepDim)
	b.tape.Record(ops.NewSumDimOp(x, out, dim))
	return out
}

// CrossEntropy computes the classification loss and records the operation.
func (b *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.CrossEntropy(logits, targets)
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out))
	return out
}

// Argmax is not differentiable; it passes through without recording.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}
