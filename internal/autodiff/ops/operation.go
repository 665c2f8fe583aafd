// Package ops defines the differentiable operations recorded on the
// gradient tape. Each operation keeps references to its input and output
// RawTensors from the forward pass and knows how to turn an upstream
// gradient into gradients for its inputs.
package ops

import "github.com/laurent-dinh/blocks/internal/tensor"

// Operation is one recorded step of the forward computation.
type Operation interface {
	// Backward computes gradients for the inputs given the output
	// gradient. The returned slice is parallel to Inputs(); entries may
	// be nil for non-differentiable inputs (e.g. class targets).
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
