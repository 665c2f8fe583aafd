package nn

import "github.com/laurent-dinh/blocks/internal/tensor"

// Activation is an elementwise (or rowwise, for Softmax) nonlinearity
// applied between layers.
type Activation interface {
	Apply(t *tensor.Tensor) *tensor.Tensor
	Name() string
}

// Tanh applies the hyperbolic tangent.
type Tanh struct{}

func (Tanh) Apply(t *tensor.Tensor) *tensor.Tensor { return t.Tanh() }
func (Tanh) Name() string                          { return "tanh" }

// Sigmoid applies the logistic sigmoid.
type Sigmoid struct{}

func (Sigmoid) Apply(t *tensor.Tensor) *tensor.Tensor { return t.Sigmoid() }
func (Sigmoid) Name() string                          { return "sigmoid" }

// Softmax normalizes each row into a probability distribution.
type Softmax struct{}

func (Softmax) Apply(t *tensor.Tensor) *tensor.Tensor { return t.Softmax() }
func (Softmax) Name() string                          { return "softmax" }

// Identity passes its input through unchanged.
type Identity struct{}

func (Identity) Apply(t *tensor.Tensor) *tensor.Tensor { return t }
func (Identity) Name() string                          { return "identity" }
