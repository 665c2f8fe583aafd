package nn

import "github.com/laurent-dinh/blocks/internal/tensor"

// Parameter is a named trainable tensor. Parameters are allocated and
// initialized by the module that owns them and updated in place by the
// optimizer between steps.
type Parameter struct {
	name   string
	tensor *tensor.Tensor
}

// NewParameter creates a parameter around an initialized tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}
