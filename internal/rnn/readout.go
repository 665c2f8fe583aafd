package rnn

import (
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Readout maps a recurrent state to a scalar emission and scores it
// against a target with squared error.
type Readout struct {
	linear *nn.Linear
}

// NewReadout creates a readout from stateDim-dimensional states to
// one-dimensional emissions.
func NewReadout(stateDim int, rng *rand.Rand, backend tensor.Backend) *Readout {
	linear := nn.NewLinear(stateDim, 1,
		nn.IsotropicGaussian{Std: 0.01}, nn.Constant{Value: 0}, rng, backend)
	return &Readout{linear: linear}
}

// Emit maps states [batch, stateDim] to emissions [batch, 1].
func (r *Readout) Emit(states *tensor.Tensor) *tensor.Tensor {
	return r.linear.Forward(states)
}

// Cost returns the squared error between an emission and a target, summed
// over the feature axis: [batch, 1] -> [batch].
func (r *Readout) Cost(emission, target *tensor.Tensor) *tensor.Tensor {
	diff := emission.Sub(target)
	return diff.Mul(diff).SumDim(1, false)
}

// Parameters returns the readout's parameters.
func (r *Readout) Parameters() []*nn.Parameter {
	return r.linear.Parameters()
}

// StateDict exports the readout projection.
func (r *Readout) StateDict() map[string]*tensor.RawTensor {
	return r.linear.StateDict()
}

// LoadStateDict restores the readout projection.
func (r *Readout) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return r.linear.LoadStateDict(stateDict)
}
