package rnn

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Names of the gated cell's inputs and state.
const (
	InputsName       = "inputs"
	UpdateInputsName = "update_inputs"
	ResetInputsName  = "reset_inputs"
	StatesName       = "states"
)

// GatedRecurrent is a gated recurrent unit. Given state h and the three
// gate inputs x, xz, xr (already projected to the state dimension):
//
//	r  = sigmoid(h Wrᵀ + xr)
//	z  = sigmoid(h Wzᵀ + xz)
//	c  = tanh((r*h) Wᵀ + x)
//	h' = z*c + (1-z)*h
//
// The three recurrent weight matrices are initialized orthogonally.
type GatedRecurrent struct {
	dim           int
	stateToState  *nn.Parameter
	stateToUpdate *nn.Parameter
	stateToReset  *nn.Parameter
	backend       tensor.Backend
}

// NewGatedRecurrent creates a gated recurrent cell with the given state
// dimension.
func NewGatedRecurrent(dim int, rng *rand.Rand, backend tensor.Backend) *GatedRecurrent {
	newWeight := func(name string) *nn.Parameter {
		w := tensor.Zeros(tensor.Shape{dim, dim}, backend)
		nn.Orthogonal{}.Initialize(rng, w)
		return nn.NewParameter(name, w)
	}
	return &GatedRecurrent{
		dim:           dim,
		stateToState:  newWeight("state_to_state"),
		stateToUpdate: newWeight("state_to_update"),
		stateToReset:  newWeight("state_to_reset"),
		backend:       backend,
	}
}

// InputNames lists the three gate inputs.
func (g *GatedRecurrent) InputNames() []string {
	return []string{InputsName, UpdateInputsName, ResetInputsName}
}

// StateNames lists the single state variable.
func (g *GatedRecurrent) StateNames() []string {
	return []string{StatesName}
}

// Dim returns the state dimension; every input and state of this cell has
// the same dimensionality.
func (g *GatedRecurrent) Dim(name string) int {
	switch name {
	case InputsName, UpdateInputsName, ResetInputsName, StatesName:
		return g.dim
	default:
		panic(fmt.Sprintf("GatedRecurrent: unknown name %q", name))
	}
}

// Step advances the state by one timestep.
func (g *GatedRecurrent) Step(states, inputs map[string]*tensor.Tensor) map[string]*tensor.Tensor {
	h := states[StatesName]
	if h == nil {
		panic("GatedRecurrent.Step: missing state")
	}

	reset := h.MatMul(g.stateToReset.Tensor().Transpose()).
		Add(inputs[ResetInputsName]).Sigmoid()
	update := h.MatMul(g.stateToUpdate.Tensor().Transpose()).
		Add(inputs[UpdateInputsName]).Sigmoid()
	candidate := reset.Mul(h).MatMul(g.stateToState.Tensor().Transpose()).
		Add(inputs[InputsName]).Tanh()

	keep := update.MulScalar(-1).AddScalar(1)
	next := update.Mul(candidate).Add(keep.Mul(h))
	return map[string]*tensor.Tensor{StatesName: next}
}

// Parameters returns the three recurrent weight matrices.
func (g *GatedRecurrent) Parameters() []*nn.Parameter {
	return []*nn.Parameter{g.stateToState, g.stateToUpdate, g.stateToReset}
}

// StateDict exports the recurrent weights.
func (g *GatedRecurrent) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"state_to_state":  g.stateToState.Tensor().Raw(),
		"state_to_update": g.stateToUpdate.Tensor().Raw(),
		"state_to_reset":  g.stateToReset.Tensor().Raw(),
	}
}

// LoadStateDict restores the recurrent weights.
func (g *GatedRecurrent) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for name, param := range map[string]*nn.Parameter{
		"state_to_state":  g.stateToState,
		"state_to_update": g.stateToUpdate,
		"state_to_reset":  g.stateToReset,
	} {
		raw := stateDict[name]
		if raw == nil {
			return fmt.Errorf("missing %s in state dict", name)
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v",
				name, param.Tensor().Shape(), raw.Shape())
		}
		copy(param.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}
