package rnn

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Conditioned wraps a recurrent cell so that a per-sequence parameter
// vector shapes its dynamics: one linear adapter per named input adds a
// projection of the parameters into that input at every timestep, and one
// more projection produces the initial state.
//
// The wrapped cell must have exactly one state variable.
type Conditioned struct {
	cell      Cell
	numParams int
	adapters  map[string]*nn.Linear
	initial   *nn.Linear
	stateName string
}

// NewConditioned wraps cell so numParams-dimensional parameter vectors
// condition it. Adapter weights start as small Gaussian noise and biases
// at zero.
func NewConditioned(cell Cell, numParams int, rng *rand.Rand, backend tensor.Backend) (*Conditioned, error) {
	stateNames := cell.StateNames()
	if len(stateNames) != 1 {
		return nil, fmt.Errorf("conditioning requires a cell with exactly one state variable, got %d (%v)",
			len(stateNames), stateNames)
	}
	stateName := stateNames[0]

	weightInit := nn.IsotropicGaussian{Std: 0.01}
	biasInit := nn.Constant{Value: 0}

	adapters := make(map[string]*nn.Linear, len(cell.InputNames()))
	for _, name := range cell.InputNames() {
		adapters[name] = nn.NewLinear(numParams, cell.Dim(name), weightInit, biasInit, rng, backend)
	}
	initial := nn.NewLinear(numParams, cell.Dim(stateName), weightInit, biasInit, rng, backend)

	return &Conditioned{
		cell:      cell,
		numParams: numParams,
		adapters:  adapters,
		initial:   initial,
		stateName: stateName,
	}, nil
}

// Cell returns the wrapped cell.
func (c *Conditioned) Cell() Cell { return c.cell }

// NumParams returns the dimensionality of the conditioning vector.
func (c *Conditioned) NumParams() int { return c.numParams }

// StateName returns the name of the wrapped cell's state variable.
func (c *Conditioned) StateName() string { return c.stateName }

// StateDim returns the dimensionality of the wrapped cell's state.
func (c *Conditioned) StateDim() int { return c.cell.Dim(c.stateName) }

// InitialState projects the parameter vectors [batch, numParams] to the
// initial state [batch, stateDim], squashed into the recurrent range.
func (c *Conditioned) InitialState(params *tensor.Tensor) *tensor.Tensor {
	return c.initial.Forward(params).Tanh()
}

// Step advances the wrapped cell by one timestep, adding the projected
// parameters to every named input. A missing input contributes only its
// projection.
func (c *Conditioned) Step(params *tensor.Tensor, states, inputs map[string]*tensor.Tensor) map[string]*tensor.Tensor {
	conditioned := make(map[string]*tensor.Tensor, len(c.adapters))
	for name, adapter := range c.adapters {
		projected := adapter.Forward(params)
		if in, ok := inputs[name]; ok {
			projected = projected.Add(in)
		}
		conditioned[name] = projected
	}
	return c.cell.Step(states, conditioned)
}

// Parameters returns the adapters' parameters, the initial-state
// projection's and the wrapped cell's.
func (c *Conditioned) Parameters() []*nn.Parameter {
	var params []*nn.Parameter
	for _, name := range c.cell.InputNames() {
		params = append(params, c.adapters[name].Parameters()...)
	}
	params = append(params, c.initial.Parameters()...)
	return append(params, c.cell.Parameters()...)
}

// StateDict exports the adapters under "context_<name>.", the initial
// projection under "initial_state." and the cell under "cell.".
func (c *Conditioned) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for name, adapter := range c.adapters {
		for k, raw := range adapter.StateDict() {
			out["context_"+name+"."+k] = raw
		}
	}
	for k, raw := range c.initial.StateDict() {
		out["initial_state."+k] = raw
	}
	for k, raw := range c.cell.StateDict() {
		out["cell."+k] = raw
	}
	return out
}

// LoadStateDict restores the adapters, initial projection and cell.
func (c *Conditioned) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for name, adapter := range c.adapters {
		if err := adapter.LoadStateDict(subStateDict("context_"+name, stateDict)); err != nil {
			return fmt.Errorf("context_%s: %w", name, err)
		}
	}
	if err := c.initial.LoadStateDict(subStateDict("initial_state", stateDict)); err != nil {
		return fmt.Errorf("initial_state: %w", err)
	}
	if err := c.cell.LoadStateDict(subStateDict("cell", stateDict)); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	return nil
}

// subStateDict selects the entries under "<prefix>." and strips the
// prefix.
func subStateDict(prefix string, sd map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	p := prefix + "."
	for name, raw := range sd {
		if len(name) > len(p) && name[:len(p)] == p {
			out[name[len(p):]] = raw
		}
	}
	return out
}
