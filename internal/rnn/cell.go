// Package rnn implements the recurrent sequence generator: a gated
// recurrent cell, a wrapper conditioning the cell on a per-sequence
// parameter vector, a scalar readout, and the generator tying them
// together for teacher-forced training and free-running sampling.
package rnn

import (
	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Cell is a recurrent transition. It declares its named inputs and state
// variables so wrappers can attach a projection to each input without
// knowing the cell's internals.
type Cell interface {
	// InputNames lists the named inputs consumed by Step.
	InputNames() []string

	// StateNames lists the named state variables.
	StateNames() []string

	// Dim returns the dimensionality of a named input or state.
	Dim(name string) int

	// Step advances the state by one timestep. Both maps are keyed by
	// the declared names; every input must be shaped [batch, Dim(name)].
	Step(states, inputs map[string]*tensor.Tensor) map[string]*tensor.Tensor

	// Parameters returns the cell's trainable parameters.
	Parameters() []*nn.Parameter

	// StateDict exports the cell's parameters.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores the cell's parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
