// Package optim implements gradient-descent optimizers. An optimizer owns
// the list of parameters it updates; Step applies one update in place from
// a gradient map produced by the autodiff backward pass.
package optim

import (
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Optimizer updates parameters in place from computed gradients.
type Optimizer interface {
	// Step applies one update. Parameters with no gradient in the map
	// are left unchanged.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// LearningRate returns the current learning rate.
	LearningRate() float32

	// SetLearningRate changes the learning rate for subsequent steps.
	SetLearningRate(lr float32)

	// StateDict exports the optimizer's internal state (velocities,
	// moments) for checkpointing.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores the internal state from a checkpoint.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
