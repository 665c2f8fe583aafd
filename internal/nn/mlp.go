package nn

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// MLP is a stack of Linear layers with an activation after each one.
// dims has one more entry than activations: dims[0] is the input size and
// each following entry is a layer's output size.
type MLP struct {
	layers      []*Linear
	activations []Activation
}

// NewMLP builds an MLP. Weights are initialized with weightInit and biases
// with biasInit.
func NewMLP(dims []int, activations []Activation, weightInit, biasInit Initializer, rng *rand.Rand, backend tensor.Backend) *MLP {
	if len(dims) < 2 {
		panic("NewMLP: need at least an input and an output dimension")
	}
	if len(activations) != len(dims)-1 {
		panic(fmt.Sprintf("NewMLP: %d layers but %d activations", len(dims)-1, len(activations)))
	}

	layers := make([]*Linear, len(dims)-1)
	for i := range layers {
		layers[i] = NewLinear(dims[i], dims[i+1], weightInit, biasInit, rng, backend)
	}
	return &MLP{layers: layers, activations: activations}
}

// Forward applies every layer and its activation in turn.
func (m *MLP) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := input
	for i, layer := range m.layers {
		out = m.activations[i].Apply(layer.Forward(out))
	}
	return out
}

// Layers returns the linear layers.
func (m *MLP) Layers() []*Linear { return m.layers }

// Parameters returns the parameters of every layer, first to last.
func (m *MLP) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// StateDict exports every layer under a "linear_<i>." prefix.
func (m *MLP) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for i, layer := range m.layers {
		for name, raw := range prefixStateDict(fmt.Sprintf("linear_%d", i), layer.StateDict()) {
			out[name] = raw
		}
	}
	return out
}

// LoadStateDict loads every layer from its "linear_<i>." prefix.
func (m *MLP) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, layer := range m.layers {
		sub := extractStateDict(fmt.Sprintf("linear_%d", i), stateDict)
		if err := layer.LoadStateDict(sub); err != nil {
			return fmt.Errorf("linear_%d: %w", i, err)
		}
	}
	return nil
}
