package nn

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ Wᵀ + b with
// W of shape [out, in] and b of shape [out].
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter
	backend     tensor.Backend
}

// NewLinear creates a Linear layer, initializing the weight with weightInit
// and the bias with biasInit.
func NewLinear(inFeatures, outFeatures int, weightInit, biasInit Initializer, rng *rand.Rand, backend tensor.Backend) *Linear {
	weight := tensor.Zeros(tensor.Shape{outFeatures, inFeatures}, backend)
	weightInit.Initialize(rng, weight)

	bias := tensor.Zeros(tensor.Shape{outFeatures}, backend)
	biasInit.Initialize(rng, bias)

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
		backend:     backend,
	}
}

// Forward computes y = x @ Wᵀ + b for x of shape [batch, in].
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input [batch, %d], got %v", l.inFeatures, shape))
	}
	output := input.MatMul(l.weight.Tensor().Transpose())
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter { return l.bias }

// InFeatures returns the input dimensionality.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output dimensionality.
func (l *Linear) OutFeatures() int { return l.outFeatures }

// StateDict exports the weight and bias.
func (l *Linear) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
		"bias":   l.bias.Tensor().Raw(),
	}
}

// LoadStateDict loads the weight and bias.
func (l *Linear) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := loadParameter(l.weight, stateDict["weight"], "weight"); err != nil {
		return err
	}
	return loadParameter(l.bias, stateDict["bias"], "bias")
}
