package rnn

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Generator ties a conditioned transition and a readout into a sequence
// generator. The previous emission feeds back into every named input of
// the transition through its own linear projection; at the first timestep
// the feedback is zero.
type Generator struct {
	transition *Conditioned
	readout    *Readout
	feedback   map[string]*nn.Linear
	backend    tensor.Backend
}

// NewGenerator creates a generator around a conditioned transition.
func NewGenerator(transition *Conditioned, rng *rand.Rand, backend tensor.Backend) *Generator {
	weightInit := nn.IsotropicGaussian{Std: 0.01}
	biasInit := nn.Constant{Value: 0}

	cell := transition.Cell()
	feedback := make(map[string]*nn.Linear, len(cell.InputNames()))
	for _, name := range cell.InputNames() {
		feedback[name] = nn.NewLinear(1, cell.Dim(name), weightInit, biasInit, rng, backend)
	}

	return &Generator{
		transition: transition,
		readout:    NewReadout(transition.StateDim(), rng, backend),
		feedback:   feedback,
		backend:    backend,
	}
}

// Transition returns the conditioned transition.
func (g *Generator) Transition() *Conditioned { return g.transition }

// Readout returns the readout.
func (g *Generator) Readout() *Readout { return g.readout }

// Cost runs the generator teacher-forced over sequence [length, batch, 1]
// conditioned on params [batch, numParams] and returns the scalar training
// cost: squared error summed over features and time, averaged over the
// batch.
func (g *Generator) Cost(params, sequence *tensor.Tensor) *tensor.Tensor {
	shape := sequence.Shape()
	if len(shape) != 3 || shape[2] != 1 {
		panic(fmt.Sprintf("Generator.Cost: expected sequence [length, batch, 1], got %v", shape))
	}
	length, batch := shape[0], shape[1]

	states := map[string]*tensor.Tensor{
		g.transition.StateName(): g.transition.InitialState(params),
	}

	var total *tensor.Tensor
	var previous *tensor.Tensor
	for t := 0; t < length; t++ {
		inputs := g.feedbackInputs(previous, batch)
		states = g.transition.Step(params, states, inputs)

		emission := g.readout.Emit(states[g.transition.StateName()])
		target := timeStep(sequence, t, g.backend)
		stepCost := g.readout.Cost(emission, target)
		if total == nil {
			total = stepCost
		} else {
			total = total.Add(stepCost)
		}

		previous = target
	}
	return total.Sum().MulScalar(1 / float32(batch))
}

// Generate runs the generator free-running for the given number of steps,
// feeding each emission back as the next input. Returns the generated
// sequence [steps, batch, 1].
func (g *Generator) Generate(params *tensor.Tensor, steps int) *tensor.Tensor {
	batch := params.Shape()[0]

	states := map[string]*tensor.Tensor{
		g.transition.StateName(): g.transition.InitialState(params),
	}
	out := tensor.Zeros(tensor.Shape{steps, batch, 1}, g.backend)
	outData := out.Data()

	var previous *tensor.Tensor
	for t := 0; t < steps; t++ {
		inputs := g.feedbackInputs(previous, batch)
		states = g.transition.Step(params, states, inputs)

		emission := g.readout.Emit(states[g.transition.StateName()])
		copy(outData[t*batch:(t+1)*batch], emission.Data())
		previous = emission
	}
	return out
}

// feedbackInputs projects the previous emission into every named input.
// A nil previous emission (the first timestep) yields no inputs, so the
// transition sees only the conditioning projections.
func (g *Generator) feedbackInputs(previous *tensor.Tensor, batch int) map[string]*tensor.Tensor {
	if previous == nil {
		return nil
	}
	inputs := make(map[string]*tensor.Tensor, len(g.feedback))
	for name, proj := range g.feedback {
		inputs[name] = proj.Forward(previous)
	}
	return inputs
}

// timeStep copies timestep t of sequence [length, batch, 1] into a fresh
// [batch, 1] tensor. Targets are constants, so the copy stays off the
// tape.
func timeStep(sequence *tensor.Tensor, t int, backend tensor.Backend) *tensor.Tensor {
	batch := sequence.Shape()[1]
	step := tensor.Zeros(tensor.Shape{batch, 1}, backend)
	copy(step.Data(), sequence.Data()[t*batch:(t+1)*batch])
	return step
}

// Parameters returns every trainable parameter of the generator.
func (g *Generator) Parameters() []*nn.Parameter {
	params := g.transition.Parameters()
	params = append(params, g.readout.Parameters()...)
	for _, name := range g.transition.Cell().InputNames() {
		params = append(params, g.feedback[name].Parameters()...)
	}
	return params
}

// StateDict exports the transition under "transition.", the readout under
// "readout." and the feedback projections under "feedback_<name>.".
func (g *Generator) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for k, raw := range g.transition.StateDict() {
		out["transition."+k] = raw
	}
	for k, raw := range g.readout.StateDict() {
		out["readout."+k] = raw
	}
	for name, proj := range g.feedback {
		for k, raw := range proj.StateDict() {
			out["feedback_"+name+"."+k] = raw
		}
	}
	return out
}

// LoadStateDict restores the transition, readout and feedback projections.
func (g *Generator) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := g.transition.LoadStateDict(subStateDict("transition", stateDict)); err != nil {
		return fmt.Errorf("transition: %w", err)
	}
	if err := g.readout.LoadStateDict(subStateDict("readout", stateDict)); err != nil {
		return fmt.Errorf("readout: %w", err)
	}
	for name, proj := range g.feedback {
		if err := proj.LoadStateDict(subStateDict("feedback_"+name, stateDict)); err != nil {
			return fmt.Errorf("feedback_%s: %w", name, err)
		}
	}
	return nil
}
