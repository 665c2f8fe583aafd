package rnn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/rnn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

func fromSlice(t *testing.T, backend tensor.Backend, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return out
}

func TestGatedRecurrentNames(t *testing.T) {
	backend := cpu.New()
	cell := rnn.NewGatedRecurrent(5, rand.New(rand.NewSource(1)), backend)

	assert.ElementsMatch(t, []string{"inputs", "update_inputs", "reset_inputs"}, cell.InputNames())
	assert.Equal(t, []string{"states"}, cell.StateNames())
	for _, name := range cell.InputNames() {
		assert.Equal(t, 5, cell.Dim(name))
	}
	assert.Equal(t, 5, cell.Dim("states"))
	assert.Panics(t, func() { cell.Dim("bogus") })
}

func TestGatedRecurrentStepMath(t *testing.T) {
	backend := cpu.New()
	cell := rnn.NewGatedRecurrent(1, rand.New(rand.NewSource(1)), backend)

	w, wz, wr := float32(0.5), float32(-0.3), float32(0.8)
	require.NoError(t, cell.LoadStateDict(map[string]*tensor.RawTensor{
		"state_to_state":  rawScalar(w),
		"state_to_update": rawScalar(wz),
		"state_to_reset":  rawScalar(wr),
	}))

	h0, x, xz, xr := float32(0.2), float32(0.4), float32(-0.1), float32(0.3)
	states := map[string]*tensor.Tensor{
		"states": fromSlice(t, backend, []float32{h0}, tensor.Shape{1, 1}),
	}
	inputs := map[string]*tensor.Tensor{
		"inputs":        fromSlice(t, backend, []float32{x}, tensor.Shape{1, 1}),
		"update_inputs": fromSlice(t, backend, []float32{xz}, tensor.Shape{1, 1}),
		"reset_inputs":  fromSlice(t, backend, []float32{xr}, tensor.Shape{1, 1}),
	}

	next := cell.Step(states, inputs)["states"]
	require.True(t, next.Shape().Equal(tensor.Shape{1, 1}))

	sigmoid := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	r := sigmoid(float64(h0*wr + xr))
	z := sigmoid(float64(h0*wz + xz))
	c := math.Tanh(r*float64(h0)*float64(w) + float64(x))
	want := z*c + (1-z)*float64(h0)
	assert.InDelta(t, want, float64(next.Item()), 1e-5)
}

func TestGatedRecurrentStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	src := rnn.NewGatedRecurrent(4, rng, backend)
	dst := rnn.NewGatedRecurrent(4, rng, backend)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	for i, p := range src.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Parameters()[i].Tensor().Data())
	}
}

func rawScalar(v float32) *tensor.RawTensor {
	raw := tensor.MustRaw(tensor.Shape{1, 1}, tensor.Float32)
	raw.AsFloat32()[0] = v
	return raw
}

// twoStateCell is a stub with two state variables, which conditioning
// must refuse.
type twoStateCell struct{}

func (twoStateCell) InputNames() []string { return []string{"inputs"} }
func (twoStateCell) StateNames() []string { return []string{"states", "cells"} }
func (twoStateCell) Dim(string) int       { return 1 }
func (twoStateCell) Step(_, _ map[string]*tensor.Tensor) map[string]*tensor.Tensor {
	return nil
}
func (twoStateCell) Parameters() []*nn.Parameter                      { return nil }
func (twoStateCell) StateDict() map[string]*tensor.RawTensor          { return nil }
func (twoStateCell) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func TestConditionedRejectsMultiStateCell(t *testing.T) {
	backend := cpu.New()
	_, err := rnn.NewConditioned(twoStateCell{}, 2, rand.New(rand.NewSource(1)), backend)
	require.Error(t, err)
	assert.ErrorContains(t, err, "exactly one state variable")
}

func TestConditionedAdapterLayout(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	const dim, numParams = 6, 2

	cell := rnn.NewGatedRecurrent(dim, rng, backend)
	cond, err := rnn.NewConditioned(cell, numParams, rng, backend)
	require.NoError(t, err)

	assert.Equal(t, numParams, cond.NumParams())
	assert.Equal(t, "states", cond.StateName())
	assert.Equal(t, dim, cond.StateDim())

	// One adapter (weight+bias) per input, one initial-state projection,
	// plus the cell's three recurrent matrices.
	assert.Len(t, cond.Parameters(), 3*2+2+3)

	sd := cond.StateDict()
	for _, name := range cell.InputNames() {
		w, ok := sd["context_"+name+".weight"]
		require.True(t, ok, "missing adapter for %s", name)
		assert.True(t, w.Shape().Equal(tensor.Shape{dim, numParams}))
	}
	init, ok := sd["initial_state.weight"]
	require.True(t, ok)
	assert.True(t, init.Shape().Equal(tensor.Shape{dim, numParams}))
}

func TestConditionedInitialStateShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	cell := rnn.NewGatedRecurrent(4, rng, backend)
	cond, err := rnn.NewConditioned(cell, 3, rng, backend)
	require.NoError(t, err)

	params := fromSlice(t, backend, make([]float32, 2*3), tensor.Shape{2, 3})
	state := cond.InitialState(params)
	assert.True(t, state.Shape().Equal(tensor.Shape{2, 4}))
	for _, v := range state.Data() {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestConditionedStepShape(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	cell := rnn.NewGatedRecurrent(4, rng, backend)
	cond, err := rnn.NewConditioned(cell, 2, rng, backend)
	require.NoError(t, err)

	params := fromSlice(t, backend, []float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{2, 2})
	states := map[string]*tensor.Tensor{"states": cond.InitialState(params)}

	// Conditioning alone must be enough to step the cell.
	next := cond.Step(params, states, nil)
	require.Contains(t, next, "states")
	assert.True(t, next["states"].Shape().Equal(tensor.Shape{2, 4}))
}

func TestReadoutCost(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	readout := rnn.NewReadout(4, rng, backend)

	emission := fromSlice(t, backend, []float32{1, -2}, tensor.Shape{2, 1})
	same := fromSlice(t, backend, []float32{1, -2}, tensor.Shape{2, 1})
	cost := readout.Cost(emission, same)
	require.True(t, cost.Shape().Equal(tensor.Shape{2}))
	assert.Equal(t, []float32{0, 0}, cost.Data())

	target := fromSlice(t, backend, []float32{0, 0}, tensor.Shape{2, 1})
	cost = readout.Cost(emission, target)
	assert.InDeltaSlice(t, []float32{1, 4}, cost.Data(), 1e-6)
}

func TestGeneratorCostAndGenerate(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	const dim, numParams, batch, length = 5, 1, 3, 7

	cell := rnn.NewGatedRecurrent(dim, rng, backend)
	cond, err := rnn.NewConditioned(cell, numParams, rng, backend)
	require.NoError(t, err)
	gen := rnn.NewGenerator(cond, rng, backend)

	params := fromSlice(t, backend, []float32{0.1, 0.2, 0.3}, tensor.Shape{batch, numParams})
	sequence := tensor.Zeros(tensor.Shape{length, batch, 1}, backend)
	for i := range sequence.Data() {
		sequence.Data()[i] = float32(i%5) * 0.1
	}

	cost := gen.Cost(params, sequence)
	require.True(t, cost.Shape().Equal(tensor.Shape{1}))
	assert.GreaterOrEqual(t, cost.Item(), float32(0))

	out := gen.Generate(params, 11)
	assert.True(t, out.Shape().Equal(tensor.Shape{11, batch, 1}))
}

func TestGeneratorCostRejectsBadSequence(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	cell := rnn.NewGatedRecurrent(3, rng, backend)
	cond, err := rnn.NewConditioned(cell, 1, rng, backend)
	require.NoError(t, err)
	gen := rnn.NewGenerator(cond, rng, backend)

	params := fromSlice(t, backend, []float32{0.5}, tensor.Shape{1, 1})
	bad := tensor.Zeros(tensor.Shape{4, 1, 2}, backend)
	assert.Panics(t, func() { gen.Cost(params, bad) })
}

func TestGeneratorStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	const dim, numParams = 4, 2

	build := func(seed int64) *rnn.Generator {
		rng := rand.New(rand.NewSource(seed))
		cell := rnn.NewGatedRecurrent(dim, rng, backend)
		cond, err := rnn.NewConditioned(cell, numParams, rng, backend)
		require.NoError(t, err)
		return rnn.NewGenerator(cond, rng, backend)
	}

	src := build(1)
	dst := build(2)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	params := fromSlice(t, backend, []float32{0.3, -0.2}, tensor.Shape{1, numParams})
	want := src.Generate(params, 9).Data()
	got := dst.Generate(params, 9).Data()
	assert.InDeltaSlice(t, want, got, 1e-6)
}
