package data_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/data"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

func TestLookup(t *testing.T) {
	f, err := data.Lookup("sine")
	require.NoError(t, err)
	assert.Equal(t, 1, f.NumParams)
	assert.InDelta(t, math.Sin(0.5*3), f.Eval([]float32{0.5}, 3), 1e-6)

	f, err = data.Lookup("scaled-sine")
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumParams)
	assert.InDelta(t, 2*math.Sin(0.5*3), f.Eval([]float32{2, 0.5}, 3), 1e-6)

	_, err = data.Lookup("parabola")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown function")
}

func TestNames(t *testing.T) {
	names := data.Names()
	assert.Contains(t, names, "sine")
	assert.Contains(t, names, "scaled-sine")
	assert.Contains(t, names, "damped-sine")
	assert.Contains(t, names, "chirp")
	assert.IsIncreasing(t, names)
}

func TestFunctionRangesMatchArity(t *testing.T) {
	for _, name := range data.Names() {
		f, err := data.Lookup(name)
		require.NoError(t, err)
		assert.Len(t, f.Ranges, f.NumParams, "function %s", name)
	}
}

func TestSeriesShapes(t *testing.T) {
	backend := cpu.New()
	f, err := data.Lookup("scaled-sine")
	require.NoError(t, err)

	series, err := data.NewSeries(f, 4, 20, 0, 1, backend)
	require.NoError(t, err)

	batch := series.Next()
	assert.True(t, batch.Params.Shape().Equal(tensor.Shape{4, 2}))
	assert.True(t, batch.Sequence.Shape().Equal(tensor.Shape{20, 4, 1}))
}

func TestSeriesValuesMatchFunction(t *testing.T) {
	backend := cpu.New()
	f, err := data.Lookup("sine")
	require.NoError(t, err)

	series, err := data.NewSeries(f, 3, 10, 0, 1, backend)
	require.NoError(t, err)
	batch := series.Next()

	for b := 0; b < 3; b++ {
		freq := batch.Params.At(b, 0)
		r := f.Ranges[0]
		assert.GreaterOrEqual(t, float64(freq), r.Low)
		assert.Less(t, float64(freq), r.High)
		for tt := 0; tt < 10; tt++ {
			want := f.Eval([]float32{freq}, tt)
			assert.InDelta(t, want, batch.Sequence.At(tt, b, 0), 1e-6)
		}
	}
}

func TestSeriesReproducible(t *testing.T) {
	backend := cpu.New()
	f, err := data.Lookup("damped-sine")
	require.NoError(t, err)

	a, err := data.NewSeries(f, 2, 15, 0.1, 42, backend)
	require.NoError(t, err)
	b, err := data.NewSeries(f, 2, 15, 0.1, 42, backend)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ba, bb := a.Next(), b.Next()
		assert.Equal(t, ba.Params.Data(), bb.Params.Data())
		assert.Equal(t, ba.Sequence.Data(), bb.Sequence.Data())
	}
}

func TestSeriesNoiseChangesValues(t *testing.T) {
	backend := cpu.New()
	f, err := data.Lookup("sine")
	require.NoError(t, err)

	clean, err := data.NewSeries(f, 2, 15, 0, 42, backend)
	require.NoError(t, err)
	noisy, err := data.NewSeries(f, 2, 15, 0.5, 42, backend)
	require.NoError(t, err)

	cb, nb := clean.Next(), noisy.Next()
	assert.Equal(t, cb.Params.Data(), nb.Params.Data())
	assert.NotEqual(t, cb.Sequence.Data(), nb.Sequence.Data())
}

func TestSeriesValidation(t *testing.T) {
	backend := cpu.New()
	f, err := data.Lookup("sine")
	require.NoError(t, err)

	_, err = data.NewSeries(f, 0, 10, 0, 1, backend)
	assert.Error(t, err)
	_, err = data.NewSeries(f, 2, 0, 0, 1, backend)
	assert.Error(t, err)
	_, err = data.NewSeries(f, 2, 10, -1, 1, backend)
	assert.Error(t, err)
}

func TestSyntheticMNISTBatches(t *testing.T) {
	backend := cpu.New()
	ds := data.SyntheticMNIST(25)
	assert.Equal(t, 25, ds.NumSamples())

	batches, err := ds.Batches(10, backend)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.True(t, batches[0].Images.Shape().Equal(tensor.Shape{10, 784}))
	assert.True(t, batches[0].Labels.Shape().Equal(tensor.Shape{10}))
	assert.Equal(t, tensor.Int32, batches[0].Labels.DType())

	// Last batch holds the remainder.
	assert.True(t, batches[2].Images.Shape().Equal(tensor.Shape{5, 784}))

	labels := batches[0].Labels.Int32Data()
	for i, label := range labels {
		assert.Equal(t, int32(i%10), label)
	}

	_, err = ds.Batches(0, backend)
	assert.Error(t, err)
}
