package data

import (
	"fmt"
	"math/rand"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Batch is one draw from a series stream: per-sequence parameter vectors
// and the sequences they generate.
type Batch struct {
	// Params has shape [batch, numParams].
	Params *tensor.Tensor
	// Sequence has shape [length, batch, 1].
	Sequence *tensor.Tensor
}

// Series is an endless stream of freshly sampled function batches.
// Parameters are drawn uniformly from the function's ranges; optional
// Gaussian noise is added to the generated values. A fixed seed makes the
// stream reproducible.
type Series struct {
	function  Function
	batchSize int
	length    int
	noiseStd  float64
	rng       *rand.Rand
	backend   tensor.Backend
}

// NewSeries creates a series stream. noiseStd of zero disables the input
// noise.
func NewSeries(function Function, batchSize, length int, noiseStd float64, seed int64, backend tensor.Backend) (*Series, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if length <= 0 {
		return nil, fmt.Errorf("sequence length must be positive, got %d", length)
	}
	if noiseStd < 0 {
		return nil, fmt.Errorf("noise std must be non-negative, got %g", noiseStd)
	}
	return &Series{
		function:  function,
		batchSize: batchSize,
		length:    length,
		noiseStd:  noiseStd,
		rng:       rand.New(rand.NewSource(seed)),
		backend:   backend,
	}, nil
}

// Function returns the underlying parametric function.
func (s *Series) Function() Function { return s.function }

// Next samples the next batch.
func (s *Series) Next() Batch {
	numParams := s.function.NumParams
	params := tensor.Zeros(tensor.Shape{s.batchSize, numParams}, s.backend)
	paramData := params.Data()
	for b := 0; b < s.batchSize; b++ {
		for p := 0; p < numParams; p++ {
			r := s.function.Ranges[p]
			paramData[b*numParams+p] = float32(r.Low + s.rng.Float64()*(r.High-r.Low))
		}
	}

	sequence := tensor.Zeros(tensor.Shape{s.length, s.batchSize, 1}, s.backend)
	seqData := sequence.Data()
	for t := 0; t < s.length; t++ {
		for b := 0; b < s.batchSize; b++ {
			value := s.function.Eval(paramData[b*numParams:(b+1)*numParams], t)
			if s.noiseStd > 0 {
				value += s.rng.NormFloat64() * s.noiseStd
			}
			seqData[t*s.batchSize+b] = float32(value)
		}
	}

	return Batch{Params: params, Sequence: sequence}
}
