// Package config defines the demo configurations. Every field has an
// explicit value; Validate rejects inconsistent settings before any work
// starts.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Sine configures the sequence-generator demo.
type Sine struct {
	// Mode is "train" or "plot".
	Mode string
	// Prefix is prepended to the files the demo writes; the model lands
	// in "<Prefix>model.npz".
	Prefix string
	// Function names the registered parametric function.
	Function string
	// Dim is the recurrent state dimension.
	Dim int
	// BatchSize is the number of sequences per batch.
	BatchSize int
	// SeqLength is the training sequence length.
	SeqLength int
	// Steps is the number of timesteps generated in plot mode.
	Steps int
	// TrainingSteps bounds training; zero means epochs only.
	TrainingSteps int
	// Epochs bounds training by epochs.
	Epochs int
	// BatchesPerEpoch groups the endless stream into epochs for
	// monitoring.
	BatchesPerEpoch int
	// LearningRate is the SGD learning rate.
	LearningRate float64
	// InputNoise is the std of the Gaussian noise added to the training
	// sequences; zero disables it.
	InputNoise float64
	// Params are the function parameters used in plot mode.
	Params []float32
	// Seed fixes the random source.
	Seed int64
}

// ModelPath returns the path of the saved model.
func (c *Sine) ModelPath() string {
	return c.Prefix + "model.npz"
}

// Validate checks the configuration.
func (c *Sine) Validate() error {
	if c.Mode != "train" && c.Mode != "plot" {
		return fmt.Errorf("mode must be \"train\" or \"plot\", got %q", c.Mode)
	}
	if c.Function == "" {
		return fmt.Errorf("function must be set")
	}
	if c.Dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", c.Dim)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.SeqLength <= 0 {
		return fmt.Errorf("sequence length must be positive, got %d", c.SeqLength)
	}
	if c.Mode == "plot" && c.Steps <= 0 {
		return fmt.Errorf("steps must be positive in plot mode, got %d", c.Steps)
	}
	if c.Mode == "train" && c.Epochs <= 0 && c.TrainingSteps <= 0 {
		return fmt.Errorf("training needs an epoch or step bound")
	}
	if c.BatchesPerEpoch <= 0 {
		return fmt.Errorf("batches per epoch must be positive, got %d", c.BatchesPerEpoch)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	if c.InputNoise < 0 {
		return fmt.Errorf("input noise must be non-negative, got %g", c.InputNoise)
	}
	return nil
}

// MNIST configures the classifier demo.
type MNIST struct {
	// SaveTo is the checkpoint path.
	SaveTo string
	// DataDir holds the IDX files; empty falls back to synthetic data.
	DataDir string
	// Epochs is the number of training epochs.
	Epochs int
	// BatchSize is the mini-batch size.
	BatchSize int
	// HiddenDim is the size of the hidden layer.
	HiddenDim int
	// LearningRate is the SGD learning rate.
	LearningRate float64
	// WeightDecay is the L2 penalty coefficient on the weights.
	WeightDecay float64
	// PlotPath, when set, enables the training-curve plot.
	PlotPath string
	// Resume restores model and optimizer state from SaveTo before
	// training.
	Resume bool
	// Seed fixes the random source.
	Seed int64
}

// Validate checks the configuration.
func (c *MNIST) Validate() error {
	if c.SaveTo == "" {
		return fmt.Errorf("save path must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.HiddenDim <= 0 {
		return fmt.Errorf("hidden dim must be positive, got %d", c.HiddenDim)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("weight decay must be non-negative, got %g", c.WeightDecay)
	}
	return nil
}

// ParseParams parses a whitespace-separated list of floats, as given to
// the --params flag.
func ParseParams(s string) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no parameters given")
	}
	params := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", field, err)
		}
		params[i] = float32(v)
	}
	return params, nil
}
