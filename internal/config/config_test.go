package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/config"
)

func validSine() *config.Sine {
	return &config.Sine{
		Mode:            "train",
		Function:        "sine",
		Dim:             10,
		BatchSize:       10,
		SeqLength:       100,
		Steps:           100,
		Epochs:          2,
		BatchesPerEpoch: 100,
		LearningRate:    0.0001,
	}
}

func TestSineValidate(t *testing.T) {
	require.NoError(t, validSine().Validate())

	tests := []struct {
		name   string
		mutate func(*config.Sine)
	}{
		{"bad mode", func(c *config.Sine) { c.Mode = "sample" }},
		{"empty function", func(c *config.Sine) { c.Function = "" }},
		{"zero dim", func(c *config.Sine) { c.Dim = 0 }},
		{"zero batch", func(c *config.Sine) { c.BatchSize = 0 }},
		{"zero length", func(c *config.Sine) { c.SeqLength = 0 }},
		{"no bound", func(c *config.Sine) { c.Epochs = 0; c.TrainingSteps = 0 }},
		{"zero epoch size", func(c *config.Sine) { c.BatchesPerEpoch = 0 }},
		{"bad lr", func(c *config.Sine) { c.LearningRate = 0 }},
		{"negative noise", func(c *config.Sine) { c.InputNoise = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSine()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSinePlotNeedsSteps(t *testing.T) {
	cfg := validSine()
	cfg.Mode = "plot"
	cfg.Steps = 0
	assert.Error(t, cfg.Validate())
}

func TestSineStepBoundAlone(t *testing.T) {
	cfg := validSine()
	cfg.Epochs = 0
	cfg.TrainingSteps = 500
	assert.NoError(t, cfg.Validate())
}

func TestSineModelPath(t *testing.T) {
	cfg := validSine()
	cfg.Prefix = "run1_"
	assert.Equal(t, "run1_model.npz", cfg.ModelPath())
}

func validMNIST() *config.MNIST {
	return &config.MNIST{
		SaveTo:       "mnist.npz",
		Epochs:       2,
		BatchSize:    50,
		HiddenDim:    100,
		LearningRate: 0.1,
		WeightDecay:  0.00005,
	}
}

func TestMNISTValidate(t *testing.T) {
	require.NoError(t, validMNIST().Validate())

	tests := []struct {
		name   string
		mutate func(*config.MNIST)
	}{
		{"empty save path", func(c *config.MNIST) { c.SaveTo = "" }},
		{"zero epochs", func(c *config.MNIST) { c.Epochs = 0 }},
		{"zero batch", func(c *config.MNIST) { c.BatchSize = 0 }},
		{"zero hidden", func(c *config.MNIST) { c.HiddenDim = 0 }},
		{"bad lr", func(c *config.MNIST) { c.LearningRate = 0 }},
		{"negative decay", func(c *config.MNIST) { c.WeightDecay = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validMNIST()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := config.ParseParams("0.5 1.25 -3")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.25, -3}, params)

	params, err = config.ParseParams("  0.1\t0.2 ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, params)

	_, err = config.ParseParams("")
	assert.Error(t, err)
	_, err = config.ParseParams("0.5 abc")
	assert.Error(t, err)
}
