package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	cfg, err := parseArgs([]string{"train", "run1_"})
	require.NoError(t, err)
	assert.Equal(t, "train", cfg.Mode)
	assert.Equal(t, "run1_", cfg.Prefix)
	assert.Equal(t, "sine", cfg.Function)
	assert.Equal(t, 10, cfg.Dim)
	assert.Equal(t, "run1_model.npz", cfg.ModelPath())
}

func TestParseArgsFlags(t *testing.T) {
	cfg, err := parseArgs([]string{
		"--function", "scaled-sine",
		"--dim", "20",
		"--input-noise", "0.1",
		"--training-steps", "500",
		"--params", "1.0 0.3",
		"plot",
	})
	require.NoError(t, err)
	assert.Equal(t, "plot", cfg.Mode)
	assert.Equal(t, "scaled-sine", cfg.Function)
	assert.Equal(t, 20, cfg.Dim)
	assert.InDelta(t, 0.1, cfg.InputNoise, 1e-9)
	assert.Equal(t, []float32{1.0, 0.3}, cfg.Params)
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	_, err := parseArgs([]string{})
	assert.Error(t, err)
	_, err = parseArgs([]string{"sample"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"--params", "x y", "plot"})
	assert.Error(t, err)
}

func TestTrainThenPlot(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "test_")

	cfg, err := parseArgs([]string{
		"--dim", "3",
		"--batch-size", "2",
		"--seq-length", "5",
		"--num-epochs", "1",
		"--batches-per-epoch", "2",
		"train", prefix,
	})
	require.NoError(t, err)
	require.NoError(t, runTrain(cfg))

	_, err = os.Stat(cfg.ModelPath())
	require.NoError(t, err, "training must write the model file")

	plotCfg, err := parseArgs([]string{
		"--dim", "3",
		"--steps", "5",
		"--params", "0.3",
		"plot", prefix,
	})
	require.NoError(t, err)
	require.NoError(t, runPlot(plotCfg))

	_, err = os.Stat(prefix + "plot.png")
	assert.NoError(t, err, "plotting must write the image")
}

func TestPlotRejectsWrongArity(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "arity_")

	cfg, err := parseArgs([]string{
		"--dim", "3",
		"--batch-size", "2",
		"--seq-length", "5",
		"--num-epochs", "1",
		"--batches-per-epoch", "1",
		"train", prefix,
	})
	require.NoError(t, err)
	require.NoError(t, runTrain(cfg))

	plotCfg, err := parseArgs([]string{
		"--dim", "3",
		"--steps", "5",
		"--params", "0.3 0.7",
		"plot", prefix,
	})
	require.NoError(t, err)
	err = runPlot(plotCfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "takes 1 parameters")
}
