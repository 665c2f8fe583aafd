package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/serialization"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "mnist.npz", cfg.SaveTo)
	assert.Equal(t, 2, cfg.Epochs)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 100, cfg.HiddenDim)
	assert.InDelta(t, 0.1, cfg.LearningRate, 1e-9)
	assert.InDelta(t, 0.00005, cfg.WeightDecay, 1e-12)
}

func TestParseArgsPositionalSavePath(t *testing.T) {
	cfg, err := parseArgs([]string{"--num-epochs", "5", "model.npz"})
	require.NoError(t, err)
	assert.Equal(t, "model.npz", cfg.SaveTo)
	assert.Equal(t, 5, cfg.Epochs)

	_, err = parseArgs([]string{"a.npz", "b.npz"})
	assert.Error(t, err)
}

func TestRunOnSyntheticData(t *testing.T) {
	saveTo := filepath.Join(t.TempDir(), "mnist.npz")

	cfg, err := parseArgs([]string{
		"--num-epochs", "1",
		"--batch-size", "100",
		"--hidden-dim", "10",
		saveTo,
	})
	require.NoError(t, err)
	require.NoError(t, run(cfg))

	_, err = os.Stat(saveTo)
	require.NoError(t, err, "training must write the checkpoint")

	arrays, meta, err := serialization.LoadArrays(saveTo)
	require.NoError(t, err)
	assert.Contains(t, arrays, "linear_0.weight")
	assert.Contains(t, arrays, "linear_1.bias")
	require.NotNil(t, meta)
	assert.Equal(t, 1, meta.Epoch)
}

func TestRunResume(t *testing.T) {
	saveTo := filepath.Join(t.TempDir(), "mnist.npz")

	cfg, err := parseArgs([]string{
		"--num-epochs", "1",
		"--batch-size", "100",
		"--hidden-dim", "10",
		saveTo,
	})
	require.NoError(t, err)
	require.NoError(t, run(cfg))

	// Resuming with the same epoch bound is a no-op.
	cfg.Resume = true
	require.NoError(t, run(cfg))

	// Raising the bound continues and advances the recorded epoch.
	cfg.Epochs = 2
	require.NoError(t, run(cfg))

	_, meta, err := serialization.LoadArrays(saveTo)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.Epoch)
}

func TestRunWithPlot(t *testing.T) {
	dir := t.TempDir()
	saveTo := filepath.Join(dir, "mnist.npz")
	plotPath := filepath.Join(dir, "curves.png")

	cfg, err := parseArgs([]string{
		"--num-epochs", "1",
		"--batch-size", "200",
		"--hidden-dim", "5",
		"--plot", plotPath,
		saveTo,
	})
	require.NoError(t, err)
	require.NoError(t, run(cfg))

	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
