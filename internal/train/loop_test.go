package train_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/optim"
	"github.com/laurent-dinh/blocks/internal/serialization"
	"github.com/laurent-dinh/blocks/internal/train"
)

// recorder captures the contexts it sees.
type recorder struct {
	train.BaseExtension
	batchSteps  []int
	epochEpochs []int
}

func (r *recorder) AfterBatch(ctx *train.Context) error {
	r.batchSteps = append(r.batchSteps, ctx.Step)
	return nil
}

func (r *recorder) AfterEpoch(ctx *train.Context) error {
	r.epochEpochs = append(r.epochEpochs, ctx.Epoch)
	return nil
}

func constantBatch(step int) (map[string]float64, error) {
	return map[string]float64{"cost": float64(step)}, nil
}

func TestLoopFinishAfterEpochs(t *testing.T) {
	rec := &recorder{}
	loop := &train.Loop{
		TrainBatch:      constantBatch,
		BatchesPerEpoch: 3,
		Extensions:      []train.Extension{train.FinishAfter{Epochs: 2}, rec},
	}
	require.NoError(t, loop.Run())

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, rec.batchSteps)
	assert.Equal(t, []int{1, 2}, rec.epochEpochs)
}

func TestLoopFinishAfterSteps(t *testing.T) {
	rec := &recorder{}
	loop := &train.Loop{
		TrainBatch:      constantBatch,
		BatchesPerEpoch: 10,
		Extensions:      []train.Extension{train.FinishAfter{Steps: 4}, rec},
	}
	require.NoError(t, loop.Run())

	assert.Equal(t, []int{1, 2, 3, 4}, rec.batchSteps)
	// The epoch hooks still flush after an early stop.
	assert.Equal(t, []int{1}, rec.epochEpochs)
}

func TestLoopValidation(t *testing.T) {
	assert.Error(t, (&train.Loop{BatchesPerEpoch: 1}).Run())
	assert.Error(t, (&train.Loop{TrainBatch: constantBatch}).Run())
}

func TestWindowMeans(t *testing.T) {
	var w train.Window
	w.Record(map[string]float64{"cost": 2, "norm": 10})
	w.Record(map[string]float64{"cost": 4})

	means := w.Means()
	assert.InDelta(t, 3, means["cost"], 1e-9)
	assert.InDelta(t, 10, means["norm"], 1e-9)

	// The window resets after reporting.
	w.Record(map[string]float64{"cost": 8})
	assert.InDelta(t, 8, w.Means()["cost"], 1e-9)
}

func TestTrainingMonitorPublishesEpochMeans(t *testing.T) {
	monitor := &train.TrainingMonitor{}
	var seen map[string]float64

	capture := &captureExtension{out: &seen}
	loop := &train.Loop{
		TrainBatch:      constantBatch,
		BatchesPerEpoch: 4,
		Extensions: []train.Extension{
			train.FinishAfter{Epochs: 1},
			monitor,
			capture,
		},
	}
	require.NoError(t, loop.Run())

	// Steps 1..4 have mean cost 2.5.
	assert.InDelta(t, 2.5, seen["train_cost"], 1e-9)
}

type captureExtension struct {
	train.BaseExtension
	out *map[string]float64
}

func (c *captureExtension) AfterEpoch(ctx *train.Context) error {
	snapshot := make(map[string]float64, len(ctx.Channels))
	for k, v := range ctx.Channels {
		snapshot[k] = v
	}
	*c.out = snapshot
	return nil
}

func TestEvalMonitor(t *testing.T) {
	monitor := &train.EvalMonitor{
		Prefix: "test",
		Eval: func() (map[string]float64, error) {
			return map[string]float64{"cost": 0.5}, nil
		},
	}

	ctx := &train.Context{Epoch: 1, Channels: map[string]float64{}}
	require.NoError(t, monitor.AfterEpoch(ctx))
	assert.InDelta(t, 0.5, ctx.Channels["test_cost"], 1e-9)
}

func TestCheckpointExtension(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))
	path := filepath.Join(t.TempDir(), "ckpt.npz")

	model := nn.NewMLP([]int{2, 2}, []nn.Activation{nn.Identity{}},
		nn.IsotropicGaussian{Std: 1}, nn.Constant{Value: 0}, rng, backend)
	optimizer := optim.NewSGD(model.Parameters(), 0.1, 0.9)

	ext := train.Checkpoint{
		Path:        path,
		Model:       model,
		Optimizer:   optimizer,
		LossChannel: "train_cost",
		EpochOffset: 5,
	}
	ctx := &train.Context{Epoch: 2, Step: 40, Channels: map[string]float64{"train_cost": 1.5}}
	require.NoError(t, ext.AfterEpoch(ctx))

	_, meta, err := serialization.LoadArrays(path)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 7, meta.Epoch)
	assert.Equal(t, 40, meta.Step)
	assert.InDelta(t, 1.5, meta.Loss, 1e-9)
}

func TestPlotExtensionWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.png")
	ext := &train.Plot{Path: path, Title: "test", Channels: []string{"cost"}}

	for epoch := 1; epoch <= 3; epoch++ {
		ctx := &train.Context{Epoch: epoch, Channels: map[string]float64{"cost": 1.0 / float64(epoch)}}
		require.NoError(t, ext.AfterEpoch(ctx))
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
