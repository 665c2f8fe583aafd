// Command sine trains a parameter-conditioned recurrent sequence
// generator on synthetic function data, or plots sequences sampled from a
// trained model against the true function.
//
// Usage:
//
//	sine [flags] train [prefix]
//	sine [flags] plot [prefix]
//
// The trained model is written to "<prefix>model.npz".
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/laurent-dinh/blocks/internal/autodiff"
	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/config"
	"github.com/laurent-dinh/blocks/internal/data"
	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/optim"
	"github.com/laurent-dinh/blocks/internal/rnn"
	"github.com/laurent-dinh/blocks/internal/tensor"
	"github.com/laurent-dinh/blocks/internal/train"
)

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch cfg.Mode {
	case "train":
		err = runTrain(cfg)
	case "plot":
		err = runPlot(cfg)
	}
	if err != nil {
		log.Fatalf("sine: %v", err)
	}
}

func parseArgs(args []string) (*config.Sine, error) {
	fs := flag.NewFlagSet("sine", flag.ContinueOnError)
	cfg := &config.Sine{}
	var paramsFlag string

	fs.StringVar(&cfg.Function, "function", "sine", "parametric function to learn")
	fs.IntVar(&cfg.Dim, "dim", 10, "recurrent state dimension")
	fs.IntVar(&cfg.BatchSize, "batch-size", 10, "sequences per batch")
	fs.IntVar(&cfg.SeqLength, "seq-length", 100, "training sequence length")
	fs.IntVar(&cfg.Steps, "steps", 100, "timesteps to generate in plot mode")
	fs.IntVar(&cfg.Epochs, "num-epochs", 10, "training epochs (0 disables the bound)")
	fs.IntVar(&cfg.TrainingSteps, "training-steps", 0, "training step bound (0 disables the bound)")
	fs.IntVar(&cfg.BatchesPerEpoch, "batches-per-epoch", 100, "batches per monitoring epoch")
	fs.Float64Var(&cfg.LearningRate, "learning-rate", 0.0001, "SGD learning rate")
	fs.Float64Var(&cfg.InputNoise, "input-noise", 0, "std of Gaussian noise added to training sequences")
	fs.StringVar(&paramsFlag, "params", "", "function parameters for plot mode, whitespace separated")
	fs.Int64Var(&cfg.Seed, "seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) < 1 || len(rest) > 2 {
		return nil, fmt.Errorf("usage: sine [flags] <train|plot> [prefix]")
	}
	cfg.Mode = rest[0]
	if len(rest) == 2 {
		cfg.Prefix = rest[1]
	}

	if paramsFlag != "" {
		params, err := config.ParseParams(paramsFlag)
		if err != nil {
			return nil, err
		}
		cfg.Params = params
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildGenerator assembles the model for the configured function.
func buildGenerator(cfg *config.Sine, function data.Function, rng *rand.Rand, backend tensor.Backend) (*rnn.Generator, error) {
	cell := rnn.NewGatedRecurrent(cfg.Dim, rng, backend)
	conditioned, err := rnn.NewConditioned(cell, function.NumParams, rng, backend)
	if err != nil {
		return nil, err
	}
	return rnn.NewGenerator(conditioned, rng, backend), nil
}

func runTrain(cfg *config.Sine) error {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Seed))

	function, err := data.Lookup(cfg.Function)
	if err != nil {
		return err
	}
	series, err := data.NewSeries(function, cfg.BatchSize, cfg.SeqLength, cfg.InputNoise, cfg.Seed, backend)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg, function, rng, backend)
	if err != nil {
		return err
	}
	optimizer := optim.NewSGD(generator.Parameters(), float32(cfg.LearningRate), 0)

	log.Printf("training function=%s dim=%d batch_size=%d seq_length=%d learning_rate=%g",
		cfg.Function, cfg.Dim, cfg.BatchSize, cfg.SeqLength, cfg.LearningRate)

	params := generator.Parameters()
	trainBatch := func(step int) (map[string]float64, error) {
		batch := series.Next()

		backend.Tape().Clear()
		backend.Tape().StartRecording()
		cost := generator.Cost(batch.Params, batch.Sequence)
		grads := autodiff.Backward(cost, backend)
		backend.Tape().StopRecording()

		gradNorm := gradientNorm(params, grads)
		optimizer.Step(grads)

		return map[string]float64{
			"cost":          float64(cost.Item()),
			"gradient_norm": gradNorm,
		}, nil
	}

	loop := &train.Loop{
		TrainBatch:      trainBatch,
		BatchesPerEpoch: cfg.BatchesPerEpoch,
		Extensions: []train.Extension{
			train.FinishAfter{Epochs: cfg.Epochs, Steps: cfg.TrainingSteps},
			&train.TrainingMonitor{},
			train.Checkpoint{
				Path:        cfg.ModelPath(),
				Model:       generator,
				Optimizer:   optimizer,
				LossChannel: "train_cost",
			},
			train.Printing{},
		},
	}
	if err := loop.Run(); err != nil {
		return err
	}

	log.Printf("saved model to %s", cfg.ModelPath())
	return nil
}

func runPlot(cfg *config.Sine) error {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(cfg.Seed))

	function, err := data.Lookup(cfg.Function)
	if err != nil {
		return err
	}
	if len(cfg.Params) != function.NumParams {
		return fmt.Errorf("function %s takes %d parameters, got %d",
			cfg.Function, function.NumParams, len(cfg.Params))
	}

	generator, err := buildGenerator(cfg, function, rng, backend)
	if err != nil {
		return err
	}
	if _, _, err := nn.LoadCheckpoint(cfg.ModelPath(), generator); err != nil {
		return err
	}

	paramTensor, err := tensor.FromSlice(cfg.Params, tensor.Shape{1, function.NumParams}, backend)
	if err != nil {
		return err
	}
	generated := generator.Generate(paramTensor, cfg.Steps)
	genData := generated.Data()

	truth := make([]float64, cfg.Steps)
	var mse float64
	for t := 0; t < cfg.Steps; t++ {
		truth[t] = function.Eval(cfg.Params, t)
		diff := float64(genData[t]) - truth[t]
		mse += diff * diff
	}
	mse /= float64(cfg.Steps)
	log.Printf("function=%s steps=%d mse=%.6f", cfg.Function, cfg.Steps, mse)

	plotPath := cfg.Prefix + "plot.png"
	if err := savePlot(plotPath, genData, truth); err != nil {
		return err
	}
	log.Printf("saved plot to %s", plotPath)
	return nil
}

// savePlot draws the generated and true sequences on one canvas.
func savePlot(path string, generated []float32, truth []float64) error {
	generatedXY := make(plotter.XYs, len(truth))
	truthXY := make(plotter.XYs, len(truth))
	for t := range truth {
		generatedXY[t] = plotter.XY{X: float64(t), Y: float64(generated[t])}
		truthXY[t] = plotter.XY{X: float64(t), Y: truth[t]}
	}

	pl := plot.New()
	pl.Title.Text = "generated vs true sequence"
	pl.X.Label.Text = "t"
	if err := plotutil.AddLinePoints(pl, "generated", generatedXY, "true", truthXY); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := pl.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: failed to save %s: %w", path, err)
	}
	return nil
}

// gradientNorm returns the global L2 norm of the parameter gradients.
func gradientNorm(params []*nn.Parameter, grads map[*tensor.RawTensor]*tensor.RawTensor) float64 {
	var sum float64
	for _, p := range params {
		grad, ok := grads[p.Tensor().Raw()]
		if !ok {
			continue
		}
		for _, g := range grad.AsFloat32() {
			sum += float64(g) * float64(g)
		}
	}
	return math.Sqrt(sum)
}
