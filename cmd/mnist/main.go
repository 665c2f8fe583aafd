// Command mnist trains a multilayer perceptron on MNIST digits.
//
// Usage:
//
//	mnist [flags] [save_to]
//
// The checkpoint (model, optimizer state and progress) is written to
// save_to after every epoch; --resume continues from it.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/laurent-dinh/blocks/internal/autodiff"
	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/config"
	"github.com/laurent-dinh/blocks/internal/data"
	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/optim"
	"github.com/laurent-dinh/blocks/internal/tensor"
	"github.com/laurent-dinh/blocks/internal/train"
)

const (
	numPixels  = 784
	numClasses = 10
	// syntheticSamples sizes the fallback dataset when no IDX files are
	// available.
	syntheticSamples = 1000
)

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("mnist: %v", err)
	}
}

func parseArgs(args []string) (*config.MNIST, error) {
	fs := flag.NewFlagSet("mnist", flag.ContinueOnError)
	cfg := &config.MNIST{}

	fs.StringVar(&cfg.DataDir, "data-dir", "", "directory with the MNIST IDX files (empty uses synthetic data)")
	fs.IntVar(&cfg.Epochs, "num-epochs", 2, "training epochs")
	fs.IntVar(&cfg.BatchSize, "batch-size", 50, "mini-batch size")
	fs.IntVar(&cfg.HiddenDim, "hidden-dim", 100, "hidden layer size")
	fs.Float64Var(&cfg.LearningRate, "learning-rate", 0.1, "SGD learning rate")
	fs.Float64Var(&cfg.WeightDecay, "weight-decay", 0.00005, "L2 penalty on the weights")
	fs.StringVar(&cfg.PlotPath, "plot", "", "write a training-curve PNG to this path")
	fs.BoolVar(&cfg.Resume, "resume", false, "resume from the checkpoint at save_to")
	fs.Int64Var(&cfg.Seed, "seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.SaveTo = "mnist.npz"
	rest := fs.Args()
	switch len(rest) {
	case 0:
	case 1:
		cfg.SaveTo = rest[0]
	default:
		return nil, fmt.Errorf("usage: mnist [flags] [save_to]")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadData(cfg *config.MNIST) (trainSet, testSet *data.MNISTDataset, err error) {
	if cfg.DataDir == "" {
		log.Printf("no data directory given, using synthetic data")
		return data.SyntheticMNIST(syntheticSamples), data.SyntheticMNIST(syntheticSamples / 5), nil
	}
	trainSet, err = data.LoadMNIST(cfg.DataDir, true)
	if err != nil {
		return nil, nil, err
	}
	testSet, err = data.LoadMNIST(cfg.DataDir, false)
	if err != nil {
		return nil, nil, err
	}
	return trainSet, testSet, nil
}

func run(cfg *config.MNIST) error {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Seed))

	trainSet, testSet, err := loadData(cfg)
	if err != nil {
		return err
	}
	trainBatches, err := trainSet.Batches(cfg.BatchSize, backend)
	if err != nil {
		return err
	}
	testBatches, err := testSet.Batches(cfg.BatchSize, backend)
	if err != nil {
		return err
	}

	mlp := nn.NewMLP(
		[]int{numPixels, cfg.HiddenDim, numClasses},
		[]nn.Activation{nn.Tanh{}, nn.Identity{}},
		nn.IsotropicGaussian{Std: 0.01}, nn.Constant{Value: 0},
		rng, backend,
	)
	optimizer := optim.NewSGD(mlp.Parameters(), float32(cfg.LearningRate), 0)

	startEpoch := 0
	if cfg.Resume {
		optState, meta, err := nn.LoadCheckpoint(cfg.SaveTo, mlp)
		if err != nil {
			return fmt.Errorf("failed to resume from %s: %w", cfg.SaveTo, err)
		}
		if len(optState) > 0 {
			if err := optimizer.LoadStateDict(optState); err != nil {
				return fmt.Errorf("failed to resume optimizer state: %w", err)
			}
		}
		if meta != nil {
			startEpoch = meta.Epoch
			log.Printf("resumed from %s at epoch=%d step=%d", cfg.SaveTo, meta.Epoch, meta.Step)
		}
	}
	if startEpoch >= cfg.Epochs {
		log.Printf("checkpoint already at epoch %d, nothing to do", startEpoch)
		return nil
	}

	log.Printf("training hidden_dim=%d batch_size=%d learning_rate=%g weight_decay=%g epochs=%d",
		cfg.HiddenDim, cfg.BatchSize, cfg.LearningRate, cfg.WeightDecay, cfg.Epochs)

	weights := []*nn.Parameter{mlp.Layers()[0].Weight(), mlp.Layers()[1].Weight()}
	params := mlp.Parameters()

	trainBatch := func(step int) (map[string]float64, error) {
		batch := trainBatches[(step-1)%len(trainBatches)]

		backend.Tape().Clear()
		backend.Tape().StartRecording()
		logits := mlp.Forward(batch.Images)
		cost := nn.CrossEntropy(logits, batch.Labels)
		if cfg.WeightDecay > 0 {
			cost = cost.Add(nn.L2Penalty(float32(cfg.WeightDecay), weights...))
		}
		grads := autodiff.Backward(cost, backend)
		backend.Tape().StopRecording()

		gradNorm := gradientNorm(params, grads)
		optimizer.Step(grads)

		return map[string]float64{
			"cost":          float64(cost.Item()),
			"misclassified": nn.MisclassificationRate(logits, batch.Labels),
			"gradient_norm": gradNorm,
		}, nil
	}

	evalTest := func() (map[string]float64, error) {
		backend.Tape().StopRecording()
		var costSum, missSum float64
		for _, batch := range testBatches {
			logits := mlp.Forward(batch.Images)
			cost := nn.CrossEntropy(logits, batch.Labels)
			costSum += float64(cost.Item())
			missSum += nn.MisclassificationRate(logits, batch.Labels)
		}
		n := float64(len(testBatches))
		return map[string]float64{"cost": costSum / n, "misclassified": missSum / n}, nil
	}

	extensions := []train.Extension{
		train.FinishAfter{Epochs: cfg.Epochs - startEpoch},
		&train.TrainingMonitor{},
		&train.EvalMonitor{Prefix: "test", Eval: evalTest},
		train.Checkpoint{
			Path:        cfg.SaveTo,
			Model:       mlp,
			Optimizer:   optimizer,
			LossChannel: "train_cost",
			EpochOffset: startEpoch,
		},
	}
	if cfg.PlotPath != "" {
		extensions = append(extensions, &train.Plot{
			Path:     cfg.PlotPath,
			Title:    "MNIST training",
			Channels: []string{"train_cost", "test_cost", "train_misclassified", "test_misclassified"},
		})
	}
	extensions = append(extensions, train.Printing{})

	loop := &train.Loop{
		TrainBatch:      trainBatch,
		BatchesPerEpoch: len(trainBatches),
		Extensions:      extensions,
	}
	if err := loop.Run(); err != nil {
		return err
	}

	log.Printf("saved checkpoint to %s", cfg.SaveTo)
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
