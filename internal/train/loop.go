package train

import (
	"fmt"
)

// Loop drives training. TrainBatch runs one optimization step and returns
// the channels measured on that batch (at least a cost); the loop calls it
// repeatedly, grouping BatchesPerEpoch calls into an epoch, until an
// extension sets Done or NextEpoch reports the data is exhausted.
type Loop struct {
	// TrainBatch performs one step. step is 1-based and global.
	TrainBatch func(step int) (map[string]float64, error)

	// BatchesPerEpoch is the number of batches per epoch. For an
	// endless stream this defines the monitoring period; for a finite
	// dataset it is the number of batches in one pass.
	BatchesPerEpoch int

	// Extensions run after every batch and epoch, in order.
	Extensions []Extension
}

// Run executes the loop until an extension stops it.
func (l *Loop) Run() error {
	if l.TrainBatch == nil {
		return fmt.Errorf("train loop: TrainBatch is required")
	}
	if l.BatchesPerEpoch <= 0 {
		return fmt.Errorf("train loop: BatchesPerEpoch must be positive, got %d", l.BatchesPerEpoch)
	}

	step := 0
	for epoch := 1; ; epoch++ {
		for i := 0; i < l.BatchesPerEpoch; i++ {
			step++
			channels, err := l.TrainBatch(step)
			if err != nil {
				return fmt.Errorf("train loop: step %d: %w", step, err)
			}

			ctx := &Context{Epoch: epoch, Step: step, Channels: channels}
			for _, ext := range l.Extensions {
				if err := ext.AfterBatch(ctx); err != nil {
					return fmt.Errorf("train loop: step %d: %w", step, err)
				}
			}
			if ctx.Done {
				return l.runEpochHooks(epoch, step)
			}
		}

		ctx := &Context{Epoch: epoch, Step: step, Channels: map[string]float64{}}
		for _, ext := range l.Extensions {
			if err := ext.AfterEpoch(ctx); err != nil {
				return fmt.Errorf("train loop: epoch %d: %w", epoch, err)
			}
		}
		if ctx.Done {
			return nil
		}
	}
}

// runEpochHooks gives every extension its end-of-epoch hook after an
// early stop, so monitors and checkpoints still flush.
func (l *Loop) runEpochHooks(epoch, step int) error {
	ctx := &Context{Epoch: epoch, Step: step, Channels: map[string]float64{}, Done: true}
	for _, ext := range l.Extensions {
		if err := ext.AfterEpoch(ctx); err != nil {
			return fmt.Errorf("train loop: epoch %d: %w", epoch, err)
		}
	}
	return nil
}
