package train

import (
	"fmt"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/optim"
	"github.com/laurent-dinh/blocks/internal/serialization"
)

// Checkpoint saves the model and optimizer state after every epoch.
// LossChannel names the channel recorded in the checkpoint metadata; a
// missing channel records zero.
type Checkpoint struct {
	BaseExtension
	Path        string
	Model       nn.Module
	Optimizer   optim.Optimizer
	LossChannel string
	// EpochOffset shifts the recorded epoch when training resumed from
	// an earlier checkpoint.
	EpochOffset int
}

// AfterEpoch writes the checkpoint.
func (c Checkpoint) AfterEpoch(ctx *Context) error {
	meta := &serialization.Meta{
		Epoch: c.EpochOffset + ctx.Epoch,
		Step:  ctx.Step,
		Loss:  ctx.Channels[c.LossChannel],
	}
	if err := nn.SaveCheckpoint(c.Path, c.Model, c.Optimizer.StateDict(), meta); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
