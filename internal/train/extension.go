// Package train implements the training loop and its extensions: epoch
// bounds, monitoring, logging, checkpointing and plotting hook into the
// loop through a small callback interface instead of being baked into it.
package train

// Context is the loop state handed to extensions. Channels holds the
// quantities computed for the current batch or epoch; extensions may read
// them, add derived ones, or set Done to stop training.
type Context struct {
	Epoch    int
	Step     int
	Channels map[string]float64
	Done     bool
}

// Extension hooks into the training loop. AfterBatch runs once per
// training batch, AfterEpoch once per epoch, both in registration order.
type Extension interface {
	AfterBatch(ctx *Context) error
	AfterEpoch(ctx *Context) error
}

// BaseExtension provides no-op hooks so extensions only implement the
// ones they need.
type BaseExtension struct{}

func (BaseExtension) AfterBatch(*Context) error { return nil }
func (BaseExtension) AfterEpoch(*Context) error { return nil }

// FinishAfter stops training after a number of epochs, a number of steps,
// or both. A zero bound is ignored.
type FinishAfter struct {
	BaseExtension
	Epochs int
	Steps  int
}

// AfterBatch stops training once the step bound is reached.
func (f FinishAfter) AfterBatch(ctx *Context) error {
	if f.Steps > 0 && ctx.Step >= f.Steps {
		ctx.Done = true
	}
	return nil
}

// AfterEpoch stops training once the epoch bound is reached.
func (f FinishAfter) AfterEpoch(ctx *Context) error {
	if f.Epochs > 0 && ctx.Epoch >= f.Epochs {
		ctx.Done = true
	}
	return nil
}
