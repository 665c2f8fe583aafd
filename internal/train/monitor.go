package train

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// TrainingMonitor aggregates the per-batch channels and publishes their
// epoch means under a "train_" prefix.
type TrainingMonitor struct {
	BaseExtension
	window Window
}

// AfterBatch records the batch channels.
func (m *TrainingMonitor) AfterBatch(ctx *Context) error {
	m.window.Record(ctx.Channels)
	return nil
}

// AfterEpoch publishes the epoch means and resets the window.
func (m *TrainingMonitor) AfterEpoch(ctx *Context) error {
	for name, mean := range m.window.Means() {
		ctx.Channels["train_"+name] = mean
	}
	return nil
}

// EvalMonitor evaluates a dataset at the end of every epoch and publishes
// the results under the monitor's prefix.
type EvalMonitor struct {
	BaseExtension
	Prefix string
	Eval   func() (map[string]float64, error)
}

// AfterEpoch runs the evaluation.
func (m *EvalMonitor) AfterEpoch(ctx *Context) error {
	channels, err := m.Eval()
	if err != nil {
		return fmt.Errorf("%s evaluation: %w", m.Prefix, err)
	}
	for name, value := range channels {
		ctx.Channels[m.Prefix+"_"+name] = value
	}
	return nil
}

// Printing logs the epoch channels as sorted key=value pairs.
type Printing struct {
	BaseExtension
}

// AfterEpoch logs one line per epoch.
func (Printing) AfterEpoch(ctx *Context) error {
	names := make([]string, 0, len(ctx.Channels))
	for name := range ctx.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "epoch=%d step=%d", ctx.Epoch, ctx.Step)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%.6f", name, ctx.Channels[name])
	}
	log.Print(b.String())
	return nil
}
