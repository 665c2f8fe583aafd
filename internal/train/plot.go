package train

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot tracks the named channels over epochs and redraws a PNG with one
// line per channel after every epoch.
type Plot struct {
	BaseExtension
	Path     string
	Title    string
	Channels []string

	history map[string]plotter.XYs
}

// AfterEpoch appends the current channel values and redraws the plot.
func (p *Plot) AfterEpoch(ctx *Context) error {
	if p.history == nil {
		p.history = make(map[string]plotter.XYs, len(p.Channels))
	}
	for _, name := range p.Channels {
		value, ok := ctx.Channels[name]
		if !ok {
			continue
		}
		p.history[name] = append(p.history[name], plotter.XY{X: float64(ctx.Epoch), Y: value})
	}
	return p.draw()
}

func (p *Plot) draw() error {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = "epoch"

	var args []interface{}
	for _, name := range p.Channels {
		if points := p.history[name]; len(points) > 0 {
			args = append(args, name, points)
		}
	}
	if len(args) == 0 {
		return nil
	}
	if err := plotutil.AddLinePoints(pl, args...); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := pl.Save(6*vg.Inch, 4*vg.Inch, p.Path); err != nil {
		return fmt.Errorf("plot: failed to save %s: %w", p.Path, err)
	}
	return nil
}
