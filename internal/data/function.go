// Package data provides the input pipelines: a synthetic series stream
// driven by a registry of named parametric functions, and an MNIST loader.
package data

import (
	"fmt"
	"math"
	"sort"
)

// Range is the uniform sampling interval for one function parameter.
type Range struct {
	Low, High float64
}

// Function is a named parametric signal. NumParams is the length of the
// parameter vector; Ranges gives the sampling interval for each entry, and
// Eval evaluates the signal at integer time t.
type Function struct {
	Name      string
	NumParams int
	Ranges    []Range
	Eval      func(params []float32, t int) float64
}

var registry = map[string]Function{}

func register(f Function) {
	if len(f.Ranges) != f.NumParams {
		panic(fmt.Sprintf("function %s: %d parameters but %d ranges", f.Name, f.NumParams, len(f.Ranges)))
	}
	registry[f.Name] = f
}

func init() {
	register(Function{
		Name:      "sine",
		NumParams: 1,
		Ranges:    []Range{{0, 0.5}},
		Eval: func(p []float32, t int) float64 {
			return math.Sin(float64(p[0]) * float64(t))
		},
	})
	register(Function{
		Name:      "scaled-sine",
		NumParams: 2,
		Ranges:    []Range{{0.5, 1.5}, {0, 0.5}},
		Eval: func(p []float32, t int) float64 {
			return float64(p[0]) * math.Sin(float64(p[1])*float64(t))
		},
	})
	register(Function{
		Name:      "damped-sine",
		NumParams: 2,
		Ranges:    []Range{{0, 0.5}, {0, 0.05}},
		Eval: func(p []float32, t int) float64 {
			return math.Exp(-float64(p[1])*float64(t)) * math.Sin(float64(p[0])*float64(t))
		},
	})
	register(Function{
		Name:      "chirp",
		NumParams: 2,
		Ranges:    []Range{{0, 0.2}, {0, 0.002}},
		Eval: func(p []float32, t int) float64 {
			ft := float64(t)
			return math.Sin((float64(p[0]) + float64(p[1])*ft) * ft)
		},
	})
}

// Lookup returns the named function, or an error listing the known names.
func Lookup(name string) (Function, error) {
	f, ok := registry[name]
	if !ok {
		return Function{}, fmt.Errorf("unknown function %q (known: %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered function names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
