package cpu

import (
	"math"

	"github.com/laurent-dinh/blocks/internal/parallel"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// MulScalar multiplies every element by s.
func (b *Backend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 { return v * s })
}

// AddScalar adds s to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 { return v + s })
}

// Tanh applies the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// Sigmoid applies the logistic function element-wise.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

func (b *Backend) unary(x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), tensor.Float32)
	xd, od := x.AsFloat32(), out.AsFloat32()
	parallel.ForRange(len(od), func(start, end int) {
		for i := start; i < end; i++ {
			od[i] = f(xd[i])
		}
	}, b.workers)
	return out
}
