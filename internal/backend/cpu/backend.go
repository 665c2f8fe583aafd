// Package cpu implements the tensor.Backend interface in pure Go.
// Matrix products are delegated to gonum/mat; everything else is a direct
// loop over the dense buffers.
package cpu

import (
	"fmt"

	"github.com/laurent-dinh/blocks/internal/parallel"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Backend is the CPU execution engine. It is stateless apart from the
// worker configuration and safe to share.
type Backend struct {
	workers parallel.Config
}

// New creates a CPU backend with the default worker pool.
func New() *Backend {
	return &Backend{workers: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "cpu"
}

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, func(a, c float32) float32 { return a + c })
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, func(a, c float32) float32 { return a - c })
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(x, y, func(a, c float32) float32 { return a * c })
}

func (b *Backend) binary(x, y *tensor.RawTensor, f func(a, c float32) float32) *tensor.RawTensor {
	if x.Shape().Equal(y.Shape()) {
		out := tensor.MustRaw(x.Shape(), tensor.Float32)
		xd, yd, od := x.AsFloat32(), y.AsFloat32(), out.AsFloat32()
		parallel.ForRange(len(od), func(start, end int) {
			for i := start; i < end; i++ {
				od[i] = f(xd[i], yd[i])
			}
		}, b.workers)
		return out
	}

	outShape, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	out := tensor.MustRaw(outShape, tensor.Float32)
	xd, yd, od := x.AsFloat32(), y.AsFloat32(), out.AsFloat32()
	outStrides := outShape.ComputeStrides()
	for i := range od {
		od[i] = f(xd[broadcastOffset(i, outShape, outStrides, x)],
			yd[broadcastOffset(i, outShape, outStrides, y)])
	}
	return out
}

// broadcastOffset maps a flat index in the broadcast output to the flat
// index of the corresponding element in an input tensor, treating size-1
// and missing leading dimensions of the input as repeated.
func broadcastOffset(flat int, outShape tensor.Shape, outStrides []int, in *tensor.RawTensor) int {
	inShape := in.Shape()
	inStrides := in.Strides()
	pad := len(outShape) - len(inShape)
	offset := 0
	for d := range outShape {
		pos := (flat / outStrides[d]) % outShape[d]
		if d < pad {
			continue
		}
		if inShape[d-pad] == 1 {
			continue
		}
		offset += pos * inStrides[d-pad]
	}
	return offset
}
