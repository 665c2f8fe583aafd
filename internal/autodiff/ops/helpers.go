package ops

import "github.com/laurent-dinh/blocks/internal/tensor"

// reduceBroadcast sums an output gradient over the dimensions that were
// broadcast during the forward pass, so the result matches the input shape.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	g := grad
	for len(g.Shape()) > len(target) {
		g = backend.SumDim(g, 0, false)
	}
	for d := range target {
		if target[d] == 1 && g.Shape()[d] != 1 {
			g = backend.SumDim(g, d, true)
		}
	}
	return g
}

// fill creates a float32 tensor of the given shape with every element set
// to value.
func fill(shape tensor.Shape, value float32) *tensor.RawTensor {
	out := tensor.MustRaw(shape, tensor.Float32)
	data := out.AsFloat32()
	for i := range data {
		data[i] = value
	}
	return out
}
