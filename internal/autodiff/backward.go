package autodiff

import (
	"fmt"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Backward computes gradients of a scalar-valued tensor with respect to
// every tensor on the backend's tape. The output gradient is seeded with
// ones. Returns a map from RawTensor to its gradient.
func Backward(t *tensor.Tensor, backend *Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if backend.Tape().NumOps() == 0 {
		panic("backward: no operations recorded (did you forget Tape().StartRecording()?)")
	}
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("backward: unsupported dtype %s", t.DType()))
	}

	seed := tensor.MustRaw(t.Shape(), tensor.Float32)
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 1
	}
	return backend.Tape().Backward(seed, backend)
}
