package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// MatMul multiplies two 2-D tensors: [M, K] @ [K, N] -> [M, N].
// The product itself runs through gonum's optimized float64 kernels.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 {
		panic(fmt.Sprintf("cpu: MatMul requires 2-D tensors, got %v and %v", xs, ys))
	}
	if xs[1] != ys[0] {
		panic(fmt.Sprintf("cpu: MatMul shape mismatch: %v @ %v", xs, ys))
	}

	var prod mat.Dense
	prod.Mul(toDense(x), toDense(y))

	out := tensor.MustRaw(tensor.Shape{xs[0], ys[1]}, tensor.Float32)
	od := out.AsFloat32()
	raw := prod.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		for j := 0; j < raw.Cols; j++ {
			od[i*raw.Cols+j] = float32(raw.Data[i*raw.Stride+j])
		}
	}
	return out
}

// Transpose returns the 2-D transpose.
func (b *Backend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	xs := x.Shape()
	if len(xs) != 2 {
		panic(fmt.Sprintf("cpu: Transpose requires a 2-D tensor, got %v", xs))
	}
	rows, cols := xs[0], xs[1]
	out := tensor.MustRaw(tensor.Shape{cols, rows}, tensor.Float32)
	xd, od := x.AsFloat32(), out.AsFloat32()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			od[j*rows+i] = xd[i*cols+j]
		}
	}
	return out
}

// Reshape copies the buffer under a new shape with the same element count.
func (b *Backend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("cpu: cannot reshape %v to %v", x.Shape(), newShape))
	}
	out := tensor.MustRaw(newShape, x.DType())
	copy(out.Bytes(), x.Bytes())
	return out
}

func toDense(x *tensor.RawTensor) *mat.Dense {
	xs := x.Shape()
	xd := x.AsFloat32()
	data := make([]float64, len(xd))
	for i, v := range xd {
		data[i] = float64(v)
	}
	return mat.NewDense(xs[0], xs[1], data)
}
