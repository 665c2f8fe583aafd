package cpu

import (
	"fmt"
	"math"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Sum reduces the whole tensor to a single-element tensor of shape [1].
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{1}, tensor.Float32)
	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	out.AsFloat32()[0] = sum
	return out
}

// SumDim sums along one dimension. With keepDim the reduced dimension stays
// as size 1, otherwise it is dropped (a fully reduced tensor keeps shape [1]).
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	xs := x.Shape()
	if dim < 0 || dim >= len(xs) {
		panic(fmt.Sprintf("cpu: SumDim dim %d out of range for shape %v", dim, xs))
	}

	outShape := make(tensor.Shape, 0, len(xs))
	for d, size := range xs {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, size)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := tensor.MustRaw(outShape, tensor.Float32)
	xd, od := x.AsFloat32(), out.AsFloat32()
	strides := x.Strides()

	// outer spans dims before `dim`, inner spans dims after it.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= xs[d]
	}
	inner := strides[dim]
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum float32
			base := o*xs[dim]*inner + i
			for k := 0; k < xs[dim]; k++ {
				sum += xd[base+k*inner]
			}
			od[o*inner+i] = sum
		}
	}
	return out
}

// Softmax normalizes a 2-D tensor along its last dimension, shifting by the
// row maximum for numerical stability.
func (b *Backend) Softmax(x *tensor.RawTensor) *tensor.RawTensor {
	xs := x.Shape()
	if len(xs) != 2 {
		panic(fmt.Sprintf("cpu: Softmax requires a 2-D tensor, got %v", xs))
	}
	rows, cols := xs[0], xs[1]
	out := tensor.MustRaw(xs, tensor.Float32)
	xd, od := x.AsFloat32(), out.AsFloat32()
	for i := 0; i < rows; i++ {
		row := xd[i*cols : (i+1)*cols]
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sum float64
		for j, v := range row {
			e := math.Exp(float64(v - maxVal))
			od[i*cols+j] = float32(e)
			sum += e
		}
		inv := float32(1.0 / sum)
		for j := range row {
			od[i*cols+j] *= inv
		}
	}
	return out
}

// CrossEntropy computes the mean negative log-likelihood of the int32 class
// targets [batch] under float32 logits [batch, classes], using the
// log-sum-exp trick. Result has shape [1].
func (b *Backend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	ls := logits.Shape()
	if len(ls) != 2 {
		panic(fmt.Sprintf("cpu: CrossEntropy requires 2-D logits, got %v", ls))
	}
	rows, cols := ls[0], ls[1]
	ts := targets.Shape()
	if len(ts) != 1 || ts[0] != rows {
		panic(fmt.Sprintf("cpu: CrossEntropy targets shape %v does not match logits %v", ts, ls))
	}

	ld := logits.AsFloat32()
	td := targets.AsInt32()
	var total float64
	for i := 0; i < rows; i++ {
		row := ld[i*cols : (i+1)*cols]
		target := int(td[i])
		if target < 0 || target >= cols {
			panic(fmt.Sprintf("cpu: CrossEntropy target %d out of range [0, %d)", target, cols))
		}
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sumExp)
		total += logSumExp - float64(row[target])
	}

	out := tensor.MustRaw(tensor.Shape{1}, tensor.Float32)
	out.AsFloat32()[0] = float32(total / float64(rows))
	return out
}

// Argmax returns the int32 indices of the maxima of a 2-D tensor along dim.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	xs := x.Shape()
	if len(xs) != 2 || (dim != 0 && dim != 1) {
		panic(fmt.Sprintf("cpu: Argmax supports 2-D tensors with dim 0 or 1, got %v dim %d", xs, dim))
	}
	rows, cols := xs[0], xs[1]
	xd := x.AsFloat32()

	if dim == 1 {
		out := tensor.MustRaw(tensor.Shape{rows}, tensor.Int32)
		od := out.AsInt32()
		for i := 0; i < rows; i++ {
			best, bestVal := 0, xd[i*cols]
			for j := 1; j < cols; j++ {
				if xd[i*cols+j] > bestVal {
					best, bestVal = j, xd[i*cols+j]
				}
			}
			od[i] = int32(best)
		}
		return out
	}

	out := tensor.MustRaw(tensor.Shape{cols}, tensor.Int32)
	od := out.AsInt32()
	for j := 0; j < cols; j++ {
		best, bestVal := 0, xd[j]
		for i := 1; i < rows; i++ {
			if xd[i*cols+j] > bestVal {
				best, bestVal = i, xd[i*cols+j]
			}
		}
		od[j] = int32(best)
	}
	return out
}
