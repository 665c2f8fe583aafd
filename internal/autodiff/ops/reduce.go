package ops

import "github.com/laurent-dinh/blocks/internal/tensor"

// SumOp records output = Σx (a [1]-shaped scalar).
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: x, output: output}
}

// Backward broadcasts the scalar gradient to every input element.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fill(op.input.Shape(), outputGrad.AsFloat32()[0])}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp records output = Σ_dim x.
type SumDimOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewSumDimOp creates a SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{input: x, output: output, dim: dim}
}

// Backward repeats the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad := tensor.MustRaw(inShape, tensor.Float32)
	gd := grad.AsFloat32()
	od := outputGrad.AsFloat32()

	inStrides := inShape.ComputeStrides()
	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= inShape[d]
	}
	inner := inStrides[op.dim]
	for o := 0; o < outer; o++ {
		for k := 0; k < inShape[op.dim]; k++ {
			base := o*inShape[op.dim]*inner + k*inner
			for i := 0; i < inner; i++ {
				gd[base+i] = od[o*inner+i]
			}
		}
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }
