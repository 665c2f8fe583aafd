package ops

import "github.com/laurent-dinh/blocks/internal/tensor"

// CrossEntropyOp records output = mean(-log softmax(logits)[targets]).
// Targets are int32 class indices and receive no gradient.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Backward computes grad_logits = (softmax(logits) - onehot(targets)) / batch,
// scaled by the upstream scalar gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	rows, cols := shape[0], shape[1]

	probs := backend.Softmax(op.logits)
	grad := probs.Clone()
	gd := grad.AsFloat32()
	td := op.targets.AsInt32()
	scale := outputGrad.AsFloat32()[0] / float32(rows)
	for i := 0; i < rows; i++ {
		gd[i*cols+int(td[i])] -= 1
	}
	for i := range gd {
		gd[i] *= scale
	}
	return []*tensor.RawTensor{grad, nil}
}

// Inputs returns [logits, targets].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits, op.targets}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }
