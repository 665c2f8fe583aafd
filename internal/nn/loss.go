package nn

import (
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// CrossEntropy computes the mean categorical cross-entropy between logits
// of shape [batch, classes] and int32 class targets of shape [batch].
// The softmax is folded into the loss for numerical stability.
func CrossEntropy(logits, targets *tensor.Tensor) *tensor.Tensor {
	raw := logits.Backend().CrossEntropy(logits.Raw(), targets.Raw())
	return tensor.New(raw, logits.Backend())
}

// L2Penalty returns coefficient * sum of squared entries over the given
// parameters. The result participates in the tape like any other term of
// the cost.
func L2Penalty(coefficient float32, params ...*Parameter) *tensor.Tensor {
	var total *tensor.Tensor
	for _, p := range params {
		w := p.Tensor()
		sq := w.Mul(w).Sum()
		if total == nil {
			total = sq
		} else {
			total = total.Add(sq)
		}
	}
	if total == nil {
		panic("L2Penalty: no parameters given")
	}
	return total.MulScalar(coefficient)
}

// MisclassificationRate returns the fraction of rows whose argmax does not
// match the target label. Not differentiable; used for monitoring only.
func MisclassificationRate(logits, targets *tensor.Tensor) float64 {
	pred := logits.Backend().Argmax(logits.Raw(), 1)
	predLabels := pred.AsInt32()
	trueLabels := targets.Raw().AsInt32()

	wrong := 0
	for i := range trueLabels {
		if predLabels[i] != trueLabels[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(trueLabels))
}
