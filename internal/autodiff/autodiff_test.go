package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurent-dinh/blocks/internal/autodiff"
	"github.com/laurent-dinh/blocks/internal/backend/cpu"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// checkGradients compares the recorded gradients of a scalar-valued build
// function against central finite differences on every input.
func checkGradients(t *testing.T, backend *autodiff.Backend, build func() *tensor.Tensor, inputs ...*tensor.Tensor) {
	t.Helper()

	backend.Tape().Clear()
	backend.Tape().StartRecording()
	cost := build()
	grads := autodiff.Backward(cost, backend)
	backend.Tape().StopRecording()

	eval := func() float64 {
		backend.Tape().Clear()
		return float64(build().Item())
	}

	const eps = 1e-3
	for n, input := range inputs {
		grad, ok := grads[input.Raw()]
		require.True(t, ok, "input %d has no gradient", n)
		require.True(t, grad.Shape().Equal(input.Shape()),
			"input %d gradient shape %v != %v", n, grad.Shape(), input.Shape())

		data := input.Data()
		gradData := grad.AsFloat32()
		for i := range data {
			orig := data[i]
			data[i] = orig + eps
			plus := eval()
			data[i] = orig - eps
			minus := eval()
			data[i] = orig

			numeric := (plus - minus) / (2 * eps)
			assert.InDelta(t, numeric, float64(gradData[i]), 2e-2,
				"input %d element %d", n, i)
		}
	}
}

func fromSlice(t *testing.T, backend tensor.Backend, data []float32, shape tensor.Shape) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return out
}

func TestBackwardLinear(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x := fromSlice(t, backend, []float32{0.5, -1, 2, 0.3, 1, -0.2}, tensor.Shape{2, 3})
	w := fromSlice(t, backend, []float32{0.1, -0.4, 0.2, 0.7, -0.3, 0.5}, tensor.Shape{3, 2})
	b := fromSlice(t, backend, []float32{0.1, -0.2}, tensor.Shape{1, 2})

	checkGradients(t, backend, func() *tensor.Tensor {
		return x.MatMul(w).Add(b).Sum()
	}, x, w, b)
}

func TestBackwardActivations(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{0.5, -1.2, 0.1, 2}, tensor.Shape{2, 2})

	checkGradients(t, backend, func() *tensor.Tensor {
		return x.Tanh().Sum()
	}, x)

	checkGradients(t, backend, func() *tensor.Tensor {
		return x.Sigmoid().Sum()
	}, x)
}

func TestBackwardElementwiseChain(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromSlice(t, backend, []float32{-0.5, 1, 0.25, 2}, tensor.Shape{2, 2})

	checkGradients(t, backend, func() *tensor.Tensor {
		return x.Mul(y).Sub(x).MulScalar(0.5).AddScalar(1).Sum()
	}, x, y)
}

func TestBackwardBroadcastBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	bias := fromSlice(t, backend, []float32{0.5, -0.5}, tensor.Shape{1, 2})

	checkGradients(t, backend, func() *tensor.Tensor {
		return x.Add(bias).Mul(x.Add(bias)).Sum()
	}, bias)
}

func TestBackwardSumDim(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{1, -2, 3, 0.5, 4, -1}, tensor.Shape{2, 3})

	checkGradients(t, backend, func() *tensor.Tensor {
		rows := x.SumDim(1, false)
		return rows.Mul(rows).Sum()
	}, x)
}

func TestBackwardCrossEntropy(t *testing.T) {
	backend := autodiff.New(cpu.New())

	logits := fromSlice(t, backend, []float32{2, 0, -1, 0.5, 1, 1.5}, tensor.Shape{2, 3})
	targets, err := tensor.FromInt32Slice([]int32{0, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().Clear()
	backend.Tape().StartRecording()
	cost := tensor.New(backend.CrossEntropy(logits.Raw(), targets.Raw()), backend)
	grads := autodiff.Backward(cost, backend)
	backend.Tape().StopRecording()

	grad, ok := grads[logits.Raw()]
	require.True(t, ok)

	// d cost / d logits = (softmax - onehot) / batch
	probs := cpu.New().Softmax(logits.Raw()).AsFloat32()
	want := make([]float32, len(probs))
	copy(want, probs)
	want[0] -= 1
	want[5] -= 1
	for i := range want {
		want[i] /= 2
	}
	for i := range want {
		assert.InDelta(t, want[i], grad.AsFloat32()[i], 1e-5)
	}
}

func TestBackwardAccumulatesReusedInputs(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{1, 2}, tensor.Shape{1, 2})

	// x appears in two branches; gradients must add up.
	checkGradients(t, backend, func() *tensor.Tensor {
		return x.Mul(x).Add(x.MulScalar(3)).Sum()
	}, x)
}

func TestTapeRecordingToggle(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := fromSlice(t, backend, []float32{1, 2}, tensor.Shape{2})

	x.AddScalar(1)
	assert.Equal(t, 0, backend.Tape().NumOps())

	backend.Tape().StartRecording()
	x.AddScalar(1)
	assert.Equal(t, 1, backend.Tape().NumOps())

	backend.Tape().StopRecording()
	x.AddScalar(1)
	assert.Equal(t, 1, backend.Tape().NumOps())

	backend.Tape().Clear()
	assert.Equal(t, 0, backend.Tape().NumOps())
}
