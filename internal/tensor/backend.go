package tensor

// Backend defines the compute operations the framework needs from an
// execution engine. The CPU backend implements the math directly; the
// autodiff backend decorates another Backend and records every operation
// on a gradient tape.
//
// The op set is deliberately the one the models in this repository
// exercise: dense layers, gated recurrences and softmax classification.
type Backend interface {
	// Element-wise binary operations (with NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies two 2-D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor) *RawTensor // 2-D only

	// Element-wise scalar operations.
	MulScalar(x *RawTensor, s float32) *RawTensor
	AddScalar(x *RawTensor, s float32) *RawTensor

	// Activations.
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Softmax(x *RawTensor) *RawTensor // along the last dimension

	// Reductions.
	Sum(x *RawTensor) *RawTensor                           // scalar result, shape [1]
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along one dimension

	// CrossEntropy computes mean negative log-likelihood of int32 class
	// targets [batch] under float32 logits [batch, classes]. Shape [1].
	CrossEntropy(logits, targets *RawTensor) *RawTensor

	// Argmax returns int32 indices of the maximum along dim.
	Argmax(x *RawTensor, dim int) *RawTensor

	// Name identifies the backend ("cpu", "autodiff(cpu)", ...).
	Name() string
}
