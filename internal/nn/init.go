package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Initializer fills a freshly allocated parameter tensor. Randomness comes
// from the caller-supplied source, never from package-global state, so
// runs are reproducible under a fixed seed.
type Initializer interface {
	Initialize(rng *rand.Rand, t *tensor.Tensor)
}

// IsotropicGaussian draws every element from N(0, Std²).
type IsotropicGaussian struct {
	Std float64
}

// Initialize fills t with Gaussian noise.
func (g IsotropicGaussian) Initialize(rng *rand.Rand, t *tensor.Tensor) {
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64() * g.Std)
	}
}

// Constant fills every element with a fixed value.
type Constant struct {
	Value float32
}

// Initialize fills t with the constant.
func (c Constant) Initialize(_ *rand.Rand, t *tensor.Tensor) {
	data := t.Data()
	for i := range data {
		data[i] = c.Value
	}
}

// Orthogonal initializes a 2-D parameter with orthonormal rows or columns,
// obtained from the QR decomposition of a Gaussian matrix. This is the
// customary initialization for recurrent weight matrices, keeping repeated
// applications of the transition close to norm-preserving.
type Orthogonal struct{}

// Initialize fills a 2-D tensor with an orthogonal matrix.
func (Orthogonal) Initialize(rng *rand.Rand, t *tensor.Tensor) {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Orthogonal: requires a 2-D tensor, got %v", shape))
	}
	rows, cols := shape[0], shape[1]

	transposed := rows < cols
	m, n := rows, cols
	if transposed {
		m, n = cols, rows
	}

	gaussian := make([]float64, m*n)
	for i := range gaussian {
		gaussian[i] = rng.NormFloat64()
	}

	var qr mat.QR
	qr.Factorize(mat.NewDense(m, n, gaussian))
	var q mat.Dense
	qr.QTo(&q)

	// q is m×m; its first n columns are an orthonormal basis.
	data := t.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if transposed {
				data[i*cols+j] = float32(q.At(j, i))
			} else {
				data[i*cols+j] = float32(q.At(i, j))
			}
		}
	}
}

// XavierUniform draws from U(-b, b) with b = sqrt(6 / (fanIn + fanOut)),
// inferring fan sizes from the 2-D parameter shape [out, in].
type XavierUniform struct{}

// Initialize fills a 2-D tensor with Xavier/Glorot uniform noise.
func (XavierUniform) Initialize(rng *rand.Rand, t *tensor.Tensor) {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("XavierUniform: requires a 2-D tensor, got %v", shape))
	}
	fanOut, fanIn := shape[0], shape[1]
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2 - 1) * bound)
	}
}
