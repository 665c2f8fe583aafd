package tensor

// Zeros creates a float32 tensor filled with zeros.
func Zeros(shape Shape, b Backend) *Tensor {
	return New(MustRaw(shape, Float32), b)
}

// Ones creates a float32 tensor filled with ones.
func Ones(shape Shape, b Backend) *Tensor {
	return Full(shape, 1, b)
}

// Full creates a float32 tensor filled with a specific value.
func Full(shape Shape, value float32, b Backend) *Tensor {
	t := Zeros(shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}
