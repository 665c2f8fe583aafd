package tensor

import "fmt"

// DataType identifies the element type of a RawTensor at runtime.
type DataType int

// Supported element types. Model state is float32; class labels are int32.
const (
	Float32 DataType = iota
	Int32
)

// Size returns the element size in bytes.
func (d DataType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	default:
		panic(fmt.Sprintf("unknown dtype %d", int(d)))
	}
}

// String returns the dtype name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}
