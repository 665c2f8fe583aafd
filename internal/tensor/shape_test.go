package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 5, Shape{5}.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, Shape{7}.ComputeStrides())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{2, 3}.Validate())
	require.Error(t, Shape{2, 0}.Validate())
	require.Error(t, Shape{-1, 3}.Validate())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		needs   bool
		wantErr bool
	}{
		{name: "equal", a: Shape{2, 3}, b: Shape{2, 3}, want: Shape{2, 3}, needs: false},
		{name: "row vector", a: Shape{4, 3}, b: Shape{1, 3}, want: Shape{4, 3}, needs: true},
		{name: "missing dim", a: Shape{4, 3}, b: Shape{3}, want: Shape{4, 3}, needs: true},
		{name: "both expand", a: Shape{4, 1}, b: Shape{1, 3}, want: Shape{4, 3}, needs: true},
		{name: "incompatible", a: Shape{4, 3}, b: Shape{2, 3}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needs, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, tt.needs, needs)
		})
	}
}

func TestRawTensorViews(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32)
	require.NoError(t, err)

	data := raw.AsFloat32()
	require.Len(t, data, 6)
	data[4] = 2.5

	clone := raw.Clone()
	clone.AsFloat32()[4] = -1
	assert.Equal(t, float32(2.5), raw.AsFloat32()[4])

	view, err := raw.WithShape(Shape{3, 2})
	require.NoError(t, err)
	view.AsFloat32()[4] = 7
	assert.Equal(t, float32(7), raw.AsFloat32()[4])
}
