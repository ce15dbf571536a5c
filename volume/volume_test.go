package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolume_GetOutOfRangeIsEmpty(t *testing.T) {
	v := New(3)
	v.Apply(Box{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8}, 1)

	assert.Equal(t, Value(1), v.Get(0, 0, 0))
	assert.Equal(t, Value(1), v.Get(7, 7, 7))
	assert.Equal(t, Value(0), v.Get(-1, 0, 0))
	assert.Equal(t, Value(0), v.Get(0, 8, 0))
	assert.Equal(t, Value(0), v.Get(0, 0, 100))
	assert.False(t, v.Set(8, 0, 0, 2))
}

func TestVolume_SliceBlockHalo(t *testing.T) {
	v := New(4)
	v.Apply(Sphere{CX: 8, CY: 8, CZ: 8, R: 6}, 2)
	v.Set(4, 3, 4, 3)

	const level = 2
	size := 1 << level
	stride := size + 2
	buf := make([]Value, stride*stride)

	// Sweep a few sub-blocks, including ones whose halo leaves the volume.
	for _, o := range [][3]int{{0, 0, 0}, {4, 4, 4}, {12, 8, 4}, {4, 0, 12}} {
		for axis := 0; axis < 3; axis++ {
			for k := -1; k <= size; k++ {
				x, y, z := o[0], o[1], o[2]
				switch axis {
				case AxisX:
					x += k
				case AxisY:
					y += k
				default:
					z += k
				}
				v.SliceBlock(buf, x, y, z, level, axis)
				for row := 0; row < stride; row++ {
					for col := 0; col < stride; col++ {
						var want Value
						switch axis {
						case AxisX:
							want = v.Get(x, y+col-1, z+row-1)
						case AxisY:
							want = v.Get(x+row-1, y, z+col-1)
						default:
							want = v.Get(x+col-1, y+row-1, z)
						}
						if got := buf[row*stride+col]; got != want {
							t.Fatalf("block %v axis %d k %d cell (%d,%d): got %d want %d", o, axis, k, col, row, got, want)
						}
					}
				}
			}
		}
	}
}

func TestVolume_Slice(t *testing.T) {
	v := New(2)
	v.Set(1, 2, 3, 4)
	buf := make([]Value, 16)

	v.Slice(buf, 3, AxisZ)
	assert.Equal(t, Value(4), buf[2*4+1])

	v.Slice(buf, 4, AxisZ)
	assert.Equal(t, make([]Value, 16), buf)
}

func TestVolume_CloneIsIndependent(t *testing.T) {
	v := New(3)
	v.Set(1, 1, 1, 1)
	c := v.Clone()
	v.Set(1, 1, 1, 0)

	assert.Equal(t, Value(1), c.Get(1, 1, 1))
	assert.Equal(t, Value(0), v.Get(1, 1, 1))
}
