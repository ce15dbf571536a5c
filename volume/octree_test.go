package volume

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_SetGetRoundtrip(t *testing.T) {
	n := NewNode(5, 0)
	rng := rand.New(rand.NewSource(1))

	want := map[[3]int]Value{}
	for i := 0; i < 500; i++ {
		p := [3]int{rng.Intn(32), rng.Intn(32), rng.Intn(32)}
		v := Value(rng.Intn(4))
		n.Set(p[0], p[1], p[2], v)
		want[p] = v
	}
	for p, v := range want {
		assert.Equal(t, v, n.Get(p[0], p[1], p[2]), "voxel %v", p)
	}
}

func TestNode_SetReportsChange(t *testing.T) {
	n := NewNode(3, 0)

	assert.False(t, n.Set(1, 2, 3, 0), "writing the current value is a no-op")
	assert.True(t, n.IsLeaf(), "a no-op write must not split the root")

	assert.True(t, n.Set(1, 2, 3, 7))
	assert.False(t, n.Set(1, 2, 3, 7))
	assert.Equal(t, Value(7), n.Get(1, 2, 3))
	assert.Equal(t, Value(0), n.Get(1, 2, 2))
}

func TestNode_SetCompactsStructurally(t *testing.T) {
	n := NewNode(2, 0)
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				n.Set(x, y, z, 3)
			}
		}
	}
	require.True(t, n.IsLeaf(), "filling every voxel must collapse to one leaf")
	assert.Equal(t, Value(3), n.Value())
	assert.Equal(t, 1, n.Stats().Nodes)

	// Undo a single voxel and put it back.
	n.Set(2, 1, 3, 0)
	assert.False(t, n.IsLeaf())
	n.Set(2, 1, 3, 3)
	assert.True(t, n.IsLeaf())
}

func TestNode_ApplyRegionBox(t *testing.T) {
	n := NewNode(4, 0)
	b := Box{X: 2, Y: 3, Z: 4, W: 5, H: 6, D: 7}

	require.True(t, n.ApplyRegion(b, 0, 0, 0, 2))
	for z := 0; z < 16; z++ {
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				in := x >= 2 && x < 7 && y >= 3 && y < 9 && z >= 4 && z < 11
				want := Value(0)
				if in {
					want = 2
				}
				if got := n.Get(x, y, z); got != want {
					t.Fatalf("voxel (%d,%d,%d) = %d, want %d", x, y, z, got, want)
				}
			}
		}
	}

	assert.False(t, n.ApplyRegion(b, 0, 0, 0, 2), "second identical edit must not change anything")
	assert.True(t, n.ApplyRegion(b, 0, 0, 0, 0))
	assert.True(t, n.IsLeaf(), "erasing the box must compact back to an empty root")
}

func TestNode_ApplyRegionSphereIdempotent(t *testing.T) {
	n := NewNode(6, 0)
	s := Sphere{CX: 30.5, CY: 28, CZ: 33, R: 17}

	require.True(t, n.ApplyRegion(s, 0, 0, 0, 1))
	before := n.Clone()
	assert.False(t, n.ApplyRegion(s, 0, 0, 0, 1))
	assert.Equal(t, before, n)
	assert.Equal(t, Value(1), n.Get(30, 28, 33))
	assert.Equal(t, Value(0), n.Get(0, 0, 0))
}

// A conservative Partial answer that ends up changing nothing must not leave
// an uncompacted split behind.
func TestNode_ApplyRegionRecompactsUnchangedSplit(t *testing.T) {
	n := NewNode(3, 0)
	r := RegionFunc(func(x, y, z, size int) Disposition {
		if size > 1 {
			return Partial
		}
		return Outside
	})
	assert.False(t, n.ApplyRegion(r, 0, 0, 0, 5))
	assert.True(t, n.IsLeaf())
}

func TestNode_ApplyRegionPartialAtUnitIsInside(t *testing.T) {
	n := NewNode(2, 0)
	r := RegionFunc(func(x, y, z, size int) Disposition {
		if x == 1 && y == 1 && z == 1 && size == 1 {
			return Partial
		}
		if size > 1 && x <= 1 && y <= 1 && z <= 1 {
			return Partial
		}
		return Outside
	})
	require.True(t, n.ApplyRegion(r, 0, 0, 0, 9))
	assert.Equal(t, Value(9), n.Get(1, 1, 1))
	assert.Equal(t, Value(0), n.Get(0, 1, 1))
}

// countingRegion counts how many cubes the octree asks about.
type countingRegion struct {
	Region
	calls int
}

func (c *countingRegion) Classify(x, y, z, size int) Disposition {
	c.calls++
	return c.Region.Classify(x, y, z, size)
}

func TestNode_ApplyRegionCostIsIndependentOfVolume(t *testing.T) {
	calls := func(depth int) int {
		n := NewNode(depth, 0)
		c := float64(int(1) << (depth - 1))
		r := &countingRegion{Region: Sphere{CX: c, CY: c, CZ: c, R: 8}}
		n.ApplyRegion(r, 0, 0, 0, 1)
		return r.calls
	}

	small, large := calls(6), calls(12)
	// The sphere straddles the centre at every level, so each extra level costs
	// at most 8 partial parents times 8 children.
	assert.Less(t, large-small, 64*7)

	// Doubling the radius roughly quadruples the work (surface), nowhere near
	// the 8x a volume-proportional edit would need.
	n := NewNode(9, 0)
	r8 := &countingRegion{Region: Sphere{CX: 256, CY: 256, CZ: 256, R: 16}}
	n.ApplyRegion(r8, 0, 0, 0, 1)
	n = NewNode(9, 0)
	r16 := &countingRegion{Region: Sphere{CX: 256, CY: 256, CZ: 256, R: 32}}
	n.ApplyRegion(r16, 0, 0, 0, 1)
	ratio := float64(r16.calls) / float64(r8.calls)
	assert.Less(t, ratio, 6.0)
	assert.Greater(t, ratio, 2.0)
}

func TestNode_SliceMatchesGet(t *testing.T) {
	n := NewNode(4, 0)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		n.Set(rng.Intn(16), rng.Intn(16), rng.Intn(16), Value(1+rng.Intn(3)))
	}
	n.ApplyRegion(Box{X: 8, Y: 0, Z: 8, W: 8, H: 8, D: 8}, 0, 0, 0, 4)

	buf := make([]Value, 16*16)
	for axis := 0; axis < 3; axis++ {
		for d := 0; d < 16; d++ {
			n.Slice(buf, 0, 16, d, axis)
			for row := 0; row < 16; row++ {
				for col := 0; col < 16; col++ {
					var x, y, z int
					switch axis {
					case AxisX:
						x, y, z = d, col, row
					case AxisY:
						x, y, z = row, d, col
					default:
						x, y, z = col, row, d
					}
					if got, want := buf[row*16+col], n.Get(x, y, z); got != want {
						t.Fatalf("axis %d plane %d (%d,%d): got %d want %d", axis, d, col, row, got, want)
					}
				}
			}
		}
	}
}

func TestNode_SliceBlockLeafFill(t *testing.T) {
	n := NewNode(4, 0)
	n.ApplyRegion(Box{X: 0, Y: 0, Z: 0, W: 8, H: 8, D: 8}, 0, 0, 0, 6)

	buf := make([]Value, 6*6)
	n.SliceBlock(buf, 7, 6, 0, 0, 0, 2, AxisZ)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			assert.Equal(t, Value(6), buf[7+row*6+col])
		}
	}
	assert.Equal(t, Value(0), buf[0], "halo cells are not touched")
}

func TestNode_Rotate90(t *testing.T) {
	n := NewNode(1, 0)
	n.Set(1, 0, 0, 1)

	// A quarter turn around z moves the +x octant to +y and so on around the
	// cycle; four turns are the identity.
	before := n.Clone()
	n.Rotate90(AxisZ)
	assert.Equal(t, Value(0), n.Get(1, 0, 0))
	assert.Equal(t, Value(1), n.Get(0, 0, 0)+n.Get(0, 1, 0)+n.Get(1, 1, 0))
	for i := 0; i < 3; i++ {
		n.Rotate90(AxisZ)
	}
	assert.Equal(t, before, n)

	for axis := 0; axis < 3; axis++ {
		m := NewNode(3, 0)
		m.ApplyRegion(Box{X: 0, Y: 0, Z: 0, W: 2, H: 3, D: 5}, 0, 0, 0, 2)
		solid := m.Stats().Solid
		m.Rotate90(axis)
		assert.Equal(t, solid, m.Stats().Solid, "rotation preserves the solid volume")
	}
}

func TestNode_Stats(t *testing.T) {
	n := NewNode(3, 0)
	assert.Equal(t, Stats{Nodes: 1, Leaves: 1}, n.Stats())

	n.Set(0, 0, 0, 1)
	s := n.Stats()
	assert.Equal(t, 1+8+8+8, s.Nodes)
	assert.Equal(t, 22, s.Leaves)
	assert.Equal(t, int64(1), s.Solid)
}
