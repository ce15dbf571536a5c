package volume

// Volume is a bounds-checked view of an octree rooted at the origin.
// Coordinates outside [0, Size()) read as empty.
type Volume struct {
	Root *Node
}

func New(depth int) *Volume {
	return &Volume{Root: NewNode(depth, 0)}
}

func (v *Volume) Depth() int { return v.Root.depth }
func (v *Volume) Size() int  { return 1 << v.Root.depth }

func (v *Volume) Contains(x, y, z int) bool {
	size := v.Size()
	return x >= 0 && x < size && y >= 0 && y < size && z >= 0 && z < size
}

func (v *Volume) Get(x, y, z int) Value {
	if !v.Contains(x, y, z) {
		return 0
	}
	return v.Root.Get(x, y, z)
}

// Set ignores coordinates outside the volume.
func (v *Volume) Set(x, y, z int, val Value) bool {
	if !v.Contains(x, y, z) {
		return false
	}
	return v.Root.Set(x, y, z, val)
}

func (v *Volume) Apply(r Region, val Value) bool {
	return v.Root.ApplyRegion(r, 0, 0, 0, val)
}

// Slice fills buf (Size()*Size(), row-major) with the full plane at index d
// along axis. Planes outside the volume are empty.
func (v *Volume) Slice(buf []Value, d, axis int) {
	size := v.Size()
	if d < 0 || d >= size {
		fill(buf, 0, size, size, 0)
		return
	}
	v.Root.Slice(buf, 0, size, d, axis)
}

// SliceBlock fills buf with the plane through (x,y,z) along axis of the
// sub-block of edge 2^level whose origin in the two other axes is (x,y,z),
// surrounded by a one voxel halo. buf has stride 2^level+2.
func (v *Volume) SliceBlock(buf []Value, x, y, z, level, axis int) {
	size := 1 << level
	stride := size + 2
	last := stride * (size + 1)
	for i := 0; i <= size+1; i++ {
		switch axis {
		case AxisX:
			buf[i] = v.Get(x, y+i-1, z-1)
			buf[i+last] = v.Get(x, y+i-1, z+size)
			buf[i*stride] = v.Get(x, y-1, z+i-1)
			buf[i*stride+size+1] = v.Get(x, y+size, z+i-1)
		case AxisY:
			buf[i] = v.Get(x-1, y, z+i-1)
			buf[i+last] = v.Get(x+size, y, z+i-1)
			buf[i*stride] = v.Get(x+i-1, y, z-1)
			buf[i*stride+size+1] = v.Get(x+i-1, y, z+size)
		default:
			buf[i] = v.Get(x+i-1, y-1, z)
			buf[i+last] = v.Get(x+i-1, y+size, z)
			buf[i*stride] = v.Get(x-1, y+i-1, z)
			buf[i*stride+size+1] = v.Get(x+size, y+i-1, z)
		}
	}
	if !v.Contains(x, y, z) {
		fill(buf, stride+1, stride, size, 0)
		return
	}
	v.Root.SliceBlock(buf, stride+1, stride, x, y, z, level, axis)
}

// Clone returns an independent copy of the volume.
func (v *Volume) Clone() *Volume {
	return &Volume{Root: v.Root.Clone()}
}
