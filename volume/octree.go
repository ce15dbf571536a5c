package volume

// Value is a material id. Zero is empty space.
type Value = uint8

const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Node is one cube of the sparse octree. A node is either a leaf holding a
// single Value for its whole cube or it owns exactly 8 children, indexed by
// octant with bit0=x, bit1=y, bit2=z.
type Node struct {
	depth    int
	value    Value
	children *[8]*Node
}

func NewNode(depth int, v Value) *Node {
	return &Node{depth: depth, value: v}
}

func (n *Node) Depth() int   { return n.depth }
func (n *Node) Size() int    { return 1 << n.depth }
func (n *Node) Value() Value { return n.value }
func (n *Node) IsLeaf() bool { return n.children == nil }

// Child returns the child at octant i, or nil for a leaf.
func (n *Node) Child(i int) *Node {
	if n.children == nil {
		return nil
	}
	return n.children[i]
}

func (n *Node) split() {
	if n.children != nil {
		return
	}
	var c [8]*Node
	for i := range c {
		c[i] = &Node{depth: n.depth - 1, value: n.value}
	}
	n.children = &c
}

// compact collapses the node into a leaf when all 8 children are leaves of
// equal value.
func (n *Node) compact() bool {
	if n.children == nil {
		return false
	}
	v := n.children[0].value
	for _, c := range n.children {
		if c.children != nil || c.value != v {
			return false
		}
	}
	n.value = v
	n.children = nil
	return true
}

func octant(x, y, z, d int) int {
	return ((x >> d) & 1) | ((y>>d)&1)<<1 | ((z>>d)&1)<<2
}

// Get returns the value at (x,y,z). Coordinates must lie in [0, Size()).
func (n *Node) Get(x, y, z int) Value {
	for n.children != nil {
		n = n.children[octant(x, y, z, n.depth-1)]
	}
	return n.value
}

// Set stores v at (x,y,z) and reports whether the stored value changed.
func (n *Node) Set(x, y, z int, v Value) bool {
	if n.depth == 0 {
		if n.value == v {
			return false
		}
		n.value = v
		return true
	}
	if n.children == nil {
		if n.value == v {
			return false
		}
		n.split()
	}
	if !n.children[octant(x, y, z, n.depth-1)].Set(x, y, z, v) {
		return false
	}
	n.compact()
	return true
}

// ApplyRegion sets every voxel of the region to v. (x,y,z) is the absolute
// origin of this node's cube. Fully covered cubes are replaced in one step
// and partially covered ones are subdivided, so the work done is bounded by
// the region's surface in nodes rather than its volume in voxels.
func (n *Node) ApplyRegion(r Region, x, y, z int, v Value) bool {
	if n.children == nil && n.value == v {
		return false
	}
	switch r.Classify(x, y, z, 1<<n.depth) {
	case Inside:
		n.value = v
		n.children = nil
		return true
	case Partial:
		if n.depth == 0 {
			n.value = v
			return true
		}
		n.split()
		half := 1 << (n.depth - 1)
		changed := false
		for i, c := range n.children {
			if c.ApplyRegion(r, x+half*(i&1), y+half*((i>>1)&1), z+half*((i>>2)&1), v) {
				changed = true
			}
		}
		n.compact()
		return changed
	}
	return false
}

// Slice writes the cross-section of this node at absolute plane index d along
// axis into buf, starting at offset p with the given row stride. Columns and
// rows follow the axis cycle: x → (y,z), y → (z,x), z → (x,y).
func (n *Node) Slice(buf []Value, p, stride, d, axis int) {
	size := 1 << n.depth
	if n.children == nil {
		fill(buf, p, stride, size, n.value)
		return
	}
	half := size >> 1
	o := ((d >> (n.depth - 1)) & 1) << axis
	for i := 0; i < 4; i++ {
		col, row := i&1, (i>>1)&1
		var c int
		switch axis {
		case AxisX:
			c = o | col<<1 | row<<2
		case AxisY:
			c = o | col<<2 | row
		default:
			c = o | col | row<<1
		}
		n.children[c].Slice(buf, p+half*col+stride*half*row, stride, d, axis)
	}
}

// SliceBlock slices the level-sized cube containing (x,y,z). A leaf larger
// than the cube fills the whole 2^level square with its value.
func (n *Node) SliceBlock(buf []Value, p, stride, x, y, z, level, axis int) {
	for n.depth > level {
		if n.children == nil {
			fill(buf, p, stride, 1<<level, n.value)
			return
		}
		n = n.children[octant(x, y, z, n.depth-1)]
	}
	d := z
	switch axis {
	case AxisX:
		d = x
	case AxisY:
		d = y
	}
	n.Slice(buf, p, stride, d, axis)
}

func fill(buf []Value, p, stride, size int, v Value) {
	for j := 0; j < size; j++ {
		row := buf[p : p+size]
		for i := range row {
			row[i] = v
		}
		p += stride
	}
}

// rotation cycles of the four octants in the plane perpendicular to each axis
var rotationCycles = [3][4]int{
	{0, 2, 6, 4},
	{0, 1, 5, 4},
	{0, 1, 3, 2},
}

// Rotate90 turns the subtree a quarter turn around axis by permuting
// children. Leaf values are untouched.
func (n *Node) Rotate90(axis int) {
	if n.children == nil {
		return
	}
	c := n.children
	d := 1 << axis
	cy := rotationCycles[axis]
	for i := 0; i < 2; i++ {
		b := i * d
		t := c[b+cy[0]]
		c[b+cy[0]] = c[b+cy[1]]
		c[b+cy[1]] = c[b+cy[2]]
		c[b+cy[2]] = c[b+cy[3]]
		c[b+cy[3]] = t
	}
	for _, ch := range c {
		ch.Rotate90(axis)
	}
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	out := &Node{depth: n.depth, value: n.value}
	if n.children != nil {
		var c [8]*Node
		for i, ch := range n.children {
			c[i] = ch.Clone()
		}
		out.children = &c
	}
	return out
}

type Stats struct {
	Nodes  int
	Leaves int
	// Solid counts voxels covered by non-empty leaves.
	Solid int64
}

func (n *Node) Stats() Stats {
	var s Stats
	n.stats(&s)
	return s
}

func (n *Node) stats(s *Stats) {
	s.Nodes++
	if n.children == nil {
		s.Leaves++
		if n.value != 0 {
			s.Solid += int64(1) << (3 * n.depth)
		}
		return
	}
	for _, c := range n.children {
		c.stats(s)
	}
}
