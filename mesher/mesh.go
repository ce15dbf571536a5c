package mesher

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is one renderable buffer. Triangles index into Vertices and
// Materials holds one material id per triangle. Consumers must treat a Mesh
// handed out by a cache as read-only.
type Mesh struct {
	Vertices  []mgl32.Vec3
	Triangles [][3]uint32
	Materials []uint8
}

func (m *Mesh) VertexCount() int   { return len(m.Vertices) }
func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

func (m *Mesh) Translate(off mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(off)
	}
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi := m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for c := 0; c < 3; c++ {
			if v[c] < lo[c] {
				lo[c] = v[c]
			}
			if v[c] > hi[c] {
				hi[c] = v[c]
			}
		}
	}
	return lo, hi
}

// Normals returns area weighted per-vertex normals.
func (m *Mesh) Normals() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(m.Vertices))
	for _, t := range m.Triangles {
		p0, p1, p2 := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, i := range t {
			out[i] = out[i].Add(n)
		}
	}
	for i, n := range out {
		if l := n.Len(); l > 0 {
			out[i] = n.Mul(1 / l)
		}
	}
	return out
}

// VertexMaterials spreads the per-triangle materials onto vertices, for
// backends that color by vertex.
func (m *Mesh) VertexMaterials() []uint8 {
	out := make([]uint8, len(m.Vertices))
	for ti, t := range m.Triangles {
		for _, i := range t {
			out[i] = m.Materials[ti]
		}
	}
	return out
}
