package mesher

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxtree/volume"
)

// Face bits of a block mask. A set bit means the face may border a
// different occupancy and has to be scanned.
const (
	FaceNegX uint8 = 1 << iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ

	AllFaces = FaceNegX | FacePosX | FaceNegY | FacePosY | FaceNegZ | FacePosZ
)

// Quads are merged along a row only while both edge directions stay within
// this cosine of the run's.
const mergeCosine = 0.99

// corner nudge indexed by the number of solid voxels around a corner
var nudge = [9]float32{-0.44, -0.335, -0.25, -0.11, 0, 0.11, 0.25, 0.33, 0.44}

// Source provides halo-augmented planes of a block. *volume.Volume
// implements it.
type Source interface {
	SliceBlock(buf []volume.Value, x, y, z, level, axis int)
}

// Block describes one cubical sub-block to extract.
type Block struct {
	X, Y, Z int
	Level   int
	Mask    uint8
	// Leaf is set when the whole block lies in one homogeneous octree leaf,
	// so only its masked boundary planes can carry surface.
	Leaf bool
}

func (b Block) Size() int { return 1 << b.Level }

// Extractor turns blocks into meshes. It keeps scratch planes between calls
// and must not be shared between goroutines.
type Extractor struct {
	// Scale is world units per voxel. Zero means 1.
	Scale float32
	// MaxVertices caps the vertex count of a single Mesh. Zero is unbounded.
	MaxVertices int

	a, b []volume.Value
}

func (e *Extractor) scale() float32 {
	if e.Scale == 0 {
		return 1
	}
	return e.Scale
}

// Extract sweeps the three axes of blk, comparing each pair of adjacent
// planes, and returns the resulting meshes. Nil means the block has no
// surface.
func (e *Extractor) Extract(src Source, blk Block) []*Mesh {
	size := blk.Size()
	stride := size + 2
	if cap(e.a) < stride*stride {
		e.a = make([]volume.Value, stride*stride)
		e.b = make([]volume.Value, stride*stride)
	}
	a, b := e.a[:stride*stride], e.b[:stride*stride]

	out := &builder{max: e.MaxVertices}
	out.next()

	for axis := 0; axis < 3; axis++ {
		loaded := -2
		for k := 0; k <= size; k++ {
			if blk.Leaf && !shellPlane(blk.Mask, axis, k, size) {
				continue
			}
			if loaded != k-1 {
				e.slice(src, blk, a, axis, k-1)
			}
			e.slice(src, blk, b, axis, k)
			e.scan(out, a, b, axis, k, size)
			a, b = b, a
			loaded = k
		}
	}

	return out.finish(mgl32.Vec3{float32(blk.X), float32(blk.Y), float32(blk.Z)}.Mul(e.scale()))
}

func shellPlane(mask uint8, axis, k, size int) bool {
	neg, pos := FaceNegX<<(2*axis), FacePosX<<(2*axis)
	return (k == 0 && mask&neg != 0) || (k == size && mask&pos != 0)
}

func (e *Extractor) slice(src Source, blk Block, buf []volume.Value, axis, k int) {
	x, y, z := blk.X, blk.Y, blk.Z
	switch axis {
	case volume.AxisX:
		x += k
	case volume.AxisY:
		y += k
	default:
		z += k
	}
	src.SliceBlock(buf, x, y, z, blk.Level, axis)
}

// scan emits the quads between plane k-1 (a) and plane k (b).
func (e *Extractor) scan(out *builder, a, b []volume.Value, axis, k, size int) {
	stride := size + 2
	p := stride + 1
	for j := 0; j < size; j++ {
		last := 0
		var e1, e2 mgl32.Vec3
		for i := 0; i < size; i++ {
			pp := p + i
			f := 0
			if a[pp] == 0 || b[pp] == 0 {
				f = int(b[pp]) - int(a[pp])
			}
			if f == 0 {
				last = 0
				continue
			}

			m := out.cur
			vs := len(m.Vertices)
			var p1, p3 mgl32.Vec3
			if last == f {
				p1, p3 = m.Vertices[vs-3], m.Vertices[vs-1]
			} else {
				p1 = e.corner(a, b, pp, stride, axis, k, i, j)
				p3 = e.corner(a, b, pp+stride, stride, axis, k, i, j+1)
			}
			p2 := e.corner(a, b, pp+1, stride, axis, k, i+1, j)
			p4 := e.corner(a, b, pp+stride+1, stride, axis, k, i+1, j+1)

			d1 := p2.Sub(p1).Normalize()
			d2 := p4.Sub(p3).Normalize()
			if last == f && d1.Dot(e1) > mergeCosine && d2.Dot(e2) > mergeCosine {
				m.Vertices[vs-3] = p2
				m.Vertices[vs-1] = p4
				continue
			}
			e1, e2, last = d1, d2, f
			out.quad(p1, p2, p3, p4, f)
		}
		p += stride
	}
}

// corner places the quad corner (k, i, j) of the sweep, nudged toward the
// occupied side along each axis where the 8 surrounding voxels disagree,
// and maps it back to x, y, z.
func (e *Extractor) corner(a, b []volume.Value, p, stride, axis, k, i, j int) mgl32.Vec3 {
	ff := [8]int{
		occ(a[p-stride-1]), occ(a[p-stride]),
		occ(a[p-1]), occ(a[p]),
		occ(b[p-stride-1]), occ(b[p-stride]),
		occ(b[p-1]), occ(b[p]),
	}
	v0 := float32(k) + vote(ff[0]+ff[1]+ff[2]+ff[3], ff[4]+ff[5]+ff[6]+ff[7])
	v1 := float32(i) + vote(ff[0]+ff[2]+ff[4]+ff[6], ff[1]+ff[3]+ff[5]+ff[7])
	v2 := float32(j) + vote(ff[0]+ff[1]+ff[4]+ff[5], ff[2]+ff[3]+ff[6]+ff[7])

	s := e.scale()
	switch axis {
	case volume.AxisX:
		return mgl32.Vec3{v0 * s, v1 * s, v2 * s}
	case volume.AxisY:
		return mgl32.Vec3{v2 * s, v0 * s, v1 * s}
	default:
		return mgl32.Vec3{v1 * s, v2 * s, v0 * s}
	}
}

func occ(v volume.Value) int {
	if v != 0 {
		return 1
	}
	return 0
}

func vote(n1, n2 int) float32 {
	switch {
	case n1 > n2:
		return nudge[n1+n2]
	case n1 < n2:
		return -nudge[n1+n2]
	}
	return 0
}

type builder struct {
	max    int
	meshes []*Mesh
	cur    *Mesh
}

func (b *builder) next() {
	b.cur = &Mesh{}
	b.meshes = append(b.meshes, b.cur)
}

func (b *builder) quad(p1, p2, p3, p4 mgl32.Vec3, f int) {
	if b.max > 0 && len(b.cur.Vertices)+4 > b.max {
		b.next()
	}
	m := b.cur
	vs := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, p1, p2, p3, p4)
	mat := uint8(f)
	if f > 0 {
		m.Triangles = append(m.Triangles, [3]uint32{vs, vs + 2, vs + 1}, [3]uint32{vs + 2, vs + 3, vs + 1})
	} else {
		mat = uint8(-f)
		m.Triangles = append(m.Triangles, [3]uint32{vs, vs + 1, vs + 2}, [3]uint32{vs + 2, vs + 1, vs + 3})
	}
	m.Materials = append(m.Materials, mat, mat)
}

func (b *builder) finish(origin mgl32.Vec3) []*Mesh {
	if len(b.cur.Vertices) == 0 {
		b.meshes = b.meshes[:len(b.meshes)-1]
	}
	if len(b.meshes) == 0 {
		return nil
	}
	for _, m := range b.meshes {
		m.Translate(origin)
	}
	return b.meshes
}
