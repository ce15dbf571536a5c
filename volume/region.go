package volume

// Disposition is a region's answer for one cube of the octree.
type Disposition uint8

const (
	Outside Disposition = iota
	Inside
	Partial
)

// Region classifies axis-aligned cubes against an edit volume. Answers must
// be monotone under subdivision: Inside for a cube implies Inside for every
// sub-cube and Outside implies Outside.
type Region interface {
	Classify(x, y, z, size int) Disposition
}

// RegionFunc adapts a plain function to Region.
type RegionFunc func(x, y, z, size int) Disposition

func (f RegionFunc) Classify(x, y, z, size int) Disposition {
	return f(x, y, z, size)
}

// Sphere is a ball of radius R centred at (CX, CY, CZ). The inside test for
// large cubes only looks at the 8 corners, so coarse nodes near the surface
// are subdivided rather than classified exactly.
type Sphere struct {
	CX, CY, CZ float64
	R          float64
}

func (s Sphere) Classify(x, y, z, size int) Disposition {
	rr := s.R * s.R
	fx, fy, fz, fs := float64(x), float64(y), float64(z), float64(size)
	dx := clamp(s.CX, fx, fx+fs) - s.CX
	dy := clamp(s.CY, fy, fy+fs) - s.CY
	dz := clamp(s.CZ, fz, fz+fs) - s.CZ
	if dx*dx+dy*dy+dz*dz >= rr {
		return Outside
	}
	if size == 1 {
		return Inside
	}
	for i := 0; i < 8; i++ {
		px := fx - s.CX + fs*float64(i&1)
		py := fy - s.CY + fs*float64((i>>1)&1)
		pz := fz - s.CZ + fs*float64((i>>2)&1)
		if px*px+py*py+pz*pz >= rr {
			return Partial
		}
	}
	return Inside
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Box is the half-open integer box [X, X+W) x [Y, Y+H) x [Z, Z+D).
type Box struct {
	X, Y, Z int
	W, H, D int
}

func (b Box) Classify(x, y, z, size int) Disposition {
	x2, y2, z2 := b.X+b.W, b.Y+b.H, b.Z+b.D
	if x >= b.X && x+size <= x2 && y >= b.Y && y+size <= y2 && z >= b.Z && z+size <= z2 {
		return Inside
	}
	if x+size > b.X && x < x2 && y+size > b.Y && y < y2 && z+size > b.Z && z < z2 {
		return Partial
	}
	return Outside
}

// Cube returns the box of edge size centred on (cx, cy, cz).
func Cube(cx, cy, cz, size int) Box {
	h := size / 2
	return Box{X: cx - h, Y: cy - h, Z: cz - h, W: size, H: size, D: size}
}
