package voxtree

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gekko3d/voxtree/mesher"
	"github.com/gekko3d/voxtree/volume"
)

type Material struct {
	Name      string
	BaseColor [4]uint8 // RGBA
}

func NewMaterial(name string, baseColor [4]uint8) Material {
	return Material{Name: name, BaseColor: baseColor}
}

// Helper for default white
func DefaultMaterial() Material {
	return Material{Name: "default", BaseColor: [4]uint8{255, 255, 255, 255}}
}

// ParseMaterial builds an opaque material from a hex color such as "#cc3333".
func ParseMaterial(name, hex string) (Material, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Material{}, fmt.Errorf("material %q: %w", name, err)
	}
	r, g, b := c.RGB255()
	return NewMaterial(name, [4]uint8{r, g, b, 255}), nil
}

// Palette maps voxel values to materials. Index 0 is the empty material.
type Palette []Material

// DefaultPalette holds the stock editor colors: empty, grey, red, green, blue.
func DefaultPalette() Palette {
	return Palette{
		{Name: "empty"},
		NewMaterial("grey", [4]uint8{51, 51, 51, 255}),
		NewMaterial("red", [4]uint8{255, 0, 0, 255}),
		NewMaterial("green", [4]uint8{0, 255, 0, 255}),
		NewMaterial("blue", [4]uint8{0, 0, 255, 255}),
	}
}

// Material returns the material of v, or DefaultMaterial for values past
// the end of the palette.
func (p Palette) Material(v volume.Value) Material {
	if int(v) < len(p) {
		return p[v]
	}
	return DefaultMaterial()
}

func (p Palette) Color(v volume.Value) [4]uint8 {
	return p.Material(v).BaseColor
}

// With returns a copy of p with id set to m, growing it as needed.
func (p Palette) With(id uint8, m Material) Palette {
	n := len(p)
	if int(id) >= n {
		n = int(id) + 1
	}
	out := make(Palette, n)
	copy(out, p)
	for i := len(p); i < n; i++ {
		out[i] = DefaultMaterial()
	}
	out[id] = m
	return out
}

// VertexColors colors each vertex of m by its triangle's material.
func (p Palette) VertexColors(m *mesher.Mesh) [][4]uint8 {
	mats := m.VertexMaterials()
	out := make([][4]uint8, len(mats))
	for i, v := range mats {
		out[i] = p.Color(v)
	}
	return out
}
