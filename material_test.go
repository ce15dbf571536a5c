package voxtree

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxtree/mesher"
)

func TestPalette_Defaults(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, [4]uint8{51, 51, 51, 255}, p.Color(1))
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, p.Color(4))
	assert.Equal(t, DefaultMaterial().BaseColor, p.Color(200))
}

func TestPalette_WithDoesNotAlias(t *testing.T) {
	p := DefaultPalette()
	q := p.With(2, NewMaterial("gold", [4]uint8{255, 215, 0, 255}))
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, p.Color(2))
	assert.Equal(t, "gold", q.Material(2).Name)
	assert.Len(t, q, len(p))
}

func TestParseMaterial(t *testing.T) {
	m, err := ParseMaterial("teal", "#008080")
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0, 128, 128, 255}, m.BaseColor)

	_, err = ParseMaterial("bad", "008080")
	assert.Error(t, err)
}

func TestPalette_VertexColors(t *testing.T) {
	m := &mesher.Mesh{
		Vertices:  make([]mgl32.Vec3, 6),
		Triangles: [][3]uint32{{0, 1, 2}, {3, 4, 5}},
		Materials: []uint8{2, 3},
	}
	colors := DefaultPalette().VertexColors(m)
	require.Len(t, colors, 6)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, colors[0])
	assert.Equal(t, [4]uint8{0, 255, 0, 255}, colors[5])
}
