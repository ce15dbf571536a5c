package vox

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/volume"
)

func chunk(buf *bytes.Buffer, id string, data []byte, children int) {
	buf.WriteString(id)
	_ = binary.Write(buf, binary.LittleEndian, int32(len(data)))
	_ = binary.Write(buf, binary.LittleEndian, int32(children))
	buf.Write(data)
}

func u32s(v ...uint32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:], x)
	}
	return b
}

func sampleFile(voxels ...Voxel) []byte {
	var body bytes.Buffer
	chunk(&body, "SIZE", u32s(4, 3, 2), 0)
	xyzi := u32s(uint32(len(voxels)))
	for _, v := range voxels {
		xyzi = append(xyzi, v.X, v.Y, v.Z, v.ColorIndex)
	}
	chunk(&body, "XYZI", xyzi, 0)
	rgba := make([]byte, 256*4)
	copy(rgba, []byte{10, 20, 30, 255, 40, 50, 60, 255})
	chunk(&body, "RGBA", rgba, 0)

	var buf bytes.Buffer
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, int32(150))
	chunk(&buf, "MAIN", nil, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	vf, err := Decode(bytes.NewReader(sampleFile(Voxel{0, 0, 0, 1}, Voxel{3, 2, 1, 2})))
	require.NoError(t, err)
	assert.Equal(t, 150, vf.Version)
	require.Len(t, vf.Models, 1)
	m := vf.Models[0]
	assert.Equal(t, [3]uint32{4, 3, 2}, [3]uint32{m.SizeX, m.SizeY, m.SizeZ})
	assert.Equal(t, []Voxel{{0, 0, 0, 1}, {3, 2, 1, 2}}, m.Voxels)
	assert.Equal(t, [4]byte{10, 20, 30, 255}, vf.Colors[1])
	assert.Equal(t, [4]byte{40, 50, 60, 255}, vf.Colors[2])

	p := vf.Palette()
	assert.Len(t, p, 256)
	assert.Equal(t, [4]uint8{40, 50, 60, 255}, p.Color(2))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrNotVox)

	var buf bytes.Buffer
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, int32(150))
	chunk(&buf, "XYZI", u32s(0), 0)
	_, err = Decode(&buf)
	assert.ErrorContains(t, err, "before SIZE")

	buf.Reset()
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, int32(150))
	chunk(&buf, "SIZE", u32s(1, 1, 1), 0)
	chunk(&buf, "XYZI", u32s(5), 0)
	_, err = Decode(&buf)
	assert.ErrorContains(t, err, "overflow")
}

func TestLoadAndPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vox")
	require.NoError(t, os.WriteFile(path, sampleFile(Voxel{0, 0, 0, 1}, Voxel{3, 2, 1, 2}), 0o644))
	vf, err := Load(path)
	require.NoError(t, err)

	vx := voxtree.NewVoxel(voxtree.VoxelConfig{Depth: 3})
	assert.Equal(t, 2, vf.Models[0].Place(vx, 1, 1, 1))
	assert.Equal(t, volume.Value(1), vx.Get(1, 1, 1))
	// z-up (3,2,1) lands at y-up (3,1,2) from the corner.
	assert.Equal(t, volume.Value(2), vx.Get(4, 2, 3))

	// Placing past the edge drops what does not fit.
	assert.Equal(t, 1, vf.Models[0].Place(vx, 5, 0, 0))

	_, err = Load(filepath.Join(t.TempDir(), "missing.vox"))
	assert.Error(t, err)
}

func TestDecode_RejectsOversizedChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.LittleEndian, int32(150))
	buf.WriteString("NOTE")
	_ = binary.Write(&buf, binary.LittleEndian, int32(1<<30))
	_ = binary.Write(&buf, binary.LittleEndian, int32(0))

	_, err := Decode(&buf)
	assert.ErrorContains(t, err, "too large")
}
