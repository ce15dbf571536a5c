// Package vox reads MagicaVoxel .vox files into voxel volumes.
package vox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/volume"
)

const (
	magic = "VOX "
	// maxChunkSize fits the largest XYZI chunk, 256^3 voxels of 4 bytes.
	maxChunkSize = 4 + 4*256*256*256
)

var ErrNotVox = errors.New("vox: not a valid VOX file")

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

// Model is one sized voxel grid of a file. Coordinates are z-up.
type Model struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

type Colors [256][4]byte // RGBA

type File struct {
	Version int
	Models  []Model
	Colors  Colors
}

func Load(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return vf, nil
}

// Decode reads the SIZE, XYZI, RGBA and PACK chunks of a file. Other chunks
// are skipped.
func Decode(r io.Reader) (*File, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}
	if string(head[:]) != magic {
		return nil, ErrNotVox
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}

	vf := &File{Version: int(version), Colors: defaultColors()}
	// models that SIZE has declared; XYZI fills the last one.
	sized := 0
	for {
		var id [4]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var sizes [2]int32
		if err := binary.Read(r, binary.LittleEndian, &sizes); err != nil {
			return nil, err
		}
		if sizes[0] < 0 || sizes[1] < 0 {
			return nil, fmt.Errorf("vox: chunk %s: negative size", id[:])
		}
		if sizes[0] > maxChunkSize {
			return nil, fmt.Errorf("vox: chunk %s: %d bytes is too large", id[:], sizes[0])
		}
		data := make([]byte, sizes[0])
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}

		switch string(id[:]) {
		case "SIZE":
			if len(data) < 12 {
				return nil, errors.New("vox: SIZE chunk too small")
			}
			if sized == len(vf.Models) {
				vf.Models = append(vf.Models, Model{})
			}
			m := &vf.Models[sized]
			m.SizeX = binary.LittleEndian.Uint32(data[0:4])
			m.SizeY = binary.LittleEndian.Uint32(data[4:8])
			m.SizeZ = binary.LittleEndian.Uint32(data[8:12])
			sized++
		case "XYZI":
			if sized == 0 {
				return nil, errors.New("vox: XYZI chunk before SIZE")
			}
			if len(data) < 4 {
				return nil, errors.New("vox: XYZI chunk too small")
			}
			n := binary.LittleEndian.Uint32(data[:4])
			if uint64(n)*4+4 > uint64(len(data)) {
				return nil, errors.New("vox: XYZI chunk data overflow")
			}
			m := &vf.Models[sized-1]
			m.Voxels = make([]Voxel, n)
			for i := range m.Voxels {
				o := 4 + i*4
				m.Voxels[i] = Voxel{X: data[o], Y: data[o+1], Z: data[o+2], ColorIndex: data[o+3]}
			}
		case "RGBA":
			// Entry i of the chunk is color index i+1.
			for i := 0; i < 255 && i*4+3 < len(data); i++ {
				copy(vf.Colors[i+1][:], data[i*4:i*4+4])
			}
		case "PACK":
			if len(data) >= 4 {
				if n := binary.LittleEndian.Uint32(data[:4]); n > 0 && n < 1<<16 {
					vf.Models = make([]Model, 0, n)
				}
			}
		}
	}
	return vf, nil
}

func defaultColors() Colors {
	var c Colors
	for i := range c {
		c[i] = [4]byte{255, 255, 255, 255}
	}
	return c
}

// Palette maps every color index of the file to a material of the same
// index.
func (f *File) Palette() voxtree.Palette {
	p := make(voxtree.Palette, len(f.Colors))
	p[0] = voxtree.Material{Name: "empty"}
	for i := 1; i < len(f.Colors); i++ {
		p[i] = voxtree.NewMaterial(fmt.Sprintf("vox%d", i), f.Colors[i])
	}
	return p
}

// Place writes m into vx with its minimum corner at (x,y,z), turning the
// file's z-up axes into y-up. Each voxel takes its color index as value.
// Voxels falling outside vx are dropped. It returns the number of voxels
// that changed.
func (m *Model) Place(vx *voxtree.Voxel, x, y, z int) int {
	changed := 0
	for _, v := range m.Voxels {
		if vx.Set(x+int(v.X), y+int(v.Z), z+int(v.Y), volume.Value(v.ColorIndex)) {
			changed++
		}
	}
	return changed
}
