// Package preview renders cross-sections of a volume as images.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/volume"
)

const (
	// MaxCell bounds the edge of one voxel in the rendered image.
	MaxCell = 64
	// MaxPixels bounds the edge of the rendered image.
	MaxPixels = 4096
)

var empty = color.RGBA{A: 255}

// Slice renders plane along axis with every voxel drawn as a cell x cell
// square colored by palette. Empty voxels are black. Columns and rows follow
// the volume's slice layout: x → (y,z), y → (z,x), z → (x,y).
func Slice(vol *volume.Volume, axis, plane, cell int, palette voxtree.Palette) (*image.RGBA, error) {
	if axis < volume.AxisX || axis > volume.AxisZ {
		return nil, fmt.Errorf("axis %d: want 0, 1 or 2", axis)
	}
	if cell < 1 || cell > MaxCell {
		return nil, fmt.Errorf("cell %d: want 1..%d", cell, MaxCell)
	}

	size := vol.Size()
	if size*cell > MaxPixels {
		return nil, fmt.Errorf("cell %d: a %d voxel slice would exceed %d pixels", cell, size, MaxPixels)
	}
	buf := make([]volume.Value, size*size)
	vol.Slice(buf, plane, axis)

	src := image.NewRGBA(image.Rect(0, 0, size, size))
	for i, v := range buf {
		c := empty
		if v != 0 {
			rgba := palette.Color(v)
			c = color.RGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
		}
		src.SetRGBA(i%size, i/size, c)
	}
	if cell == 1 {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size*cell, size*cell))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
