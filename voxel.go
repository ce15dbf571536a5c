package voxtree

import (
	"github.com/gekko3d/voxtree/mesher"
	"github.com/gekko3d/voxtree/volume"
)

const (
	// DefaultSubMeshLevel gives 32^3 voxel mesh blocks.
	DefaultSubMeshLevel = 5
	// MaxDepth keeps block keys and voxel counts within int range.
	MaxDepth = 20
)

type VoxelConfig struct {
	// Depth is the octree depth; the volume is 2^Depth voxels on a side.
	Depth int
	// SubMeshLevel is log2 of the mesh block edge. Zero selects
	// DefaultSubMeshLevel; values above Depth are clamped.
	SubMeshLevel int
	// Scale is world units per voxel. Zero selects 1/2^Depth, which maps the
	// whole volume onto the unit cube.
	Scale float32
	// MaxVertices caps a single mesh buffer. Zero is unbounded.
	MaxVertices int

	Logger   Logger
	Profiler *Profiler
	// OnDispose is called once for every mesh dropped from the cache.
	OnDispose func(*mesher.Mesh)
}

// Voxel is a bounded voxel volume with an incrementally built surface mesh.
// It is not safe for concurrent use; remote.Host serializes access to one.
type Voxel struct {
	vol   *volume.Volume
	level int

	extractor mesher.Extractor
	ready     map[int][]*mesher.Mesh
	pending   map[int]pendingBlock

	onDispose func(*mesher.Mesh)
	log       Logger
	prof      *Profiler
}

func NewVoxel(cfg VoxelConfig) *Voxel {
	if cfg.Depth < 0 {
		cfg.Depth = 0
	}
	if cfg.Depth > MaxDepth {
		cfg.Depth = MaxDepth
	}
	level := cfg.SubMeshLevel
	if level <= 0 {
		level = DefaultSubMeshLevel
	}
	if level > cfg.Depth {
		level = cfg.Depth
	}
	scale := cfg.Scale
	if scale == 0 {
		scale = 1 / float32(int(1)<<cfg.Depth)
	}
	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}
	return &Voxel{
		vol:       volume.New(cfg.Depth),
		level:     level,
		extractor: mesher.Extractor{Scale: scale, MaxVertices: cfg.MaxVertices},
		ready:     make(map[int][]*mesher.Mesh),
		pending:   make(map[int]pendingBlock),
		onDispose: cfg.OnDispose,
		log:       log,
		prof:      cfg.Profiler,
	}
}

func (vx *Voxel) Depth() int             { return vx.vol.Depth() }
func (vx *Voxel) Size() int              { return vx.vol.Size() }
func (vx *Voxel) SubMeshLevel() int      { return vx.level }
func (vx *Voxel) Scale() float32         { return vx.extractor.Scale }
func (vx *Voxel) Volume() *volume.Volume { return vx.vol }

// Get returns 0 outside the volume.
func (vx *Voxel) Get(x, y, z int) volume.Value {
	return vx.vol.Get(x, y, z)
}

// Set writes one voxel, ignoring coordinates outside the volume.
func (vx *Voxel) Set(x, y, z int, v volume.Value) bool {
	defer vx.prof.Scope("edit")()
	changed := vx.vol.Set(x, y, z, v)
	voxelEdits.WithLabelValues("set", boolLabel(changed)).Inc()
	if changed {
		vx.invalidate(volume.Box{X: x, Y: y, Z: z, W: 1, H: 1, D: 1})
	}
	return changed
}

// ApplyRegion sets every voxel of r to v and drops the cached meshes the
// edit may have changed.
func (vx *Voxel) ApplyRegion(r volume.Region, v volume.Value) bool {
	return vx.apply(r, v, regionShape(r))
}

func (vx *Voxel) Sphere(cx, cy, cz, r float64, v volume.Value) bool {
	return vx.apply(volume.Sphere{CX: cx, CY: cy, CZ: cz, R: r}, v, "sphere")
}

func (vx *Voxel) Box(x, y, z, w, h, d int, v volume.Value) bool {
	return vx.apply(volume.Box{X: x, Y: y, Z: z, W: w, H: h, D: d}, v, "box")
}

func (vx *Voxel) Cube(cx, cy, cz, size int, v volume.Value) bool {
	return vx.apply(volume.Cube(cx, cy, cz, size), v, "cube")
}

func (vx *Voxel) apply(r volume.Region, v volume.Value, shape string) bool {
	defer vx.prof.Scope("edit")()
	changed := vx.vol.Apply(r, v)
	voxelEdits.WithLabelValues(shape, boolLabel(changed)).Inc()
	if changed {
		vx.invalidate(r)
	}
	return changed
}

func regionShape(r volume.Region) string {
	switch r.(type) {
	case volume.Sphere:
		return "sphere"
	case volume.Box:
		return "box"
	}
	return "custom"
}

// Rotate turns the volume a quarter turn about axis. Every block moves, so
// the mesh cache is cleared.
func (vx *Voxel) Rotate(axis int) {
	vx.vol.Root.Rotate90(axis)
	vx.ClearMesh()
}

// Clear empties the volume and the mesh cache.
func (vx *Voxel) Clear() {
	vx.vol = volume.New(vx.vol.Depth())
	vx.ClearMesh()
}
