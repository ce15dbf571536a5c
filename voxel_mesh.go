package voxtree

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/gekko3d/voxtree/mesher"
	"github.com/gekko3d/voxtree/volume"
)

type MeshState int

const (
	MeshAbsent MeshState = iota
	MeshPending
	MeshReady
)

func (s MeshState) String() string {
	switch s {
	case MeshPending:
		return "pending"
	case MeshReady:
		return "ready"
	}
	return "absent"
}

// pendingBlock is a staged extraction: the block and the octree node that
// covers it.
type pendingBlock struct {
	blk  mesher.Block
	node *volume.Node
}

// Face order of the walk's neighbour array; index f matches mask bit 1<<f.
const (
	faceNegX = iota
	facePosX
	faceNegY
	facePosY
	faceNegZ
	facePosZ
)

func (vx *Voxel) blocksPerSide() int { return 1 << (vx.vol.Depth() - vx.level) }

// BlockKey returns the cache key of the block containing voxel (x,y,z).
func (vx *Voxel) BlockKey(x, y, z int) int {
	n := vx.blocksPerSide()
	return x>>vx.level + n*(y>>vx.level) + n*n*(z>>vx.level)
}

// BlockOrigin is the inverse of BlockKey for block origins.
func (vx *Voxel) BlockOrigin(key int) (x, y, z int) {
	n := vx.blocksPerSide()
	return (key % n) << vx.level, (key / n % n) << vx.level, (key / (n * n)) << vx.level
}

func (vx *Voxel) MeshState(key int) MeshState {
	if _, ok := vx.ready[key]; ok {
		return MeshReady
	}
	if _, ok := vx.pending[key]; ok {
		return MeshPending
	}
	return MeshAbsent
}

func (vx *Voxel) PendingCount() int { return len(vx.pending) }
func (vx *Voxel) ReadyCount() int   { return len(vx.ready) }

// BlockMeshes returns the meshes of a Ready block. A Ready block without
// surface has none.
func (vx *Voxel) BlockMeshes(key int) []*mesher.Mesh {
	return vx.ready[key]
}

// GetMeshes returns every Ready mesh in block key order.
func (vx *Voxel) GetMeshes() []*mesher.Mesh {
	var out []*mesher.Mesh
	for _, k := range sortedKeys(vx.ready) {
		out = append(out, vx.ready[k]...)
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// MakeMesh walks the octree and stages every block that may carry surface
// and has no cached mesh. It returns the number of blocks newly staged.
func (vx *Voxel) MakeMesh() int {
	defer vx.prof.Scope("makeMesh")()
	staged := 0
	vx.walk(vx.vol.Root, 0, 0, 0, [6]*volume.Node{}, &staged)
	meshBlocksStaged.Add(float64(staged))
	vx.prof.SetCount("mesh.pending", len(vx.pending))
	if staged > 0 {
		vx.log.Debugf("staged %d mesh blocks (%d pending)", staged, len(vx.pending))
	}
	return staged
}

// walk visits n at (x,y,z) with nb holding the same-sized node, or the
// larger leaf, across each face. A nil neighbour lies outside the volume.
func (vx *Voxel) walk(n *volume.Node, x, y, z int, nb [6]*volume.Node, staged *int) {
	mask := faceMask(n, nb)
	if n.IsLeaf() && mask == 0 {
		return
	}
	if n.Depth() == vx.level {
		vx.stage(mesher.Block{X: x, Y: y, Z: z, Level: vx.level, Mask: mask, Leaf: n.IsLeaf()}, n, staged)
		return
	}
	if n.IsLeaf() {
		vx.stageShell(n, x, y, z, mask, staged)
		return
	}

	half := n.Size() / 2
	for i := 0; i < 8; i++ {
		var cnb [6]*volume.Node
		for axis := 0; axis < 3; axis++ {
			bit := 1 << axis
			if i&bit != 0 {
				cnb[2*axis] = n.Child(i &^ bit)
				cnb[2*axis+1] = neighbourChild(nb[2*axis+1], i&^bit)
			} else {
				cnb[2*axis] = neighbourChild(nb[2*axis], i|bit)
				cnb[2*axis+1] = n.Child(i | bit)
			}
		}
		vx.walk(n.Child(i), x+half*(i&1), y+half*((i>>1)&1), z+half*((i>>2)&1), cnb, staged)
	}
}

func neighbourChild(n *volume.Node, i int) *volume.Node {
	if n == nil || n.IsLeaf() {
		return n
	}
	return n.Child(i)
}

// faceMask sets the bit of every face of n that may separate empty from
// solid. Only two leaves of equal occupancy are known to be surface free.
func faceMask(n *volume.Node, nb [6]*volume.Node) uint8 {
	var mask uint8
	for f, o := range nb {
		if mayDiffer(n, o) {
			mask |= 1 << f
		}
	}
	return mask
}

func mayDiffer(n, o *volume.Node) bool {
	if !n.IsLeaf() {
		return true
	}
	if o == nil {
		return n.Value() != 0
	}
	if !o.IsLeaf() {
		return true
	}
	return (n.Value() == 0) != (o.Value() == 0)
}

// stageShell stages the blocks of a leaf larger than a block that lie on
// one of its masked faces. Blocks inside the leaf cannot carry surface.
func (vx *Voxel) stageShell(n *volume.Node, x, y, z int, mask uint8, staged *int) {
	g := 1 << (n.Depth() - vx.level)
	bs := 1 << vx.level
	for bz := 0; bz < g; bz++ {
		for by := 0; by < g; by++ {
			step := 1
			if bz != 0 && bz != g-1 && by != 0 && by != g-1 {
				step = g - 1
			}
			for bx := 0; bx < g; bx += step {
				m := shellMask(mask, bx, by, bz, g)
				if m == 0 {
					continue
				}
				blk := mesher.Block{X: x + bx*bs, Y: y + by*bs, Z: z + bz*bs, Level: vx.level, Mask: m, Leaf: true}
				vx.stage(blk, n, staged)
			}
		}
	}
}

func shellMask(mask uint8, bx, by, bz, g int) uint8 {
	var m uint8
	for axis, c := range [3]int{bx, by, bz} {
		if c == 0 {
			m |= mask & (1 << (2 * axis))
		}
		if c == g-1 {
			m |= mask & (1 << (2*axis + 1))
		}
	}
	return m
}

func (vx *Voxel) stage(blk mesher.Block, n *volume.Node, staged *int) {
	key := vx.BlockKey(blk.X, blk.Y, blk.Z)
	if vx.MeshState(key) != MeshAbsent {
		return
	}
	vx.pending[key] = pendingBlock{blk: blk, node: n}
	*staged++
}

// GenMesh extracts up to budget pending blocks in key order, or all of them
// when budget is negative. It returns the number of blocks built.
func (vx *Voxel) GenMesh(budget int) int {
	defer vx.prof.Scope("genMesh")()
	built := 0
	for _, key := range sortedKeys(vx.pending) {
		if budget >= 0 && built >= budget {
			break
		}
		p := vx.pending[key]
		start := time.Now()
		meshes := vx.extractor.Extract(vx.vol, p.blk)
		meshBuildDuration.Observe(time.Since(start).Seconds())
		delete(vx.pending, key)
		vx.ready[key] = meshes
		built++
	}
	meshBlocksBuilt.Add(float64(built))
	vx.prof.SetCount("mesh.pending", len(vx.pending))
	vx.prof.SetCount("mesh.ready", len(vx.ready))
	return built
}

// ClearMesh disposes every cached mesh and drops all staged blocks.
func (vx *Voxel) ClearMesh() {
	for _, key := range sortedKeys(vx.ready) {
		vx.dispose(vx.ready[key])
	}
	clear(vx.ready)
	clear(vx.pending)
	vx.prof.SetCount("mesh.pending", 0)
	vx.prof.SetCount("mesh.ready", 0)
}

// invalidate drops every cached or staged block whose haloed bounds r
// touches.
func (vx *Voxel) invalidate(r volume.Region) {
	bs := 1 << vx.level
	touched := func(key int) bool {
		x, y, z := vx.BlockOrigin(key)
		return r.Classify(x-1, y-1, z-1, bs+2) != volume.Outside
	}

	var readyN, pendingN int
	for key, meshes := range vx.ready {
		if touched(key) {
			vx.dispose(meshes)
			delete(vx.ready, key)
			readyN++
		}
	}
	for key := range vx.pending {
		if touched(key) {
			delete(vx.pending, key)
			pendingN++
		}
	}
	meshBlocksEvicted.WithLabelValues(MeshReady.String()).Add(float64(readyN))
	meshBlocksEvicted.WithLabelValues(MeshPending.String()).Add(float64(pendingN))
	if readyN+pendingN > 0 {
		vx.log.Debugf("edit evicted %d ready and %d pending mesh blocks", readyN, pendingN)
	}
}

func (vx *Voxel) dispose(meshes []*mesher.Mesh) {
	if vx.onDispose == nil {
		return
	}
	for _, m := range meshes {
		vx.onDispose(m)
	}
}
