package voxtree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	shapeLabel   = "shape"
	changedLabel = "changed"
	stateLabel   = "state"
)

var (
	voxelEdits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxtree_edits",
		Help: "The number of volume edits, by shape and whether they changed any voxel.",
	}, []string{
		shapeLabel,
		changedLabel,
	})

	meshBlocksStaged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxtree_mesh_blocks_staged",
		Help: "The number of sub-blocks staged for meshing.",
	})

	meshBlocksBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxtree_mesh_blocks_built",
		Help: "The number of sub-blocks meshed.",
	})

	meshBlocksEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxtree_mesh_blocks_evicted",
		Help: "The number of cache entries dropped by edits, by the state they were in.",
	}, []string{
		stateLabel,
	})

	meshBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxtree_mesh_build_seconds",
		Help:    "Time spent extracting one sub-block.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
	})
)

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
