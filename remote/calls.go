package remote

import (
	"math"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/gekko3d/voxtree"
	"github.com/gekko3d/voxtree/volume"
)

// args decodes positional call arguments. The first bad argument is kept
// in err and later reads return zero values.
type args struct {
	fn   string
	vals []float64
	err  error
}

func parseArgs(fn string, data json.RawMessage) (*args, error) {
	a := &args{fn: fn}
	if len(data) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(data, &a.vals); err != nil {
		return nil, errors.Wrapf(ErrBadArgs, "%s: %v", fn, err)
	}
	return a, nil
}

func (a *args) fail(i int, format string, v ...any) {
	if a.err == nil {
		a.err = errors.Wrapf(ErrBadArgs, "%s: argument %d: "+format, append([]any{a.fn, i}, v...)...)
	}
}

func (a *args) num(i int) float64 {
	if i >= len(a.vals) {
		a.fail(i, "missing")
		return 0
	}
	return a.vals[i]
}

func (a *args) integer(i int) int {
	f := a.num(i)
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		a.fail(i, "%v is not an integer", f)
		return 0
	}
	return int(f)
}

func (a *args) material(i int) volume.Value {
	n := a.integer(i)
	if n < 0 || n > math.MaxUint8 {
		a.fail(i, "material %d out of range", n)
		return 0
	}
	return volume.Value(n)
}

// optInteger reads argument i when present.
func (a *args) optInteger(i, def int) int {
	if i >= len(a.vals) {
		return def
	}
	return a.integer(i)
}

// done rejects arguments past the first n.
func (a *args) done(n int) error {
	if len(a.vals) > n {
		a.fail(n, "unexpected, %s takes %d", a.fn, n)
	}
	return a.err
}

// callFunc runs one named operation on the host's volume. A non-nil result
// is returned to the caller in the ack.
type callFunc func(vx *voxtree.Voxel, a *args) (any, error)

var calls = map[string]callFunc{
	"get": func(vx *voxtree.Voxel, a *args) (any, error) {
		x, y, z := a.integer(0), a.integer(1), a.integer(2)
		if err := a.done(3); err != nil {
			return nil, err
		}
		return vx.Get(x, y, z), nil
	},
	"set": func(vx *voxtree.Voxel, a *args) (any, error) {
		x, y, z, v := a.integer(0), a.integer(1), a.integer(2), a.material(3)
		if err := a.done(4); err != nil {
			return nil, err
		}
		return vx.Set(x, y, z, v), nil
	},
	"sphere": func(vx *voxtree.Voxel, a *args) (any, error) {
		cx, cy, cz, r, v := a.num(0), a.num(1), a.num(2), a.num(3), a.material(4)
		if err := a.done(5); err != nil {
			return nil, err
		}
		return vx.Sphere(cx, cy, cz, r, v), nil
	},
	"box": func(vx *voxtree.Voxel, a *args) (any, error) {
		x, y, z := a.integer(0), a.integer(1), a.integer(2)
		w, h, d, v := a.integer(3), a.integer(4), a.integer(5), a.material(6)
		if err := a.done(7); err != nil {
			return nil, err
		}
		return vx.Box(x, y, z, w, h, d, v), nil
	},
	"cube": func(vx *voxtree.Voxel, a *args) (any, error) {
		cx, cy, cz, size, v := a.integer(0), a.integer(1), a.integer(2), a.integer(3), a.material(4)
		if err := a.done(5); err != nil {
			return nil, err
		}
		return vx.Cube(cx, cy, cz, size, v), nil
	},
	"rotate": func(vx *voxtree.Voxel, a *args) (any, error) {
		axis := a.integer(0)
		if axis < volume.AxisX || axis > volume.AxisZ {
			a.fail(0, "axis %d out of range", axis)
		}
		if err := a.done(1); err != nil {
			return nil, err
		}
		vx.Rotate(axis)
		return nil, nil
	},
	"clear": func(vx *voxtree.Voxel, a *args) (any, error) {
		if err := a.done(0); err != nil {
			return nil, err
		}
		vx.Clear()
		return nil, nil
	},
	"makeMesh": func(vx *voxtree.Voxel, a *args) (any, error) {
		if err := a.done(0); err != nil {
			return nil, err
		}
		return vx.MakeMesh(), nil
	},
	"genMesh": func(vx *voxtree.Voxel, a *args) (any, error) {
		budget := a.optInteger(0, -1)
		if err := a.done(1); err != nil {
			return nil, err
		}
		return vx.GenMesh(budget), nil
	},
	"clearMesh": func(vx *voxtree.Voxel, a *args) (any, error) {
		if err := a.done(0); err != nil {
			return nil, err
		}
		vx.ClearMesh()
		return nil, nil
	},
}
