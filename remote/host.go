package remote

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/gekko3d/voxtree"
)

type HostConfig struct {
	// Voxel is the template for the volume; init messages override its
	// Depth and SubMeshLevel.
	Voxel voxtree.VoxelConfig
	// InboxSize bounds the queue between attached endpoints and the actor.
	InboxSize int
	// TickInterval, when positive, runs MakeMesh and GenMesh(BuildBudget)
	// on every tick. A zero BuildBudget builds every staged block.
	TickInterval time.Duration
	BuildBudget  int
	// AckTimeout bounds how long the actor waits on a slow endpoint before
	// dropping an ack. Zero selects one second.
	AckTimeout time.Duration

	Clock  clock.Clock
	Logger voxtree.Logger
}

// Host owns one Voxel and executes the messages of every attached endpoint
// on a single goroutine, in arrival order.
type Host struct {
	cfg   HostConfig
	vx    *voxtree.Voxel
	inbox chan envelope
	jobs  chan job
	log   voxtree.Logger
	clock clock.Clock
}

type envelope struct {
	msg  Message
	from Endpoint
}

type job struct {
	fn   func(*voxtree.Voxel)
	done chan struct{}
}

func NewHost(cfg HostConfig) *Host {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = voxtree.NewNopLogger()
	}
	if cfg.Voxel.Logger == nil {
		cfg.Voxel.Logger = cfg.Logger
	}
	return &Host{
		cfg:   cfg,
		vx:    voxtree.NewVoxel(cfg.Voxel),
		inbox: make(chan envelope, cfg.InboxSize),
		jobs:  make(chan job),
		log:   cfg.Logger,
		clock: cfg.Clock,
	}
}

// Run executes queued messages until ctx is done. The Voxel must only be
// touched from here, or through Do.
func (h *Host) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if h.cfg.TickInterval > 0 {
		t := h.clock.Ticker(h.cfg.TickInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-h.inbox:
			h.handle(ctx, env)
		case j := <-h.jobs:
			j.fn(h.vx)
			close(j.done)
		case <-tick:
			h.build()
		}
	}
}

// build runs one tick. Profiler scopes are zeroed first so they report
// the latest tick.
func (h *Host) build() {
	h.cfg.Voxel.Profiler.Reset()
	budget := h.cfg.BuildBudget
	if budget == 0 {
		budget = -1
	}
	h.vx.MakeMesh()
	if h.vx.PendingCount() > 0 {
		h.vx.GenMesh(budget)
	}
}

// Attach forwards the messages of ep to the actor until ep closes or ctx is
// done. Malformed messages are logged and dropped.
func (h *Host) Attach(ctx context.Context, ep Endpoint) error {
	endpointsAttached.Inc()
	defer endpointsAttached.Dec()

	for {
		m, err := ep.Recv(ctx)
		switch {
		case errors.Is(err, ErrInvalidMessage):
			h.log.Warnf("dropping message: %v", err)
			continue
		case errors.Is(err, ErrClosed):
			return nil
		case err != nil:
			return err
		}

		select {
		case h.inbox <- envelope{msg: m, from: ep}:
		case <-ep.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Do runs fn on the actor goroutine and waits for it. If ctx ends first,
// fn may still run later.
func (h *Host) Do(ctx context.Context, fn func(*voxtree.Voxel)) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case h.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Host) handle(ctx context.Context, env envelope) {
	m := env.msg
	var (
		result any
		err    error
	)
	switch m.Action {
	case ActionInit:
		err = h.init(m.Data)
	case ActionCall:
		result, err = h.call(m.Func, m.Data)
	default:
		h.log.Debugf("ignoring %q message", m.Action)
		return
	}
	if err != nil {
		h.log.Warnf("%s %s: %v", m.Action, m.Func, err)
	}
	if m.RID == "" {
		return
	}

	ack := Message{Action: ActionAck, RID: m.RID}
	if err != nil {
		ack.Error = err.Error()
	} else if result != nil {
		if ack.Data, err = encodeArgs([]any{result}); err != nil {
			ack.Error = err.Error()
		}
	}
	sctx, cancel := context.WithTimeout(ctx, h.cfg.AckTimeout)
	defer cancel()
	if err := env.from.Send(sctx, ack); err != nil {
		h.log.Warnf("ack %s dropped: %v", m.RID, err)
	}
}

// init replaces the volume. A missing or zero sub-mesh level selects
// voxtree.DefaultSubMeshLevel.
func (h *Host) init(data json.RawMessage) error {
	var params []int
	if err := json.Unmarshal(data, &params); err != nil || len(params) == 0 {
		return errors.Wrapf(ErrBadArgs, "init: %s", data)
	}
	cfg := h.cfg.Voxel
	cfg.Depth = params[0]
	if len(params) > 1 {
		cfg.SubMeshLevel = params[1]
	}
	h.vx.ClearMesh()
	h.vx = voxtree.NewVoxel(cfg)
	h.log.Infof("volume reset: depth %d, sub-mesh level %d", h.vx.Depth(), h.vx.SubMeshLevel())
	return nil
}

func (h *Host) call(name string, data json.RawMessage) (any, error) {
	fn, ok := calls[name]
	if !ok {
		callDuration.WithLabelValues("unknown", "error").Observe(0)
		return nil, errors.Wrap(ErrUnknownFunc, name)
	}
	start := time.Now()
	a, err := parseArgs(name, data)
	var result any
	if err == nil {
		result, err = fn(h.vx, a)
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	callDuration.WithLabelValues(name, status).Observe(time.Since(start).Seconds())
	return result, err
}
