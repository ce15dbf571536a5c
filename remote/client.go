package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/gekko3d/voxtree"
)

// Ack is the pending acknowledgment of one call.
type Ack struct {
	RID string

	done chan struct{}
	data json.RawMessage
	err  error
}

func (a *Ack) Done() <-chan struct{} { return a.done }

// Wait blocks until the host acknowledged the call, the client closed, or
// ctx ended. It returns the call's result array, if it had one.
func (a *Ack) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-a.done:
		return a.data, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result waits for the ack and decodes its single result into v.
func (a *Ack) Result(ctx context.Context, v any) error {
	data, err := a.Wait(ctx)
	if err != nil {
		return err
	}
	var out []json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil || len(out) != 1 {
		return errors.Errorf("remote: ack %s carries no result", a.RID)
	}
	return json.Unmarshal(out[0], v)
}

func (a *Ack) resolve(data json.RawMessage, err error) {
	a.data, a.err = data, err
	close(a.done)
}

// Client drives a Host over an Endpoint. Calls never wait for the host
// unless the caller waits on the returned Ack.
type Client struct {
	ep  Endpoint
	log voxtree.Logger

	mu      sync.Mutex
	waiting map[string]*Ack
	closed  bool
	stopped chan struct{}
}

func NewClient(ep Endpoint, logger voxtree.Logger) *Client {
	if logger == nil {
		logger = voxtree.NewNopLogger()
	}
	c := &Client{
		ep:      ep,
		log:     logger,
		waiting: make(map[string]*Ack),
		stopped: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Init asks the host to replace its volume.
func (c *Client) Init(ctx context.Context, depth, subMeshLevel int) (*Ack, error) {
	return c.send(ctx, Message{Action: ActionInit}, []any{depth, subMeshLevel}, true)
}

// Call sends fn without asking for an acknowledgment.
func (c *Client) Call(ctx context.Context, fn string, args ...any) error {
	_, err := c.send(ctx, Message{Action: ActionCall, Func: fn}, args, false)
	return err
}

// CallAck sends fn and returns its pending acknowledgment.
func (c *Client) CallAck(ctx context.Context, fn string, args ...any) (*Ack, error) {
	return c.send(ctx, Message{Action: ActionCall, Func: fn}, args, true)
}

func (c *Client) send(ctx context.Context, m Message, args []any, ack bool) (*Ack, error) {
	data, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	m.Data = data

	var a *Ack
	if ack {
		a = &Ack{RID: uuid.NewString(), done: make(chan struct{})}
		m.RID = a.RID
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		c.waiting[a.RID] = a
		c.mu.Unlock()
	}

	if err := c.ep.Send(ctx, m); err != nil {
		if a != nil {
			c.mu.Lock()
			delete(c.waiting, a.RID)
			c.mu.Unlock()
		}
		return nil, errors.Wrapf(err, "send %s %s", m.Action, m.Func)
	}
	return a, nil
}

func (c *Client) readLoop() {
	defer close(c.stopped)
	defer c.failAll()
	for {
		m, err := c.ep.Recv(context.Background())
		if errors.Is(err, ErrInvalidMessage) {
			c.log.Warnf("dropping message: %v", err)
			continue
		}
		if err != nil {
			return
		}
		if m.Action != ActionAck {
			c.log.Debugf("ignoring %q message", m.Action)
			continue
		}

		c.mu.Lock()
		a := c.waiting[m.RID]
		delete(c.waiting, m.RID)
		c.mu.Unlock()
		if a == nil {
			c.log.Debugf("ack for unknown call %s", m.RID)
			continue
		}
		if m.Error != "" {
			a.resolve(nil, errors.Wrap(ErrCallFailed, m.Error))
			continue
		}
		a.resolve(m.Data, nil)
	}
}

func (c *Client) failAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for rid, a := range c.waiting {
		a.resolve(nil, ErrClosed)
		delete(c.waiting, rid)
	}
}

// Close closes the endpoint and fails every outstanding Ack with ErrClosed.
func (c *Client) Close() error {
	err := c.ep.Close()
	<-c.stopped
	return err
}
