package remote

import (
	"context"
	"sync"
)

// Endpoint is one side of an ordered, asynchronous message channel.
// Send may be called from several goroutines; Recv from one at a time.
type Endpoint interface {
	Send(ctx context.Context, m Message) error
	// Recv returns the next message. Malformed input yields an error
	// wrapping ErrInvalidMessage and the channel stays usable; a closed
	// channel yields ErrClosed.
	Recv(ctx context.Context) (Message, error)
	Done() <-chan struct{}
	Close() error
}

// Pipe returns the two connected ends of an in-process channel buffering up
// to n messages each way. Messages cross it encoded, so the sides never
// share memory. Closing either end closes both.
func Pipe(n int) (Endpoint, Endpoint) {
	ab := make(chan []byte, n)
	ba := make(chan []byte, n)
	c := &pipeClose{done: make(chan struct{})}
	return &pipeEnd{in: ba, out: ab, c: c}, &pipeEnd{in: ab, out: ba, c: c}
}

type pipeClose struct {
	once sync.Once
	done chan struct{}
}

type pipeEnd struct {
	in  <-chan []byte
	out chan<- []byte
	c   *pipeClose
}

func (p *pipeEnd) Send(ctx context.Context, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-p.c.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- b:
		messagesSent.WithLabelValues(m.Action).Inc()
		return nil
	case <-p.c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Recv(ctx context.Context) (Message, error) {
	select {
	case <-p.c.done:
		return Message{}, ErrClosed
	default:
	}
	select {
	case b := <-p.in:
		return decodeCounted(b)
	case <-p.c.done:
		return Message{}, ErrClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (p *pipeEnd) Done() <-chan struct{} { return p.c.done }

func (p *pipeEnd) Close() error {
	p.c.once.Do(func() { close(p.c.done) })
	return nil
}

func decodeCounted(b []byte) (Message, error) {
	m, err := Decode(b)
	if err != nil {
		invalidMessages.Inc()
		return m, err
	}
	messagesReceived.WithLabelValues(m.Action).Inc()
	return m, nil
}
