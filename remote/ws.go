package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/gekko3d/voxtree"
)

const (
	writeWait    = 5 * time.Second
	defaultQueue = 64
)

// wsEndpoint carries one message per websocket text frame. Writes go
// through a queue drained by a single writer goroutine.
type wsEndpoint struct {
	conn *websocket.Conn
	out  chan []byte
	log  voxtree.Logger

	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	writeErr error
	closeErr error
}

func newWSEndpoint(conn *websocket.Conn, queue int, logger voxtree.Logger) *wsEndpoint {
	if queue <= 0 {
		queue = defaultQueue
	}
	e := &wsEndpoint{
		conn: conn,
		out:  make(chan []byte, queue),
		log:  logger,
		done: make(chan struct{}),
	}
	go e.writeLoop()
	return e
}

func (e *wsEndpoint) writeLoop() {
	for {
		select {
		case <-e.done:
			return
		case b := <-e.out:
			_ = e.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := e.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				e.mu.Lock()
				e.writeErr = err
				e.mu.Unlock()
				e.log.Debugf("websocket write: %v", err)
				_ = e.Close()
				return
			}
		}
	}
}

func (e *wsEndpoint) Send(ctx context.Context, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-e.done:
		return ErrClosed
	default:
	}
	select {
	case e.out <- b:
		messagesSent.WithLabelValues(m.Action).Inc()
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *wsEndpoint) Recv(ctx context.Context) (Message, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = e.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		typ, b, err := e.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			_ = e.Close()
			return Message{}, errors.Wrap(ErrClosed, err.Error())
		}
		if typ != websocket.TextMessage {
			continue
		}
		return decodeCounted(b)
	}
}

func (e *wsEndpoint) Done() <-chan struct{} { return e.done }

// Close sends a close frame and closes the connection. It returns the
// first write failure, if any, together with the close error.
func (e *wsEndpoint) Close() error {
	e.once.Do(func() {
		close(e.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := e.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			e.log.Debugf("websocket close frame: %v", err)
		}
		e.mu.Lock()
		writeErr := e.writeErr
		e.mu.Unlock()
		e.closeErr = multierr.Combine(writeErr, e.conn.Close())
	})
	return e.closeErr
}

// Dial connects to a websocket host such as "ws://localhost:8080/ws".
func Dial(ctx context.Context, url string, logger voxtree.Logger) (Endpoint, error) {
	if logger == nil {
		logger = voxtree.NewNopLogger()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return newWSEndpoint(conn, defaultQueue, logger), nil
}

// WSServer attaches every accepted websocket connection to a Host.
type WSServer struct {
	host     *Host
	log      voxtree.Logger
	queue    int
	upgrader websocket.Upgrader
}

func NewWSServer(h *Host, logger voxtree.Logger) *WSServer {
	if logger == nil {
		logger = voxtree.NewNopLogger()
	}
	return &WSServer{
		host:  h,
		log:   logger,
		queue: defaultQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *WSServer) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Warnf("websocket upgrade from %s: %v", r.RemoteAddr, err)
			return
		}
		ep := newWSEndpoint(conn, s.queue, s.log)
		s.log.Infof("endpoint %s attached", r.RemoteAddr)

		err = s.host.Attach(r.Context(), ep)
		if cerr := ep.Close(); cerr != nil {
			s.log.Debugf("endpoint %s close: %v", r.RemoteAddr, cerr)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warnf("endpoint %s: %v", r.RemoteAddr, err)
			return
		}
		s.log.Infof("endpoint %s detached", r.RemoteAddr)
	}
}
