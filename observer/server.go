// Package observer streams world snapshots to websocket clients.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/forage/sim"
)

// FrameType tags every pushed message.
const FrameType = "SNAPSHOT"

const (
	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	sendBacklog = 4
)

// Frame is one pushed message.
type Frame struct {
	Type       string       `json:"type"`
	Seed       int64        `json:"seed"`
	Dispatched uint64       `json:"dispatched"`
	Tally      sim.Tally    `json:"tally"`
	Snapshot   sim.Snapshot `json:"snapshot"`
}

// NewFrame captures the engine's current state.
func NewFrame(e *sim.Engine, seed int64) Frame {
	return Frame{
		Type:       FrameType,
		Seed:       seed,
		Dispatched: e.Dispatched(),
		Tally:      e.Tally(),
		Snapshot:   e.Snapshot(),
	}
}

type subscriber struct {
	id  uint64
	out chan []byte
}

// Server fans published frames out to every connected client.
// Slow clients drop frames rather than stall the simulation.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	latest []byte

	nextID  atomic.Uint64
	dropped atomic.Uint64

	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer creates an observer server. A nil logger uses slog.Default.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs:    make(map[uint64]*subscriber),
		closing: make(chan struct{}),
	}
}

// Close disconnects every streaming client. Hijacked websocket connections
// outlive http.Server.Shutdown, so ListenAndServe calls this on cancellation.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// Publish encodes f once and queues it for every client.
func (s *Server) Publish(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, sub := range s.subs {
		select {
		case sub.out <- b:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Dropped returns how many frames were skipped for slow clients.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) join() *subscriber {
	sub := &subscriber{id: s.nextID.Add(1), out: make(chan []byte, sendBacklog)}
	s.mu.Lock()
	s.subs[sub.id] = sub
	if s.latest != nil {
		sub.out <- s.latest
	}
	s.mu.Unlock()
	return sub
}

func (s *Server) leave(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub.id)
	s.mu.Unlock()
}

// LatestHandler serves the most recent frame as plain JSON.
func (s *Server) LatestHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		b := s.latest
		s.mu.Unlock()
		if b == nil {
			http.Error(rw, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(b)
	}
}

// WSHandler upgrades the connection and streams frames until the client leaves.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		select {
		case <-s.closing:
			return
		default:
		}

		sub := s.join()
		defer s.leave(sub)
		s.log.Info("observer_join", "client", sub.id, "remote", r.RemoteAddr)

		// Reader: clients send nothing meaningful; a read error means they left.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readWait))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				s.log.Info("observer_leave", "client", sub.id)
				return
			case <-r.Context().Done():
				return
			case <-s.closing:
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			case b := <-sub.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					s.log.Debug("observer_write", "client", sub.id, "error", err)
					return
				}
			}
		}
	}
}

// Mux routes /ws to the stream and /snapshot to the latest frame.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.WSHandler())
	mux.Handle("/snapshot", s.LatestHandler())
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Mux(), ReadHeaderTimeout: 5 * time.Second}
	s.log.Info("observer_listen", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		s.Close()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
