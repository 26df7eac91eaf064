// Package debugview serves engine debug snapshots over a websocket so the
// live transform, texture counters and streaming state can be watched from a
// browser while debug mode is on.
package debugview

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/example/deepview/internal/viewport"
)

// subscriberBuffer is how many snapshots a slow subscriber may fall behind
// before frames are dropped for it.
const subscriberBuffer = 8

// Server publishes debug snapshots to any number of websocket subscribers.
type Server struct {
	listener net.Listener
	srv      *http.Server

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	closed bool
}

// New starts a debug server on addr ("localhost:0" picks a free port).
func New(addr string) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: l,
		subs:     make(map[chan []byte]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(l); err != nil && err != http.ErrServerClosed {
			log.Printf("debugview: %v", err)
		}
	}()
	log.Printf("debugview listening on ws://%s/ws", l.Addr())
	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Publish fans a snapshot out to every subscriber. It never blocks: a
// subscriber that cannot keep up loses frames, not the render thread.
func (s *Server) Publish(snap viewport.DebugSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("debugview encode: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for ch := range s.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

// Close shuts the server down and disconnects all subscribers.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Println(err)
		return
	}

	ch := make(chan []byte, subscriberBuffer)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.Close(websocket.StatusGoingAway, "server closing")
		return
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}()

	// Subscribers only listen; CloseRead surfaces disconnects as a
	// cancelled context.
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case data, ok := <-ch:
			if !ok {
				c.Close(websocket.StatusGoingAway, "server closing")
				return
			}
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
