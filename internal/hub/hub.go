// Package hub streams persistence service events to browsers and tools
// as server-sent events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keepAlive is how often an idle stream receives a comment line
const keepAlive = 30 * time.Second

type subscriber struct {
	id     string
	events chan []byte
}

// Hub fans events out to connected SSE subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	register    chan *subscriber
	unregister  chan *subscriber
	broadcast   chan any
	done        chan struct{}
	log         *zap.Logger
}

// New creates a new Hub
func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan any, 256),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled and closes
// every open stream.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug("event stream opened", zap.String("subscriber", s.id), zap.Int("total", n))

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.events)
			}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug("event stream closed", zap.String("subscriber", s.id), zap.Int("total", n))

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("failed to marshal event", zap.Error(err))
				continue
			}
			msg := []byte(fmt.Sprintf("data: %s\n\n", data))

			h.mu.RLock()
			for s := range h.subscribers {
				select {
				case s.events <- msg:
				default:
					h.log.Warn("event stream is slow, dropping event", zap.String("subscriber", s.id))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for s := range h.subscribers {
				delete(h.subscribers, s)
				close(s.events)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues an event for every subscriber
func (h *Hub) Broadcast(event any) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("broadcast queue full, dropping event")
	}
}

// SubscriberCount returns the number of open streams
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP holds an SSE stream open until the client goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s := &subscriber{id: uuid.NewString(), events: make(chan []byte, 64)}
	select {
	case h.register <- s:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
	}()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
