package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/internal/validator"
	"github.com/aretw0/vfxbridge/pkg/domain"
)

// Event is published to the subscribers of an asset after each action on it.
type Event struct {
	Action string        `json:"action"`
	Path   string        `json:"path"`
	Result domain.Result `json:"result"`
}

// StreamManager handles active SSE connections, keyed by asset path.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for path. The returned func unregisters and
// closes it.
func (sm *StreamManager) Subscribe(path string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[path]; !ok {
		sm.subscribers[path] = make(map[chan<- string]struct{})
	}
	sm.subscribers[path][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[path]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, path)
				}
			}
			close(ch)
		})
	}
}

// Subscribers reports how many channels listen on path.
func (sm *StreamManager) Subscribers(path string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[path])
}

// Broadcast sends msg to every subscriber of path. Slow subscribers drop it.
func (sm *StreamManager) Broadcast(path string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[path] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "path", path)
		}
	}
}

// SubscribeEvents handles GET /v1/events?path=... (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	path, err := validator.NormalizePath(r.URL.Query().Get("path"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Fail(domain.CodeValidation, err.Error(), nil), s.logger)
		return
	}

	ch, cancel := s.Streams.Subscribe(path)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribed", "path", path)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "path", path)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: result\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
