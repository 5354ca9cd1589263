package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamEvent is published to a session's subscribers after each change.
type StreamEvent struct {
	// Type is "state", "result" or "error".
	Type   string          `json:"type"`
	State  domain.Snapshot `json:"state"`
	Result string          `json:"result,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a subscriber for sessionID. The returned function
// unsubscribes and closes the channel; it is safe to call after Close.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Publish encodes ev and broadcasts it to the subscribers of sessionID.
func (sm *StreamManager) Publish(sessionID string, ev StreamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("StreamManager: encode failed", "err", err)
		return
	}
	sm.Broadcast(sessionID, string(data))
}

// Broadcast sends msg to every subscriber of sessionID.
// Slow subscribers miss messages instead of blocking the sender.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Close ends every subscription of sessionID.
func (sm *StreamManager) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	calc, err := s.Sessions.Get(id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming not supported"))
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	initial, _ := json.Marshal(StreamEvent{Type: "state", State: calc.Snapshot()})
	fmt.Fprintf(w, "event: ping\ndata: %s\n\n", initial)
	flusher.Flush()
	s.logger.Info("SSE: Subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
