package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ─── Live Submission Progress ───────────────────────────────────────────────
// The UI watches a batch submission as {current, total} ticks. Delivered via
// SSE rather than WebSocket for HTTP/2 compatibility.

// ProgressEvent is one observed step of a running batch submission: a landed
// balance update, or the refresh marking the batch's end.
type ProgressEvent struct {
	Type      string `json:"type"`          // "update", "refreshed"
	Key       string `json:"key,omitempty"` // updated entity id
	Timestamp int64  `json:"timestamp"`
}

// ProgressHub fans submission progress out to connected SSE clients.
type ProgressHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewProgressHub creates a new progress broadcast hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[chan []byte]struct{})}
}

// Broadcast sends a progress event to all connected clients.
func (h *ProgressHub) Broadcast(event ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			// Client too slow — drop message
		}
	}
}

// Updated broadcasts a landed balance update.
func (h *ProgressHub) Updated(key string) {
	h.Broadcast(ProgressEvent{Type: "update", Key: key, Timestamp: time.Now().Unix()})
}

// Refreshed broadcasts the post-batch refresh marker.
func (h *ProgressHub) Refreshed() {
	h.Broadcast(ProgressEvent{Type: "refreshed", Timestamp: time.Now().Unix()})
}

// Subscribe registers a new client. Returns the channel and an unsubscribe func.
func (h *ProgressHub) Subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (h *ProgressHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleProgressSSE serves the live progress feed via Server-Sent Events.
// GET /api/progress/live
func (h *ProgressHub) HandleProgressSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	ch, unsub := h.Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
