package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/pipeline"
	"github.com/Diego-Ornelas/Ai-paper-podcast/internal/progress"
)

const (
	// ssePollInterval is how often enrichment counts are pushed between
	// step transitions.
	ssePollInterval = time.Second
	// sseMaxDuration is the maximum time an SSE stream may remain open.
	sseMaxDuration = 30 * time.Minute
)

// sseEvent represents an event sent via SSE.
type sseEvent struct {
	EventType  string               `json:"event_type"`
	SearchID   string               `json:"search_id"`
	Steps      []progress.StepState `json:"steps"`
	Enrichment enrichmentResponse   `json:"enrichment"`
	Error      string               `json:"error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// streamProgress handles GET /searches/{searchID}/progress (SSE). It pushes
// a snapshot on every step transition and ticks enrichment counts in
// between, closing once the session reaches a terminal state.
func (s *Server) streamProgress(w http.ResponseWriter, r *http.Request) {
	searchID, ok := parseUUID(w, chi.URLParam(r, "searchID"), "search_id")
	if !ok {
		return
	}

	entry, found := s.sessions.Get(searchID)
	if !found {
		writeError(w, http.StatusNotFound, "search not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Transitions land in a buffered channel; a full buffer drops the
	// notification because the poll tick re-sends the full snapshot anyway.
	notifyCh := make(chan progress.Transition, 100)
	entry.Tracker.Subscribe(func(tr progress.Transition) {
		select {
		case notifyCh <- tr:
		default:
		}
	})

	sendSSEEvent(w, flusher, s.buildSSEEvent(entry, "stream_started"))
	if entry.Tracker.Terminal() {
		sendSSEEvent(w, flusher, s.buildSSEEvent(entry, terminalEventType(entry)))
		return
	}

	ctx := r.Context()
	deadlineTimer := time.NewTimer(sseMaxDuration)
	defer deadlineTimer.Stop()
	ticker := time.NewTicker(ssePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-deadlineTimer.C:
			sendSSEEvent(w, flusher, s.buildSSEEvent(entry, "timeout"))
			return

		case <-notifyCh:
			sendSSEEvent(w, flusher, s.buildSSEEvent(entry, "progress_update"))
			if entry.Tracker.Terminal() {
				sendSSEEvent(w, flusher, s.buildSSEEvent(entry, terminalEventType(entry)))
				return
			}

		case <-ticker.C:
			sendSSEEvent(w, flusher, s.buildSSEEvent(entry, "progress_update"))
			if entry.Tracker.Terminal() {
				sendSSEEvent(w, flusher, s.buildSSEEvent(entry, terminalEventType(entry)))
				return
			}
		}
	}
}

// buildSSEEvent snapshots the entry into one event.
func (s *Server) buildSSEEvent(entry *pipeline.Entry, eventType string) sseEvent {
	done, total := entry.Session.EnrichProgress()
	return sseEvent{
		EventType:  eventType,
		SearchID:   entry.Session.ID.String(),
		Steps:      entry.Tracker.Snapshot(),
		Enrichment: enrichmentResponse{Done: done, Total: total},
		Error:      entry.Tracker.ErrorMessage(),
		Timestamp:  time.Now(),
	}
}

// terminalEventType distinguishes a completed session from a failed one.
func terminalEventType(entry *pipeline.Entry) string {
	if entry.Tracker.Failed() {
		return "failed"
	}
	return "completed"
}

// sendSSEEvent writes a single SSE event to the response writer.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event sseEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	flusher.Flush()
}
