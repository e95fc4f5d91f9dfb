package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// streamKitchenEvents relays kitchen events as server-sent events until the
// client leaves or the kitchen closes.
func (s *Server) streamKitchenEvents(w http.ResponseWriter, r *http.Request) {
	k, err := s.kitchen(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := k.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial state so clients do not wait for the first tick.
	snapshot, _ := json.Marshal(k.View())
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn("failed to encode event", slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
