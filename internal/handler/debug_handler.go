package handler

import (
	"net/http"

	"pixgate/internal/debuglog"
)

// DebugHandler exposes the in-memory diagnostics buffer to operators.
type DebugHandler struct {
	ring *debuglog.Ring
}

func NewDebugHandler(ring *debuglog.Ring) *DebugHandler {
	return &DebugHandler{ring: ring}
}

// Logs returns the buffered entries, oldest first.
func (h *DebugHandler) Logs(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":   h.ring.Len(),
		"entries": h.ring.Snapshot(),
	})
}
