package httpapi

import (
	"net/http"

	"scout-engine/internal/events"
)

type ListingsHandler struct {
	Svc ListingService
	Hub *events.Hub
}

// List serves the aggregated, deduplicated feed. Source failures
// degrade the snapshot, so this only errors when the request context
// dies mid-fetch.
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Svc.Snapshot(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "snapshot_failed", err.Error())
		return
	}
	writeJSON(w, snap)
}

// Refresh forces a new fetch cycle, bypassing the cache.
func (h ListingsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Svc.Refresh(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "refresh_failed", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeListingsRefreshed, 1, snap.Metadata))
	writeJSON(w, snap)
}
