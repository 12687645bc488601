package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"scout-engine/internal/alerts"
	"scout-engine/internal/domain"
	"scout-engine/internal/events"
)

type AlertsHandler struct {
	Subs     SubscriptionCreator
	RunCycle func(ctx context.Context) (alerts.CycleReport, error)
	Hub      *events.Hub
}

type subscribeReq struct {
	Email    string             `json:"email"`
	Criteria []domain.Criterion `json:"criteria"`
}

func (h AlertsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") {
		WriteError(w, r, http.StatusBadRequest, "invalid_email", "email does not look like an address")
		return
	}
	// A subscription with no criteria would never match anything.
	if len(req.Criteria) == 0 {
		WriteError(w, r, http.StatusBadRequest, "no_criteria", "at least one criterion is required")
		return
	}
	for i := range req.Criteria {
		req.Criteria[i].Value = strings.TrimSpace(req.Criteria[i].Value)
		if !req.Criteria[i].Type.Valid() {
			WriteError(w, r, http.StatusBadRequest, "invalid_criterion", "criterion type must be company, location, or keyword")
			return
		}
		if req.Criteria[i].Value == "" {
			WriteError(w, r, http.StatusBadRequest, "invalid_criterion", "criterion value cannot be empty")
			return
		}
	}

	sub, err := h.Subs.Create(r.Context(), req.Email, req.Criteria)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_failed", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeSubscriptionCreated, 1, map[string]any{
		"id":    sub.ID,
		"email": sub.Email,
	}))
	WriteJSON(w, http.StatusCreated, sub)
}

// Process triggers one alert cycle and returns the per-subscription
// report. An already-running cycle is a 409, not an error worth
// retrying immediately.
func (h AlertsHandler) Process(w http.ResponseWriter, r *http.Request) {
	report, err := h.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, alerts.ErrCycleRunning) {
			WriteError(w, r, http.StatusConflict, "cycle_running", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "cycle_failed", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeAlertCycleDone, 1, map[string]any{
		"processed": len(report.Processed),
	}))
	writeJSON(w, report)
}
