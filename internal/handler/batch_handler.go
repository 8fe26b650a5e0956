// internal/handler/batch_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
	"github.com/lironamy/wedding-us-sub002/internal/service"
)

// BatchHandler is the operator-facing API: thin wrappers over BatchService.
type BatchHandler struct {
	Service     *service.BatchService
	RSVPBaseURL string
}

func (h *BatchHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	batches, err := h.Service.ListForEvent(r.Context(), eventID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": batches})
}

func (h *BatchHandler) GenerateDefaults(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	var body struct {
		Regenerate bool `json:"regenerate"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	created, err := h.Service.GenerateDefaults(r.Context(), eventID, body.Regenerate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (h *BatchHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	var body struct {
		Kind         string `json:"kind"`
		FiresAt      string `json:"fires_at"`
		TargetFilter string `json:"target_filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	firesAt, err := time.Parse(time.RFC3339, body.FiresAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fires_at must be RFC3339"})
		return
	}

	b, err := h.Service.CreateManual(r.Context(), eventID, model.BatchKind(body.Kind), firesAt, model.TargetFilter(body.TargetFilter))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListRecipients is the per-recipient breakdown, including each record's
// delivery status and error detail.
func (h *BatchHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListRecipients(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *BatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "batchID")
	if err := h.Service.Cancel(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "state": string(model.BatchCancelled)})
}

func (h *BatchHandler) Preview(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	var body struct {
		GuestID int    `json:"guest_id"`
		Kind    string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	rendered, err := h.Service.Preview(r.Context(), eventID, body.GuestID, model.BatchKind(body.Kind), h.RSVPBaseURL)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rendered_message": rendered,
		"guest_id":         body.GuestID,
	})
}

// ListStaleRecords lists records still waiting on a terminal delivery status
// after the given age (default 72h). Cleanup itself stays a manual step.
func (h *BatchHandler) ListStaleRecords(w http.ResponseWriter, r *http.Request) {
	hours := 72
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be a positive integer"})
			return
		}
		hours = n
	}

	records, err := h.Service.ListStaleRecords(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *BatchHandler) writeError(w http.ResponseWriter, err error) {
	var batchNotFound *appErrors.ErrBatchNotFound
	var eventNotFound *appErrors.ErrEventNotFound
	var notCancellable *appErrors.ErrBatchNotCancellable
	switch {
	case errors.As(err, &batchNotFound), errors.As(err, &eventNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &notCancellable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
