// internal/handler/cron_handler.go
package handler

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/lironamy/wedding-us-sub002/internal/service"
)

// CronHandler exposes the orchestrator to the external periodic trigger.
// Registered on both GET and POST: some schedulers can only issue GETs, and
// operators use POST for an explicit manual run. Both verbs are idempotent
// because the claim is a conditional store update.
type CronHandler struct {
	Orchestrator *service.Orchestrator
	Secret       string
}

func (h *CronHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing cron secret"})
		return
	}

	summary, err := h.Orchestrator.RunDue(r.Context())
	if err != nil {
		log.Println("dispatch run failed:", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *CronHandler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return false
	}
	got := r.Header.Get("X-Cron-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) == 1
}
