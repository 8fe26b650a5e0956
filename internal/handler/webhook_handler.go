// internal/handler/webhook_handler.go
package handler

import (
	"log"
	"net/http"

	"github.com/lironamy/wedding-us-sub002/internal/gateway"
	"github.com/lironamy/wedding-us-sub002/internal/service"
)

// WebhookHandler receives delivery-status callbacks from the gateway.
type WebhookHandler struct {
	Reconciler *service.Reconciler
}

// DeliveryStatus always answers 200: an error response would put this
// endpoint into the gateway's retry/backoff storm. Processing problems are
// logged and swallowed.
func (h *WebhookHandler) DeliveryStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Println("unreadable delivery callback:", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	cb, err := gateway.ParseStatusCallback(r.PostForm)
	if err != nil {
		log.Println("malformed delivery callback:", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.Reconciler.ProcessCallback(r.Context(), cb); err != nil {
		log.Println("failed to process delivery callback for", cb.MessageID, ":", err)
	}
	w.WriteHeader(http.StatusOK)
}
