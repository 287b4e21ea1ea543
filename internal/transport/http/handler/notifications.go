package handler

import (
	"encoding/json"
	"net/http"

	"github.com/memphis-pe/oc-api/internal/application/notifier"
	"github.com/memphis-pe/oc-api/internal/pkg/validate"
)

// NotificationHandler exposes the manual push-test endpoint.
type NotificationHandler struct {
	svc notifier.Service
}

func NewNotificationHandler(svc notifier.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// SendTest dispatches a test push to every registered token of one user and
// reports the per-token outcome.
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req notifier.TestSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.SendTest(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DispatchEnvelope{Sent: result.Sent, Errors: result.Errors})
}
