package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RUCLookup is the upstream tax-registry lookup the handler proxies to.
type RUCLookup interface {
	Lookup(ctx context.Context, ruc string) (body []byte, status int, err error)
}

// RUCHandler proxies tax-registry lookups, adding a cache header so browsers
// and intermediaries keep the registry data for a day.
type RUCHandler struct {
	lookup RUCLookup
}

func NewRUCHandler(lookup RUCLookup) *RUCHandler { return &RUCHandler{lookup: lookup} }

func (h *RUCHandler) Get(w http.ResponseWriter, r *http.Request) {
	ruc := chi.URLParam(r, "ruc")
	if len(ruc) != 11 || !allDigits(ruc) {
		writeError(w, http.StatusBadRequest, "ruc must be 11 digits")
		return
	}
	body, status, err := h.lookup.Lookup(r.Context(), ruc)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
