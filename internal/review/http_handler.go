package review

import (
	"net/http"

	"booklend/internal/httpx"
)

type HTTPHandler struct {
	ledger *Ledger
}

func NewHTTPHandler(ledger *Ledger) *HTTPHandler {
	return &HTTPHandler{ledger: ledger}
}

// ListForUser handles GET /user/{id}/reviews
func (h *HTTPHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user id", nil)
		return
	}

	reviews, err := h.ledger.ListBySubject(r.Context(), id)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if reviews == nil {
		reviews = []Review{}
	}
	httpx.JSONSuccess(w, r, reviews)
}
