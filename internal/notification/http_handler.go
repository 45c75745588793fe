package notification

import (
	"errors"
	"net/http"

	"booklend/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// List handles GET /user/notifications
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	records, err := h.svc.List(r.Context(), userID)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, records)
}

// Dismiss handles DELETE /user/notifications/{id}
func (h *HTTPHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	id, ok := httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification id", nil)
		return
	}

	err := h.svc.Dismiss(r.Context(), userID, id)
	switch {
	case err == nil:
		httpx.JSONSuccess(w, r, "Notification dismissed")
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Notification not found", nil)
	case errors.Is(err, ErrNotRecipient):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Notification belongs to another user", nil)
	case errors.Is(err, ErrNotDismissible):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Notification must be answered", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
