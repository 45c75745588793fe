package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"booklend/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// GetProfile handles GET /user/{id}
func (h *HTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user id", nil)
		return
	}

	profile, err := h.service.Profile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, profile)
}

// GetMe handles GET /user/me
func (h *HTTPHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, u)
}

type updateMeReq struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	BirthDate  *string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	PostalCode *string `json:"postalCode" validate:"omitempty,max=16"`
}

// UpdateMe handles PATCH /user/me
func (h *HTTPHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req updateMeReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	upd := Update{Name: req.Name}
	if req.PostalCode != nil {
		pc := strings.TrimSpace(*req.PostalCode)
		upd.PostalCode = &pc
	}
	if req.BirthDate != nil {
		bd, _ := time.Parse(time.DateOnly, *req.BirthDate)
		upd.BirthDate = &bd
	}

	u, err := h.service.UpdateMe(r.Context(), userID, upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, u)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}
	httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
