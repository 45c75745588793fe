package book

import (
	"errors"
	"net/http"
	"strings"

	"booklend/internal/httpx"
)

// maxCoverBytes bounds an uploaded cover image.
const maxCoverBytes = 5 << 20

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createReq struct {
	Title         string   `json:"title" validate:"required,max=200"`
	Author        string   `json:"author" validate:"required,max=200"`
	Condition     string   `json:"condition" validate:"max=50"`
	Description   string   `json:"description" validate:"max=2000"`
	Price         float64  `json:"price" validate:"gte=0"`
	AgeRestricted bool     `json:"ageRestricted"`
	MaxLoanDays   int      `json:"maxLoanDays" validate:"gte=1,lte=365"`
	Genres        []string `json:"genres" validate:"max=10,dive,max=40"`
	HandOver      []string `json:"handOver" validate:"required,min=1,dive,oneof=in_person postal"`
	Location      string   `json:"location" validate:"max=200"`
}

// Create handles POST /book
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	d := Draft{
		Title:         req.Title,
		Author:        req.Author,
		Condition:     req.Condition,
		Description:   req.Description,
		Price:         req.Price,
		AgeRestricted: req.AgeRestricted,
		MaxLoanDays:   req.MaxLoanDays,
		Genres:        req.Genres,
		Location:      req.Location,
	}
	for _, ho := range req.HandOver {
		d.HandOver = append(d.HandOver, HandOver(ho))
	}

	b, err := h.service.Create(r.Context(), userID, d)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONCreated(w, r, b)
}

// Delete handles DELETE /book/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	id, ok := httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book id", nil)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Book deleted")
}

// UploadCover handles PUT /book/{id}/cover with the raw image as body.
func (h *HTTPHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}
	id, ok := httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book id", nil)
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		httpx.JSONError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Cover must be an image", nil)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxCoverBytes)
	if err := h.service.SaveCover(r.Context(), userID, id, body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Cover image too large", nil)
			return
		}
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Cover saved")
}

// ListMine handles GET /user/books
func (h *HTTPHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return
	}

	books, err := h.service.ListByOwner(r.Context(), userID)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}
	httpx.JSONSuccess(w, r, books)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrNotOwner):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Only the owner can do this", nil)
	case errors.Is(err, ErrStillBorrowed):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", "Book is currently lent out", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
