package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"booklend/internal/book"
	"booklend/internal/eligibility"
	"booklend/internal/httpx"
	"booklend/internal/lending"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHTTPHandler(svc *Service, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

// All handles GET /books
func (h *HTTPHandler) All(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	books, err := h.svc.All(r.Context(), userID)
	if err != nil {
		lending.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, books)
}

// Search handles GET /books/{query}
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	q := eligibility.Query{Name: strings.TrimSpace(r.PathValue("query"))}
	h.browse(w, r, userID, q)
}

// Filter handles GET /books/filter
func (h *HTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.viewer(w, r)
	if !ok {
		return
	}
	q, details := parseQuery(r)
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, lending.KindValidation.String(), "Invalid filter", details)
		return
	}
	h.browse(w, r, userID, q)
}

func (h *HTTPHandler) browse(w http.ResponseWriter, r *http.Request, userID string, q eligibility.Query) {
	books, err := h.svc.Browse(r.Context(), userID, q)
	if err != nil {
		lending.WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, books)
}

func (h *HTTPHandler) viewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return "", false
	}
	return userID, true
}

// parseQuery reads the filter dimensions. List values may be repeated or
// comma separated.
func parseQuery(r *http.Request) (eligibility.Query, []httpx.ErrorDetail) {
	values := r.URL.Query()
	var details []httpx.ErrorDetail

	q := eligibility.Query{
		Name:         strings.TrimSpace(values.Get("name")),
		Author:       strings.TrimSpace(values.Get("author")),
		Genres:       book.NormalizeGenres(splitList(values["genres"])),
		Availability: eligibility.Availability(strings.ToLower(values.Get("availability"))),
	}

	if raw := values.Get("maxPrice"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			details = append(details, httpx.ErrorDetail{Field: "maxPrice", Message: "must be a non-negative number"})
		} else {
			q.MaxPrice = &price
		}
	}

	for _, v := range splitList(values["handOver"]) {
		h := book.HandOver(strings.ToLower(v))
		if h != book.InPerson && h != book.Postal {
			details = append(details, httpx.ErrorDetail{Field: "handOver", Message: "must be in_person or postal"})
			break
		}
		q.HandOver = append(q.HandOver, h)
	}

	if !q.Availability.Valid() {
		details = append(details, httpx.ErrorDetail{Field: "availability", Message: "must be available or borrowed"})
	}
	return q, details
}

func splitList(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
