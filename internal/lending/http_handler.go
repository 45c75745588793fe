package lending

import (
	"net/http"

	"booklend/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	engine *Engine
	logger *zap.Logger
}

func NewHTTPHandler(engine *Engine, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{engine: engine, logger: logger}
}

// StatusFor maps a lending error to its HTTP status.
func StatusFor(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDispatchFailure:
		return http.StatusBadRequest
	case KindForbidden, KindMissingPrecondition:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError renders err in the response envelope.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := KindOf(err)
	if kind == 0 {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONError(w, r, StatusFor(err), kind.String(), err.Error(), nil)
}

// actor returns the authenticated user and the {id} path value, or writes
// the error response and returns ok=false.
func (h *HTTPHandler) actor(w http.ResponseWriter, r *http.Request) (userID, id string, ok bool) {
	userID = httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return "", "", false
	}
	id, ok = httpx.PathUUID(r, "id")
	if !ok {
		httpx.JSONError(w, r, http.StatusBadRequest, KindValidation.String(), "Invalid id", nil)
		return "", "", false
	}
	return userID, id, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return false
	}
	if details := httpx.ValidateStruct(dst); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, KindValidation.String(), "Invalid input", details)
		return false
	}
	return true
}

// Detail handles GET /book/{id}
func (h *HTTPHandler) Detail(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	d, err := h.engine.Detail(r.Context(), userID, bookID)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, d)
}

// Borrow handles POST /book/{id}/borrow
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.engine.RequestBorrow(r.Context(), userID, bookID); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, "Borrow request sent")
}

// NotifyMe handles POST /book/{id}/notifyMe
func (h *HTTPHandler) NotifyMe(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.engine.RequestAvailabilityNotice(r.Context(), userID, bookID); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, "You will be notified when the book is available")
}

// DeleteRequest handles DELETE /book/{id}/deleteRequest
func (h *HTTPHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.engine.CancelRequest(r.Context(), userID, bookID); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, "Request cancelled")
}

type returnSoonReq struct {
	Returned *bool `json:"returned" validate:"required"`
}

// ReturnSoon handles POST /book/{id}/returnSoon
func (h *HTTPHandler) ReturnSoon(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req returnSoonReq
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.engine.ReturnVoluntarily(r.Context(), userID, bookID, *req.Returned); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, "Loan updated")
}

type returnLateReq struct {
	Returned       *bool  `json:"returned" validate:"required"`
	NotificationID string `json:"notificationId" validate:"required,uuid"`
}

// ReturnLate handles POST /book/{id}/returnLate
func (h *HTTPHandler) ReturnLate(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req returnLateReq
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.engine.ResolveExpiredLoan(r.Context(), userID, bookID, req.NotificationID, *req.Returned); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, "Expired loan resolved")
}

type answerReq struct {
	Accepted       *bool  `json:"accepted" validate:"required"`
	NotificationID string `json:"notificationId" validate:"required,uuid"`
}

// Answer handles POST /book/{id}/answer
func (h *HTTPHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, bookID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req answerReq
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.engine.AnswerBorrowRequest(r.Context(), userID, bookID, req.NotificationID, *req.Accepted); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if *req.Accepted {
		httpx.JSONSuccess(w, r, "Request accepted")
		return
	}
	httpx.JSONSuccess(w, r, "Request declined")
}

type reviewReq struct {
	Score          *float64 `json:"score" validate:"required,gte=0,lte=5"`
	Content        *string  `json:"content" validate:"omitempty,max=1000"`
	NotificationID string   `json:"notificationId" validate:"required,uuid"`
}

// Review handles POST /user/{id}/review where {id} is the reviewed user.
func (h *HTTPHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, subjectID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req reviewReq
	if !h.decode(w, r, &req) {
		return
	}
	avg, err := h.engine.SubmitReview(r.Context(), Review{
		AuthorID:       userID,
		SubjectID:      subjectID,
		NotificationID: req.NotificationID,
		Score:          *req.Score,
		Content:        req.Content,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"averageScore": avg})
}

