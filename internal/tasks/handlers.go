package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/taskboard/backend/internal/db"
	apperrors "github.com/taskboard/backend/internal/errors"
)

// The task service trusts the caller-declared userId from the query
// string or request body instead of a verified token. The frontend
// depends on this contract; hardening it to require a bearer token is
// a known follow-up.

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      int64  `json:"userId"`
}

type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	UserID      int64  `json:"userId"`
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toResponse(t *db.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
	}
}

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	ownerID, ok := queryOwnerID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("user ID required"))
		return
	}

	taskList, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		apperrors.WriteError(w, requestID, mapTaskError(err))
		return
	}

	resp := make([]TaskResponse, 0, len(taskList))
	for i := range taskList {
		resp = append(resp, toResponse(&taskList[i]))
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, resp)
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	id, ok := pathTaskID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid task id"))
		return
	}

	ownerID, ok := queryOwnerID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("user ID required"))
		return
	}

	task, err := h.service.Get(r.Context(), id, ownerID)
	if err != nil {
		apperrors.WriteError(w, requestID, mapTaskError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, toResponse(task))
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if req.UserID == 0 {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("user ID required"))
		return
	}

	task, err := h.service.Create(r.Context(), req.UserID, req.Title, req.Description)
	if err != nil {
		apperrors.WriteError(w, requestID, mapTaskError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusCreated, toResponse(task))
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	id, ok := pathTaskID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid task id"))
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if req.UserID == 0 {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("user ID required"))
		return
	}

	task, err := h.service.Update(r.Context(), id, req.UserID, req.Title, req.Description, req.Status)
	if err != nil {
		apperrors.WriteError(w, requestID, mapTaskError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, toResponse(task))
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	id, ok := pathTaskID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid task id"))
		return
	}

	ownerID, ok := queryOwnerID(r)
	if !ok {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("user ID required"))
		return
	}

	if err := h.service.Delete(r.Context(), id, ownerID); err != nil {
		apperrors.WriteError(w, requestID, mapTaskError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, MessageResponse{Message: "task successfully deleted"})
}

func queryOwnerID(r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathTaskID(r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// mapTaskError converts service and store errors into the response
// taxonomy without leaking internal detail.
func mapTaskError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, ErrTitleRequired):
		return apperrors.ValidationError("title is required")
	case errors.Is(err, ErrInvalidStatus):
		return apperrors.ValidationError("status must be pending, in-progress or completed")
	case errors.Is(err, db.ErrTaskNotFound):
		return apperrors.TaskNotFound()
	case errors.Is(err, db.ErrUnavailable):
		return apperrors.StoreUnavailable()
	default:
		return apperrors.InternalError("server error").WithCause(err)
	}
}
