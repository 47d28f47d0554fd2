package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskboard/backend/internal/db"
	apperrors "github.com/taskboard/backend/internal/errors"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Handlers struct {
	authService *Service
}

func NewHandlers(authService *Service) *Handlers {
	return &Handlers{authService: authService}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("email and password are required"))
		return
	}

	if err := h.authService.Register(r.Context(), req.Email, req.Password); err != nil {
		apperrors.WriteError(w, requestID, mapAuthError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusCreated, MessageResponse{Message: "user created"})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, requestID, apperrors.BadRequest("invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		apperrors.WriteError(w, requestID, apperrors.ValidationError("email and password are required"))
		return
	}

	token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apperrors.WriteError(w, requestID, mapAuthError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, LoginResponse{Token: token})
}

// Me returns the authenticated user's public record. Requires the auth
// middleware.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	identity := IdentityFromContext(r.Context())
	if identity == nil {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("authentication required"))
		return
	}

	info, err := h.authService.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		apperrors.WriteError(w, requestID, mapAuthError(err))
		return
	}

	apperrors.WriteJSON(w, requestID, http.StatusOK, info)
}

// mapAuthError converts service and store errors into the response
// taxonomy. Anything unrecognized becomes a generic server fault so no
// internal detail leaks.
func mapAuthError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperrors.InvalidCredentials()
	case errors.Is(err, db.ErrEmailExists):
		return apperrors.EmailExists()
	case errors.Is(err, db.ErrUserNotFound):
		return apperrors.UserNotFound()
	case errors.Is(err, db.ErrUnavailable):
		return apperrors.StoreUnavailable()
	default:
		return apperrors.InternalError("server error").WithCause(err)
	}
}
