package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/auth"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/service"
)

// ProfileHandler serves registration, login and the executive's profile.
//
// Register and login are the only public /api routes besides health; every
// other method here runs behind auth.RequireAuth.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	EAEmail  string `json:"eaEmail"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/profile/register
// REQUEST BODY: {"name": "...", "email": "...", "password": "...", "eaEmail": "..."}
// RESPONSE: 201 {"token": "...", "user": {...}}
func (h *ProfileHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		EAEmail:  req.EAEmail,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/profile/login
func (h *ProfileHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("email", "Email and password are required."))
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /api/profile/me
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial profile update.
//
// HTTP: PATCH /api/profile/me
// REQUEST BODY: any subset of {"name", "eaEmail", "writingStyle", "bookExcerpts"}
//
// The body is decoded into raw values per key so the service can reject
// unknown keys by name instead of silently dropping them.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user, fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type sendExcerptRequest struct {
	Query     string `json:"query"`
	Recipient string `json:"recipient"`
	Context   string `json:"context"`
}

// HandleSendExcerpt mails the book excerpt that best fits a request.
//
// HTTP: POST /api/profile/send-excerpt
func (h *ProfileHandler) HandleSendExcerpt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req sendExcerptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.SendExcerpt(r.Context(), user, req.Query, req.Recipient, req.Context)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// currentUser returns the user auth.RequireAuth attached to the request.
// Reaching a protected handler without one is a wiring bug; it still answers
// 401 rather than panicking.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: auth.MsgNoToken})
		return nil, false
	}
	return user, true
}
