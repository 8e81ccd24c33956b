package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/service"
)

type NewsletterHandler struct {
	svc    *service.NewsletterService
	logger *slog.Logger
}

func NewNewsletterHandler(svc *service.NewsletterService, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{svc: svc, logger: logger}
}

// HandleList returns the caller's newsletters, most recent week first.
//
// HTTP: GET /api/newsletters
func (h *NewsletterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet returns one newsletter.
//
// HTTP: GET /api/newsletters/{id}
func (h *NewsletterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type generateNewsletterRequest struct {
	WeekOf       string   `json:"weekOf"`
	ManualInputs string   `json:"manualInputs"`
	SourceIDs    []string `json:"sourceIds"`
}

// HandleGenerate drafts a newsletter from selected meetings and ideas.
//
// HTTP: POST /api/newsletters/generate
// REQUEST BODY: {"weekOf": "2024-08-12", "manualInputs": "...", "sourceIds": ["..."]}
// RESPONSE: 201 Newsletter
func (h *NewsletterHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req generateNewsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := service.GenerateNewsletterInput{ManualInputs: req.ManualInputs, SourceIDs: req.SourceIDs}
	if strings.TrimSpace(req.WeekOf) != "" {
		d, ok := parseDate(req.WeekOf)
		if !ok {
			writeError(w, r, h.logger, apperror.ValidationFailed("weekOf", "weekOf must be YYYY-MM-DD or RFC 3339"))
			return
		}
		in.WeekOf = &d
	}

	n, err := h.svc.Generate(r.Context(), user, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

type updateNewsletterRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// HandleUpdate edits a newsletter's title, content or status.
//
// HTTP: PATCH /api/newsletters/{id}
func (h *NewsletterHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req updateNewsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	n, err := h.svc.Update(r.Context(), user.ID, r.PathValue("id"), service.UpdateNewsletterInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type sendNewsletterRequest struct {
	Recipients []string `json:"recipients"`
}

// HandleSend mails a newsletter and marks it published.
//
// HTTP: POST /api/newsletters/{id}/send
func (h *NewsletterHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req sendNewsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	n, err := h.svc.Send(r.Context(), user.ID, r.PathValue("id"), req.Recipients)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
