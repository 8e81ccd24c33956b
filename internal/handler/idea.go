package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/service"
	"github.com/sakif/execmind/internal/storage"
)

// multipartSlack covers the multipart framing and the small text fields
// sent alongside the audio file.
const multipartSlack = 1 << 20

type IdeaHandler struct {
	svc     *service.IdeaService
	uploads *storage.Local
	logger  *slog.Logger
}

func NewIdeaHandler(svc *service.IdeaService, uploads *storage.Local, logger *slog.Logger) *IdeaHandler {
	return &IdeaHandler{svc: svc, uploads: uploads, logger: logger}
}

// HandleList returns the caller's ideas.
//
// HTTP: GET /api/ideas?startDate=2024-08-01
func (h *IdeaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	ideas, err := h.svc.List(r.Context(), user.ID, queryTime(r, "startDate"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

type createIdeaRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Context string `json:"context"`
}

// HandleCreate classifies and stores a text idea.
//
// HTTP: POST /api/ideas
func (h *IdeaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createIdeaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	idea, err := h.svc.Create(r.Context(), user.ID, service.CreateIdeaInput{
		Content: req.Content,
		Source:  req.Source,
		Context: req.Context,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

// HandleVoice stores a recorded idea.
//
// HTTP: POST /api/ideas/voice
// REQUEST BODY: multipart/form-data with an "audio" file and an optional "context" field
//
// FILE LIFECYCLE:
//  1. The upload is staged on disk by storage.Local under a random name
//  2. The transcriber reads it and deletes it once the text is out
//  3. The deferred Delete below catches the paths where transcription
//     never ran; deleting a file that is already gone is a no-op
func (h *IdeaHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes()+multipartSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, h.logger, apperror.ValidationFailed("audio", "File too large"))
			return
		}
		writeError(w, r, h.logger, apperror.ValidationFailed("audio", "Audio file is required."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("audio", "Audio file is required."))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if kind, ok := storage.KindOf(contentType); !ok || kind != storage.KindAudio {
		writeError(w, r, h.logger, apperror.ValidationFailed("audio", "Only audio files are accepted."))
		return
	}

	up, err := h.uploads.Save(file, header.Filename, contentType)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer func() {
		if err := h.uploads.Delete(up.Path); err != nil {
			h.logger.Warn("failed to remove staged upload", slog.String("path", up.Path), slog.String("error", err.Error()))
		}
	}()

	idea, err := h.svc.CreateFromVoice(r.Context(), user.ID, service.VoiceUpload{
		Path:         up.Path,
		OriginalName: up.OriginalName,
		Context:      r.FormValue("context"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

// HandleSynthesize merges the ideas that best match a topic into one plan.
//
// HTTP: POST /api/ideas/synthesize
func (h *IdeaHandler) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out, err := h.svc.Synthesize(r.Context(), user.ID, req.Query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
