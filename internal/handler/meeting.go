package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/model"
	"github.com/sakif/execmind/internal/service"
)

type MeetingHandler struct {
	svc    *service.MeetingService
	logger *slog.Logger
}

func NewMeetingHandler(svc *service.MeetingService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{svc: svc, logger: logger}
}

// HandleList returns the caller's meetings, newest first.
//
// HTTP: GET /api/meetings
func (h *MeetingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	meetings, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

type summarizeRequest struct {
	Title        string              `json:"title"`
	Participants []model.Participant `json:"participants"`
	Date         string              `json:"date"`
	MeetingNotes string              `json:"meetingNotes"`
}

// HandleSummarize turns meeting notes into a stored summary.
//
// HTTP: POST /api/meetings/summarize
// REQUEST BODY: {"title": "...", "participants": [{"name": "..."}], "date": "2024-08-16", "meetingNotes": "..."}
// RESPONSE: 201 Meeting
func (h *MeetingHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req summarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := service.SummarizeInput{Title: req.Title, Participants: req.Participants, Notes: req.MeetingNotes}
	if strings.TrimSpace(req.Date) != "" {
		d, ok := parseDate(req.Date)
		if !ok {
			writeError(w, r, h.logger, apperror.ValidationFailed("date", "date must be YYYY-MM-DD or RFC 3339"))
			return
		}
		in.Date = &d
	}

	m, err := h.svc.Summarize(r.Context(), user, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandlePrep briefs the caller on a person before meeting them.
//
// HTTP: GET /api/meetings/prep/{participantName}
func (h *MeetingHandler) HandlePrep(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Prep(r.Context(), user.ID, r.PathValue("participantName"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type queryRequest struct {
	Query string `json:"query"`
}

// answerResponse is the body of /api/meetings/ask, found or not.
type answerResponse struct {
	Answer string `json:"answer"`
}

// HandleAsk answers a question about past meetings.
//
// HTTP: POST /api/meetings/ask
//
// WHY A DIFFERENT 404 BODY?
// The chat client renders "answer" whatever the status. When no meeting
// matches, the 404 carries the reply under "answer" instead of "error" so
// the conversation reads naturally.
func (h *MeetingHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ans, err := h.svc.Ask(r.Context(), user.ID, req.Query)
	if errors.Is(err, service.ErrNoMeetingMatch) {
		writeJSON(w, http.StatusNotFound, answerResponse{Answer: service.NoMeetingMatchAnswer})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Answer: ans.Answer})
}

type quickCaptureRequest struct {
	RawText string `json:"rawText"`
}

// HandleQuickCapture structures a brain dump into a meeting record.
//
// HTTP: POST /api/meetings/quick-capture
func (h *MeetingHandler) HandleQuickCapture(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req quickCaptureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	m, err := h.svc.QuickCapture(r.Context(), user.ID, req.RawText)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleArchive lists the curated archive of past meeting summaries.
//
// HTTP: GET /api/meetings/archive
func (h *MeetingHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Archive())
}
