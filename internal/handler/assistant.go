package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/sakif/execmind/internal/apperror"
	"github.com/sakif/execmind/internal/service"
)

// AssistantHandler serves the endpoints that do not own records: document
// analysis, text to speech and the scripted demo.
type AssistantHandler struct {
	analyst *service.AnalystService
	audio   *service.AudioService
	demo    *service.DemoService
	logger  *slog.Logger
}

func NewAssistantHandler(analyst *service.AnalystService, audio *service.AudioService, demo *service.DemoService, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{analyst: analyst, audio: audio, demo: demo, logger: logger}
}

// HandleAnalyst answers a question from the knowledge-base documents.
//
// HTTP: POST /api/analyst/query
func (h *AssistantHandler) HandleAnalyst(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out, err := h.analyst.Query(r.Context(), req.Query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type speakRequest struct {
	Text string `json:"text"`
}

// HandleSpeak streams text read aloud.
//
// HTTP: POST /api/audio/speak
// RESPONSE: 200 audio/mpeg
//
// STREAMING:
// The provider's body is copied straight to the client. Once the first byte
// is written the status is committed, so a copy error can only be logged.
func (h *AssistantHandler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stream, err := h.audio.Speak(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil {
		h.logger.Warn("audio stream interrupted", slog.String("error", err.Error()))
	}
}

type demoRequest struct {
	Turn json.RawMessage `json:"turn"`
}

type demoResponse struct {
	ResponseText string `json:"responseText"`
}

// HandleDemo returns the scripted reply for a demo turn.
//
// HTTP: POST /api/demo/chat
// REQUEST BODY: {"turn": 0}
//
// A fractional turn is a number but never a line in the script, so it gets
// the closing line like any other turn past the end.
func (h *AssistantHandler) HandleDemo(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var turn float64
	if len(req.Turn) == 0 || json.Unmarshal(req.Turn, &turn) != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed("turn", "A valid turn number is required."))
		return
	}

	n := -1
	if turn == math.Trunc(turn) && math.Abs(turn) < math.MaxInt32 {
		n = int(turn)
	}
	writeJSON(w, http.StatusOK, demoResponse{ResponseText: h.demo.Reply(n)})
}
