package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/execmind/internal/search"
	"github.com/sakif/execmind/internal/service"
)

type InsightHandler struct {
	svc    *service.InsightService
	logger *slog.Logger
}

func NewInsightHandler(svc *service.InsightService, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{svc: svc, logger: logger}
}

// HandleList returns the latest insights.
//
// HTTP: GET /api/insights?startDate=2024-08-01
func (h *InsightHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := h.svc.List(r.Context(), user.ID, queryTime(r, "startDate"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGenerate replaces the weekly insight batch.
//
// HTTP: POST /api/insights/generate
// RESPONSE: 201 [Insight, ...]
func (h *InsightHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	batch, err := h.svc.Generate(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

type SearchHandler struct {
	svc    *search.Service
	logger *slog.Logger
}

func NewSearchHandler(svc *search.Service, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, logger: logger}
}

// HandleSearch runs one query across every collection.
//
// HTTP: GET /api/search?q=pricing
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	hits, err := h.svc.Search(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}
