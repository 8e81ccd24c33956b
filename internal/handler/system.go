package handler

import (
	"net/http"
	"time"

	"github.com/sakif/execmind/internal/auth"
)

// APIVersion is reported by the index route.
const APIVersion = "1.0.0"

// SystemHandler serves the routes that sit outside any resource: health,
// the API index and the JSON fallbacks for unknown routes.
type SystemHandler struct {
	started time.Time
	now     func() time.Time
}

func NewSystemHandler(started time.Time) *SystemHandler {
	return &SystemHandler{started: started, now: time.Now}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// HandleHealth reports liveness. It never touches the database, so a
// stuck store does not make the load balancer recycle a healthy process.
//
// HTTP: GET /api/health
// RESPONSE: {"status": "OK", "timestamp": "...", "uptime": 12.5}
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.started).Seconds(),
	})
}

type indexResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	User      string   `json:"user,omitempty"`
}

var endpoints = []string{
	"/api/meetings",
	"/api/ideas",
	"/api/newsletters",
	"/api/profile",
	"/api/insights",
	"/api/search",
	"/api/analyst",
	"/api/audio",
	"/api/demo",
	"/api/health",
}

// HandleIndex lists the API's resources. Behind auth.OptionalAuth, a caller
// with a valid token is also told who they are signed in as.
//
// HTTP: GET /
func (h *SystemHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	resp := indexResponse{
		Message:   "ExecMind CEO Companion Agent API",
		Version:   APIVersion,
		Endpoints: endpoints,
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		resp.User = user.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

type notFoundResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// HandleNotFound answers unknown routes in JSON instead of chi's plain text.
func (h *SystemHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{Error: "Route not found", Path: r.URL.RequestURI()})
}

// HandleMethodNotAllowed answers a known path called with the wrong method.
func (h *SystemHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}
