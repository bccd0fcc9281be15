package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nutritracker/client/internal/middlewares"
	"github.com/nutritracker/client/internal/models"
	"go.uber.org/zap"
)

// ViewSource is the interface that wraps read access to the client state
type ViewSource interface {
	// Method View returns a consistent snapshot of the client state.
	View() models.View
}

// APIHandler serves the JSON view snapshot and the health check
type APIHandler struct {
	BaseHandler
	views          ViewSource
	allowedOrigins []string
	storageMode    string
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(views ViewSource, allowedOrigins []string, storageMode string, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		BaseHandler:    BaseHandler{logger: logger},
		views:          views,
		allowedOrigins: allowedOrigins,
		storageMode:    storageMode,
	}
}

// RegisterRoutes registers the API routes
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Use(middlewares.CORS(h.allowedOrigins))
		r.Get("/view", h.GetView)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.respondError(w, http.StatusNotFound, "not found")
		})
	})
}

// GetView handles GET /api/view
func (h *APIHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.views.View())
}

// Health handles GET /health
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": h.storageMode,
	})
}
