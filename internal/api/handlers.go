package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tracktoid/internal/api/shared"
	"github.com/phrazzld/tracktoid/internal/domain"
	"github.com/phrazzld/tracktoid/internal/platform/logger"
	"github.com/phrazzld/tracktoid/internal/trakt"
)

// Show event types accepted by PostShowEvent.
const (
	ShowEventUpdated = "updated"
	ShowEventRemoved = "removed"
)

// Manager is the part of *trakt.Manager the handlers use.
type Manager interface {
	Status() trakt.Status
	NotifyShowUpdated(show domain.Show)
	NotifyShowRemoved(show domain.Show)
}

// ManagerFunc resolves the manager for a request. It returns
// trakt.ErrNotInitialized while no manager exists.
type ManagerFunc func() (Manager, error)

// InstanceManager resolves the process-wide trakt manager.
func InstanceManager() (Manager, error) {
	m, err := trakt.Instance()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ShowEventRequest is the body of POST /api/shows/{tvdbID}/events.
type ShowEventRequest struct {
	Event string `json:"event" validate:"required,oneof=updated removed"`
	Title string `json:"title" validate:"required"`
	Year  int    `json:"year"  validate:"min=0"`
}

// QueueHandler serves the request manager endpoints.
type QueueHandler struct {
	manager  ManagerFunc
	validate *validator.Validate
	logger   *slog.Logger
}

// NewQueueHandler creates a QueueHandler.
func NewQueueHandler(manager ManagerFunc, logger *slog.Logger) *QueueHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QueueHandler")
	}

	return &QueueHandler{
		manager:  manager,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "queue_handler")),
	}
}

// GetQueue handles GET /api/queue.
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager()
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, m.Status())
}

// PostShowEvent handles POST /api/shows/{tvdbID}/events and broadcasts the
// change to every registered listener.
func (h *QueueHandler) PostShowEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req ShowEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, r, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	show, err := domain.NewShow(chi.URLParam(r, "tvdbID"), req.Title, req.Year)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	m, err := h.manager()
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	switch req.Event {
	case ShowEventUpdated:
		m.NotifyShowUpdated(show)
	case ShowEventRemoved:
		m.NotifyShowRemoved(show)
	}
	log.Info("show event broadcast", "event", req.Event, "tvdb_id", show.TVDBID)

	w.WriteHeader(http.StatusAccepted)
}

func (h *QueueHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// HealthCheck handles GET /health.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter mounts the handlers on a chi router.
func NewRouter(h *QueueHandler, middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health", HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/queue", h.GetQueue)
		r.Post("/shows/{tvdbID}/events", h.PostShowEvent)
	})

	return r
}
