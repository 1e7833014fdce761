package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tracktoid/internal/api"
	apiMiddleware "github.com/phrazzld/tracktoid/internal/api/middleware"
)

// setupRouter creates the router with the standard middleware stack.
func (app *application) setupRouter() http.Handler {
	handler := api.NewQueueHandler(api.InstanceManager, app.logger)

	return api.NewRouter(handler,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		apiMiddleware.NewTraceMiddleware(app.logger),
	)
}
