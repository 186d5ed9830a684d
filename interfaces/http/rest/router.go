package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"recall-backend/infrastructure/di"
	"recall-backend/interfaces/http/rest/handlers"
	"recall-backend/interfaces/http/rest/middleware"
	"recall-backend/interfaces/http/rest/v1"
	pkgerrors "recall-backend/pkg/errors"
)

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		logger:    container.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.container.Config.EnableTracing {
		router.Use(rt.container.Tracer.Middleware)
	}

	// CORS configuration
	if rt.container.Config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.recall.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.container.Config.IsDevelopment())

	reviewHandler := handlers.NewReviewHandler(rt.container.ReviewService, errorHandler, rt.logger)
	revisionHandler := handlers.NewRevisionHandler(
		rt.container.RevisionService,
		rt.container.AgendaService,
		rt.container.SettingsRepo,
		rt.container.GraphRepo,
		errorHandler,
		rt.logger,
	)
	graphHandler := handlers.NewGraphHandler(rt.container.GraphService, errorHandler, rt.logger)
	settingsHandler := handlers.NewSettingsHandler(rt.container.SettingsRepo, errorHandler, rt.logger)

	authMiddleware := middleware.Authenticate(rt.container.JWTValidator, rt.container.RateLimiter, rt.logger)

	// Legacy v1 API, kept for clients that have not migrated yet
	router.Mount("/api/v1", v1.NewRouter(reviewHandler, revisionHandler, graphHandler, authMiddleware))

	// API v2 routes (current)
	router.Route("/api/v2", func(r chi.Router) {
		r.Use(authMiddleware)

		// Review submission
		r.Post("/reviews", reviewHandler.SubmitReview)

		// Tracked artifacts
		r.Route("/artifacts", func(r chi.Router) {
			r.Post("/", revisionHandler.CreateArtifact)
			r.Get("/", revisionHandler.ListArtifacts)
		})

		// Revision lifecycle and aggregation
		r.Route("/revisions", func(r chi.Router) {
			r.Post("/", revisionHandler.MarkForRevision)
			r.Get("/", revisionHandler.ListRevisions)
			r.Post("/bulk-complete", revisionHandler.BulkComplete)
		})
		r.Get("/agenda", revisionHandler.GetAgenda)
		r.Get("/queue", revisionHandler.GetQueue)
		r.Get("/stats", revisionHandler.GetStats)

		// Knowledge graph
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", graphHandler.CreateNode)
			r.Get("/{nodeID}", graphHandler.GetNode)
			r.Delete("/{nodeID}", graphHandler.DeleteNode)
			r.Post("/{nodeID}/artifacts", graphHandler.LinkArtifact)
		})
		r.Post("/edges", graphHandler.CreateEdge)
		r.Delete("/edges/{edgeID}", graphHandler.DeleteEdge)
		r.Get("/graph-data", graphHandler.GetGraphData)

		// Scheduler settings
		r.Get("/settings", settingsHandler.GetSettings)
		r.Put("/settings", settingsHandler.UpdateSettings)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
