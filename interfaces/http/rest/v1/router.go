// Package v1 keeps the legacy API surface alive for clients that have not
// migrated to /api/v2. It reuses the v2 handlers; only the routing and the
// deprecation headers differ.
package v1

import (
	"net/http"

	"github.com/gorilla/mux"

	"recall-backend/interfaces/http/rest/handlers"
)

// NewRouter creates the v1 API router
func NewRouter(
	reviewHandler *handlers.ReviewHandler,
	revisionHandler *handlers.RevisionHandler,
	graphHandler *handlers.GraphHandler,
	authMiddleware func(http.Handler) http.Handler,
) *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.Use(mux.MiddlewareFunc(authMiddleware))
	v1.Use(deprecationHeaders)

	// Review endpoints
	v1.HandleFunc("/reviews", reviewHandler.SubmitReview).Methods("POST")

	// Artifact endpoints
	v1.HandleFunc("/artifacts", revisionHandler.CreateArtifact).Methods("POST")
	v1.HandleFunc("/artifacts", revisionHandler.ListArtifacts).Methods("GET")

	// Revision endpoints
	v1.HandleFunc("/revisions", revisionHandler.MarkForRevision).Methods("POST")
	v1.HandleFunc("/revisions", revisionHandler.ListRevisions).Methods("GET")
	v1.HandleFunc("/revisions/bulk-complete", revisionHandler.BulkComplete).Methods("POST")
	v1.HandleFunc("/agenda", revisionHandler.GetAgenda).Methods("GET")
	v1.HandleFunc("/stats", revisionHandler.GetStats).Methods("GET")

	// Graph endpoints
	v1.HandleFunc("/graph-data", graphHandler.GetGraphData).Methods("GET")

	// Health check
	v1.HandleFunc("/health", healthCheck).Methods("GET")

	return router
}

// deprecationHeaders marks every v1 response as deprecated
func deprecationHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		w.Header().Set("X-API-Deprecated", "true")
		w.Header().Set("X-API-Latest", "v2")
		next.ServeHTTP(w, r)
	})
}

// healthCheck provides a health check endpoint
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","version":"v1"}`))
}
