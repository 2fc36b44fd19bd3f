package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowcrm/pain-radar/internal/keywords"
	"github.com/flowcrm/pain-radar/internal/pains"
	"github.com/flowcrm/pain-radar/internal/pipeline"
	"github.com/flowcrm/pain-radar/internal/store"
)

// Server wires the HTTP surface to the services.
type Server struct {
	store            store.Store
	keywords         *keywords.Service
	scans            *pipeline.Orchestrator
	pains            *pains.Service
	insights         *pains.InsightGenerator
	defaultScanLimit int
}

// NewServer creates a new API server
func NewServer(
	st store.Store,
	keywordSvc *keywords.Service,
	orchestrator *pipeline.Orchestrator,
	painSvc *pains.Service,
	insightGen *pains.InsightGenerator,
	defaultScanLimit int,
) *Server {
	return &Server{
		store:            st,
		keywords:         keywordSvc,
		scans:            orchestrator,
		pains:            painSvc,
		insights:         insightGen,
		defaultScanLimit: defaultScanLimit,
	}
}

// Router builds the route table. Everything under /api/v1 requires the
// workspace headers; /healthz does not.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.Use(tenantMiddleware(s.store))

	v1.HandleFunc("/keywords", s.handleCreateKeyword).Methods(http.MethodPost)
	v1.HandleFunc("/keywords", s.handleListKeywords).Methods(http.MethodGet)

	v1.HandleFunc("/scans", s.handleTriggerScan).Methods(http.MethodPost)
	v1.HandleFunc("/scans/{id}", s.handleGetScan).Methods(http.MethodGet)
	v1.HandleFunc("/scans/{id}/page", s.handleScanPage).Methods(http.MethodGet)

	v1.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)

	v1.HandleFunc("/pains", s.handleListPains).Methods(http.MethodGet)
	v1.HandleFunc("/pains/{id}", s.handleGetPain).Methods(http.MethodGet)
	v1.HandleFunc("/pains/{id}", s.handleUpdatePain).Methods(http.MethodPatch)
	v1.HandleFunc("/pains/{id}/insights", s.handleGenerateInsights).Methods(http.MethodPost)

	v1.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	return router
}
