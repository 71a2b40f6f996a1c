// Package api exposes the session orchestrator over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mmynk/billchat/internal/auth"
	"github.com/mmynk/billchat/internal/middleware"
	"github.com/mmynk/billchat/internal/session"
)

// maxImageBytes caps receipt uploads. Phone photos are a few MB.
const maxImageBytes = 10 << 20

// API wires HTTP routes to the session service.
type API struct {
	router     *mux.Router
	sessions   *session.Service
	jwtManager *auth.JWTManager
}

// New creates the API and registers its routes.
func New(sessions *session.Service, jwtManager *auth.JWTManager) *API {
	a := &API{
		router:     mux.NewRouter(),
		sessions:   sessions,
		jwtManager: jwtManager,
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	// Metrics run inside the router so the route template is the path label
	a.router.Use(middleware.Metrics)

	// Public endpoints
	a.router.HandleFunc("/api/sessions", a.handleCreateSession).Methods("POST")
	a.router.HandleFunc("/api/sessions/{session_id}/join", a.handleJoinSession).Methods("POST")

	// Protected endpoints: the bearer token names the session being acted on
	protected := a.router.PathPrefix("/api/session").Subrouter()
	protected.Use(middleware.RequireSession(a.jwtManager))

	protected.HandleFunc("", a.handleGetSession).Methods("GET")
	protected.HandleFunc("/receipt", a.handleUploadReceipt).Methods("POST")
	protected.HandleFunc("/chat", a.handleChat).Methods("POST")
	protected.HandleFunc("/summary", a.handleSummary).Methods("GET")
}

// Handler returns the full middleware-wrapped handler.
func (a *API) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return middleware.Logging(corsHandler.Handler(a.router))
}
