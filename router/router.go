package router

import (
	"net/http"

	"github.com/gorilla/mux"

	docHandler "texcollab/internal/document"
	"texcollab/internal/document/service"
	"texcollab/middleware"
)

// Setup wires the document API. Every /api route requires a bearer token.
func Setup(docService *service.DocumentService, jwtSecret []byte) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", docHandler.Health).Methods(http.MethodGet)

	h := docHandler.NewDocumentHandler(docService)
	api := r.PathPrefix("/api/documents").Subrouter()
	api.Use(middleware.AuthMiddleware(jwtSecret))

	api.HandleFunc("/{id}", h.GetDocument).Methods(http.MethodGet)
	api.HandleFunc("/{id}/update", h.SaveDocument).Methods(http.MethodPost)
	api.HandleFunc("/{id}/presence", h.Heartbeat).Methods(http.MethodPost)
	api.HandleFunc("/{id}/presence", h.ListPresence).Methods(http.MethodGet)

	return middleware.CORSMiddleware(r)
}
