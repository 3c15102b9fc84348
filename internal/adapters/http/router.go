package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mindscribe/auth-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for the auth and journal use-cases.
// Keeping only the application dependency here preserves adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers routes and the middleware stack. Auth endpoints live at
// the root, matching the paths mobile clients already call.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Post("/register", handler.register)
	r.Post("/login", handler.login)
	r.Post("/verify-otp", handler.verifyOTP)
	r.Post("/forgot-password", handler.forgotPassword)
	r.Post("/reset-password", handler.resetPassword)

	r.Route("/journal", func(r chi.Router) {
		r.Use(handler.authMiddleware)
		r.Post("/", handler.createJournalEntry)
		r.Get("/", handler.listJournalEntries)
		r.Get("/{entry_id}", handler.getJournalEntry)
		r.Put("/{entry_id}", handler.updateJournalEntry)
		r.Delete("/{entry_id}", handler.deleteJournalEntry)
	})

	return r
}
