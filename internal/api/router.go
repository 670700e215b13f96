package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davidvkimball/cardbase/internal/cardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachments directory.
func NewRouter(svc *cardservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Card grid and note CRUD.
	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.CreateNote)
	r.Get("/cards/*", h.GetCard)
	r.Put("/cards/*", h.UpdateNote)
	r.Delete("/cards/*", h.DeleteNote)

	// Bulk editing.
	r.Post("/bulk/tags", h.BulkTags)
	r.Post("/bulk/property", h.BulkProperty)
	r.Post("/bulk/draft", h.BulkDraft)

	// Smart deletion: preview then execute.
	r.Post("/deletion/plan", h.PlanDeletion)
	r.Post("/deletion/execute", h.ExecuteDeletion)

	// Search.
	r.Get("/search", h.Search)

	// Attachments.
	r.Post("/attachments", ah.Upload)
	r.Get("/attachments/usage", h.AttachmentUsage)
	r.Get("/attachments/{filename}", ah.ServeFile)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
