package api

import (
	"context"
	"net/http"

	"github.com/phrazzld/keystone-api/internal/api/shared"
)

// SchemaEnsurer creates a persistence context's missing tables.
type SchemaEnsurer interface {
	EnsureCreated(ctx context.Context) (bool, error)
}

// SchemaHandler re-runs schema creation on demand. It is only mounted in
// development.
type SchemaHandler struct {
	contexts map[string]SchemaEnsurer
}

// NewSchemaHandler creates a SchemaHandler over named contexts.
func NewSchemaHandler(contexts map[string]SchemaEnsurer) *SchemaHandler {
	return &SchemaHandler{contexts: contexts}
}

// Ensure creates missing tables in every context and reports which created any.
func (h *SchemaHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	out := SchemaResponse{Contexts: make(map[string]bool, len(h.contexts))}
	for name, c := range h.contexts {
		created, err := c.EnsureCreated(r.Context())
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to ensure schema for "+name, err)
			return
		}
		out.Contexts[name] = created
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}
