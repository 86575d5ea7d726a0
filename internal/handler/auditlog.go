package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kruathai-pos/api/internal/database"
)

const defaultAuditListLimit = 100

// AuditLogStore defines the database methods needed by audit log handlers.
type AuditLogStore interface {
	ListAuditLogs(ctx context.Context, limit int32) ([]database.AuditLogEntry, error)
}

// AuditLogHandler serves the append-only audit trail. Read only; entries
// are written by the mutations they record.
type AuditLogHandler struct {
	store AuditLogStore
}

func NewAuditLogHandler(store AuditLogStore) *AuditLogHandler {
	return &AuditLogHandler{store: store}
}

// RegisterRoutes registers audit log endpoints on the given Chi router.
// Expected to be mounted at /audit-logs
func (h *AuditLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type auditLogResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  *uuid.UUID      `json:"entity_id"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAuditLogResponse(a database.AuditLogEntry) auditLogResponse {
	details := json.RawMessage(a.Details)
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	return auditLogResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Action:    a.Action,
		Entity:    a.Entity,
		EntityID:  uuidPtr(a.EntityID),
		Details:   details,
		CreatedAt: a.CreatedAt,
	}
}

// List returns recent audit entries, newest first.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultAuditListLimit)
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 32)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	entries, err := h.store.ListAuditLogs(r.Context(), limit)
	if err != nil {
		writeServerError(w, "list audit logs", err)
		return
	}

	resp := make([]auditLogResponse, len(entries))
	for i, a := range entries {
		resp[i] = toAuditLogResponse(a)
	}

	writeJSON(w, http.StatusOK, resp)
}
