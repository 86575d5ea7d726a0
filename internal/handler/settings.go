package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/kruathai-pos/api/internal/middleware"
	"github.com/kruathai-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// SettingsStore defines the database methods needed by settings handlers.
type SettingsStore interface {
	GetSettings(ctx context.Context) (database.RestaurantSettings, error)
	UpdateSettings(ctx context.Context, arg database.UpdateSettingsParams) (database.RestaurantSettings, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLogEntry, error)
}

// NewSettingsStore creates a SettingsStore from a DBTX (pool or tx).
type NewSettingsStore func(db database.DBTX) SettingsStore

// SettingsHandler handles restaurant settings endpoints.
type SettingsHandler struct {
	store    SettingsStore
	pool     service.TxBeginner
	newStore NewSettingsStore
}

func NewSettingsHandler(store SettingsStore, pool service.TxBeginner, newStore NewSettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers settings endpoints on the given Chi router.
// Expected to be mounted at /settings; Update is wrapped with an
// admin-only middleware by the router.
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// --- Request / Response types ---

type updateSettingsRequest struct {
	RestaurantName *string `json:"restaurant_name"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	TaxRate        *string `json:"tax_rate"`
	Currency       *string `json:"currency"`
	Logo           *string `json:"logo"`
}

type settingsResponse struct {
	ID             uuid.UUID `json:"id"`
	RestaurantName string    `json:"restaurant_name"`
	Address        *string   `json:"address"`
	Phone          *string   `json:"phone"`
	Email          *string   `json:"email"`
	TaxRate        string    `json:"tax_rate"`
	Currency       string    `json:"currency"`
	Logo           *string   `json:"logo"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toSettingsResponse(s database.RestaurantSettings) settingsResponse {
	rate, _ := decimal.NewFromString(numericToString(s.TaxRate))
	return settingsResponse{
		ID:             s.ID,
		RestaurantName: s.RestaurantName,
		Address:        textPtr(s.Address),
		Phone:          textPtr(s.Phone),
		Email:          textPtr(s.Email),
		TaxRate:        rate.StringFixed(4),
		Currency:       s.Currency,
		Logo:           textPtr(s.Logo),
		UpdatedAt:      s.UpdatedAt,
	}
}

// --- Handlers ---

// Get returns the restaurant settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "settings not configured"})
			return
		}
		writeServerError(w, "get settings", err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// Update applies a partial settings update and audits it in the same
// transaction. Admin only (enforced by the router).
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if claims.Role != enum.UserRoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin role required"})
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var arg database.UpdateSettingsParams
	changed := map[string]any{}
	if req.RestaurantName != nil {
		if *req.RestaurantName == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_name must not be empty"})
			return
		}
		arg.RestaurantName = pgtype.Text{String: *req.RestaurantName, Valid: true}
		changed["restaurant_name"] = *req.RestaurantName
	}
	if req.Address != nil {
		arg.Address = pgtype.Text{String: *req.Address, Valid: true}
		changed["address"] = *req.Address
	}
	if req.Phone != nil {
		arg.Phone = pgtype.Text{String: *req.Phone, Valid: true}
		changed["phone"] = *req.Phone
	}
	if req.Email != nil {
		arg.Email = pgtype.Text{String: *req.Email, Valid: true}
		changed["email"] = *req.Email
	}
	if req.TaxRate != nil {
		rate, err := decimal.NewFromString(*req.TaxRate)
		if err != nil || rate.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tax_rate must be a non-negative number"})
			return
		}
		var n pgtype.Numeric
		_ = n.Scan(rate.StringFixed(4))
		arg.TaxRate = n
		changed["tax_rate"] = rate.StringFixed(4)
	}
	if req.Currency != nil {
		if *req.Currency == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "currency must not be empty"})
			return
		}
		arg.Currency = pgtype.Text{String: *req.Currency, Valid: true}
		changed["currency"] = *req.Currency
	}
	if req.Logo != nil {
		arg.Logo = pgtype.Text{String: *req.Logo, Valid: true}
		changed["logo"] = *req.Logo
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		writeServerError(w, "begin tx for settings update", err)
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	settings, err := txStore.UpdateSettings(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "settings not configured"})
			return
		}
		writeServerError(w, "update settings", err)
		return
	}

	details, _ := json.Marshal(changed)
	if _, err := txStore.CreateAuditLog(r.Context(), database.CreateAuditLogParams{
		UserID:   claims.UserID,
		Action:   enum.ActionUpdateRestaurantSettings,
		Entity:   "restaurant_settings",
		EntityID: pgtype.UUID{Bytes: settings.ID, Valid: true},
		Details:  details,
	}); err != nil {
		writeServerError(w, "audit settings update", err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeServerError(w, "commit settings update", err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
