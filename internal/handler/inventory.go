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

// InventoryStore defines the database methods needed by inventory handlers.
type InventoryStore interface {
	ListInventoryItems(ctx context.Context) ([]database.InventoryItem, error)
	ListLowStockItems(ctx context.Context) ([]database.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id uuid.UUID) (database.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, arg database.UpdateInventoryItemParams) (database.InventoryItem, error)
	AdjustStock(ctx context.Context, arg database.AdjustStockParams) (database.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id uuid.UUID) error
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLogEntry, error)
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	store    InventoryStore
	pool     service.TxBeginner
	newStore NewInventoryStore
}

func NewInventoryHandler(store InventoryStore, pool service.TxBeginner, newStore NewInventoryStore) *InventoryHandler {
	return &InventoryHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers inventory endpoints on the given Chi router.
// Expected to be mounted at /inventory
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/low-stock", h.LowStock)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/adjust", h.Adjust)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createInventoryItemRequest struct {
	NameEn       string `json:"name_en"`
	NameTh       string `json:"name_th"`
	CurrentStock string `json:"current_stock"`
	MinStock     string `json:"min_stock"`
	Unit         string `json:"unit"`
	CostPerUnit  string `json:"cost_per_unit"`
}

type updateInventoryItemRequest struct {
	NameEn      *string `json:"name_en"`
	NameTh      *string `json:"name_th"`
	MinStock    *string `json:"min_stock"`
	Unit        *string `json:"unit"`
	CostPerUnit *string `json:"cost_per_unit"`
}

type adjustStockRequest struct {
	Delta  string `json:"delta"`
	Reason string `json:"reason"`
}

type inventoryItemResponse struct {
	ID           uuid.UUID `json:"id"`
	NameEn       string    `json:"name_en"`
	NameTh       string    `json:"name_th"`
	CurrentStock string    `json:"current_stock"`
	MinStock     string    `json:"min_stock"`
	Unit         string    `json:"unit"`
	CostPerUnit  string    `json:"cost_per_unit"`
	Low          bool      `json:"low"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toInventoryItemResponse(it database.InventoryItem) inventoryItemResponse {
	current, _ := decimal.NewFromString(numericToString(it.CurrentStock))
	min, _ := decimal.NewFromString(numericToString(it.MinStock))
	return inventoryItemResponse{
		ID:           it.ID,
		NameEn:       it.NameEn,
		NameTh:       it.NameTh,
		CurrentStock: current.StringFixed(2),
		MinStock:     min.StringFixed(2),
		Unit:         it.Unit,
		CostPerUnit:  numericToString(it.CostPerUnit),
		Low:          current.LessThanOrEqual(min),
		UpdatedAt:    it.UpdatedAt,
	}
}

// --- Handlers ---

// List returns every inventory item.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInventoryItems(r.Context())
	if err != nil {
		writeServerError(w, "list inventory", err)
		return
	}

	resp := make([]inventoryItemResponse, len(items))
	for i, it := range items {
		resp[i] = toInventoryItemResponse(it)
	}

	writeJSON(w, http.StatusOK, resp)
}

// LowStock returns items at or below their minimum stock level.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListLowStockItems(r.Context())
	if err != nil {
		writeServerError(w, "list low stock", err)
		return
	}

	resp := make([]inventoryItemResponse, len(items))
	for i, it := range items {
		resp[i] = toInventoryItemResponse(it)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new inventory item.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.NameEn == "" || req.NameTh == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name_en, name_th, and unit are required"})
		return
	}

	current, err := parseNonNegative(req.CurrentStock)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid current_stock"})
		return
	}
	min, err := parseNonNegative(req.MinStock)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_stock"})
		return
	}
	cost, err := parseNonNegative(req.CostPerUnit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost_per_unit"})
		return
	}

	item, err := h.store.CreateInventoryItem(r.Context(), database.CreateInventoryItemParams{
		NameEn:       req.NameEn,
		NameTh:       req.NameTh,
		CurrentStock: decimalToNumeric(current),
		MinStock:     decimalToNumeric(min),
		Unit:         req.Unit,
		CostPerUnit:  decimalToNumeric(cost),
	})
	if err != nil {
		writeServerError(w, "create inventory item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toInventoryItemResponse(item))
}

// Update applies a partial update to an item's descriptive fields. Stock
// levels only move through Adjust.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid inventory item ID"})
		return
	}

	var req updateInventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	arg := database.UpdateInventoryItemParams{ID: itemID}
	if req.NameEn != nil {
		arg.NameEn = pgtype.Text{String: *req.NameEn, Valid: true}
	}
	if req.NameTh != nil {
		arg.NameTh = pgtype.Text{String: *req.NameTh, Valid: true}
	}
	if req.MinStock != nil {
		min, err := parseNonNegative(*req.MinStock)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_stock"})
			return
		}
		arg.MinStock = decimalToNumeric(min)
	}
	if req.Unit != nil {
		arg.Unit = pgtype.Text{String: *req.Unit, Valid: true}
	}
	if req.CostPerUnit != nil {
		cost, err := parseNonNegative(*req.CostPerUnit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cost_per_unit"})
			return
		}
		arg.CostPerUnit = decimalToNumeric(cost)
	}

	item, err := h.store.UpdateInventoryItem(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inventory item not found"})
			return
		}
		writeServerError(w, "update inventory item", err)
		return
	}

	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

// Adjust applies a signed delta to an item's stock level. The delta and
// the audit entry commit together; a failed audit write rolls the stock
// change back.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid inventory item ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta is required"})
		return
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil || delta.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be a non-zero number"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		writeServerError(w, "begin tx for stock adjust", err)
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	item, err := txStore.AdjustStock(r.Context(), database.AdjustStockParams{
		ID:    itemID,
		Delta: decimalToNumeric(delta),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inventory item not found"})
			return
		}
		writeServerError(w, "adjust stock", err)
		return
	}

	details, _ := json.Marshal(map[string]any{
		"delta":     delta.StringFixed(2),
		"new_stock": numericToString(item.CurrentStock),
		"reason":    req.Reason,
	})
	if _, err := txStore.CreateAuditLog(r.Context(), database.CreateAuditLogParams{
		UserID:   claims.UserID,
		Action:   enum.ActionUpdateInventoryStock,
		Entity:   "inventory_item",
		EntityID: pgtype.UUID{Bytes: item.ID, Valid: true},
		Details:  details,
	}); err != nil {
		writeServerError(w, "audit stock adjust", err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeServerError(w, "commit stock adjust", err)
		return
	}

	writeJSON(w, http.StatusOK, toInventoryItemResponse(item))
}

// Delete removes an inventory item.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid inventory item ID"})
		return
	}

	if err := h.store.DeleteInventoryItem(r.Context(), itemID); err != nil {
		writeServerError(w, "delete inventory item", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseNonNegative(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("negative value")
	}
	return d, nil
}
