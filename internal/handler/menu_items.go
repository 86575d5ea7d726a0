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
	"github.com/shopspring/decimal"
)

// MenuItemStore defines the database methods needed by menu item handlers.
type MenuItemStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	ListMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, id uuid.UUID, available bool) (database.MenuItem, error)
}

// MenuItemHandler handles menu item CRUD endpoints.
type MenuItemHandler struct {
	store MenuItemStore
}

func NewMenuItemHandler(store MenuItemStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

// RegisterRoutes registers menu item endpoints on the given Chi router.
// Expected to be mounted at /menu/items
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	CategoryID    string `json:"category_id"`
	NameEn        string `json:"name_en"`
	NameTh        string `json:"name_th"`
	DescriptionEn string `json:"description_en"`
	DescriptionTh string `json:"description_th"`
	Price         string `json:"price"`
	Cost          string `json:"cost"`
	Image         string `json:"image"`
	SortOrder     int32  `json:"sort_order"`
}

type updateMenuItemRequest struct {
	CategoryID    *string `json:"category_id"`
	NameEn        *string `json:"name_en"`
	NameTh        *string `json:"name_th"`
	DescriptionEn *string `json:"description_en"`
	DescriptionTh *string `json:"description_th"`
	Price         *string `json:"price"`
	Cost          *string `json:"cost"`
	Image         *string `json:"image"`
	IsAvailable   *bool   `json:"is_available"`
	SortOrder     *int32  `json:"sort_order"`
}

type menuItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	CategoryID    *uuid.UUID `json:"category_id"`
	NameEn        string     `json:"name_en"`
	NameTh        string     `json:"name_th"`
	DescriptionEn *string    `json:"description_en"`
	DescriptionTh *string    `json:"description_th"`
	Price         string     `json:"price"`
	Cost          string     `json:"cost"`
	Profit        string     `json:"profit"`
	Image         *string    `json:"image"`
	IsAvailable   bool       `json:"is_available"`
	SortOrder     int32      `json:"sort_order"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	price, _ := decimal.NewFromString(numericToString(m.Price))
	cost, _ := decimal.NewFromString(numericToString(m.Cost))
	return menuItemResponse{
		ID:            m.ID,
		CategoryID:    uuidPtr(m.CategoryID),
		NameEn:        m.NameEn,
		NameTh:        m.NameTh,
		DescriptionEn: textPtr(m.DescriptionEn),
		DescriptionTh: textPtr(m.DescriptionTh),
		Price:         price.StringFixed(2),
		Cost:          cost.StringFixed(2),
		// profit may be negative; it is displayed, not enforced
		Profit:      price.Sub(cost).StringFixed(2),
		Image:       textPtr(m.Image),
		IsAvailable: m.IsAvailable,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
	}
}

// --- Handlers ---

// List returns all menu items, optionally filtered by ?category_id=.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []database.MenuItem
	var err error

	if cid := r.URL.Query().Get("category_id"); cid != "" {
		categoryID, parseErr := uuid.Parse(cid)
		if parseErr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		items, err = h.store.ListMenuItemsByCategory(r.Context(), categoryID)
	} else {
		items, err = h.store.ListMenuItems(r.Context())
	}
	if err != nil {
		writeServerError(w, "list menu items", err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single menu item.
func (h *MenuItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServerError(w, "get menu item", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a new menu item.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.NameEn == "" || req.NameTh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name_en and name_th are required"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative number"})
		return
	}
	cost := decimal.Zero
	if req.Cost != "" {
		cost, err = decimal.NewFromString(req.Cost)
		if err != nil || cost.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost must be a non-negative number"})
			return
		}
	}

	categoryID := pgtype.UUID{}
	if req.CategoryID != "" {
		cid, err := uuid.Parse(req.CategoryID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		categoryID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		CategoryID:    categoryID,
		NameEn:        req.NameEn,
		NameTh:        req.NameTh,
		DescriptionEn: textOrNull(req.DescriptionEn),
		DescriptionTh: textOrNull(req.DescriptionTh),
		Price:         decimalToNumeric(price),
		Cost:          decimalToNumeric(cost),
		Image:         textOrNull(req.Image),
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		writeServerError(w, "create menu item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update applies a partial update to a menu item, including the
// availability flag.
func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	arg := database.UpdateMenuItemParams{ID: itemID}
	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category_id"})
			return
		}
		arg.CategoryID = pgtype.UUID{Bytes: cid, Valid: true}
	}
	if req.NameEn != nil {
		arg.NameEn = pgtype.Text{String: *req.NameEn, Valid: true}
	}
	if req.NameTh != nil {
		arg.NameTh = pgtype.Text{String: *req.NameTh, Valid: true}
	}
	if req.DescriptionEn != nil {
		arg.DescriptionEn = pgtype.Text{String: *req.DescriptionEn, Valid: true}
	}
	if req.DescriptionTh != nil {
		arg.DescriptionTh = pgtype.Text{String: *req.DescriptionTh, Valid: true}
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative number"})
			return
		}
		arg.Price = decimalToNumeric(price)
	}
	if req.Cost != nil {
		cost, err := decimal.NewFromString(*req.Cost)
		if err != nil || cost.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cost must be a non-negative number"})
			return
		}
		arg.Cost = decimalToNumeric(cost)
	}
	if req.Image != nil {
		arg.Image = pgtype.Text{String: *req.Image, Valid: true}
	}
	if req.IsAvailable != nil {
		arg.IsAvailable = pgtype.Bool{Bool: *req.IsAvailable, Valid: true}
	}
	if req.SortOrder != nil {
		arg.SortOrder = pgtype.Int4{Int32: *req.SortOrder, Valid: true}
	}

	item, err := h.store.UpdateMenuItem(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServerError(w, "update menu item", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete marks a menu item unavailable. The row stays: order items
// reference it and past sales keep showing the item they sold.
func (h *MenuItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), itemID, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		writeServerError(w, "deactivate menu item", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}
