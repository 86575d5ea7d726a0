package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/shopspring/decimal"
)

// DashboardStore defines the database methods needed by the dashboard.
type DashboardStore interface {
	GetDashboardStats(ctx context.Context, arg database.GetDashboardStatsParams) (database.DashboardStatsRow, error)
	ListLowStockItems(ctx context.Context) ([]database.InventoryItem, error)
}

// DashboardHandler serves the profit and loss aggregate for the back
// office.
type DashboardHandler struct {
	store DashboardStore
}

func NewDashboardHandler(store DashboardStore) *DashboardHandler {
	return &DashboardHandler{store: store}
}

// RegisterRoutes registers dashboard endpoints on the given Chi router.
// Expected to be mounted at /dashboard
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
}

type dashboardStatsResponse struct {
	TotalOrders   int64                   `json:"total_orders"`
	TotalRevenue  string                  `json:"total_revenue"`
	TotalTax      string                  `json:"total_tax"`
	TotalDiscount string                  `json:"total_discount"`
	TotalCost     string                  `json:"total_cost"`
	Profit        string                  `json:"profit"`
	LowStockItems []inventoryItemResponse `json:"low_stock_items"`
}

// Stats aggregates paid orders, optionally windowed with ?from= and ?to=
// (RFC 3339). Profit is revenue minus menu item cost and may be negative.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var arg database.GetDashboardStatsParams
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from timestamp"})
			return
		}
		arg.From = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to timestamp"})
			return
		}
		arg.To = pgtype.Timestamptz{Time: t, Valid: true}
	}

	stats, err := h.store.GetDashboardStats(r.Context(), arg)
	if err != nil {
		writeServerError(w, "dashboard stats", err)
		return
	}

	lowStock, err := h.store.ListLowStockItems(r.Context())
	if err != nil {
		writeServerError(w, "dashboard low stock", err)
		return
	}

	revenue, _ := decimal.NewFromString(numericToString(stats.TotalRevenue))
	cost, _ := decimal.NewFromString(numericToString(stats.TotalCost))

	resp := dashboardStatsResponse{
		TotalOrders:   stats.TotalOrders,
		TotalRevenue:  revenue.StringFixed(2),
		TotalTax:      numericToString(stats.TotalTax),
		TotalDiscount: numericToString(stats.TotalDiscount),
		TotalCost:     cost.StringFixed(2),
		Profit:        revenue.Sub(cost).StringFixed(2),
		LowStockItems: make([]inventoryItemResponse, len(lowStock)),
	}
	for i, it := range lowStock {
		resp.LowStockItems[i] = toInventoryItemResponse(it)
	}

	writeJSON(w, http.StatusOK, resp)
}
