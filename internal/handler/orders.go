package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/middleware"
	"github.com/kruathai-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

const defaultOrderListLimit = 50

// OrderReadStore defines the read-only DB methods used by order handlers.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, limit int32) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderService is the business-logic surface the handler drives. Satisfied
// by *service.OrderService.
type OrderService interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus string) (*database.Order, error)
	UpdatePaymentStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus, method string) (*database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderService
	store OrderReadStore
}

func NewOrderHandler(svc OrderService, store OrderReadStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/payment", h.UpdatePayment)
}

// --- Request / Response types ---

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Notes      string `json:"notes"`
}

type createOrderRequest struct {
	OrderNumber   string                   `json:"order_number"`
	TableNumber   string                   `json:"table_number"`
	ShiftID       string                   `json:"shift_id"`
	PaymentMethod string                   `json:"payment_method"`
	Discount      string                   `json:"discount"`
	Notes         string                   `json:"notes"`
	Items         []createOrderItemRequest `json:"items"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
	Notes      *string   `json:"notes"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	TableNumber   *string             `json:"table_number"`
	UserID        uuid.UUID           `json:"user_id"`
	ShiftID       *uuid.UUID          `json:"shift_id"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod *string             `json:"payment_method"`
	Subtotal      string              `json:"subtotal"`
	Tax           string              `json:"tax"`
	Discount      string              `json:"discount"`
	Total         string              `json:"total"`
	Notes         *string             `json:"notes"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Items         []orderItemResponse `json:"items,omitempty"`
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:         it.ID,
		MenuItemID: it.MenuItemID,
		Quantity:   it.Quantity,
		UnitPrice:  numericToString(it.UnitPrice),
		TotalPrice: numericToString(it.TotalPrice),
		Notes:      textPtr(it.Notes),
	}
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		TableNumber:   textPtr(o.TableNumber),
		UserID:        o.UserID,
		ShiftID:       uuidPtr(o.ShiftID),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: textPtr(o.PaymentMethod),
		Subtotal:      numericToString(o.Subtotal),
		Tax:           numericToString(o.Tax),
		Discount:      numericToString(o.Discount),
		Total:         numericToString(o.Total),
		Notes:         textPtr(o.Notes),
		CreatedAt:     o.CreatedAt,
		CompletedAt:   timePtr(o.CompletedAt),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	return resp
}

// --- Handlers ---

// Create submits an order from a terminal.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	discount := decimal.Zero
	if req.Discount != "" {
		var err error
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid discount"})
			return
		}
	}

	shiftID := uuid.Nil
	if req.ShiftID != "" {
		var err error
		shiftID, err = uuid.Parse(req.ShiftID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shift_id"})
			return
		}
	}

	svcReq := service.CreateOrderRequest{
		OrderNumber:   req.OrderNumber,
		TableNumber:   req.TableNumber,
		UserID:        claims.UserID,
		ShiftID:       shiftID,
		PaymentMethod: req.PaymentMethod,
		Discount:      discount,
		Notes:         req.Notes,
	}
	for _, it := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderItemRequest{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Notes:      it.Notes,
		})
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		h.writeOrderError(w, err, "create order")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// List returns recent orders, newest first. ?limit= caps the page size.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultOrderListLimit)
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 32)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), limit)
	if err != nil {
		writeServerError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns an order with its line items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		writeServerError(w, "get order", err)
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		writeServerError(w, "list order items", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// UpdateStatus moves an order to completed or cancelled.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), claims.UserID, orderID, req.Status)
	if err != nil {
		h.writeOrderError(w, err, "update order status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order, nil))
}

// UpdatePayment moves an order's payment status (pending -> paid ->
// refunded).
func (h *OrderHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.UpdatePaymentStatus(r.Context(), claims.UserID, orderID, req.PaymentStatus, req.PaymentMethod)
	if err != nil {
		h.writeOrderError(w, err, "update payment status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order, nil))
}

// writeOrderError maps service errors onto HTTP statuses.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrMissingOrderNumber),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidUnitPrice),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrMenuItemNotFound):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateOrderNumber),
		errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeServerError(w, op, err)
	}
}
