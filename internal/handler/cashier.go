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
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/middleware"
	"github.com/kruathai-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

const defaultShiftListLimit = 50

// ShiftService is the business-logic surface the handler drives.
// Satisfied by *service.ShiftService.
type ShiftService interface {
	Open(ctx context.Context, userID uuid.UUID, openingCash decimal.Decimal, notes string) (*database.CashierShift, error)
	Close(ctx context.Context, userID, shiftID uuid.UUID, closingCash decimal.Decimal, expectedCash decimal.NullDecimal, notes string) (*database.CashierShift, error)
	Current(ctx context.Context, store service.ShiftStore, userID uuid.UUID) (*database.CashierShift, error)
}

// ShiftReadStore defines the read-only DB methods used by shift handlers.
type ShiftReadStore interface {
	service.ShiftStore
	ListShifts(ctx context.Context, limit int32) ([]database.CashierShift, error)
	ListOrdersByShift(ctx context.Context, shiftID uuid.UUID) ([]database.Order, error)
}

// ShiftHandler handles cashier shift endpoints.
type ShiftHandler struct {
	svc   ShiftService
	store ShiftReadStore
}

func NewShiftHandler(svc ShiftService, store ShiftReadStore) *ShiftHandler {
	return &ShiftHandler{svc: svc, store: store}
}

// RegisterRoutes registers shift endpoints on the given Chi router.
// Expected to be mounted at /shifts
func (h *ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/open", h.Open)
	r.Get("/current", h.Current)
	r.Post("/{id}/close", h.Close)
	r.Get("/{id}/orders", h.Orders)
}

// --- Request / Response types ---

type openShiftRequest struct {
	OpeningCash string `json:"opening_cash"`
	Notes       string `json:"notes"`
}

type closeShiftRequest struct {
	ClosingCash  string `json:"closing_cash"`
	ExpectedCash string `json:"expected_cash"`
	Notes        string `json:"notes"`
}

type shiftResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	OpeningCash    string     `json:"opening_cash"`
	ClosingCash    *string    `json:"closing_cash"`
	ExpectedCash   *string    `json:"expected_cash"`
	CashDifference *string    `json:"cash_difference"`
	Status         string     `json:"status"`
	Notes          *string    `json:"notes"`
}

func toShiftResponse(s database.CashierShift) shiftResponse {
	resp := shiftResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		StartTime:   s.StartTime,
		EndTime:     timePtr(s.EndTime),
		OpeningCash: numericToString(s.OpeningCash),
		Status:      s.Status,
		Notes:       textPtr(s.Notes),
	}
	if s.ClosingCash.Valid {
		v := numericToString(s.ClosingCash)
		resp.ClosingCash = &v
	}
	if s.ExpectedCash.Valid {
		v := numericToString(s.ExpectedCash)
		resp.ExpectedCash = &v
	}
	if s.CashDifference.Valid {
		v := numericToString(s.CashDifference)
		resp.CashDifference = &v
	}
	return resp
}

// --- Handlers ---

// Open starts a shift for the signed-in user.
func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req openShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OpeningCash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "opening_cash is required"})
		return
	}
	openingCash, err := decimal.NewFromString(req.OpeningCash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid opening_cash"})
		return
	}

	shift, err := h.svc.Open(r.Context(), claims.UserID, openingCash, req.Notes)
	if err != nil {
		h.writeShiftError(w, err, "open shift")
		return
	}

	writeJSON(w, http.StatusCreated, toShiftResponse(*shift))
}

// Close reconciles and closes a shift.
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	shiftID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shift ID"})
		return
	}

	var req closeShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ClosingCash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "closing_cash is required"})
		return
	}
	closingCash, err := decimal.NewFromString(req.ClosingCash)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid closing_cash"})
		return
	}

	// expected_cash is optional: when the counting cashier supplies it, the
	// variance is computed against their figure instead of the derived one.
	var expectedCash decimal.NullDecimal
	if req.ExpectedCash != "" {
		d, err := decimal.NewFromString(req.ExpectedCash)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expected_cash"})
			return
		}
		expectedCash = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	shift, err := h.svc.Close(r.Context(), claims.UserID, shiftID, closingCash, expectedCash, req.Notes)
	if err != nil {
		h.writeShiftError(w, err, "close shift")
		return
	}

	writeJSON(w, http.StatusOK, toShiftResponse(*shift))
}

// Current returns the signed-in user's open shift.
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	shift, err := h.svc.Current(r.Context(), h.store, claims.UserID)
	if err != nil {
		h.writeShiftError(w, err, "current shift")
		return
	}

	writeJSON(w, http.StatusOK, toShiftResponse(*shift))
}

// List returns recent shifts, newest first.
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultShiftListLimit)
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 32)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = int32(n)
	}

	shifts, err := h.store.ListShifts(r.Context(), limit)
	if err != nil {
		writeServerError(w, "list shifts", err)
		return
	}

	resp := make([]shiftResponse, len(shifts))
	for i, s := range shifts {
		resp[i] = toShiftResponse(s)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Orders returns the orders recorded against a shift.
func (h *ShiftHandler) Orders(w http.ResponseWriter, r *http.Request) {
	shiftID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shift ID"})
		return
	}

	orders, err := h.store.ListOrdersByShift(r.Context(), shiftID)
	if err != nil {
		writeServerError(w, "list shift orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeShiftError maps service errors onto HTTP statuses.
func (h *ShiftHandler) writeShiftError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidCash):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrShiftNotFound), errors.Is(err, service.ErrNoOpenShift):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrShiftAlreadyOpen), errors.Is(err, service.ErrShiftClosed):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeServerError(w, op, err)
	}
}
