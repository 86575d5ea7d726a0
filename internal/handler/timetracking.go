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
)

// TimeTrackingStore defines the database methods needed by time tracking
// handlers.
type TimeTrackingStore interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	ClockIn(ctx context.Context, employeeID uuid.UUID) (database.TimeTrackingRecord, error)
	ClockOut(ctx context.Context, id uuid.UUID) (database.TimeTrackingRecord, error)
	GetOpenTimeRecord(ctx context.Context, employeeID uuid.UUID) (database.TimeTrackingRecord, error)
	ListTimeRecordsByEmployee(ctx context.Context, employeeID uuid.UUID) ([]database.TimeTrackingRecord, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLogEntry, error)
}

// NewTimeTrackingStore creates a TimeTrackingStore from a DBTX (pool or tx).
type NewTimeTrackingStore func(db database.DBTX) TimeTrackingStore

// TimeTrackingHandler handles employee clock in/out endpoints.
type TimeTrackingHandler struct {
	store    TimeTrackingStore
	pool     service.TxBeginner
	newStore NewTimeTrackingStore
}

func NewTimeTrackingHandler(store TimeTrackingStore, pool service.TxBeginner, newStore NewTimeTrackingStore) *TimeTrackingHandler {
	return &TimeTrackingHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers time tracking endpoints on the given Chi router.
// Expected to be mounted at /time-tracking
func (h *TimeTrackingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/clock-in", h.ClockIn)
	r.Post("/clock-out", h.ClockOut)
	r.Get("/employees/{id}", h.ListByEmployee)
}

// --- Request / Response types ---

type clockRequest struct {
	EmployeeID string `json:"employee_id"`
}

type timeRecordResponse struct {
	ID           uuid.UUID  `json:"id"`
	EmployeeID   uuid.UUID  `json:"employee_id"`
	ClockIn      time.Time  `json:"clock_in"`
	ClockOut     *time.Time `json:"clock_out"`
	TotalMinutes *int32     `json:"total_minutes"`
}

func toTimeRecordResponse(t database.TimeTrackingRecord) timeRecordResponse {
	return timeRecordResponse{
		ID:           t.ID,
		EmployeeID:   t.EmployeeID,
		ClockIn:      t.ClockIn,
		ClockOut:     timePtr(t.ClockOut),
		TotalMinutes: int32Ptr(t.TotalMinutes),
	}
}

// --- Handlers ---

// ClockIn opens a time record for an employee. An employee with an open
// record cannot clock in again.
func (h *TimeTrackingHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req clockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		writeServerError(w, "begin tx for clock in", err)
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	employee, err := txStore.GetEmployee(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeServerError(w, "get employee for clock in", err)
		return
	}
	if employee.Status != enum.EmployeeStatusActive {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "employee is not active"})
		return
	}

	if _, err := txStore.GetOpenTimeRecord(r.Context(), employeeID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "employee is already clocked in"})
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeServerError(w, "check open time record", err)
		return
	}

	record, err := txStore.ClockIn(r.Context(), employeeID)
	if err != nil {
		writeServerError(w, "clock in", err)
		return
	}

	details, _ := json.Marshal(map[string]any{"employee_name": employee.Name})
	if _, err := txStore.CreateAuditLog(r.Context(), database.CreateAuditLogParams{
		UserID:   claims.UserID,
		Action:   enum.ActionClockIn,
		Entity:   "time_tracking",
		EntityID: pgtype.UUID{Bytes: record.ID, Valid: true},
		Details:  details,
	}); err != nil {
		writeServerError(w, "audit clock in", err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeServerError(w, "commit clock in", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimeRecordResponse(record))
}

// ClockOut stamps the employee's open record and computes worked minutes
// (floored to whole minutes).
func (h *TimeTrackingHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req clockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee_id"})
		return
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		writeServerError(w, "begin tx for clock out", err)
		return
	}
	defer tx.Rollback(r.Context())

	txStore := h.newStore(tx)

	open, err := txStore.GetOpenTimeRecord(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "employee is not clocked in"})
			return
		}
		writeServerError(w, "get open time record", err)
		return
	}

	record, err := txStore.ClockOut(r.Context(), open.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// raced with a concurrent clock-out
			writeJSON(w, http.StatusConflict, map[string]string{"error": "employee is not clocked in"})
			return
		}
		writeServerError(w, "clock out", err)
		return
	}

	details, _ := json.Marshal(map[string]any{
		"total_minutes": record.TotalMinutes.Int32,
	})
	if _, err := txStore.CreateAuditLog(r.Context(), database.CreateAuditLogParams{
		UserID:   claims.UserID,
		Action:   enum.ActionClockOut,
		Entity:   "time_tracking",
		EntityID: pgtype.UUID{Bytes: record.ID, Valid: true},
		Details:  details,
	}); err != nil {
		writeServerError(w, "audit clock out", err)
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeServerError(w, "commit clock out", err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeRecordResponse(record))
}

// ListByEmployee returns an employee's time records, newest first.
func (h *TimeTrackingHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return
	}

	records, err := h.store.ListTimeRecordsByEmployee(r.Context(), employeeID)
	if err != nil {
		writeServerError(w, "list time records", err)
		return
	}

	resp := make([]timeRecordResponse, len(records))
	for i, t := range records {
		resp[i] = toTimeRecordResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}
