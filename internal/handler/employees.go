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
)

// EmployeeStore defines the database methods needed by employee handlers.
type EmployeeStore interface {
	ListEmployees(ctx context.Context) ([]database.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (database.Employee, error)
	CreateEmployee(ctx context.Context, arg database.CreateEmployeeParams) (database.Employee, error)
	UpdateEmployee(ctx context.Context, arg database.UpdateEmployeeParams) (database.Employee, error)
}

// EmployeeHandler handles employee roster endpoints.
type EmployeeHandler struct {
	store EmployeeStore
}

func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

// RegisterRoutes registers employee endpoints on the given Chi router.
// Expected to be mounted at /employees
func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
}

// --- Request / Response types ---

type createEmployeeRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Salary   string `json:"salary"`
}

type updateEmployeeRequest struct {
	Name     *string `json:"name"`
	Position *string `json:"position"`
	Salary   *string `json:"salary"`
	Status   *string `json:"status"`
}

type employeeResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Salary    string    `json:"salary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toEmployeeResponse(e database.Employee) employeeResponse {
	return employeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Position:  e.Position,
		Salary:    numericToString(e.Salary),
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}
}

// --- Handlers ---

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.store.ListEmployees(r.Context())
	if err != nil {
		writeServerError(w, "list employees", err)
		return
	}

	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = toEmployeeResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	empID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return
	}

	employee, err := h.store.GetEmployee(r.Context(), empID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeServerError(w, "get employee", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Position == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and position are required"})
		return
	}

	salary, err := parseNonNegative(req.Salary)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid salary"})
		return
	}

	employee, err := h.store.CreateEmployee(r.Context(), database.CreateEmployeeParams{
		Name:     req.Name,
		Position: req.Position,
		Salary:   decimalToNumeric(salary),
	})
	if err != nil {
		writeServerError(w, "create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeResponse(employee))
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	empID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid employee ID"})
		return
	}

	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	arg := database.UpdateEmployeeParams{ID: empID}
	if req.Name != nil {
		arg.Name = pgtype.Text{String: *req.Name, Valid: true}
	}
	if req.Position != nil {
		arg.Position = pgtype.Text{String: *req.Position, Valid: true}
	}
	if req.Salary != nil {
		salary, err := parseNonNegative(*req.Salary)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid salary"})
			return
		}
		arg.Salary = decimalToNumeric(salary)
	}
	if req.Status != nil {
		if *req.Status != enum.EmployeeStatusActive && *req.Status != enum.EmployeeStatusInactive {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		arg.Status = pgtype.Text{String: *req.Status, Valid: true}
	}

	employee, err := h.store.UpdateEmployee(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
			return
		}
		writeServerError(w, "update employee", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeResponse(employee))
}
