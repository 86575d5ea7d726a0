package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/kruathai-pos/api/internal/handler"
)

// --- Mock store ---

type mockEmployeeStore struct {
	employees map[uuid.UUID]database.Employee
	order     []uuid.UUID
}

func newMockEmployeeStore() *mockEmployeeStore {
	return &mockEmployeeStore{employees: make(map[uuid.UUID]database.Employee)}
}

func (m *mockEmployeeStore) put(e database.Employee) {
	if _, ok := m.employees[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.employees[e.ID] = e
}

func (m *mockEmployeeStore) ListEmployees(_ context.Context) ([]database.Employee, error) {
	result := make([]database.Employee, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.employees[id])
	}
	return result, nil
}

func (m *mockEmployeeStore) GetEmployee(_ context.Context, id uuid.UUID) (database.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	return e, nil
}

func (m *mockEmployeeStore) CreateEmployee(_ context.Context, arg database.CreateEmployeeParams) (database.Employee, error) {
	e := database.Employee{
		ID:        uuid.New(),
		Name:      arg.Name,
		Position:  arg.Position,
		Salary:    arg.Salary,
		Status:    enum.EmployeeStatusActive,
		CreatedAt: time.Now(),
	}
	m.put(e)
	return e, nil
}

func (m *mockEmployeeStore) UpdateEmployee(_ context.Context, arg database.UpdateEmployeeParams) (database.Employee, error) {
	e, ok := m.employees[arg.ID]
	if !ok {
		return database.Employee{}, pgx.ErrNoRows
	}
	if arg.Name.Valid {
		e.Name = arg.Name.String
	}
	if arg.Position.Valid {
		e.Position = arg.Position.String
	}
	if arg.Salary.Valid {
		e.Salary = arg.Salary
	}
	if arg.Status.Valid {
		e.Status = arg.Status.String
	}
	m.employees[e.ID] = e
	return e, nil
}

func setupEmployeeRouter(store *mockEmployeeStore) *chi.Mux {
	h := handler.NewEmployeeHandler(store)
	r := chi.NewRouter()
	r.Route("/employees", h.RegisterRoutes)
	return r
}

func testEmployee(t *testing.T, name, position string) database.Employee {
	t.Helper()
	return database.Employee{
		ID:        uuid.New(),
		Name:      name,
		Position:  position,
		Salary:    makeNumeric(t, "15000.00"),
		Status:    enum.EmployeeStatusActive,
		CreatedAt: time.Now(),
	}
}

// --- Tests ---

func TestEmployeeList(t *testing.T) {
	store := newMockEmployeeStore()
	store.put(testEmployee(t, "Somchai", "cook"))
	store.put(testEmployee(t, "Malee", "server"))

	router := setupEmployeeRouter(store)
	rr := doRequest(t, router, "GET", "/employees", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeList(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(resp))
	}
	if resp[0]["name"] != "Somchai" {
		t.Errorf("name: got %v, want Somchai", resp[0]["name"])
	}
}

func TestEmployeeGet(t *testing.T) {
	store := newMockEmployeeStore()
	e := testEmployee(t, "Somchai", "cook")
	store.put(e)

	router := setupEmployeeRouter(store)
	rr := doRequest(t, router, "GET", "/employees/"+e.ID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["salary"] != "15000.00" {
		t.Errorf("salary: got %v, want 15000.00", resp["salary"])
	}
	if resp["status"] != "active" {
		t.Errorf("status: got %v, want active", resp["status"])
	}
}

func TestEmployeeGet_NotFound(t *testing.T) {
	store := newMockEmployeeStore()
	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "GET", "/employees/"+uuid.NewString(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestEmployeeCreate_Valid(t *testing.T) {
	store := newMockEmployeeStore()
	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "POST", "/employees", map[string]interface{}{
		"name":     "Niran",
		"position": "dishwasher",
		"salary":   "12000.00",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["name"] != "Niran" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["status"] != "active" {
		t.Errorf("status: got %v, want active", resp["status"])
	}
}

func TestEmployeeCreate_MissingPosition(t *testing.T) {
	store := newMockEmployeeStore()
	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "POST", "/employees", map[string]interface{}{
		"name": "Niran",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEmployeeCreate_NegativeSalary(t *testing.T) {
	store := newMockEmployeeStore()
	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "POST", "/employees", map[string]interface{}{
		"name":     "Niran",
		"position": "dishwasher",
		"salary":   "-1.00",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEmployeeUpdate_Deactivate(t *testing.T) {
	store := newMockEmployeeStore()
	e := testEmployee(t, "Somchai", "cook")
	store.put(e)

	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "PUT", "/employees/"+e.ID.String(), map[string]interface{}{
		"status": "inactive",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["status"] != "inactive" {
		t.Errorf("status: got %v, want inactive", resp["status"])
	}
	// other fields untouched
	if resp["name"] != "Somchai" {
		t.Errorf("name: got %v, want Somchai", resp["name"])
	}
}

func TestEmployeeUpdate_InvalidStatus(t *testing.T) {
	store := newMockEmployeeStore()
	e := testEmployee(t, "Somchai", "cook")
	store.put(e)

	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "PUT", "/employees/"+e.ID.String(), map[string]interface{}{
		"status": "fired",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEmployeeUpdate_NotFound(t *testing.T) {
	store := newMockEmployeeStore()
	router := setupEmployeeRouter(store)

	rr := doRequest(t, router, "PUT", "/employees/"+uuid.NewString(), map[string]interface{}{
		"position": "manager",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
