//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kruathai-pos/api/internal/config"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/router"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full API lifecycle against a real
// PostgreSQL database: login, menu setup, a cashier shift with a paid
// order, stock adjustment, time tracking, and the dashboard rollup.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	// Run migrations
	runMigrations(t, connStr)

	// Create pgxpool connection
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	// Initialize dependencies
	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)

	// Build router
	r := router.New(cfg, queries, pool)

	// Create HTTP test server
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap: admin user and restaurant settings (direct DB inserts) ---
	adminID := createAdminUser(t, ctx, pool)
	createRestaurantSettings(t, ctx, pool)

	// --- 2. Login as admin ---
	token := login(t, server, "admin@test.com", "password123")

	// --- 3. Register a staff cashier through the API ---
	staffResp := httpPostJSON(t, server, "/auth/register", map[string]interface{}{
		"name":     "Test Cashier",
		"email":    "cashier@test.com",
		"password": "password123",
		"role":     "staff",
	}, token)
	staffID := uuid.MustParse(staffResp["id"].(string))

	// --- 4. Create a menu category and an item in it ---
	categoryResp := httpPostJSON(t, server, "/menu/categories", map[string]interface{}{
		"name_en":    "Curries",
		"name_th":    "แกง",
		"sort_order": 1,
	}, token)
	categoryID := uuid.MustParse(categoryResp["id"].(string))

	itemResp := httpPostJSON(t, server, "/menu/items", map[string]interface{}{
		"category_id": categoryID.String(),
		"name_en":     "Green Curry",
		"name_th":     "แกงเขียวหวาน",
		"price":       "120.00",
		"cost":        "45.00",
	}, token)
	menuItemID := uuid.MustParse(itemResp["id"].(string))

	// --- 5. Open a cashier shift ---
	shiftResp := httpPostJSON(t, server, "/shifts/open", map[string]interface{}{
		"opening_cash": "1000.00",
	}, token)
	shiftID := uuid.MustParse(shiftResp["id"].(string))
	if shiftResp["status"].(string) != "open" {
		t.Fatalf("shift status: got %v, want open", shiftResp["status"])
	}

	// --- 6. Create a cash order on the shift ---
	// The bogus client-side "total" must be ignored: with 7% tax the
	// server computes 2 x 120.00 = 240.00 subtotal, 17.00 tax (rounded to
	// whole baht), 257.00 total.
	orderResp := httpPostJSON(t, server, "/orders", map[string]interface{}{
		"order_number":   "ORD-20260829-0001",
		"shift_id":       shiftID.String(),
		"payment_method": "cash",
		"total":          "1.00",
		"items": []map[string]interface{}{
			{
				"menu_item_id": menuItemID.String(),
				"quantity":     2,
				"unit_price":   "120.00",
			},
		},
	}, token)
	orderID := uuid.MustParse(orderResp["id"].(string))
	if got := orderResp["subtotal"].(string); got != "240.00" {
		t.Fatalf("order subtotal: got %s, want 240.00", got)
	}
	if got := orderResp["tax"].(string); got != "17.00" {
		t.Fatalf("order tax: got %s, want 17.00", got)
	}
	if got := orderResp["total"].(string); got != "257.00" {
		t.Fatalf("order total: got %s, want 257.00 (client total must be ignored)", got)
	}

	// --- 7. Mark paid, then complete ---
	httpPatchJSON(t, server, fmt.Sprintf("/orders/%s/payment", orderID), map[string]interface{}{
		"payment_status": "paid",
	}, token)
	completed := httpPatchJSON(t, server, fmt.Sprintf("/orders/%s/status", orderID), map[string]interface{}{
		"status": "completed",
	}, token)
	if completed["status"].(string) != "completed" {
		t.Fatalf("order status: got %v, want completed", completed["status"])
	}
	if completed["completed_at"] == nil {
		t.Fatalf("completed order must carry completed_at")
	}

	// --- 8. Close the shift and verify the cash variance ---
	// Expected cash: 1000.00 opening + 257.00 cash sales = 1257.00.
	// Counting 1237.00 in the drawer leaves a -20.00 difference.
	closeResp := httpPostJSON(t, server, fmt.Sprintf("/shifts/%s/close", shiftID), map[string]interface{}{
		"closing_cash": "1237.00",
	}, token)
	if got := closeResp["expected_cash"].(string); got != "1257.00" {
		t.Fatalf("expected_cash: got %s, want 1257.00", got)
	}
	if got := closeResp["cash_difference"].(string); got != "-20.00" {
		t.Fatalf("cash_difference: got %s, want -20.00", got)
	}

	// --- 9. Inventory: create an item and draw it below its minimum ---
	invResp := httpPostJSON(t, server, "/inventory", map[string]interface{}{
		"name_en":       "Jasmine Rice",
		"name_th":       "ข้าวหอมมะลิ",
		"unit":          "kg",
		"current_stock": "50.00",
		"min_stock":     "10.00",
		"cost_per_unit": "25.00",
	}, token)
	invID := uuid.MustParse(invResp["id"].(string))

	adjusted := httpPostJSON(t, server, fmt.Sprintf("/inventory/%s/adjust", invID), map[string]interface{}{
		"delta":  "-42.5",
		"reason": "weekend service",
	}, token)
	if got := adjusted["current_stock"].(string); got != "7.50" {
		t.Fatalf("current_stock after adjust: got %s, want 7.50", got)
	}

	lowStock := httpGetList(t, server, "/inventory/low-stock", token)
	if len(lowStock) != 1 {
		t.Fatalf("low-stock items: got %d, want 1", len(lowStock))
	}

	// --- 10. Employees and time tracking ---
	empResp := httpPostJSON(t, server, "/employees", map[string]interface{}{
		"name":     "Somchai",
		"position": "Cook",
		"salary":   "15000.00",
	}, token)
	employeeID := uuid.MustParse(empResp["id"].(string))

	clockIn := httpPostJSON(t, server, "/time-tracking/clock-in", map[string]interface{}{
		"employee_id": employeeID.String(),
	}, token)
	if clockIn["clock_out"] != nil {
		t.Fatalf("open time record must have null clock_out")
	}

	clockOut := httpPostJSON(t, server, "/time-tracking/clock-out", map[string]interface{}{
		"employee_id": employeeID.String(),
	}, token)
	if clockOut["total_minutes"] == nil {
		t.Fatalf("closed time record must carry total_minutes")
	}

	// --- 11. Dashboard rollup over the paid order ---
	stats := httpGetJSON(t, server, "/dashboard/stats", token)
	if got := stats["total_orders"].(float64); got != 1 {
		t.Fatalf("total_orders: got %v, want 1", got)
	}
	if got := stats["total_revenue"].(string); got != "257.00" {
		t.Fatalf("total_revenue: got %s, want 257.00", got)
	}
	if got := stats["total_tax"].(string); got != "17.00" {
		t.Fatalf("total_tax: got %s, want 17.00", got)
	}
	if got := stats["total_cost"].(string); got != "90.00" {
		t.Fatalf("total_cost: got %s, want 90.00", got)
	}
	if got := stats["profit"].(string); got != "167.00" {
		t.Fatalf("profit: got %s, want 167.00", got)
	}

	// --- 12. Audit trail covers the mutations above ---
	logs := httpGetList(t, server, "/audit-logs", token)
	seen := map[string]bool{}
	for _, entry := range logs {
		seen[entry["action"].(string)] = true
	}
	for _, action := range []string{
		"create_order", "update_order_status", "open_cashier_shift",
		"close_cashier_shift", "update_inventory_stock", "clock_in", "clock_out",
	} {
		if !seen[action] {
			t.Fatalf("audit log missing action %q (got %v)", action, seen)
		}
	}

	t.Logf("Integration test passed: container=%s, admin=%s, staff=%s, order=%s, shift=%s",
		pgContainer.GetContainerID(), adminID, staffID, orderID, shiftID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (name, email, hashed_password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		"Test Admin", "admin@test.com", string(hashedPassword), "admin",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
	return id
}

func createRestaurantSettings(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO restaurant_settings (restaurant_name, tax_rate, currency)
		 VALUES ($1, $2, $3)`,
		"Krua Thai", "0.0700", "THB",
	)
	if err != nil {
		t.Fatalf("create restaurant settings: %v", err)
	}
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no token in response: %+v", resp)
	}
	return token
}

// --- HTTP helpers ---

func httpDoJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("%s %s: status %d, body: %v", method, path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpDoJSON(t, server, "POST", path, body, token)
}

func httpPatchJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpDoJSON(t, server, "PATCH", path, body, token)
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	return httpDoJSON(t, server, "GET", path, nil, token)
}

func httpGetList(t *testing.T, server *httptest.Server, path string, token string) []map[string]interface{} {
	t.Helper()
	req, err := http.NewRequest("GET", server.URL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("GET %s: status %d, body: %v", path, resp.StatusCode, errResp)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}
