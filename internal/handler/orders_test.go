package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kruathai-pos/api/internal/auth"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/kruathai-pos/api/internal/handler"
	"github.com/kruathai-pos/api/internal/middleware"
	"github.com/kruathai-pos/api/internal/service"
)

// --- Mocks ---

type mockOrderService struct {
	createOrderFn         func(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	updateStatusFn        func(ctx context.Context, userID, orderID uuid.UUID, toStatus string) (*database.Order, error)
	updatePaymentStatusFn func(ctx context.Context, userID, orderID uuid.UUID, toStatus, method string) (*database.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	return m.createOrderFn(ctx, req)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus string) (*database.Order, error) {
	return m.updateStatusFn(ctx, userID, orderID, toStatus)
}

func (m *mockOrderService) UpdatePaymentStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus, method string) (*database.Order, error) {
	return m.updatePaymentStatusFn(ctx, userID, orderID, toStatus, method)
}

type mockOrderReadStore struct {
	getOrderFn              func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn            func(ctx context.Context, limit int32) ([]database.Order, error)
	listOrderItemsByOrderFn func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

func (m *mockOrderReadStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderFn(ctx, id)
}

func (m *mockOrderReadStore) ListOrders(ctx context.Context, limit int32) ([]database.Order, error) {
	return m.listOrdersFn(ctx, limit)
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.listOrderItemsByOrderFn(ctx, orderID)
}

// --- Test helpers ---

const testJWTSecret = "test-secret-for-handlers"

func setupOrderRouter(svc *mockOrderService, store *mockOrderReadStore) *chi.Mux {
	h := handler.NewOrderHandler(svc, store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/orders", h.RegisterRoutes)
	return r
}

func testClaims() *auth.Claims {
	return &auth.Claims{
		UserID: uuid.New(),
		Name:   "Test Cashier",
		Role:   enum.UserRoleStaff,
	}
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Name, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testOrder(t *testing.T, status, paymentStatus string) database.Order {
	t.Helper()
	return database.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260829-0001",
		UserID:        uuid.New(),
		Status:        status,
		PaymentStatus: paymentStatus,
		Subtotal:      makeNumeric(t, "160.00"),
		Tax:           makeNumeric(t, "11.00"),
		Discount:      makeNumeric(t, "0.00"),
		Total:         makeNumeric(t, "171.00"),
		CreatedAt:     time.Now(),
	}
}

// --- Create tests ---

func TestOrderCreate_Valid(t *testing.T) {
	order := testOrder(t, enum.OrderStatusPending, enum.PaymentStatusPending)
	item := database.OrderItem{
		ID:         uuid.New(),
		OrderID:    order.ID,
		MenuItemID: uuid.New(),
		Quantity:   2,
		UnitPrice:  makeNumeric(t, "80.00"),
		TotalPrice: makeNumeric(t, "160.00"),
	}

	var gotReq service.CreateOrderRequest
	svc := &mockOrderService{
		createOrderFn: func(_ context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			gotReq = req
			return &service.CreateOrderResult{Order: order, Items: []database.OrderItem{item}}, nil
		},
	}

	router := setupOrderRouter(svc, &mockOrderReadStore{})
	claims := testClaims()

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number":   "ORD-20260829-0001",
		"payment_method": "cash",
		"items": []map[string]interface{}{
			{"menu_item_id": item.MenuItemID.String(), "quantity": 2, "unit_price": "80.00"},
		},
	}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	// User comes from the token, never the request body
	if gotReq.UserID != claims.UserID {
		t.Errorf("service saw user %s, want %s", gotReq.UserID, claims.UserID)
	}

	resp := decodeObject(t, rr)
	if resp["order_number"] != "ORD-20260829-0001" {
		t.Errorf("order_number: got %v", resp["order_number"])
	}
	if resp["total"] != "171.00" {
		t.Errorf("total: got %v, want 171.00", resp["total"])
	}
	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item in response, got %v", resp["items"])
	}
}

func TestOrderCreate_Unauthenticated(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number": "ORD-1",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOrderCreate_EmptyOrder(t *testing.T) {
	svc := &mockOrderService{
		createOrderFn: func(_ context.Context, _ service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrEmptyOrder
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number":   "ORD-1",
		"payment_method": "cash",
		"items":          []map[string]interface{}{},
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestOrderCreate_DuplicateOrderNumber(t *testing.T) {
	svc := &mockOrderService{
		createOrderFn: func(_ context.Context, _ service.CreateOrderRequest) (*service.CreateOrderResult, error) {
			return nil, service.ErrDuplicateOrderNumber
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number":   "ORD-1",
		"payment_method": "cash",
		"items": []map[string]interface{}{
			{"menu_item_id": uuid.NewString(), "quantity": 1, "unit_price": "80.00"},
		},
	}, testClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestOrderCreate_InvalidDiscount(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number":   "ORD-1",
		"payment_method": "cash",
		"discount":       "lots",
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCreate_InvalidShiftID(t *testing.T) {
	svc := &mockOrderService{}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"order_number":   "ORD-1",
		"payment_method": "cash",
		"shift_id":       "not-a-uuid",
	}, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- List tests ---

func TestOrderList_DefaultLimit(t *testing.T) {
	var gotLimit int32
	store := &mockOrderReadStore{
		listOrdersFn: func(_ context.Context, limit int32) ([]database.Order, error) {
			gotLimit = limit
			return []database.Order{testOrder(t, enum.OrderStatusPending, enum.PaymentStatusPending)}, nil
		},
	}
	router := setupOrderRouter(&mockOrderService{}, store)

	rr := doAuthRequest(t, router, "GET", "/orders", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotLimit != 50 {
		t.Errorf("limit: got %d, want 50", gotLimit)
	}

	resp := decodeList(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 order, got %d", len(resp))
	}
}

func TestOrderList_CustomLimit(t *testing.T) {
	var gotLimit int32
	store := &mockOrderReadStore{
		listOrdersFn: func(_ context.Context, limit int32) ([]database.Order, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	router := setupOrderRouter(&mockOrderService{}, store)

	rr := doAuthRequest(t, router, "GET", "/orders?limit=10", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if gotLimit != 10 {
		t.Errorf("limit: got %d, want 10", gotLimit)
	}
}

func TestOrderList_InvalidLimit(t *testing.T) {
	router := setupOrderRouter(&mockOrderService{}, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "GET", "/orders?limit=-1", nil, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Get tests ---

func TestOrderGet_WithItems(t *testing.T) {
	order := testOrder(t, enum.OrderStatusPending, enum.PaymentStatusPending)
	store := &mockOrderReadStore{
		getOrderFn: func(_ context.Context, id uuid.UUID) (database.Order, error) {
			if id != order.ID {
				return database.Order{}, pgx.ErrNoRows
			}
			return order, nil
		},
		listOrderItemsByOrderFn: func(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return []database.OrderItem{
				{ID: uuid.New(), OrderID: orderID, MenuItemID: uuid.New(), Quantity: 2,
					UnitPrice: makeNumeric(t, "80.00"), TotalPrice: makeNumeric(t, "160.00")},
			}, nil
		},
	}
	router := setupOrderRouter(&mockOrderService{}, store)

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", resp["items"])
	}
	first := items[0].(map[string]interface{})
	if first["total_price"] != "160.00" {
		t.Errorf("total_price: got %v, want 160.00", first["total_price"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	store := &mockOrderReadStore{
		getOrderFn: func(_ context.Context, _ uuid.UUID) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
	}
	router := setupOrderRouter(&mockOrderService{}, store)

	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.NewString(), nil, testClaims())

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Status transition tests ---

func TestOrderUpdateStatus_Completed(t *testing.T) {
	order := testOrder(t, enum.OrderStatusCompleted, enum.PaymentStatusPending)

	var gotStatus string
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, _, _ uuid.UUID, toStatus string) (*database.Order, error) {
			gotStatus = toStatus
			return &order, nil
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "completed",
	}, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotStatus != "completed" {
		t.Errorf("service saw status %q, want completed", gotStatus)
	}

	resp := decodeObject(t, rr)
	if resp["status"] != "completed" {
		t.Errorf("status field: got %v, want completed", resp["status"])
	}
}

func TestOrderUpdateStatus_InvalidTransition(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, _, _ uuid.UUID, _ string) (*database.Order, error) {
			return nil, service.ErrInvalidTransition
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/status", map[string]interface{}{
		"status": "pending",
	}, testClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestOrderUpdateStatus_NotFound(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(_ context.Context, _, _ uuid.UUID, _ string) (*database.Order, error) {
			return nil, service.ErrOrderNotFound
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/status", map[string]interface{}{
		"status": "completed",
	}, testClaims())

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderUpdatePayment_Paid(t *testing.T) {
	order := testOrder(t, enum.OrderStatusPending, enum.PaymentStatusPaid)

	svc := &mockOrderService{
		updatePaymentStatusFn: func(_ context.Context, _, _ uuid.UUID, toStatus, _ string) (*database.Order, error) {
			if toStatus != "paid" {
				t.Errorf("service saw payment status %q, want paid", toStatus)
			}
			return &order, nil
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/payment", map[string]interface{}{
		"payment_status": "paid",
	}, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["payment_status"] != "paid" {
		t.Errorf("payment_status: got %v, want paid", resp["payment_status"])
	}
}

func TestOrderUpdatePayment_RecordsMethod(t *testing.T) {
	order := testOrder(t, enum.OrderStatusPending, enum.PaymentStatusPaid)
	order.PaymentMethod = pgtype.Text{String: "cash", Valid: true}

	svc := &mockOrderService{
		updatePaymentStatusFn: func(_ context.Context, _, _ uuid.UUID, toStatus, method string) (*database.Order, error) {
			if toStatus != "paid" {
				t.Errorf("service saw payment status %q, want paid", toStatus)
			}
			if method != "cash" {
				t.Errorf("service saw payment method %q, want cash", method)
			}
			return &order, nil
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+order.ID.String()+"/payment", map[string]interface{}{
		"payment_status": "paid",
		"payment_method": "cash",
	}, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	if resp["payment_method"] != "cash" {
		t.Errorf("payment_method: got %v, want cash", resp["payment_method"])
	}
}

func TestOrderUpdatePayment_RefundBeforePaid(t *testing.T) {
	svc := &mockOrderService{
		updatePaymentStatusFn: func(_ context.Context, _, _ uuid.UUID, _, _ string) (*database.Order, error) {
			return nil, service.ErrInvalidTransition
		},
	}
	router := setupOrderRouter(svc, &mockOrderReadStore{})

	rr := doAuthRequest(t, router, "PATCH", "/orders/"+uuid.NewString()+"/payment", map[string]interface{}{
		"payment_status": "refunded",
	}, testClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}
