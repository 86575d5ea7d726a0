package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/kruathai-pos/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create and update orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetSettings(ctx context.Context) (database.RestaurantSettings, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdatePaymentStatus(ctx context.Context, arg database.UpdatePaymentStatusParams) (database.Order, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLogEntry, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
// Unit prices are snapshots from the terminal; the server recomputes
// every aggregate (subtotal, tax, total) and ignores any client totals.
type CreateOrderRequest struct {
	OrderNumber   string
	TableNumber   string
	UserID        uuid.UUID
	ShiftID       uuid.UUID // uuid.Nil when no shift is attached
	PaymentMethod string
	Discount      decimal.Decimal
	Notes         string
	Items         []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line in the order.
type CreateOrderItemRequest struct {
	MenuItemID string
	Quantity   int32
	UnitPrice  string
	Notes      string
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

var orderTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusCancelled: {},
}

var paymentTransitions = map[string][]string{
	enum.PaymentStatusPending:  {enum.PaymentStatusPaid},
	enum.PaymentStatusPaid:     {enum.PaymentStatusRefunded},
	enum.PaymentStatusRefunded: {},
}

func transitionAllowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func isValidPaymentMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash, enum.PaymentMethodCreditCard, enum.PaymentMethodQRCode:
		return true
	}
	return false
}

// CreateOrder validates, recomputes prices, and creates an order
// atomically: the header, its items, and the audit entry land in one
// transaction or not at all.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.OrderNumber == "" {
		return nil, ErrMissingOrderNumber
	}
	if req.PaymentMethod != "" && !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if req.Discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	var cart pricing.Cart
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidUnitPrice)
		}
		cart.Add(menuItemID, item.Quantity, unitPrice, item.Notes)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	taxRate := decimal.Zero
	settings, err := store.GetSettings(ctx)
	if err == nil {
		taxRate = numericToDecimal(settings.TaxRate)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	for i, line := range cart.Lines() {
		if _, err := store.GetMenuItem(ctx, line.MenuItemID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}
	}

	subtotal := cart.Subtotal()
	tax := pricing.Tax(subtotal, taxRate)
	total := pricing.Total(subtotal, tax, req.Discount)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:   req.OrderNumber,
		TableNumber:   textOrNull(req.TableNumber),
		UserID:        req.UserID,
		ShiftID:       uuidOrNull(req.ShiftID),
		PaymentMethod: textOrNull(req.PaymentMethod),
		Subtotal:      decimalToNumeric(subtotal),
		Tax:           decimalToNumeric(tax),
		Discount:      decimalToNumeric(req.Discount),
		Total:         decimalToNumeric(total),
		Notes:         textOrNull(req.Notes),
	})
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, line := range cart.Lines() {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  decimalToNumeric(line.UnitPrice),
			TotalPrice: decimalToNumeric(line.Total()),
			Notes:      textOrNull(line.Notes),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	details, _ := json.Marshal(map[string]any{
		"order_number": order.OrderNumber,
		"total":        total.StringFixed(2),
		"item_count":   len(items),
	})
	if _, err := store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		UserID:   req.UserID,
		Action:   enum.ActionCreateOrder,
		Entity:   "order",
		EntityID: pgtype.UUID{Bytes: order.ID, Valid: true},
		Details:  details,
	}); err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CreateOrderResult{Order: order, Items: items}, nil
}

// UpdateStatus moves an order through the status machine. Only pending
// orders move; a second completion or a cancel after completion is a
// conflict, not an overwrite.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus string) (*database.Order, error) {
	return s.transition(ctx, userID, orderID, toStatus, orderTransitions,
		func(store OrderStore, from string) (database.Order, error) {
			return store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
				ID:         orderID,
				FromStatus: from,
				ToStatus:   toStatus,
			})
		},
		func(o database.Order) string { return o.Status })
}

// UpdatePaymentStatus moves an order through the payment machine
// (pending -> paid -> refunded). A non-empty method records how the order
// was paid; orders opened without one get their method set at settlement
// so cash reconciliation can count them.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, userID, orderID uuid.UUID, toStatus, method string) (*database.Order, error) {
	if method != "" && !isValidPaymentMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}
	return s.transition(ctx, userID, orderID, toStatus, paymentTransitions,
		func(store OrderStore, from string) (database.Order, error) {
			return store.UpdatePaymentStatus(ctx, database.UpdatePaymentStatusParams{
				ID:            orderID,
				FromStatus:    from,
				ToStatus:      toStatus,
				PaymentMethod: textOrNull(method),
			})
		},
		func(o database.Order) string { return o.PaymentStatus })
}

func (s *OrderService) transition(
	ctx context.Context,
	userID, orderID uuid.UUID,
	toStatus string,
	table map[string][]string,
	update func(store OrderStore, from string) (database.Order, error),
	current func(database.Order) string,
) (*database.Order, error) {
	if _, known := table[toStatus]; !known {
		return nil, ErrInvalidTransition
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	existing, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	from := current(existing)
	if !transitionAllowed(table, from, toStatus) {
		return nil, ErrInvalidTransition
	}

	order, err := update(store, from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost a race with a concurrent transition
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	details, _ := json.Marshal(map[string]any{"from": from, "to": toStatus})
	if _, err := store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		UserID:   userID,
		Action:   enum.ActionUpdateOrderStatus,
		Entity:   "order",
		EntityID: pgtype.UUID{Bytes: order.ID, Valid: true},
		Details:  details,
	}); err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// Get returns an order with its line items.
func (s *OrderService) Get(ctx context.Context, store OrderStore, orderID uuid.UUID) (*CreateOrderResult, error) {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &CreateOrderResult{Order: order, Items: items}, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidOrNull(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
