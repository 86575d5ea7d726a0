package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// ── Configurable labels (recorded as-is, no settlement protocol behind them) ──

const (
	PaymentMethodCash       = "cash"
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodQRCode     = "qr_code"
)

const (
	UserRoleAdmin = "admin"
	UserRoleStaff = "staff"
)

// ── Audit action labels ──

const (
	ActionCreateOrder              = "create_order"
	ActionUpdateOrderStatus        = "update_order_status"
	ActionUpdateInventoryStock     = "update_inventory_stock"
	ActionOpenCashierShift         = "open_cashier_shift"
	ActionCloseCashierShift        = "close_cashier_shift"
	ActionClockIn                  = "clock_in"
	ActionClockOut                 = "clock_out"
	ActionUpdateRestaurantSettings = "update_restaurant_settings"
)
