package service

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidUnitPrice     = errors.New("unit price must not be negative")
	ErrInvalidDiscount      = errors.New("discount must not be negative")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrMissingOrderNumber   = errors.New("order number is required")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrInvalidTransition    = errors.New("status transition not allowed")

	ErrShiftNotFound    = errors.New("shift not found")
	ErrShiftAlreadyOpen = errors.New("an open shift already exists for this user")
	ErrShiftClosed      = errors.New("shift is already closed")
	ErrNoOpenShift      = errors.New("no open shift for this user")
	ErrInvalidCash      = errors.New("cash amount must not be negative")
)
