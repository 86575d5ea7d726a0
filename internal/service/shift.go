package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ShiftStore defines the DB methods needed for the shift ledger.
// Satisfied by *database.Queries (and its WithTx variant).
type ShiftStore interface {
	CreateShift(ctx context.Context, arg database.CreateShiftParams) (database.CashierShift, error)
	GetShift(ctx context.Context, id uuid.UUID) (database.CashierShift, error)
	GetOpenShiftByUser(ctx context.Context, userID uuid.UUID) (database.CashierShift, error)
	CloseShift(ctx context.Context, arg database.CloseShiftParams) (database.CashierShift, error)
	SumShiftCashSales(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLogEntry, error)
}

// NewShiftStore creates a ShiftStore from a DBTX (pool or tx).
type NewShiftStore func(db database.DBTX) ShiftStore

// ShiftService handles cashier shift open/close.
type ShiftService struct {
	pool     TxBeginner
	newStore NewShiftStore
}

func NewShiftService(pool TxBeginner, newStore NewShiftStore) *ShiftService {
	return &ShiftService{pool: pool, newStore: newStore}
}

// Open starts a shift for the user. The partial unique index on open
// shifts makes the one-open-shift rule hold even when two terminals race:
// the loser's insert fails with 23505 and surfaces as ErrShiftAlreadyOpen.
func (s *ShiftService) Open(ctx context.Context, userID uuid.UUID, openingCash decimal.Decimal, notes string) (*database.CashierShift, error) {
	if openingCash.IsNegative() {
		return nil, ErrInvalidCash
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	shift, err := store.CreateShift(ctx, database.CreateShiftParams{
		UserID:      userID,
		OpeningCash: decimalToNumeric(openingCash),
		Notes:       textOrNull(notes),
	})
	if err != nil {
		if isUniqueViolation(err, "cashier_shifts_one_open_per_user") {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, fmt.Errorf("create shift: %w", err)
	}

	details, _ := json.Marshal(map[string]any{
		"opening_cash": openingCash.StringFixed(2),
	})
	if _, err := store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		UserID:   userID,
		Action:   enum.ActionOpenCashierShift,
		Entity:   "cashier_shift",
		EntityID: pgtype.UUID{Bytes: shift.ID, Valid: true},
		Details:  details,
	}); err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &shift, nil
}

// Close reconciles and closes a shift. When the caller supplies an expected
// cash figure it is stored as given; otherwise expected cash is derived as
// the opening float plus paid cash sales attached to the shift. Either way
// cash_difference is closing - expected (negative means the drawer is
// short). Closing an already closed shift is a conflict.
func (s *ShiftService) Close(ctx context.Context, userID, shiftID uuid.UUID, closingCash decimal.Decimal, expectedCash decimal.NullDecimal, notes string) (*database.CashierShift, error) {
	if closingCash.IsNegative() {
		return nil, ErrInvalidCash
	}
	if expectedCash.Valid && expectedCash.Decimal.IsNegative() {
		return nil, ErrInvalidCash
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	existing, err := store.GetShift(ctx, shiftID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	if existing.Status != enum.ShiftStatusOpen {
		return nil, ErrShiftClosed
	}

	expected := expectedCash.Decimal
	if !expectedCash.Valid {
		cashSales, err := store.SumShiftCashSales(ctx, shiftID)
		if err != nil {
			return nil, fmt.Errorf("sum cash sales: %w", err)
		}
		expected = numericToDecimal(existing.OpeningCash).Add(numericToDecimal(cashSales))
	}
	difference := closingCash.Sub(expected)

	shift, err := store.CloseShift(ctx, database.CloseShiftParams{
		ID:             shiftID,
		ClosingCash:    decimalToNumeric(closingCash),
		ExpectedCash:   decimalToNumeric(expected),
		CashDifference: decimalToNumeric(difference),
		Notes:          textOrNull(notes),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost a race with a concurrent close
			return nil, ErrShiftClosed
		}
		return nil, fmt.Errorf("close shift: %w", err)
	}

	details, _ := json.Marshal(map[string]any{
		"closing_cash":    closingCash.StringFixed(2),
		"expected_cash":   expected.StringFixed(2),
		"cash_difference": difference.StringFixed(2),
	})
	if _, err := store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		UserID:   userID,
		Action:   enum.ActionCloseCashierShift,
		Entity:   "cashier_shift",
		EntityID: pgtype.UUID{Bytes: shift.ID, Valid: true},
		Details:  details,
	}); err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &shift, nil
}

// Current returns the user's open shift, if any.
func (s *ShiftService) Current(ctx context.Context, store ShiftStore, userID uuid.UUID) (*database.CashierShift, error) {
	shift, err := store.GetOpenShiftByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenShift
		}
		return nil, fmt.Errorf("get open shift: %w", err)
	}
	return &shift, nil
}
