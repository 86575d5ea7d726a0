package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
	LastSignedIn   pgtype.Timestamptz
}

type MenuCategory struct {
	ID          uuid.UUID
	NameEn      string
	NameTh      string
	Description pgtype.Text
	SortOrder   int32
	IsActive    bool
	CreatedAt   time.Time
}

type MenuItem struct {
	ID            uuid.UUID
	CategoryID    pgtype.UUID
	NameEn        string
	NameTh        string
	DescriptionEn pgtype.Text
	DescriptionTh pgtype.Text
	Price         pgtype.Numeric
	Cost          pgtype.Numeric
	Image         pgtype.Text
	IsAvailable   bool
	SortOrder     int32
	CreatedAt     time.Time
}

type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	TableNumber   pgtype.Text
	UserID        uuid.UUID
	ShiftID       pgtype.UUID
	Status        string
	PaymentStatus string
	PaymentMethod pgtype.Text
	Subtotal      pgtype.Numeric
	Tax           pgtype.Numeric
	Discount      pgtype.Numeric
	Total         pgtype.Numeric
	Notes         pgtype.Text
	CreatedAt     time.Time
	CompletedAt   pgtype.Timestamptz
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	TotalPrice pgtype.Numeric
	Notes      pgtype.Text
}

type InventoryItem struct {
	ID           uuid.UUID
	NameEn       string
	NameTh       string
	CurrentStock pgtype.Numeric
	MinStock     pgtype.Numeric
	Unit         string
	CostPerUnit  pgtype.Numeric
	UpdatedAt    time.Time
}

type CashierShift struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StartTime      time.Time
	EndTime        pgtype.Timestamptz
	OpeningCash    pgtype.Numeric
	ClosingCash    pgtype.Numeric
	ExpectedCash   pgtype.Numeric
	CashDifference pgtype.Numeric
	Status         string
	Notes          pgtype.Text
}

type Employee struct {
	ID        uuid.UUID
	Name      string
	Position  string
	Salary    pgtype.Numeric
	Status    string
	CreatedAt time.Time
}

type TimeTrackingRecord struct {
	ID           uuid.UUID
	EmployeeID   uuid.UUID
	ClockIn      time.Time
	ClockOut     pgtype.Timestamptz
	TotalMinutes pgtype.Int4
}

type AuditLogEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Action    string
	Entity    string
	EntityID  pgtype.UUID
	Details   []byte
	CreatedAt time.Time
}

type RestaurantSettings struct {
	ID             uuid.UUID
	RestaurantName string
	Address        pgtype.Text
	Phone          pgtype.Text
	Email          pgtype.Text
	TaxRate        pgtype.Numeric
	Currency       string
	Logo           pgtype.Text
	UpdatedAt      time.Time
}
