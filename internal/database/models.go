package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID        int64
	Name      string
	SortOrder int32
}

type MenuItem struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageURL    pgtype.Text
	SortOrder   int32
	IsAvailable bool
}

type Option struct {
	ID           int64
	Name         string
	SingleChoice bool
	SortOrder    int32
}

type OptionItem struct {
	ID         int64
	OptionID   int64
	Name       string
	ExtraPrice pgtype.Numeric
}

type OrderStatus struct {
	ID          int64
	Code        string
	DisplayName string
	ColorTag    string
}

type Order struct {
	ID          int64
	UserID      pgtype.UUID
	StatusID    int64
	TotalAmount pgtype.Numeric
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
}

type OrderOptionItem struct {
	ID           int64
	OrderItemID  int64
	OptionItemID int64
	ExtraPrice   pgtype.Numeric
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Role         string
	CreatedAt    time.Time
}
