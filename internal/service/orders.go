package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/shopspring/decimal"
)

// OrderQueryStore defines the DB methods needed for order reads.
// Satisfied by *database.Queries.
type OrderQueryStore interface {
	GetOrder(ctx context.Context, id int64) (database.OrderWithStatusRow, error)
	ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]database.OrderWithStatusRow, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.OrderWithStatusRow, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrderOptionItemsByOrderItem(ctx context.Context, orderItemID int64) ([]database.OrderOptionItemRow, error)
	ListOrderStatuses(ctx context.Context) ([]database.OrderStatus, error)
}

// OrderSummary is an order row shaped for API responses.
type OrderSummary struct {
	ID                int64
	StatusCode        string
	StatusDisplayName string
	StatusColorTag    string
	TotalAmount       decimal.Decimal
	CreatedAt         time.Time
}

// OrderOptionDetail is a snapshotted option selection on an order item.
type OrderOptionDetail struct {
	Name       string
	ExtraPrice decimal.Decimal
}

// OrderItemDetail is an order item with its options and derived line total.
type OrderItemDetail struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	Options   []OrderOptionDetail
	LineTotal decimal.Decimal
}

// OrderDetail is a full order aggregate.
type OrderDetail struct {
	OrderSummary
	Items []OrderItemDetail
}

// OrderFilter narrows the admin order listing. Zero values mean "no filter".
type OrderFilter struct {
	StatusCode string
	Search     string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int32
	Offset     int32
}

const defaultOrderPageSize = 50

// OrderQueryService serves order listings and detail views.
type OrderQueryService struct {
	store OrderQueryStore
}

func NewOrderQueryService(store OrderQueryStore) *OrderQueryService {
	return &OrderQueryService{store: store}
}

// GetOrderDetail loads an order with its items and option snapshots.
func (s *OrderQueryService) GetOrderDetail(ctx context.Context, orderID int64) (OrderDetail, error) {
	row, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderDetail{}, ErrOrderNotFound
		}
		return OrderDetail{}, fmt.Errorf("get order: %w", err)
	}
	return s.buildDetail(ctx, row)
}

// GetOwnOrderDetail is GetOrderDetail restricted to the order's owner.
func (s *OrderQueryService) GetOwnOrderDetail(ctx context.Context, orderID int64, userID uuid.UUID) (OrderDetail, error) {
	row, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderDetail{}, ErrOrderNotFound
		}
		return OrderDetail{}, fmt.Errorf("get order: %w", err)
	}
	if !row.UserID.Valid || uuid.UUID(row.UserID.Bytes) != userID {
		return OrderDetail{}, ErrOrderAccessDenied
	}
	return s.buildDetail(ctx, row)
}

// ListUserOrders lists the given user's orders, newest first.
func (s *OrderQueryService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error) {
	rows, err := s.store.ListOrdersByUser(ctx, pgtype.UUID{Bytes: userID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	summaries := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(row))
	}
	return summaries, nil
}

// ListAllOrders lists orders across all customers with optional filters.
func (s *OrderQueryService) ListAllOrders(ctx context.Context, filter OrderFilter) ([]OrderSummary, error) {
	arg := database.ListOrdersParams{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if arg.Limit <= 0 {
		arg.Limit = defaultOrderPageSize
	}
	if filter.StatusCode != "" {
		arg.StatusCode = pgtype.Text{String: filter.StatusCode, Valid: true}
	}
	if filter.Search != "" {
		arg.Search = pgtype.Text{String: filter.Search, Valid: true}
	}
	if !filter.StartDate.IsZero() {
		arg.StartDate = pgtype.Timestamptz{Time: filter.StartDate, Valid: true}
	}
	if !filter.EndDate.IsZero() {
		arg.EndDate = pgtype.Timestamptz{Time: filter.EndDate, Valid: true}
	}

	rows, err := s.store.ListOrders(ctx, arg)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	summaries := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(row))
	}
	return summaries, nil
}

// ListStatuses returns the full status reference table.
func (s *OrderQueryService) ListStatuses(ctx context.Context) ([]database.OrderStatus, error) {
	statuses, err := s.store.ListOrderStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

func (s *OrderQueryService) buildDetail(ctx context.Context, row database.OrderWithStatusRow) (OrderDetail, error) {
	detail := OrderDetail{OrderSummary: toSummary(row)}

	items, err := s.store.ListOrderItemsByOrder(ctx, row.ID)
	if err != nil {
		return OrderDetail{}, fmt.Errorf("list order items: %w", err)
	}

	for _, it := range items {
		unitPrice := numericToDecimal(it.UnitPrice)
		itemDetail := OrderItemDetail{
			Name:      it.Name,
			UnitPrice: unitPrice,
			Quantity:  it.Quantity,
		}

		opts, err := s.store.ListOrderOptionItemsByOrderItem(ctx, it.ID)
		if err != nil {
			return OrderDetail{}, fmt.Errorf("list order option items: %w", err)
		}

		extra := decimal.Zero
		for _, opt := range opts {
			extraPrice := numericToDecimal(opt.ExtraPrice)
			extra = extra.Add(extraPrice)
			itemDetail.Options = append(itemDetail.Options, OrderOptionDetail{
				Name:       opt.OptionName,
				ExtraPrice: extraPrice,
			})
		}

		itemDetail.LineTotal = unitPrice.Add(extra).Mul(decimal.NewFromInt32(it.Quantity))
		detail.Items = append(detail.Items, itemDetail)
	}

	return detail, nil
}

func toSummary(row database.OrderWithStatusRow) OrderSummary {
	return OrderSummary{
		ID:                row.ID,
		StatusCode:        row.StatusCode,
		StatusDisplayName: row.StatusDisplayName,
		StatusColorTag:    row.StatusColorTag,
		TotalAmount:       numericToDecimal(row.TotalAmount),
		CreatedAt:         row.CreatedAt,
	}
}
