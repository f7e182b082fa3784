package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	getOrderStatusByCodeSQL = `
		SELECT id, code, display_name, color_tag
		FROM order_statuses WHERE code = $1`

	getOrderStatusByIDSQL = `
		SELECT id, code, display_name, color_tag
		FROM order_statuses WHERE id = $1`

	createOrderStatusSQL = `
		INSERT INTO order_statuses (code, display_name, color_tag)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, code, display_name, color_tag`

	listOrderStatusesSQL = `
		SELECT id, code, display_name, color_tag
		FROM order_statuses ORDER BY id`

	createOrderSQL = `
		INSERT INTO orders (user_id, status_id, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, status_id, total_amount, created_at, updated_at`

	createOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, menu_item_id, name, unit_price, quantity`

	createOrderOptionItemSQL = `
		INSERT INTO order_option_items (order_item_id, option_item_id, extra_price)
		VALUES ($1, $2, $3)
		RETURNING id, order_item_id, option_item_id, extra_price`

	getOrderSQL = `
		SELECT o.id, o.user_id, o.status_id, o.total_amount, o.created_at, o.updated_at,
		       s.code, s.display_name, s.color_tag
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.id = $1`

	listOrdersByUserSQL = `
		SELECT o.id, o.user_id, o.status_id, o.total_amount, o.created_at, o.updated_at,
		       s.code, s.display_name, s.color_tag
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`

	listOrdersSQL = `
		SELECT o.id, o.user_id, o.status_id, o.total_amount, o.created_at, o.updated_at,
		       s.code, s.display_name, s.color_tag
		FROM orders o
		JOIN order_statuses s ON s.id = o.status_id
		WHERE ($1::text IS NULL OR s.code = $1)
		  AND ($2::text IS NULL OR EXISTS (
		        SELECT 1 FROM order_items oi
		        WHERE oi.order_id = o.id AND oi.name ILIKE '%' || $2 || '%'))
		  AND ($3::timestamptz IS NULL OR o.created_at >= $3)
		  AND ($4::timestamptz IS NULL OR o.created_at < $4)
		ORDER BY o.created_at DESC
		LIMIT $5 OFFSET $6`

	listOrderItemsByOrderSQL = `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	listOrderOptionItemsByOrderItemSQL = `
		SELECT ooi.id, ooi.order_item_id, ooi.option_item_id, ooi.extra_price,
		       COALESCE(oi.name, '')
		FROM order_option_items ooi
		LEFT JOIN option_items oi ON oi.id = ooi.option_item_id
		WHERE ooi.order_item_id = $1
		ORDER BY ooi.id`

	cancelPendingOrderSQL = `
		UPDATE orders
		SET status_id = $2, updated_at = now()
		WHERE id = $1
		  AND status_id = (SELECT id FROM order_statuses WHERE code = 'PENDING')
		RETURNING id, user_id, status_id, total_amount, created_at, updated_at`

	// Self-join so the pre-update status_id can be returned for audit.
	setOrderStatusSQL = `
		UPDATE orders o
		SET status_id = $2, updated_at = now()
		FROM orders prev
		WHERE o.id = prev.id AND o.id = $1
		RETURNING prev.status_id`
)

// OrderWithStatusRow is an order joined with its status reference row.
type OrderWithStatusRow struct {
	Order
	StatusCode        string
	StatusDisplayName string
	StatusColorTag    string
}

// OrderOptionItemRow is an order option joined with the current option item
// name for display. The name may be empty when the catalog row was deleted;
// the snapshotted extra price is always present.
type OrderOptionItemRow struct {
	OrderOptionItem
	OptionName string
}

func (q *Queries) GetOrderStatusByCode(ctx context.Context, code string) (OrderStatus, error) {
	var s OrderStatus
	err := q.db.QueryRow(ctx, getOrderStatusByCodeSQL, code).
		Scan(&s.ID, &s.Code, &s.DisplayName, &s.ColorTag)
	return s, err
}

func (q *Queries) GetOrderStatusByID(ctx context.Context, id int64) (OrderStatus, error) {
	var s OrderStatus
	err := q.db.QueryRow(ctx, getOrderStatusByIDSQL, id).
		Scan(&s.ID, &s.Code, &s.DisplayName, &s.ColorTag)
	return s, err
}

type CreateOrderStatusParams struct {
	Code        string
	DisplayName string
	ColorTag    string
}

// CreateOrderStatus inserts a status row. When the code already exists the
// insert is a no-op and pgx.ErrNoRows is returned; raising a unique
// violation instead would abort the surrounding transaction.
func (q *Queries) CreateOrderStatus(ctx context.Context, arg CreateOrderStatusParams) (OrderStatus, error) {
	var s OrderStatus
	err := q.db.QueryRow(ctx, createOrderStatusSQL, arg.Code, arg.DisplayName, arg.ColorTag).
		Scan(&s.ID, &s.Code, &s.DisplayName, &s.ColorTag)
	return s, err
}

func (q *Queries) ListOrderStatuses(ctx context.Context) ([]OrderStatus, error) {
	rows, err := q.db.Query(ctx, listOrderStatusesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []OrderStatus
	for rows.Next() {
		var s OrderStatus
		if err := rows.Scan(&s.ID, &s.Code, &s.DisplayName, &s.ColorTag); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

type CreateOrderParams struct {
	UserID      pgtype.UUID
	StatusID    int64
	TotalAmount pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, createOrderSQL, arg.UserID, arg.StatusID, arg.TotalAmount).
		Scan(&o.ID, &o.UserID, &o.StatusID, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type CreateOrderItemParams struct {
	OrderID    int64
	MenuItemID int64
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItemSQL,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.UnitPrice, arg.Quantity).
		Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity)
	return it, err
}

type CreateOrderOptionItemParams struct {
	OrderItemID  int64
	OptionItemID int64
	ExtraPrice   pgtype.Numeric
}

func (q *Queries) CreateOrderOptionItem(ctx context.Context, arg CreateOrderOptionItemParams) (OrderOptionItem, error) {
	var ooi OrderOptionItem
	err := q.db.QueryRow(ctx, createOrderOptionItemSQL,
		arg.OrderItemID, arg.OptionItemID, arg.ExtraPrice).
		Scan(&ooi.ID, &ooi.OrderItemID, &ooi.OptionItemID, &ooi.ExtraPrice)
	return ooi, err
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (OrderWithStatusRow, error) {
	var o OrderWithStatusRow
	err := q.db.QueryRow(ctx, getOrderSQL, id).
		Scan(&o.ID, &o.UserID, &o.StatusID, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
			&o.StatusCode, &o.StatusDisplayName, &o.StatusColorTag)
	return o, err
}

func (q *Queries) ListOrdersByUser(ctx context.Context, userID pgtype.UUID) ([]OrderWithStatusRow, error) {
	rows, err := q.db.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderWithStatusRows(rows)
}

type ListOrdersParams struct {
	StatusCode pgtype.Text
	Search     pgtype.Text
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]OrderWithStatusRow, error) {
	rows, err := q.db.Query(ctx, listOrdersSQL,
		arg.StatusCode, arg.Search, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderWithStatusRows(rows)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrderSQL, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) ListOrderOptionItemsByOrderItem(ctx context.Context, orderItemID int64) ([]OrderOptionItemRow, error) {
	rows, err := q.db.Query(ctx, listOrderOptionItemsByOrderItemSQL, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []OrderOptionItemRow
	for rows.Next() {
		var o OrderOptionItemRow
		if err := rows.Scan(&o.ID, &o.OrderItemID, &o.OptionItemID, &o.ExtraPrice, &o.OptionName); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

type CancelPendingOrderParams struct {
	ID                int64
	CancelledStatusID int64
}

// CancelPendingOrder flips an order to the cancelled status only while its
// current status is PENDING. Returns pgx.ErrNoRows when the precondition
// fails, which callers distinguish from a missing order by a follow-up read.
func (q *Queries) CancelPendingOrder(ctx context.Context, arg CancelPendingOrderParams) (Order, error) {
	var o Order
	err := q.db.QueryRow(ctx, cancelPendingOrderSQL, arg.ID, arg.CancelledStatusID).
		Scan(&o.ID, &o.UserID, &o.StatusID, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

type SetOrderStatusParams struct {
	ID       int64
	StatusID int64
}

// SetOrderStatus unconditionally moves an order to the given status in a
// single UPDATE and returns the status id it overwrote.
func (q *Queries) SetOrderStatus(ctx context.Context, arg SetOrderStatusParams) (int64, error) {
	var priorStatusID int64
	err := q.db.QueryRow(ctx, setOrderStatusSQL, arg.ID, arg.StatusID).Scan(&priorStatusID)
	return priorStatusID, err
}

func scanOrderWithStatusRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]OrderWithStatusRow, error) {
	var orders []OrderWithStatusRow
	for rows.Next() {
		var o OrderWithStatusRow
		if err := rows.Scan(&o.ID, &o.UserID, &o.StatusID, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
			&o.StatusCode, &o.StatusDisplayName, &o.StatusColorTag); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
