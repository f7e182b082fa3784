package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/morningcafe/ordering-api/internal/cart"
	"github.com/morningcafe/ordering-api/internal/catalog"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrCheckoutFailed = errors.New("checkout failed")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CheckoutStore defines the DB methods needed to materialize an order.
// Satisfied by *database.Queries (and its tx-scoped variant).
type CheckoutStore interface {
	GetOrderStatusByCode(ctx context.Context, code string) (database.OrderStatus, error)
	CreateOrderStatus(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderOptionItem(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error)
}

// NewCheckoutStore creates a CheckoutStore from a DBTX (pool or tx), so the
// service can run its writes against the transaction it opened.
type NewCheckoutStore func(db database.DBTX) CheckoutStore

// CartSource is the slice of the cart store checkout needs.
// Satisfied by *cart.Store.
type CartSource interface {
	Load(ctx context.Context, sessionID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// CheckoutService converts a session cart into a persisted order aggregate.
type CheckoutService struct {
	pool     TxBeginner
	newStore NewCheckoutStore
	carts    CartSource
	catalog  catalog.Provider
}

func NewCheckoutService(pool TxBeginner, newStore NewCheckoutStore, carts CartSource, cat catalog.Provider) *CheckoutService {
	return &CheckoutService{pool: pool, newStore: newStore, carts: carts, catalog: cat}
}

// lineExtras pairs a cart line with the option extras resolved for it.
type lineExtras struct {
	line    cart.Line
	options []optionExtra
}

type optionExtra struct {
	optionItemID int64
	extraPrice   decimal.Decimal
}

// Checkout validates the cart, materializes Order -> OrderItems ->
// OrderOptionItems atomically with prices snapshotted from the cart view,
// and clears the cart on commit. On any failure the transaction rolls back
// and the cart is left untouched so the customer can retry.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, userID *uuid.UUID) (database.Order, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return database.Order{}, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	if len(c) == 0 {
		return database.Order{}, ErrEmptyCart
	}

	// Option extras are resolved exactly once and the total is derived from
	// that snapshot, so total_amount always equals the sum of the persisted
	// line rows. The arithmetic matches the cart-view pricer.
	lines, err := s.resolveExtras(ctx, c)
	if err != nil {
		return database.Order{}, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	order, err := s.checkoutTx(ctx, lines, orderTotal(lines), userID)
	if err != nil {
		return database.Order{}, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	// The order is committed; a failed clear only risks a stale cart view,
	// never a second charge, so it is logged rather than surfaced.
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.Printf("ERROR: clear cart after checkout of order %d: %v", order.ID, err)
	}

	return order, nil
}

// resolveExtras snapshots the current extra price of every selected option.
// An option that no longer resolves is recorded with a zero extra, matching
// the pricing calculator's treatment, so totals stay consistent.
func (s *CheckoutService) resolveExtras(ctx context.Context, c cart.Cart) ([]lineExtras, error) {
	lines := make([]lineExtras, 0, len(c))
	for _, line := range c {
		le := lineExtras{line: line}
		for _, id := range line.OptionItemIDs {
			opt, err := s.catalog.OptionItem(ctx, id)
			if err != nil {
				if errors.Is(err, catalog.ErrNotFound) {
					le.options = append(le.options, optionExtra{optionItemID: id, extraPrice: decimal.Zero})
					continue
				}
				return nil, fmt.Errorf("lookup option item %d: %w", id, err)
			}
			le.options = append(le.options, optionExtra{optionItemID: id, extraPrice: opt.ExtraPrice})
		}
		lines = append(lines, le)
	}
	return lines, nil
}

// orderTotal sums (unit price + resolved extras) * quantity over the lines.
func orderTotal(lines []lineExtras) decimal.Decimal {
	total := decimal.Zero
	for _, le := range lines {
		unit := le.line.UnitPrice
		for _, opt := range le.options {
			unit = unit.Add(opt.extraPrice)
		}
		total = total.Add(unit.Mul(decimal.NewFromInt32(le.line.Quantity)))
	}
	return total
}

func (s *CheckoutService) checkoutTx(ctx context.Context, lines []lineExtras, total decimal.Decimal, userID *uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	status, err := s.ensurePendingStatus(ctx, store)
	if err != nil {
		return database.Order{}, err
	}

	orderUserID := pgtype.UUID{}
	if userID != nil {
		orderUserID = pgtype.UUID{Bytes: *userID, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:      orderUserID,
		StatusID:    status.ID,
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	for _, le := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: le.line.MenuItemID,
			Name:       le.line.Name,
			UnitPrice:  decimalToNumeric(le.line.UnitPrice),
			Quantity:   le.line.Quantity,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("create order item: %w", err)
		}

		for _, opt := range le.options {
			if _, err := store.CreateOrderOptionItem(ctx, database.CreateOrderOptionItemParams{
				OrderItemID:  item.ID,
				OptionItemID: opt.optionItemID,
				ExtraPrice:   decimalToNumeric(opt.extraPrice),
			}); err != nil {
				return database.Order{}, fmt.Errorf("create order option item: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return order, nil
}

// ensurePendingStatus resolves the initial status by its stable code,
// creating the reference row on first use. The insert is a no-op on
// conflict (never a unique violation, which would abort the transaction),
// so when two first checkouts race the loser gets ErrNoRows back and
// re-reads the winner's row.
func (s *CheckoutService) ensurePendingStatus(ctx context.Context, store CheckoutStore) (database.OrderStatus, error) {
	status, err := store.GetOrderStatusByCode(ctx, enum.StatusPending)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.OrderStatus{}, fmt.Errorf("get pending status: %w", err)
	}

	status, err = store.CreateOrderStatus(ctx, database.CreateOrderStatusParams{
		Code:        enum.StatusPending,
		DisplayName: enum.StatusPendingDisplayName,
		ColorTag:    enum.StatusPendingColorTag,
	})
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.OrderStatus{}, fmt.Errorf("create pending status: %w", err)
	}

	status, err = store.GetOrderStatusByCode(ctx, enum.StatusPending)
	if err != nil {
		return database.OrderStatus{}, fmt.Errorf("get pending status after conflict: %w", err)
	}
	return status, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
