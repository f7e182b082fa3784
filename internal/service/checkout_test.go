package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/morningcafe/ordering-api/internal/cart"
	"github.com/morningcafe/ordering-api/internal/catalog"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/enum"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr error
	committed bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error { return nil }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockCheckoutStore implements CheckoutStore with configurable behavior.
type mockCheckoutStore struct {
	getOrderStatusByCodeFn  func(ctx context.Context, code string) (database.OrderStatus, error)
	createOrderStatusFn     func(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error)
	createOrderFn           func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn       func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	createOrderOptionItemFn func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error)
}

func (m *mockCheckoutStore) GetOrderStatusByCode(ctx context.Context, code string) (database.OrderStatus, error) {
	return m.getOrderStatusByCodeFn(ctx, code)
}
func (m *mockCheckoutStore) CreateOrderStatus(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error) {
	return m.createOrderStatusFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockCheckoutStore) CreateOrderOptionItem(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
	return m.createOrderOptionItemFn(ctx, arg)
}

// mockCartSource implements CartSource.
type mockCartSource struct {
	cart     cart.Cart
	loadErr  error
	clearErr error
	cleared  bool
}

func (m *mockCartSource) Load(ctx context.Context, sessionID string) (cart.Cart, error) {
	return m.cart, m.loadErr
}
func (m *mockCartSource) Clear(ctx context.Context, sessionID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	return nil
}

// mockCatalog implements catalog.Provider for option lookups.
type mockCatalog struct {
	options map[int64]catalog.OptionItemSnapshot
	err     error
}

func (m *mockCatalog) MenuItem(ctx context.Context, id int64) (catalog.MenuItemSnapshot, error) {
	panic("not implemented")
}
func (m *mockCatalog) OptionItem(ctx context.Context, id int64) (catalog.OptionItemSnapshot, error) {
	if m.err != nil {
		return catalog.OptionItemSnapshot{}, m.err
	}
	opt, ok := m.options[id]
	if !ok {
		return catalog.OptionItemSnapshot{}, catalog.ErrNotFound
	}
	return opt, nil
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func testOptions() *mockCatalog {
	return &mockCatalog{
		options: map[int64]catalog.OptionItemSnapshot{
			10: {ID: 10, Name: "Extra Cheese", ExtraPrice: decimal.NewFromInt(20)},
		},
	}
}

// defaultCheckoutStore returns a mockCheckoutStore with sensible defaults.
// Individual tests override the functions they care about.
func defaultCheckoutStore() *mockCheckoutStore {
	return &mockCheckoutStore{
		getOrderStatusByCodeFn: func(ctx context.Context, code string) (database.OrderStatus, error) {
			return database.OrderStatus{ID: 1, Code: enum.StatusPending, DisplayName: "Pending", ColorTag: "warning"}, nil
		},
		createOrderStatusFn: func(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error) {
			return database.OrderStatus{ID: 1, Code: arg.Code, DisplayName: arg.DisplayName, ColorTag: arg.ColorTag}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{ID: 100, UserID: arg.UserID, StatusID: arg.StatusID, TotalAmount: arg.TotalAmount}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{ID: 200, OrderID: arg.OrderID, MenuItemID: arg.MenuItemID,
				Name: arg.Name, UnitPrice: arg.UnitPrice, Quantity: arg.Quantity}, nil
		},
		createOrderOptionItemFn: func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
			return database.OrderOptionItem{ID: 300, OrderItemID: arg.OrderItemID,
				OptionItemID: arg.OptionItemID, ExtraPrice: arg.ExtraPrice}, nil
		},
	}
}

// scenarioCart is one plain sandwich plus one with extra cheese: 280 + 300.
func scenarioCart() cart.Cart {
	return cart.Cart{
		{MenuItemID: 1, Name: "Ham & Egg Sandwich", UnitPrice: decimal.NewFromInt(280), Quantity: 1},
		{MenuItemID: 1, Name: "Ham & Egg Sandwich", UnitPrice: decimal.NewFromInt(280), Quantity: 1, OptionItemIDs: []int64{10}},
	}
}

func newTestCheckout(store *mockCheckoutStore, carts *mockCartSource) (*CheckoutService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	return NewCheckoutService(pool, newStore, carts, testOptions()), tx
}

// =====================
// Checkout tests
// =====================

func TestCheckout_EmptyCart(t *testing.T) {
	carts := &mockCartSource{cart: cart.Cart{}}
	svc, _ := newTestCheckout(defaultCheckoutStore(), carts)

	_, err := svc.Checkout(context.Background(), "s1", nil)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got: %v", err)
	}
	if carts.cleared {
		t.Error("cart must not be cleared on failure")
	}
}

func TestCheckout_PersistsViewTotal(t *testing.T) {
	store := defaultCheckoutStore()

	var orderTotal pgtype.Numeric
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		orderTotal = arg.TotalAmount
		return database.Order{ID: 100, UserID: arg.UserID, StatusID: arg.StatusID, TotalAmount: arg.TotalAmount}, nil
	}

	var items []database.CreateOrderItemParams
	store.createOrderItemFn = func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
		items = append(items, arg)
		return database.OrderItem{ID: int64(200 + len(items)), OrderID: arg.OrderID, UnitPrice: arg.UnitPrice, Quantity: arg.Quantity}, nil
	}

	var optionRows []database.CreateOrderOptionItemParams
	store.createOrderOptionItemFn = func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
		optionRows = append(optionRows, arg)
		return database.OrderOptionItem{ID: 300, OrderItemID: arg.OrderItemID, OptionItemID: arg.OptionItemID, ExtraPrice: arg.ExtraPrice}, nil
	}

	carts := &mockCartSource{cart: scenarioCart()}
	svc, tx := newTestCheckout(store, carts)

	order, err := svc.Checkout(context.Background(), "s1", nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if !numericEquals(orderTotal, "580") {
		t.Errorf("order total: got %s, want 580", numericToDecimal(orderTotal))
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(items))
	}
	if !numericEquals(items[0].UnitPrice, "280") || !numericEquals(items[1].UnitPrice, "280") {
		t.Error("unit prices must be snapshotted from the cart")
	}
	if len(optionRows) != 1 {
		t.Fatalf("expected 1 option row, got %d", len(optionRows))
	}
	if optionRows[0].OptionItemID != 10 || !numericEquals(optionRows[0].ExtraPrice, "20") {
		t.Errorf("option row: got id %d extra %s", optionRows[0].OptionItemID, numericToDecimal(optionRows[0].ExtraPrice))
	}
	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if !carts.cleared {
		t.Error("cart must be cleared after a successful checkout")
	}
	if order.ID != 100 {
		t.Errorf("order id: got %d", order.ID)
	}
}

// driftingCatalog raises the option's extra price on every lookup,
// simulating an admin edit landing mid-checkout.
type driftingCatalog struct {
	lookups int
}

func (d *driftingCatalog) MenuItem(ctx context.Context, id int64) (catalog.MenuItemSnapshot, error) {
	panic("not implemented")
}
func (d *driftingCatalog) OptionItem(ctx context.Context, id int64) (catalog.OptionItemSnapshot, error) {
	d.lookups++
	return catalog.OptionItemSnapshot{
		ID:         id,
		Name:       "Extra Cheese",
		ExtraPrice: decimal.NewFromInt(int64(20 + 5*(d.lookups-1))),
	}, nil
}

func TestCheckout_TotalMatchesPersistedRows(t *testing.T) {
	store := defaultCheckoutStore()

	var total pgtype.Numeric
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		total = arg.TotalAmount
		return database.Order{ID: 100, TotalAmount: arg.TotalAmount}, nil
	}
	var optionRows []database.CreateOrderOptionItemParams
	store.createOrderOptionItemFn = func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
		optionRows = append(optionRows, arg)
		return database.OrderOptionItem{}, nil
	}

	c := cart.Cart{
		{MenuItemID: 1, Name: "Ham & Egg Sandwich", UnitPrice: decimal.NewFromInt(280), Quantity: 1, OptionItemIDs: []int64{10}},
	}
	cat := &driftingCatalog{}
	tx := &mockTx{}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	svc := NewCheckoutService(&mockTxBeginner{tx: tx}, newStore, &mockCartSource{cart: c}, cat)

	if _, err := svc.Checkout(context.Background(), "s1", nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if cat.lookups != 1 {
		t.Errorf("option resolved %d times, want once", cat.lookups)
	}
	if len(optionRows) != 1 {
		t.Fatalf("expected 1 option row, got %d", len(optionRows))
	}

	// Whatever extra was snapshotted, the total must be unit + that extra.
	want := decimal.NewFromInt(280).Add(numericToDecimal(optionRows[0].ExtraPrice))
	if !numericToDecimal(total).Equal(want) {
		t.Errorf("total %s does not equal unit plus persisted extra %s",
			numericToDecimal(total), want)
	}
}

func TestCheckout_GuestOrderHasNoUser(t *testing.T) {
	store := defaultCheckoutStore()

	var userID pgtype.UUID
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		userID = arg.UserID
		return database.Order{ID: 100}, nil
	}

	svc, _ := newTestCheckout(store, &mockCartSource{cart: scenarioCart()})

	if _, err := svc.Checkout(context.Background(), "s1", nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if userID.Valid {
		t.Error("guest checkout must not attribute a user")
	}
}

func TestCheckout_AuthenticatedOrderAttributed(t *testing.T) {
	store := defaultCheckoutStore()

	var captured pgtype.UUID
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		captured = arg.UserID
		return database.Order{ID: 100}, nil
	}

	svc, _ := newTestCheckout(store, &mockCartSource{cart: scenarioCart()})

	uid := uuid.New()
	if _, err := svc.Checkout(context.Background(), "s1", &uid); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !captured.Valid || uuid.UUID(captured.Bytes) != uid {
		t.Errorf("order user: got %v, want %s", captured, uid)
	}
}

func TestCheckout_BootstrapsPendingStatus(t *testing.T) {
	store := defaultCheckoutStore()
	store.getOrderStatusByCodeFn = func(ctx context.Context, code string) (database.OrderStatus, error) {
		return database.OrderStatus{}, pgx.ErrNoRows
	}

	var created database.CreateOrderStatusParams
	store.createOrderStatusFn = func(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error) {
		created = arg
		return database.OrderStatus{ID: 1, Code: arg.Code, DisplayName: arg.DisplayName, ColorTag: arg.ColorTag}, nil
	}

	svc, _ := newTestCheckout(store, &mockCartSource{cart: scenarioCart()})

	if _, err := svc.Checkout(context.Background(), "s1", nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if created.Code != enum.StatusPending {
		t.Errorf("bootstrapped code: got %q", created.Code)
	}
	if created.DisplayName != enum.StatusPendingDisplayName || created.ColorTag != enum.StatusPendingColorTag {
		t.Errorf("bootstrapped defaults: got %+v", created)
	}
}

// A concurrent first checkout can win the bootstrap insert; the loser's
// insert is a no-op reporting ErrNoRows and the winner's row is re-read.
func TestCheckout_StatusInsertRaceReReads(t *testing.T) {
	store := defaultCheckoutStore()

	calls := 0
	store.getOrderStatusByCodeFn = func(ctx context.Context, code string) (database.OrderStatus, error) {
		calls++
		if calls == 1 {
			return database.OrderStatus{}, pgx.ErrNoRows
		}
		return database.OrderStatus{ID: 1, Code: enum.StatusPending}, nil
	}
	store.createOrderStatusFn = func(ctx context.Context, arg database.CreateOrderStatusParams) (database.OrderStatus, error) {
		return database.OrderStatus{}, pgx.ErrNoRows
	}

	svc, tx := newTestCheckout(store, &mockCartSource{cart: scenarioCart()})

	if _, err := svc.Checkout(context.Background(), "s1", nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected re-read after conflict, got %d lookups", calls)
	}
	if !tx.committed {
		t.Error("transaction was not committed")
	}
}

func TestCheckout_OptionInsertFailureRollsBack(t *testing.T) {
	store := defaultCheckoutStore()
	store.createOrderOptionItemFn = func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
		return database.OrderOptionItem{}, errors.New("constraint violation")
	}

	carts := &mockCartSource{cart: scenarioCart()}
	svc, tx := newTestCheckout(store, carts)

	_, err := svc.Checkout(context.Background(), "s1", nil)
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got: %v", err)
	}
	if tx.committed {
		t.Error("transaction must not commit on a failed item insert")
	}
	if carts.cleared {
		t.Error("cart must stay intact so the customer can retry")
	}
}

func TestCheckout_CommitErrorLeavesCartIntact(t *testing.T) {
	carts := &mockCartSource{cart: scenarioCart()}
	svc, tx := newTestCheckout(defaultCheckoutStore(), carts)
	tx.commitErr = errors.New("connection reset")

	_, err := svc.Checkout(context.Background(), "s1", nil)
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got: %v", err)
	}
	if carts.cleared {
		t.Error("cart must stay intact after a failed commit")
	}
}

func TestCheckout_ClearFailureStillSucceeds(t *testing.T) {
	carts := &mockCartSource{cart: scenarioCart(), clearErr: errors.New("redis down")}
	svc, _ := newTestCheckout(defaultCheckoutStore(), carts)

	order, err := svc.Checkout(context.Background(), "s1", nil)
	if err != nil {
		t.Fatalf("checkout must succeed even when the clear fails: %v", err)
	}
	if order.ID != 100 {
		t.Errorf("order id: got %d", order.ID)
	}
}

func TestCheckout_UnresolvedOptionSnapshotsZero(t *testing.T) {
	store := defaultCheckoutStore()

	var optionRows []database.CreateOrderOptionItemParams
	store.createOrderOptionItemFn = func(ctx context.Context, arg database.CreateOrderOptionItemParams) (database.OrderOptionItem, error) {
		optionRows = append(optionRows, arg)
		return database.OrderOptionItem{}, nil
	}

	c := cart.Cart{
		{MenuItemID: 1, Name: "Ham & Egg Sandwich", UnitPrice: decimal.NewFromInt(280), Quantity: 1, OptionItemIDs: []int64{999}},
	}
	svc, _ := newTestCheckout(store, &mockCartSource{cart: c})

	if _, err := svc.Checkout(context.Background(), "s1", nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(optionRows) != 1 {
		t.Fatalf("expected the selection to be recorded, got %d rows", len(optionRows))
	}
	if optionRows[0].OptionItemID != 999 || !numericEquals(optionRows[0].ExtraPrice, "0") {
		t.Errorf("unresolved option row: got id %d extra %s",
			optionRows[0].OptionItemID, numericToDecimal(optionRows[0].ExtraPrice))
	}
}

func TestCheckout_BeginFailure(t *testing.T) {
	store := defaultCheckoutStore()
	carts := &mockCartSource{cart: scenarioCart()}
	newStore := func(db database.DBTX) CheckoutStore { return store }
	pool := &mockTxBeginner{err: errors.New("pool exhausted")}
	svc := NewCheckoutService(pool, newStore, carts, testOptions())

	_, err := svc.Checkout(context.Background(), "s1", nil)
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got: %v", err)
	}
	if carts.cleared {
		t.Error("cart must stay intact when the transaction cannot start")
	}
}
