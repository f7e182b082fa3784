package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/enum"
)

// Errors returned by the status service.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAccessDenied    = errors.New("order access denied")
	ErrStatusNotFound       = errors.New("order status not found")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// StatusStore defines the DB methods needed for status transitions.
// Satisfied by *database.Queries.
type StatusStore interface {
	GetOrder(ctx context.Context, id int64) (database.OrderWithStatusRow, error)
	GetOrderStatusByCode(ctx context.Context, code string) (database.OrderStatus, error)
	GetOrderStatusByID(ctx context.Context, id int64) (database.OrderStatus, error)
	CancelPendingOrder(ctx context.Context, arg database.CancelPendingOrderParams) (database.Order, error)
	SetOrderStatus(ctx context.Context, arg database.SetOrderStatusParams) (int64, error)
}

// StatusChange reports the outcome of a staff status transition.
type StatusChange struct {
	OrderID   int64
	PriorCode string
	NewCode   string
	NewStatus database.OrderStatus
}

// StatusService drives the order status workflow.
type StatusService struct {
	store StatusStore
}

func NewStatusService(store StatusStore) *StatusService {
	return &StatusService{store: store}
}

// CancelOrder cancels the customer's own order. Cancellation is only valid
// while the order is still pending; the guard and the update happen in one
// statement so a concurrent staff transition cannot slip in between.
func (s *StatusService) CancelOrder(ctx context.Context, orderID int64, userID uuid.UUID) (database.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !order.UserID.Valid || uuid.UUID(order.UserID.Bytes) != userID {
		return database.Order{}, ErrOrderAccessDenied
	}

	cancelled, err := s.store.GetOrderStatusByCode(ctx, enum.StatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("cancelled status is not seeded")
		}
		return database.Order{}, fmt.Errorf("get cancelled status: %w", err)
	}

	updated, err := s.store.CancelPendingOrder(ctx, database.CancelPendingOrderParams{
		ID:                orderID,
		CancelledStatusID: cancelled.ID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrTransitionNotAllowed
		}
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	return updated, nil
}

// SetStatus moves an order to the given status on behalf of staff. The prior
// status is captured by the same update statement, so the value reported for
// the audit trail is exactly what was replaced even under concurrent edits.
func (s *StatusService) SetStatus(ctx context.Context, orderID, statusID int64) (StatusChange, error) {
	target, err := s.store.GetOrderStatusByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusChange{}, ErrStatusNotFound
		}
		return StatusChange{}, fmt.Errorf("get target status: %w", err)
	}

	priorID, err := s.store.SetOrderStatus(ctx, database.SetOrderStatusParams{
		ID:       orderID,
		StatusID: statusID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusChange{}, ErrOrderNotFound
		}
		return StatusChange{}, fmt.Errorf("set order status: %w", err)
	}

	change := StatusChange{OrderID: orderID, NewCode: target.Code, NewStatus: target}

	prior, err := s.store.GetOrderStatusByID(ctx, priorID)
	if err != nil {
		log.Printf("ERROR: resolve prior status %d of order %d: %v", priorID, orderID, err)
	} else {
		change.PriorCode = prior.Code
	}

	log.Printf("order %d status changed: %s -> %s", orderID, change.PriorCode, change.NewCode)
	return change, nil
}
