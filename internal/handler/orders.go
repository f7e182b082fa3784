package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/middleware"
	"github.com/morningcafe/ordering-api/internal/service"
)

// OrderReader defines the query-service methods needed by customer order
// handlers. Satisfied by *service.OrderQueryService.
type OrderReader interface {
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]service.OrderSummary, error)
	GetOwnOrderDetail(ctx context.Context, orderID int64, userID uuid.UUID) (service.OrderDetail, error)
}

// OrderCanceller cancels a customer's own pending order.
// Satisfied by *service.StatusService.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID int64, userID uuid.UUID) (database.Order, error)
}

// OrderHandler handles the customer-facing order endpoints.
type OrderHandler struct {
	reader    OrderReader
	canceller OrderCanceller
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(reader OrderReader, canceller OrderCanceller) *OrderHandler {
	return &OrderHandler{reader: reader, canceller: canceller}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted behind the auth middleware.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Delete("/orders/{id}", h.Cancel)
}

// --- Response types ---

type orderSummaryResponse struct {
	ID                int64     `json:"id"`
	StatusCode        string    `json:"status_code"`
	StatusDisplayName string    `json:"status_display_name"`
	StatusColorTag    string    `json:"status_color_tag"`
	TotalAmount       string    `json:"total_amount"`
	CreatedAt         time.Time `json:"created_at"`
}

type orderOptionResponse struct {
	Name       string `json:"name"`
	ExtraPrice string `json:"extra_price"`
}

type orderItemResponse struct {
	Name      string                `json:"name"`
	UnitPrice string                `json:"unit_price"`
	Quantity  int32                 `json:"quantity"`
	Options   []orderOptionResponse `json:"options"`
	LineTotal string                `json:"line_total"`
}

type orderDetailResponse struct {
	orderSummaryResponse
	Items []orderItemResponse `json:"items"`
}

// --- Handlers ---

// List returns the authenticated customer's orders, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	summaries, err := h.reader.ListUserOrders(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, toOrderSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one of the customer's orders with items and options.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.reader.GetOwnOrderDetail(r.Context(), orderID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
		default:
			log.Printf("ERROR: get order %d: %v", orderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// Cancel cancels the customer's own order while it is still pending.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.canceller.CancelOrder(r.Context(), orderID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrOrderAccessDenied):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
		case errors.Is(err, service.ErrTransitionNotAllowed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order can no longer be cancelled"})
		default:
			log.Printf("ERROR: cancel order %d: %v", orderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           order.ID,
		"total_amount": numericToString(order.TotalAmount),
	})
}

// --- Helpers ---

func parseOrderID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func toOrderSummaryResponse(s service.OrderSummary) orderSummaryResponse {
	return orderSummaryResponse{
		ID:                s.ID,
		StatusCode:        s.StatusCode,
		StatusDisplayName: s.StatusDisplayName,
		StatusColorTag:    s.StatusColorTag,
		TotalAmount:       s.TotalAmount.StringFixed(2),
		CreatedAt:         s.CreatedAt,
	}
}

func toOrderDetailResponse(d service.OrderDetail) orderDetailResponse {
	resp := orderDetailResponse{
		orderSummaryResponse: toOrderSummaryResponse(d.OrderSummary),
		Items:                []orderItemResponse{},
	}
	for _, it := range d.Items {
		item := orderItemResponse{
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			Options:   []orderOptionResponse{},
			LineTotal: it.LineTotal.StringFixed(2),
		}
		for _, opt := range it.Options {
			item.Options = append(item.Options, orderOptionResponse{
				Name:       opt.Name,
				ExtraPrice: opt.ExtraPrice.StringFixed(2),
			})
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	s, _ := val.(string)
	return s
}
