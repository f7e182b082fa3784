package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/service"
)

// AdminOrderReader defines the query-service methods needed by admin order
// handlers. Satisfied by *service.OrderQueryService.
type AdminOrderReader interface {
	ListAllOrders(ctx context.Context, filter service.OrderFilter) ([]service.OrderSummary, error)
	GetOrderDetail(ctx context.Context, orderID int64) (service.OrderDetail, error)
	ListStatuses(ctx context.Context) ([]database.OrderStatus, error)
}

// StatusSetter moves orders between statuses on behalf of staff.
// Satisfied by *service.StatusService.
type StatusSetter interface {
	SetStatus(ctx context.Context, orderID, statusID int64) (service.StatusChange, error)
}

// AdminOrderHandler handles the staff-facing order endpoints.
type AdminOrderHandler struct {
	reader AdminOrderReader
	setter StatusSetter
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(reader AdminOrderReader, setter StatusSetter) *AdminOrderHandler {
	return &AdminOrderHandler{reader: reader, setter: setter}
}

// RegisterRoutes registers admin endpoints on the given Chi router.
// Expected to be mounted behind auth + role middleware.
func (h *AdminOrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Get("/statuses", h.ListStatuses)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	StatusID int64 `json:"status_id"`
}

type updateStatusResponse struct {
	OrderID     int64  `json:"order_id"`
	PriorStatus string `json:"prior_status"`
	NewStatus   string `json:"new_status"`
}

type statusResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
	ColorTag    string `json:"color_tag"`
}

// --- Handlers ---

// List returns orders across all customers. Supports status, item-name
// search and created-at date range filters plus limit/offset paging.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := service.OrderFilter{
		StatusCode: r.URL.Query().Get("status"),
		Search:     r.URL.Query().Get("search"),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		filter.StartDate = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		// End date is inclusive; the query uses an exclusive upper bound.
		filter.EndDate = t.AddDate(0, 0, 1)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = int32(n)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		filter.Offset = int32(n)
	}

	summaries, err := h.reader.ListAllOrders(r.Context(), filter)
	if err != nil {
		log.Printf("ERROR: list all orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, toOrderSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns any order with items and options.
func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseOrderID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	detail, err := h.reader.GetOrderDetail(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order %d: %v", orderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// UpdateStatus moves an order to the requested status and reports the
// status it replaced.
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseOrderID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.StatusID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status_id is required"})
		return
	}

	change, err := h.setter.SetStatus(r.Context(), orderID, req.StatusID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrStatusNotFound):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		default:
			log.Printf("ERROR: update status of order %d: %v", orderID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, updateStatusResponse{
		OrderID:     change.OrderID,
		PriorStatus: change.PriorCode,
		NewStatus:   change.NewCode,
	})
}

// ListStatuses returns the status reference table for the admin UI.
func (h *AdminOrderHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.reader.ListStatuses(r.Context())
	if err != nil {
		log.Printf("ERROR: list statuses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusResponse, 0, len(statuses))
	for _, s := range statuses {
		resp = append(resp, statusResponse{
			ID:          s.ID,
			Code:        s.Code,
			DisplayName: s.DisplayName,
			ColorTag:    s.ColorTag,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
