package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/morningcafe/ordering-api/internal/cart"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/middleware"
	"github.com/morningcafe/ordering-api/internal/service"
	"github.com/shopspring/decimal"
)

// CartStore defines the cart operations needed by cart handlers.
// Satisfied by *cart.Store; narrow interface for testability.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (cart.Cart, error)
	AddLine(ctx context.Context, sessionID string, menuItemID int64, optionItemIDs []int64) (cart.Cart, error)
	Decrement(ctx context.Context, sessionID, lineKey string) (cart.Cart, error)
	Remove(ctx context.Context, sessionID, lineKey string) (cart.Cart, error)
}

// CartPricer prices cart lines for the view.
// Satisfied by *cart.Pricer.
type CartPricer interface {
	LineTotal(ctx context.Context, line cart.Line) (decimal.Decimal, error)
	CartTotal(ctx context.Context, c cart.Cart) (decimal.Decimal, error)
}

// CheckoutServicer converts the session cart into an order.
// Satisfied by *service.CheckoutService.
type CheckoutServicer interface {
	Checkout(ctx context.Context, sessionID string, userID *uuid.UUID) (database.Order, error)
}

// CartHandler handles cart and checkout endpoints.
type CartHandler struct {
	carts    CartStore
	pricer   CartPricer
	checkout CheckoutServicer
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts CartStore, pricer CartPricer, checkout CheckoutServicer) *CartHandler {
	return &CartHandler{carts: carts, pricer: pricer, checkout: checkout}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted behind the session middleware.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.Get)
	r.Post("/cart/lines", h.AddLine)
	r.Post("/cart/lines/{key}/decrement", h.DecrementLine)
	r.Delete("/cart/lines/{key}", h.RemoveLine)
	r.Post("/checkout", h.Checkout)
}

// --- Request / Response types ---

type addLineRequest struct {
	MenuItemID    int64   `json:"menu_item_id"`
	OptionItemIDs []int64 `json:"option_item_ids"`
}

type cartLineResponse struct {
	Key           string  `json:"key"`
	MenuItemID    int64   `json:"menu_item_id"`
	Name          string  `json:"name"`
	ImageURL      string  `json:"image_url,omitempty"`
	OptionItemIDs []int64 `json:"option_item_ids"`
	OptionSummary string  `json:"option_summary,omitempty"`
	UnitPrice     string  `json:"unit_price"`
	Quantity      int32   `json:"quantity"`
	LineTotal     string  `json:"line_total"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Count int32              `json:"count"`
	Total string             `json:"total"`
}

type checkoutResponse struct {
	OrderID     int64  `json:"order_id"`
	TotalAmount string `json:"total_amount"`
}

// --- Handlers ---

// Get returns the session cart with per-line and overall totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Load(r.Context(), h.sessionID(r))
	if err != nil {
		log.Printf("ERROR: load cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.respondWithCart(w, r, http.StatusOK, c)
}

// AddLine adds one unit of a menu item with the given option selection.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.MenuItemID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu_item_id is required"})
		return
	}

	c, err := h.carts.AddLine(r.Context(), h.sessionID(r), req.MenuItemID, req.OptionItemIDs)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: add cart line: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.respondWithCart(w, r, http.StatusOK, c)
}

// DecrementLine lowers the addressed line's quantity by one.
func (h *CartHandler) DecrementLine(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Decrement(r.Context(), h.sessionID(r), chi.URLParam(r, "key"))
	if err != nil {
		log.Printf("ERROR: decrement cart line: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.respondWithCart(w, r, http.StatusOK, c)
}

// RemoveLine deletes the addressed line.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Remove(r.Context(), h.sessionID(r), chi.URLParam(r, "key"))
	if err != nil {
		log.Printf("ERROR: remove cart line: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.respondWithCart(w, r, http.StatusOK, c)
}

// Checkout places an order from the session cart. Works for guests and for
// authenticated customers, who get the order attributed to their account.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		id := claims.UserID
		userID = &id
	}

	order, err := h.checkout.Checkout(r.Context(), h.sessionID(r), userID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
			return
		}
		log.Printf("ERROR: checkout: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkout failed"})
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:     order.ID,
		TotalAmount: numericToString(order.TotalAmount),
	})
}

func (h *CartHandler) sessionID(r *http.Request) string {
	return middleware.SessionIDFromContext(r.Context())
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, status int, c cart.Cart) {
	resp := cartResponse{Lines: []cartLineResponse{}, Count: c.Count()}

	for _, line := range c {
		lt, err := h.pricer.LineTotal(r.Context(), line)
		if err != nil {
			log.Printf("ERROR: price cart line: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp.Lines = append(resp.Lines, cartLineResponse{
			Key:           line.Key(),
			MenuItemID:    line.MenuItemID,
			Name:          line.Name,
			ImageURL:      line.ImageURL,
			OptionItemIDs: line.OptionItemIDs,
			OptionSummary: line.OptionSummary,
			UnitPrice:     line.UnitPrice.StringFixed(2),
			Quantity:      line.Quantity,
			LineTotal:     lt.StringFixed(2),
		})
	}

	total, err := h.pricer.CartTotal(r.Context(), c)
	if err != nil {
		log.Printf("ERROR: price cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp.Total = total.StringFixed(2)

	writeJSON(w, status, resp)
}
