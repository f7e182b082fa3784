package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/morningcafe/ordering-api/internal/database"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	ListAvailableMenuItemsByCategory(ctx context.Context, categoryID int64) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	ListOptionsForMenuItem(ctx context.Context, menuItemID int64) ([]database.Option, error)
	ListOptionItemsByOption(ctx context.Context, optionID int64) ([]database.OptionItem, error)
}

// MenuHandler handles the public menu browsing endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Browse)
	r.Get("/menu/items/{id}", h.GetItem)
}

// --- Response types ---

type menuItemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
}

type menuCategoryResponse struct {
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	Items []menuItemResponse `json:"items"`
}

type optionItemResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ExtraPrice string `json:"extra_price"`
}

type optionResponse struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	SingleChoice bool                 `json:"single_choice"`
	Items        []optionItemResponse `json:"items"`
}

type menuItemDetailResponse struct {
	menuItemResponse
	Options []optionResponse `json:"options"`
}

// --- Handlers ---

// Browse returns all categories with their available items.
func (h *MenuHandler) Browse(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuCategoryResponse, 0, len(categories))
	for _, cat := range categories {
		items, err := h.store.ListAvailableMenuItemsByCategory(r.Context(), cat.ID)
		if err != nil {
			log.Printf("ERROR: list menu items for category %d: %v", cat.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		catResp := menuCategoryResponse{ID: cat.ID, Name: cat.Name, Items: []menuItemResponse{}}
		for _, item := range items {
			catResp.Items = append(catResp.Items, toMenuItemResponse(item))
		}
		resp = append(resp, catResp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetItem returns one menu item with its option groups for the add-to-cart
// selection UI.
func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	options, err := h.store.ListOptionsForMenuItem(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list options for menu item %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := menuItemDetailResponse{
		menuItemResponse: toMenuItemResponse(item),
		Options:          []optionResponse{},
	}
	for _, opt := range options {
		optionItems, err := h.store.ListOptionItemsByOption(r.Context(), opt.ID)
		if err != nil {
			log.Printf("ERROR: list option items for option %d: %v", opt.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		optResp := optionResponse{
			ID:           opt.ID,
			Name:         opt.Name,
			SingleChoice: opt.SingleChoice,
			Items:        []optionItemResponse{},
		}
		for _, oi := range optionItems {
			optResp.Items = append(optResp.Items, optionItemResponse{
				ID:         oi.ID,
				Name:       oi.Name,
				ExtraPrice: numericToString(oi.ExtraPrice),
			})
		}
		resp.Options = append(resp.Options, optResp)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toMenuItemResponse(item database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description.String,
		Price:       numericToString(item.Price),
		ImageURL:    item.ImageURL.String,
	}
}
