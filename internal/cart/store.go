package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/morningcafe/ordering-api/internal/catalog"
	"github.com/morningcafe/ordering-api/internal/session"
)

// ErrItemNotFound is returned when an add references a menu item that no
// longer exists or is unavailable.
var ErrItemNotFound = errors.New("cart: menu item not found")

// Store persists carts in the session store, one serialized cart per
// session. Every mutation is a full read-modify-write of the blob;
// concurrent requests from the same session are last-write-wins, which is
// accepted for the single-active-tab case.
type Store struct {
	sessions session.Store
	catalog  catalog.Provider
}

func NewStore(sessions session.Store, cat catalog.Provider) *Store {
	return &Store{sessions: sessions, catalog: cat}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Load returns the session's cart, empty when none has been saved yet.
func (s *Store) Load(ctx context.Context, sessionID string) (Cart, error) {
	data, err := s.sessions.Get(ctx, cartKey(sessionID))
	if errors.Is(err, session.ErrNotFound) {
		return Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (s *Store) save(ctx context.Context, sessionID string, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.sessions.Set(ctx, cartKey(sessionID), data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddLine merges into an existing line with the same merge identity, or
// appends a new line with quantity 1, snapshotting name, unit price and
// image from the catalog.
func (s *Store) AddLine(ctx context.Context, sessionID string, menuItemID int64, optionItemIDs []int64) (Cart, error) {
	ids := NormalizeOptionIDs(optionItemIDs)

	item, err := s.catalog.MenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("lookup menu item %d: %w", menuItemID, err)
	}

	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	key := LineKey(menuItemID, ids)
	if i := c.indexOf(key); i >= 0 {
		c[i].Quantity++
	} else {
		c = append(c, Line{
			MenuItemID:    menuItemID,
			Name:          item.Name,
			UnitPrice:     item.Price,
			Quantity:      1,
			ImageURL:      item.ImageURL,
			OptionItemIDs: ids,
			OptionSummary: s.optionSummary(ctx, ids),
		})
	}

	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Decrement lowers the addressed line's quantity by one, removing it at
// zero. A missing line is a no-op, not an error.
func (s *Store) Decrement(ctx context.Context, sessionID, lineKey string) (Cart, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := c.indexOf(lineKey)
	if i < 0 {
		return c, nil
	}

	c[i].Quantity--
	if c[i].Quantity <= 0 {
		c = append(c[:i], c[i+1:]...)
	}

	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes the addressed line unconditionally; no-op when absent.
func (s *Store) Remove(ctx context.Context, sessionID, lineKey string) (Cart, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := c.indexOf(lineKey)
	if i < 0 {
		return c, nil
	}
	c = append(c[:i], c[i+1:]...)

	if err := s.save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties the session's cart. Used after a successful checkout.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// optionSummary joins the selected options' names in id order. Unresolved
// ids are skipped; the summary is display-only.
func (s *Store) optionSummary(ctx context.Context, ids []int64) string {
	var names []string
	for _, id := range ids {
		opt, err := s.catalog.OptionItem(ctx, id)
		if err != nil {
			continue
		}
		names = append(names, opt.Name)
	}
	return strings.Join(names, ", ")
}
