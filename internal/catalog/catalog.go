// Package catalog exposes read-only snapshots of the menu to the cart and
// checkout layers. Lookups may be stale relative to live admin edits; the
// cart snapshots what it saw at add time and checkout snapshots extras at
// order time, so staleness never corrupts an order.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an id does not resolve to a live catalog row.
var ErrNotFound = errors.New("catalog: not found")

// MenuItemSnapshot is the slice of a menu item the cart snapshots on add.
type MenuItemSnapshot struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// OptionItemSnapshot is the slice of an option item pricing reads.
type OptionItemSnapshot struct {
	ID         int64
	Name       string
	ExtraPrice decimal.Decimal
}

// Provider resolves catalog ids. Implementations are read-only and
// side-effect free.
type Provider interface {
	MenuItem(ctx context.Context, id int64) (MenuItemSnapshot, error)
	OptionItem(ctx context.Context, id int64) (OptionItemSnapshot, error)
}
