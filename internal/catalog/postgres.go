package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/shopspring/decimal"
)

// CatalogStore defines the database methods the provider needs.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	GetMenuItemForCart(ctx context.Context, id int64) (database.MenuItemForCartRow, error)
	GetOptionItemForCart(ctx context.Context, id int64) (database.OptionItemForCartRow, error)
}

// PostgresProvider reads snapshots straight from the catalog tables.
type PostgresProvider struct {
	store CatalogStore
}

func NewPostgresProvider(store CatalogStore) *PostgresProvider {
	return &PostgresProvider{store: store}
}

func (p *PostgresProvider) MenuItem(ctx context.Context, id int64) (MenuItemSnapshot, error) {
	row, err := p.store.GetMenuItemForCart(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItemSnapshot{}, ErrNotFound
		}
		return MenuItemSnapshot{}, err
	}
	snap := MenuItemSnapshot{
		ID:    row.ID,
		Name:  row.Name,
		Price: numericToDecimal(row.Price),
	}
	if row.ImageURL.Valid {
		snap.ImageURL = row.ImageURL.String
	}
	return snap, nil
}

func (p *PostgresProvider) OptionItem(ctx context.Context, id int64) (OptionItemSnapshot, error) {
	row, err := p.store.GetOptionItemForCart(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OptionItemSnapshot{}, ErrNotFound
		}
		return OptionItemSnapshot{}, err
	}
	return OptionItemSnapshot{
		ID:         row.ID,
		Name:       row.Name,
		ExtraPrice: numericToDecimal(row.ExtraPrice),
	}, nil
}

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
