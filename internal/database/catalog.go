package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	getMenuItemForCartSQL = `
		SELECT id, name, price, image_url
		FROM menu_items
		WHERE id = $1 AND is_available`

	getOptionItemForCartSQL = `
		SELECT id, name, extra_price
		FROM option_items
		WHERE id = $1`

	listCategoriesSQL = `
		SELECT id, name, sort_order
		FROM categories
		ORDER BY sort_order, name`

	listAvailableMenuItemsByCategorySQL = `
		SELECT id, category_id, name, description, price, image_url, sort_order, is_available
		FROM menu_items
		WHERE category_id = $1 AND is_available
		ORDER BY sort_order, name`

	getMenuItemSQL = `
		SELECT id, category_id, name, description, price, image_url, sort_order, is_available
		FROM menu_items
		WHERE id = $1`

	listOptionsForMenuItemSQL = `
		SELECT o.id, o.name, o.single_choice, o.sort_order
		FROM options o
		JOIN menu_item_options mio ON mio.option_id = o.id
		WHERE mio.menu_item_id = $1
		ORDER BY o.sort_order, o.name`

	listOptionItemsByOptionSQL = `
		SELECT id, option_id, name, extra_price
		FROM option_items
		WHERE option_id = $1
		ORDER BY id`
)

// MenuItemForCartRow carries the fields snapshotted into a cart line.
type MenuItemForCartRow struct {
	ID       int64
	Name     string
	Price    pgtype.Numeric
	ImageURL pgtype.Text
}

// OptionItemForCartRow carries the fields the pricing calculator reads.
type OptionItemForCartRow struct {
	ID         int64
	Name       string
	ExtraPrice pgtype.Numeric
}

func (q *Queries) GetMenuItemForCart(ctx context.Context, id int64) (MenuItemForCartRow, error) {
	var row MenuItemForCartRow
	err := q.db.QueryRow(ctx, getMenuItemForCartSQL, id).
		Scan(&row.ID, &row.Name, &row.Price, &row.ImageURL)
	return row, err
}

func (q *Queries) GetOptionItemForCart(ctx context.Context, id int64) (OptionItemForCartRow, error) {
	var row OptionItemForCartRow
	err := q.db.QueryRow(ctx, getOptionItemForCartSQL, id).
		Scan(&row.ID, &row.Name, &row.ExtraPrice)
	return row, err
}

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) ListAvailableMenuItemsByCategory(ctx context.Context, categoryID int64) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listAvailableMenuItemsByCategorySQL, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
			&m.ImageURL, &m.SortOrder, &m.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	var m MenuItem
	err := q.db.QueryRow(ctx, getMenuItemSQL, id).
		Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
			&m.ImageURL, &m.SortOrder, &m.IsAvailable)
	return m, err
}

func (q *Queries) ListOptionsForMenuItem(ctx context.Context, menuItemID int64) ([]Option, error) {
	rows, err := q.db.Query(ctx, listOptionsForMenuItemSQL, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Name, &o.SingleChoice, &o.SortOrder); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (q *Queries) ListOptionItemsByOption(ctx context.Context, optionID int64) ([]OptionItem, error) {
	rows, err := q.db.Query(ctx, listOptionItemsByOptionSQL, optionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OptionItem
	for rows.Next() {
		var it OptionItem
		if err := rows.Scan(&it.ID, &it.OptionID, &it.Name, &it.ExtraPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
