// Package cart holds the session-owned shopping cart: an ordered list of
// lines where each line is one (menu item, option-set) combination. Two
// additions merge into one line exactly when their option-id sets are equal,
// regardless of selection order.
package cart

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Line is one cart entry. Name, unit price and image are snapshotted from
// the catalog at add time so later catalog edits don't change the cart view.
type Line struct {
	MenuItemID    int64           `json:"menu_item_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int32           `json:"quantity"`
	ImageURL      string          `json:"image_url,omitempty"`
	OptionItemIDs []int64         `json:"option_item_ids"`
	OptionSummary string          `json:"option_summary,omitempty"`
}

// Cart preserves insertion order for display.
type Cart []Line

// Key returns the line's merge identity: menu item id plus the sorted
// option-id set. Used both for merging on add and for addressing lines in
// decrement/remove requests.
func (l Line) Key() string {
	return LineKey(l.MenuItemID, l.OptionItemIDs)
}

// LineKey builds a merge-identity key. ids are normalized first, so callers
// may pass them in any order.
func LineKey(menuItemID int64, optionItemIDs []int64) string {
	ids := NormalizeOptionIDs(optionItemIDs)
	var b strings.Builder
	b.WriteString(strconv.FormatInt(menuItemID, 10))
	for i, id := range ids {
		if i == 0 {
			b.WriteByte(':')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// NormalizeOptionIDs sorts and deduplicates the option-id set. Lines always
// store the normalized form, which makes set equality a plain slice compare.
func NormalizeOptionIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Count returns the total quantity across all lines.
func (c Cart) Count() int32 {
	var n int32
	for _, l := range c {
		n += l.Quantity
	}
	return n
}

func (c Cart) indexOf(key string) int {
	for i, l := range c {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
