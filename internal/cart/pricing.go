package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/morningcafe/ordering-api/internal/catalog"
	"github.com/shopspring/decimal"
)

// Pricer derives cart view prices from snapshotted unit prices plus
// current option extras. Checkout runs the same arithmetic over its own
// option snapshot, so the view total and the persisted total agree.
type Pricer struct {
	catalog catalog.Provider
}

func NewPricer(cat catalog.Provider) *Pricer {
	return &Pricer{catalog: cat}
}

// UnitExtra sums the extra prices of the line's selected options. An option
// id that no longer resolves contributes zero — a deleted option must not
// break an existing cart.
func (p *Pricer) UnitExtra(ctx context.Context, line Line) (decimal.Decimal, error) {
	extra := decimal.Zero
	for _, id := range line.OptionItemIDs {
		opt, err := p.catalog.OptionItem(ctx, id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return decimal.Zero, fmt.Errorf("lookup option item %d: %w", id, err)
		}
		extra = extra.Add(opt.ExtraPrice)
	}
	return extra, nil
}

// LineTotal is (unit price + option extras) * quantity.
func (p *Pricer) LineTotal(ctx context.Context, line Line) (decimal.Decimal, error) {
	extra, err := p.UnitExtra(ctx, line)
	if err != nil {
		return decimal.Zero, err
	}
	return line.UnitPrice.Add(extra).Mul(decimal.NewFromInt32(line.Quantity)), nil
}

// CartTotal sums LineTotal over all lines.
func (p *Pricer) CartTotal(ctx context.Context, c Cart) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range c {
		lt, err := p.LineTotal(ctx, line)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lt)
	}
	return total, nil
}
