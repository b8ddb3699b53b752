package pricing

import "github.com/shopspring/decimal"

// Item describes a line used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// EffectivePrice resolves the price a product sells at. A discount price,
// when present, wins over the base price.
func EffectivePrice(basePrice decimal.Decimal, discountPrice *decimal.Decimal) decimal.Decimal {
	if discountPrice != nil {
		return *discountPrice
	}
	return basePrice
}

// Compute calculates cart totals. Tax applies to the post-discount subtotal
// and shipping is added untaxed.
func Compute(items []Item, discount decimal.Decimal, taxRate decimal.Decimal, shipping decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(taxRate)
	total := taxable.Add(tax).Add(shipping)
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}
