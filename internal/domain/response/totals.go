package response

// Totals holds the response-level monetary aggregates
type Totals struct {
	Subtotal      float64
	DiscountTotal float64
	TaxTotal      float64
	Total         float64
}

// ItemNet returns quantity*price minus discount, floored at zero
func ItemNet(it *Item) float64 {
	net := it.Quantity*it.UnitPrice - it.DiscountAmount
	if net < 0 {
		return 0
	}
	return net
}

// ItemLineTotal returns the net amount with tax applied
func ItemLineTotal(it *Item) float64 {
	return ItemNet(it) * (1 + it.TaxRate/100)
}

// ComputeTotals aggregates line items into response totals. The subtotal is
// the raw quantity*price sum, not the discounted net; discounts appear only
// in the discount total. This mirrors how the accounting side reads quotes.
func ComputeTotals(items []*Item) Totals {
	var t Totals
	for _, it := range items {
		net := ItemNet(it)
		t.Subtotal += it.Quantity * it.UnitPrice
		t.DiscountTotal += it.DiscountAmount
		t.TaxTotal += net * it.TaxRate / 100
	}

	t.Total = t.Subtotal - t.DiscountTotal + t.TaxTotal
	if t.Total < 0 {
		t.Total = 0
	}
	return t
}
