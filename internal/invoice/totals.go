package invoice

import "github.com/shopspring/decimal"

// Recalculate derives every item amount and the invoice totals from the
// items and tax rate. Stored amounts are never trusted.
func (inv *Invoice) Recalculate() {
	sub := decimal.Zero

	for i := range inv.Items {
		inv.Items[i].Amount = inv.Items[i].Quantity.Mul(inv.Items[i].UnitPrice)
		sub = sub.Add(inv.Items[i].Amount)
	}

	inv.SubTotal = sub
	inv.TaxAmount = sub.Mul(inv.TaxRate).Shift(-2)
	inv.TotalAmount = sub.Add(inv.TaxAmount)
}
