package invoice_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInvoice_Recalculate(t *testing.T) {
	tests := []struct {
		name      string
		items     [][2]string
		taxRate   string
		wantSub   string
		wantTax   string
		wantTotal string
	}{
		{
			name:      "SingleItemTenPercent",
			items:     [][2]string{{"2", "50"}},
			taxRate:   "10",
			wantSub:   "100",
			wantTax:   "10",
			wantTotal: "110",
		},
		{
			name:      "ZeroRate",
			items:     [][2]string{{"3", "19.99"}, {"1", "0.03"}},
			taxRate:   "0",
			wantSub:   "60",
			wantTax:   "0",
			wantTotal: "60",
		},
		{
			name:      "FullRateDoublesSubtotal",
			items:     [][2]string{{"1.5", "10"}},
			taxRate:   "100",
			wantSub:   "15",
			wantTax:   "15",
			wantTotal: "30",
		},
		{
			name:      "FractionalRate",
			items:     [][2]string{{"1", "200"}},
			taxRate:   "23.5",
			wantSub:   "200",
			wantTax:   "47",
			wantTotal: "247",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &invoice.Invoice{TaxRate: dec(tt.taxRate)}
			for _, it := range tt.items {
				inv.Items = append(inv.Items, invoice.Item{
					Quantity:  dec(it[0]),
					UnitPrice: dec(it[1]),
					Amount:    dec("999"),
				})
			}

			inv.Recalculate()

			assert.True(t, dec(tt.wantSub).Equal(inv.SubTotal), "subtotal %s", inv.SubTotal)
			assert.True(t, dec(tt.wantTax).Equal(inv.TaxAmount), "tax %s", inv.TaxAmount)
			assert.True(t, dec(tt.wantTotal).Equal(inv.TotalAmount), "total %s", inv.TotalAmount)

			sum := decimal.Zero
			for _, it := range inv.Items {
				assert.True(t, it.Quantity.Mul(it.UnitPrice).Equal(it.Amount))
				sum = sum.Add(it.Amount)
			}
			assert.True(t, sum.Equal(inv.SubTotal))
		})
	}
}

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		latest string
		want   string
	}{
		{name: "First", prefix: "INV", latest: "", want: "INV00001"},
		{name: "Increment", prefix: "INV", latest: "INV00041", want: "INV00042"},
		{name: "CustomPrefix", prefix: "ACME-", latest: "ACME-00009", want: "ACME-00010"},
		{name: "Unparsable", prefix: "INV", latest: "INVabc", want: "INV00001"},
		{name: "OtherPrefix", prefix: "INV", latest: "XYZ00007", want: "INV00001"},
		{name: "BeyondFiveDigits", prefix: "INV", latest: "INV99999", want: "INV100000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, invoice.NextNumber(tt.prefix, tt.latest))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Draft", "Sent", "Paid", "Overdue", "Cancelled"} {
		st, err := invoice.ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(st))
	}

	_, err := invoice.ParseStatus("draft")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestInvoice_Recipient(t *testing.T) {
	id := uuid.New()

	ref := &invoice.Invoice{
		ClientID:   &id,
		Client:     &invoice.BillTo{Name: "Live", Email: "live@example.com"},
		ClientName: "stale",
	}
	assert.Equal(t, "Live", ref.Recipient().Name)

	snap := &invoice.Invoice{ClientName: "Snap", ClientEmail: "snap@example.com", ClientAddress: "Street 1"}
	assert.Equal(t, invoice.BillTo{Name: "Snap", Email: "snap@example.com", Address: "Street 1"}, snap.Recipient())
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]struct {
		in   decimal.Decimal
		want string
	}{
		"Zero":                 {in: decimal.Zero, want: "0.00"},
		"RoundsHalfUp":         {in: dec("0.125"), want: "0.13"},
		"Thousands":            {in: dec("1234.5"), want: "1,234.50"},
		"CarriesIntoThousands": {in: dec("999.999"), want: "1,000.00"},
		"Millions":             {in: dec("1234567.89"), want: "1,234,567.89"},
		"BeyondFloat64":        {in: dec("12345678901234567890.05"), want: "12,345,678,901,234,567,890.05"},
		"Negative":             {in: dec("-1234.5"), want: "-1,234.50"},
		"NegativeRoundsToZero": {in: dec("-0.004"), want: "0.00"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, invoice.FormatAmount(tt.in))
		})
	}
}

func TestDate(t *testing.T) {
	in := time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), invoice.Date(in))
}
