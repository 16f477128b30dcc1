package invoice

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d rounded to two decimals with thousands separators,
// e.g. 1234.5 -> "1,234.50". The digits come straight from the decimal so
// large amounts stay exact.
func FormatAmount(d decimal.Decimal) string {
	r := d.Round(2)

	intPart, frac, _ := strings.Cut(r.Abs().StringFixed(2), ".")

	var b strings.Builder

	if r.IsNegative() {
		b.WriteByte('-')
	}

	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(c)
	}

	b.WriteByte('.')
	b.WriteString(frac)

	return b.String()
}

// FormatDate is the date layout used on documents and emails.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
