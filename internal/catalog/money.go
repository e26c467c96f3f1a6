package catalog

import (
	"github.com/dustin/go-humanize"
)

// CurrencySymbol is the Bangladeshi taka sign used across the storefront.
const CurrencySymbol = "৳"

// moneyFormat groups thousands with commas and keeps two decimals.
const moneyFormat = "#,###.##"

// FormatMoney renders an amount as "৳1,234.50".
func FormatMoney(amount float64) string {
	amount = Round2(amount)
	if amount < 0 {
		return "-" + CurrencySymbol + humanize.FormatFloat(moneyFormat, -amount)
	}
	return CurrencySymbol + humanize.FormatFloat(moneyFormat, amount)
}
