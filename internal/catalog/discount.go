// Package catalog holds the storefront pricing rules shared by the product
// and discount screens.
package catalog

import (
	"math"
	"strings"
	"time"
)

// Discount types as stored by the backend.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

// Window statuses of a discount or coupon validity period.
const (
	WindowUpcoming = "upcoming"
	WindowActive   = "active"
	WindowExpired  = "expired"
)

// DiscountedPrice applies a discount to price. PERCENTAGE subtracts value
// percent, FIXED subtracts value; any other type leaves the price unchanged.
// The result is never negative and is rounded to two decimals.
func DiscountedPrice(price float64, discountType string, value float64) float64 {
	out := price
	switch strings.ToUpper(strings.TrimSpace(discountType)) {
	case DiscountPercentage:
		out = price - price*value/100
	case DiscountFixed:
		out = price - value
	}
	return Round2(math.Max(out, 0))
}

// WindowStatus classifies now against the [start, end] validity window.
// A zero start or end is an open bound.
func WindowStatus(start, end, now time.Time) string {
	switch {
	case !start.IsZero() && now.Before(start):
		return WindowUpcoming
	case !end.IsZero() && now.After(end):
		return WindowExpired
	default:
		return WindowActive
	}
}

// ParseDate accepts the date layouts the backend emits: RFC 3339 timestamps
// and plain dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
