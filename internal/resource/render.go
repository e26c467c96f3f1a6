package resource

import (
	"strings"
	"time"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/catalog"
)

const dateOnly = "2006-01-02"

// Badge tones.
const (
	ToneSuccess = "success"
	ToneWarning = "warning"
	ToneDanger  = "danger"
	ToneMuted   = "muted"
)

// Cell is a rendered table cell.
type Cell struct {
	Kind ColumnKind
	Text string
	// Tone colours badge and bool cells.
	Tone string
	// Src is the image URL of image cells.
	Src string
	// Was is the undiscounted price of a discount-price cell, empty when no
	// discount applies.
	Was string
}

// Render formats the column's value for rec as of now.
func (c Column) Render(rec backend.Record, now time.Time) Cell {
	cell := Cell{Kind: c.Kind}
	switch c.Kind {
	case KindMoney:
		if v, ok := rec.Float(c.Path); ok {
			cell.Text = catalog.FormatMoney(v)
		}
	case KindDate:
		if t, ok := catalog.ParseDate(rec.String(c.Path)); ok {
			cell.Text = t.Format("02 Jan 2006")
		}
	case KindDateTime:
		if t, ok := catalog.ParseDate(rec.String(c.Path)); ok {
			cell.Text = t.Format("02 Jan 2006 15:04")
		}
	case KindBadge:
		cell.Text = rec.String(c.Path)
		cell.Tone = Tone(cell.Text)
	case KindBool:
		if rec.Bool(c.Path) {
			cell.Text, cell.Tone = "Yes", ToneSuccess
		} else {
			cell.Text, cell.Tone = "No", ToneMuted
		}
	case KindImage:
		cell.Src = rec.String(c.Path)
	case KindDiscountPrice:
		price, ok := rec.Float(c.Path)
		if !ok {
			break
		}
		final := price
		if discountActive(rec, c.Discount, now) {
			value, _ := rec.Float(c.Discount.Value)
			final = catalog.DiscountedPrice(price, rec.String(c.Discount.Type), value)
		}
		cell.Text = catalog.FormatMoney(final)
		if final != price {
			cell.Was = catalog.FormatMoney(price)
		}
	case KindDiscountWindow:
		if rec.String(c.Discount.Start) == "" && rec.String(c.Discount.End) == "" && rec.String(c.Discount.Type) == "" {
			break
		}
		cell.Text = windowStatus(rec, c.Discount, now)
		cell.Tone = Tone(cell.Text)
	default:
		cell.Text = rec.String(c.Path)
	}
	return cell
}

// Tone maps a status word to a badge tone.
func Tone(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "create", "upload", "paid", "delivered", "received", "completed", "approved", "true", "yes":
		return ToneSuccess
	case "update", "pending", "processing", "shipped", "upcoming", "unpaid", "partial":
		return ToneWarning
	case "delete", "cancelled", "canceled", "expired", "failed", "refunded", "rejected", "inactive":
		return ToneDanger
	default:
		return ToneMuted
	}
}

func windowStatus(rec backend.Record, p *DiscountPaths, now time.Time) string {
	start, _ := catalog.ParseDate(rec.String(p.Start))
	raw := strings.TrimSpace(rec.String(p.End))
	end, ok := catalog.ParseDate(raw)
	if ok && len(raw) == len(dateOnly) {
		// A plain end date covers the whole day.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return catalog.WindowStatus(start, end, now)
}

// discountActive reports whether rec carries a discount whose window
// contains now.
func discountActive(rec backend.Record, p *DiscountPaths, now time.Time) bool {
	if rec.String(p.Type) == "" {
		return false
	}
	if v, ok := rec.Float(p.Value); !ok || v <= 0 {
		return false
	}
	return windowStatus(rec, p, now) == catalog.WindowActive
}
