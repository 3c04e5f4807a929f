// Package format renders amounts and labels for the storefront in the
// display locale, Vietnamese by default.
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

// CurrencySymbol is appended to every rendered amount.
const CurrencySymbol = "₫"

// Formatter renders display strings for one locale.
type Formatter struct {
	p *message.Printer
}

// New creates a Formatter for the given BCP 47 tag. An unparsable tag falls
// back to Vietnamese.
func New(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Vietnamese
	}
	return &Formatter{p: message.NewPrinter(tag)}
}

// Vietnamese returns the default vi-VN formatter.
func Vietnamese() *Formatter {
	return &Formatter{p: message.NewPrinter(language.Vietnamese)}
}

// Currency renders m as "180.000 ₫".
func (f *Formatter) Currency(m domain.Money) string {
	return f.p.Sprintf("%d %s", int64(m), CurrencySymbol)
}

// DiscountBadge renders a discount percentage as "-10%". Fractional
// percentages keep one decimal place.
func (f *Formatter) DiscountBadge(pct decimal.Decimal) string {
	if pct.IsInteger() {
		return f.p.Sprintf("-%d%%", pct.IntPart())
	}
	return f.p.Sprintf("-%.1f%%", pct.InexactFloat64())
}

// Quantity renders a line quantity as "x2".
func (f *Formatter) Quantity(q int) string {
	return f.p.Sprintf("x%d", q)
}

// SelectAllLabel is the caption of the select-all checkbox.
func (f *Formatter) SelectAllLabel(lines int) string {
	return f.p.Sprintf("Chọn tất cả (%d)", lines)
}

// TotalLabel is the caption of the footer total.
func (f *Formatter) TotalLabel(selectedQuantity int) string {
	return f.p.Sprintf("Tổng thanh toán (%d sản phẩm)", selectedQuantity)
}

// VariantLabel joins color and size as "Đỏ, M", skipping empty parts.
func (f *Formatter) VariantLabel(color, size string) string {
	switch {
	case color != "" && size != "":
		return f.p.Sprintf("%s, %s", color, size)
	case color != "":
		return color
	default:
		return size
	}
}
