package http

import (
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/cartview"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/format"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/pricing"
)

// --- Request DTOs ---

// SelectionRequest is the JSON body for selecting one line or every line.
type SelectionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

// QuantityRequest is the JSON body for changing a line quantity. Values
// below 1 are accepted and ignored.
type QuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Response DTOs ---

// CartResponse is the rendered cart. Amounts are whole đồng; the *_display
// fields are pre-formatted for the storefront.
type CartResponse struct {
	Groups  []GroupResponse `json:"groups"`
	Summary SummaryResponse `json:"summary"`
}

// GroupResponse is the lines of one supplier.
type GroupResponse struct {
	SupplierName     string         `json:"supplier_name"`
	SupplierImageURL string         `json:"supplier_image_url"`
	Lines            []LineResponse `json:"lines"`
}

// LineResponse is one rendered cart line.
type LineResponse struct {
	ID                string            `json:"id"`
	ProductID         string            `json:"product_id"`
	VariantID         string            `json:"variant_id,omitempty"`
	ProductName       string            `json:"product_name"`
	CategoryName      string            `json:"category_name"`
	ImageURL          string            `json:"image_url"`
	VariantLabel      string            `json:"variant_label,omitempty"`
	Selected          bool              `json:"selected"`
	Quantity          int               `json:"quantity"`
	QuantityDisplay   string            `json:"quantity_display"`
	AvailableQuantity *int              `json:"available_quantity"`
	UnitPrice         int64             `json:"unit_price"`
	UnitPriceDisplay  string            `json:"unit_price_display"`
	Price             int64             `json:"price"`
	PriceDisplay      string            `json:"price_display"`
	LineTotal         int64             `json:"line_total"`
	LineTotalDisplay  string            `json:"line_total_display"`
	Discount          *DiscountResponse `json:"discount,omitempty"`
}

// DiscountResponse describes the offer applied to a line.
type DiscountResponse struct {
	FlashSaleID string `json:"flash_sale_id"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Percent     string `json:"percent"`
	Badge       string `json:"badge"`
	Remaining   int    `json:"remaining"`
}

// SummaryResponse is the cart footer.
type SummaryResponse struct {
	Total            int64  `json:"total"`
	TotalDisplay     string `json:"total_display"`
	TotalLabel       string `json:"total_label"`
	Savings          int64  `json:"savings"`
	SavingsDisplay   string `json:"savings_display"`
	SelectedLines    int    `json:"selected_lines"`
	SelectedQuantity int    `json:"selected_quantity"`
	LineCount        int    `json:"line_count"`
	AllSelected      bool   `json:"all_selected"`
	SelectAllLabel   string `json:"select_all_label"`
}

func toCartResponse(snap cartview.Snapshot, f *format.Formatter) CartResponse {
	groups := make([]GroupResponse, len(snap.Groups))
	for i, g := range snap.Groups {
		lines := make([]LineResponse, len(g.Lines))
		for j, l := range g.Lines {
			lines[j] = toLineResponse(l, f)
		}
		groups[i] = GroupResponse{
			SupplierName:     g.SupplierName,
			SupplierImageURL: g.SupplierImageURL,
			Lines:            lines,
		}
	}

	s := snap.Summary
	return CartResponse{
		Groups: groups,
		Summary: SummaryResponse{
			Total:            int64(s.Total),
			TotalDisplay:     f.Currency(s.Total),
			TotalLabel:       f.TotalLabel(s.SelectedQuantity),
			Savings:          int64(s.Savings),
			SavingsDisplay:   f.Currency(s.Savings),
			SelectedLines:    s.SelectedLines,
			SelectedQuantity: s.SelectedQuantity,
			LineCount:        s.LineCount,
			AllSelected:      s.AllSelected,
			SelectAllLabel:   f.SelectAllLabel(s.LineCount),
		},
	}
}

func toLineResponse(l pricing.DisplayLine, f *format.Formatter) LineResponse {
	resp := LineResponse{
		ID:               l.ID,
		ProductID:        l.ProductID,
		VariantID:        l.VariantID,
		ProductName:      l.ProductName,
		CategoryName:     l.CategoryName,
		ImageURL:         l.VariantImageURL,
		VariantLabel:     f.VariantLabel(l.VariantColor, l.VariantSize),
		Selected:         l.Selected,
		Quantity:         l.Quantity,
		QuantityDisplay:  f.Quantity(l.Quantity),
		UnitPrice:        int64(l.UnitPrice),
		UnitPriceDisplay: f.Currency(l.UnitPrice),
		Price:            int64(l.EffectivePrice()),
		PriceDisplay:     f.Currency(l.EffectivePrice()),
		LineTotal:        int64(l.LineTotal()),
		LineTotalDisplay: f.Currency(l.LineTotal()),
	}
	if l.AvailableQuantity != domain.UnknownQuantity {
		q := l.AvailableQuantity
		resp.AvailableQuantity = &q
	}
	if l.HasOffer() {
		resp.Discount = &DiscountResponse{
			FlashSaleID: l.Offer.FlashSaleID,
			Type:        string(l.Offer.DiscountType),
			Value:       l.Offer.DiscountValue.String(),
			Percent:     l.DiscountPercent.String(),
			Badge:       f.DiscountBadge(l.DiscountPercent),
			Remaining:   l.Offer.Remaining(),
		}
	}
	return resp
}
