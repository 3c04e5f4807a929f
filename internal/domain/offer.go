package domain

import "github.com/shopspring/decimal"

// DiscountType selects how an offer's DiscountValue is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountAmount     DiscountType = "AMOUNT"
)

// Offer is one flash-sale item: a promotional discount on a product, or on
// one of its variants when VariantID is set.
type Offer struct {
	FlashSaleID    string          `json:"flash_sale_id"`
	ProductID      string          `json:"product_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	OriginalPrice  Money           `json:"original_price"`
	FlashSalePrice Money           `json:"flash_sale_price"`
	TotalQuantity  int             `json:"total_quantity"`
	SoldQuantity   int             `json:"sold_quantity"`
}

// AnyVariant reports whether the offer applies to every variant of its product.
func (o Offer) AnyVariant() bool {
	return o.VariantID == ""
}

// Remaining is the promotional stock left. It never affects pricing.
func (o Offer) Remaining() int {
	if r := o.TotalQuantity - o.SoldQuantity; r > 0 {
		return r
	}
	return 0
}

// FlashSale is an active promotional campaign.
type FlashSale struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Items []Offer `json:"items"`
}

// ActiveOffers flattens sales into one offer sequence, in sale order and then
// item order. Offer resolution is first-match over this sequence.
func ActiveOffers(sales []FlashSale) []Offer {
	n := 0
	for _, s := range sales {
		n += len(s.Items)
	}
	offers := make([]Offer, 0, n)
	for _, s := range sales {
		for _, item := range s.Items {
			if item.FlashSaleID == "" {
				item.FlashSaleID = s.ID
			}
			offers = append(offers, item)
		}
	}
	return offers
}
