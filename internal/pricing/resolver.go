// Package pricing derives render-ready cart lines and totals from the remote
// cart, the catalog and the active promotional offers. Everything here is
// pure and recomputed from scratch on each call.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ResolveOffer returns the first offer in offers that applies to the given
// product and variant. An offer applies when the product matches and either
// the line has no variant, the offer targets any variant, or both name the
// same variant. Overlapping offers are resolved purely by their order.
func ResolveOffer(offers []domain.Offer, productID, variantID string) (domain.Offer, bool) {
	for _, o := range offers {
		if o.ProductID != productID {
			continue
		}
		if variantID == "" || o.AnyVariant() || o.VariantID == variantID {
			return o, true
		}
	}
	return domain.Offer{}, false
}

// DiscountedPrice applies offer to unit price p, rounded to whole đồng.
// The result is not clamped: an AMOUNT discount larger than p yields a
// negative price. An unrecognized discount type leaves p unchanged.
func DiscountedPrice(p domain.Money, offer domain.Offer) domain.Money {
	switch offer.DiscountType {
	case domain.DiscountPercentage:
		factor := decimal.NewFromInt(1).Sub(offer.DiscountValue.Div(hundred))
		return domain.MoneyFromDecimal(p.Decimal().Mul(factor))
	case domain.DiscountAmount:
		return domain.MoneyFromDecimal(p.Decimal().Sub(offer.DiscountValue))
	default:
		return p
	}
}

// DiscountPercent is the percentage shown on the discount badge. AMOUNT
// offers are converted relative to p and rounded to a whole percent; p = 0
// yields 0.
func DiscountPercent(p domain.Money, offer domain.Offer) decimal.Decimal {
	switch offer.DiscountType {
	case domain.DiscountPercentage:
		return offer.DiscountValue
	case domain.DiscountAmount:
		if p == 0 {
			return decimal.Zero
		}
		return offer.DiscountValue.Div(p.Decimal()).Mul(hundred).Round(0)
	default:
		return decimal.Zero
	}
}
