package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

// PlaceholderImageURL stands in for any image a lookup could not resolve.
const PlaceholderImageURL = "/images/placeholder-product.png"

// Catalog indexes reference data for line aggregation.
type Catalog struct {
	products  map[string]domain.Product
	variants  map[string]domain.Variant
	suppliers map[string]domain.Supplier
}

// NewCatalog indexes products, their variants and suppliers by ID. Later
// entries win on duplicate IDs.
func NewCatalog(products []domain.Product, suppliers []domain.Supplier) *Catalog {
	c := &Catalog{
		products:  make(map[string]domain.Product, len(products)),
		variants:  make(map[string]domain.Variant),
		suppliers: make(map[string]domain.Supplier, len(suppliers)),
	}
	for _, p := range products {
		c.products[p.ID] = p
		for _, v := range p.Variants {
			if v.ProductID == "" {
				v.ProductID = p.ID
			}
			c.variants[v.ID] = v
		}
	}
	for _, s := range suppliers {
		c.suppliers[s.ID] = s
	}
	return c
}

// Product looks up a product by ID.
func (c *Catalog) Product(id string) (domain.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// Variant looks up a variant by ID.
func (c *Catalog) Variant(id string) (domain.Variant, bool) {
	if id == "" {
		return domain.Variant{}, false
	}
	v, ok := c.variants[id]
	return v, ok
}

// Supplier looks up a supplier by ID.
func (c *Catalog) Supplier(id string) (domain.Supplier, bool) {
	s, ok := c.suppliers[id]
	return s, ok
}

// DisplayLine is the denormalized, render-ready projection of a cart line.
// It lives only in memory and is rebuilt whenever its inputs change.
type DisplayLine struct {
	domain.CartLine

	ProductName      string
	ProductImageURL  string
	CategoryName     string
	VariantColor     string
	VariantSize      string
	VariantImageURL  string
	SupplierName     string
	SupplierImageURL string

	// UnitPrice is the variant price, or the cart line price when the
	// variant could not be resolved.
	UnitPrice domain.Money

	// AvailableQuantity is domain.UnknownQuantity when stock is not known.
	AvailableQuantity int

	Offer           *domain.Offer
	DiscountedPrice domain.Money
	DiscountPercent decimal.Decimal
}

// HasOffer reports whether a promotional offer matched this line.
func (l DisplayLine) HasOffer() bool {
	return l.Offer != nil
}

// EffectivePrice is the unit price the customer pays.
func (l DisplayLine) EffectivePrice() domain.Money {
	if l.Offer != nil {
		return l.DiscountedPrice
	}
	return l.UnitPrice
}

// LineTotal is EffectivePrice times quantity.
func (l DisplayLine) LineTotal() domain.Money {
	return l.EffectivePrice().Times(l.Quantity)
}

// Savings is how much the offer takes off the whole line.
func (l DisplayLine) Savings() domain.Money {
	if l.Offer == nil {
		return 0
	}
	return (l.UnitPrice - l.DiscountedPrice).Times(l.Quantity)
}

// BuildLine denormalizes one cart line. Lookup misses fall back to empty
// fields and PlaceholderImageURL; they never fail the line.
func BuildLine(line domain.CartLine, catalog *Catalog, offers []domain.Offer) DisplayLine {
	dl := DisplayLine{
		CartLine:          line,
		ProductImageURL:   PlaceholderImageURL,
		VariantImageURL:   PlaceholderImageURL,
		SupplierImageURL:  PlaceholderImageURL,
		UnitPrice:         line.Price,
		AvailableQuantity: domain.UnknownQuantity,
	}

	product, ok := catalog.Product(line.ProductID)
	if ok {
		dl.ProductName = product.Name
		dl.CategoryName = product.CategoryName
		dl.ProductImageURL = orPlaceholder(product.ImageURL)
		dl.VariantImageURL = dl.ProductImageURL
		if dl.SupplierID == "" {
			dl.SupplierID = product.SupplierID
		}
	}

	if variant, ok := catalog.Variant(line.VariantID); ok {
		dl.VariantColor = variant.Color
		dl.VariantSize = variant.Size
		dl.UnitPrice = variant.Price
		dl.AvailableQuantity = variant.AvailableQuantity
		if variant.ImageURL != "" {
			dl.VariantImageURL = variant.ImageURL
		}
	}

	if supplier, ok := catalog.Supplier(dl.SupplierID); ok {
		dl.SupplierName = supplier.Name
		dl.SupplierImageURL = orPlaceholder(supplier.ImageURL)
	}

	if offer, ok := ResolveOffer(offers, line.ProductID, line.VariantID); ok {
		dl.Offer = &offer
		dl.DiscountedPrice = DiscountedPrice(dl.UnitPrice, offer)
		dl.DiscountPercent = DiscountPercent(dl.UnitPrice, offer)
	}

	return dl
}

// BuildLines denormalizes every cart line, preserving order.
func BuildLines(lines []domain.CartLine, catalog *Catalog, offers []domain.Offer) []DisplayLine {
	out := make([]DisplayLine, len(lines))
	for i, l := range lines {
		out[i] = BuildLine(l, catalog, offers)
	}
	return out
}

func orPlaceholder(url string) string {
	if url == "" {
		return PlaceholderImageURL
	}
	return url
}
