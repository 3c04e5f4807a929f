package domain

// UnknownQuantity marks a variant whose stock level the API did not report.
const UnknownQuantity = -1

// Product is read-only catalog reference data.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"image_url"`
	CategoryName string    `json:"category_name"`
	SupplierID   string    `json:"supplier_id"`
	Variants     []Variant `json:"variants"`
}

// Variant is a purchasable option of a product.
type Variant struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	Color             string `json:"color,omitempty"`
	Size              string `json:"size,omitempty"`
	Price             Money  `json:"price"`
	ImageURL          string `json:"image_url"`
	AvailableQuantity int    `json:"available_quantity"`
}

// StockKnown reports whether AvailableQuantity carries a real stock level.
func (v Variant) StockKnown() bool {
	return v.AvailableQuantity >= 0
}

// Supplier is the selling party of a product.
type Supplier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}
