package domain

// CartLine is one row of the remote cart. VariantID is empty when the line
// does not reference a variant.
type CartLine struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
	SupplierID string `json:"supplier_id,omitempty"`
	Price      Money  `json:"price"`
	Quantity   int    `json:"quantity"`
	Selected   bool   `json:"selected"`
}

// HasVariant reports whether the line references a specific variant.
func (l CartLine) HasVariant() bool {
	return l.VariantID != ""
}

// Cart is the remote store's cart for one profile.
type Cart struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Lines      []CartLine `json:"lines"`
	TotalPrice Money      `json:"total_price"`
}

// FindLine returns the index of the line with the given ID, or -1.
func (c *Cart) FindLine(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, l := range c.Lines {
		count += l.Quantity
	}
	return count
}
