package shopapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

// envelope wraps every API response.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token     string `json:"token"`
	ProfileID ID     `json:"profileId"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type selectedRequest struct {
	Selected bool `json:"selected"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartDTO struct {
	ID         ID              `json:"id"`
	ProfileID  ID              `json:"profileId"`
	CartItems  []cartItemDTO   `json:"cartItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type cartItemDTO struct {
	ID               ID              `json:"id"`
	Price            decimal.Decimal `json:"price"`
	ProductID        ID              `json:"productId"`
	ProductVariantID ID              `json:"productVariantId"`
	SupplierID       ID              `json:"supplierId"`
	Quantity         int             `json:"quantity"`
	Selected         bool            `json:"selected"`
}

func (c cartDTO) toDomain() domain.Cart {
	cart := domain.Cart{
		ID:         c.ID.String(),
		ProfileID:  c.ProfileID.String(),
		Lines:      make([]domain.CartLine, 0, len(c.CartItems)),
		TotalPrice: domain.MoneyFromDecimal(c.TotalPrice),
	}
	for _, it := range c.CartItems {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:         it.ID.String(),
			ProductID:  it.ProductID.String(),
			VariantID:  it.ProductVariantID.String(),
			SupplierID: it.SupplierID.String(),
			Price:      domain.MoneyFromDecimal(it.Price),
			Quantity:   it.Quantity,
			Selected:   it.Selected,
		})
	}
	return cart
}

type productDTO struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Category *struct {
		Name string `json:"name"`
	} `json:"category"`
	Supplier *struct {
		ID ID `json:"id"`
	} `json:"supplier"`
	Variants []variantDTO `json:"variants"`
}

type variantDTO struct {
	ID                ID              `json:"id"`
	Color             string          `json:"color"`
	Size              string          `json:"size"`
	Price             decimal.Decimal `json:"price"`
	ImageURL          string          `json:"imageUrl"`
	AvailableQuantity *int            `json:"availableQuantity"`
}

func (p productDTO) toDomain() domain.Product {
	prod := domain.Product{
		ID:       p.ID.String(),
		Name:     p.Name,
		ImageURL: p.ImageURL,
		Variants: make([]domain.Variant, 0, len(p.Variants)),
	}
	if p.Category != nil {
		prod.CategoryName = p.Category.Name
	}
	if p.Supplier != nil {
		prod.SupplierID = p.Supplier.ID.String()
	}
	for _, v := range p.Variants {
		available := domain.UnknownQuantity
		if v.AvailableQuantity != nil {
			available = *v.AvailableQuantity
		}
		prod.Variants = append(prod.Variants, domain.Variant{
			ID:                v.ID.String(),
			ProductID:         prod.ID,
			Color:             v.Color,
			Size:              v.Size,
			Price:             domain.MoneyFromDecimal(v.Price),
			ImageURL:          v.ImageURL,
			AvailableQuantity: available,
		})
	}
	return prod
}

type supplierDTO struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type flashSaleDTO struct {
	ID             ID                 `json:"id"`
	Name           string             `json:"name"`
	FlashSaleItems []flashSaleItemDTO `json:"flashSaleItems"`
}

type flashSaleItemDTO struct {
	ProductID        ID              `json:"productId"`
	ProductVariantID ID              `json:"productVariantId"`
	OriginalPrice    decimal.Decimal `json:"originalPrice"`
	FlashSalePrice   decimal.Decimal `json:"flashSalePrice"`
	DiscountType     string          `json:"discountType"`
	DiscountValue    decimal.Decimal `json:"discountValue"`
	TotalQuantity    int             `json:"totalQuantity"`
	SoldQuantity     int             `json:"soldQuantity"`
}

func (f flashSaleDTO) toDomain() domain.FlashSale {
	sale := domain.FlashSale{
		ID:    f.ID.String(),
		Name:  f.Name,
		Items: make([]domain.Offer, 0, len(f.FlashSaleItems)),
	}
	for _, it := range f.FlashSaleItems {
		sale.Items = append(sale.Items, domain.Offer{
			FlashSaleID:    sale.ID,
			ProductID:      it.ProductID.String(),
			VariantID:      it.ProductVariantID.String(),
			DiscountType:   domain.DiscountType(it.DiscountType),
			DiscountValue:  it.DiscountValue,
			OriginalPrice:  domain.MoneyFromDecimal(it.OriginalPrice),
			FlashSalePrice: domain.MoneyFromDecimal(it.FlashSalePrice),
			TotalQuantity:  it.TotalQuantity,
			SoldQuantity:   it.SoldQuantity,
		})
	}
	return sale
}
