// Package service implements the storefront use cases: the session lifecycle
// and the per-session cart view built from the shop API.
package service

import (
	"context"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/event"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/shopapi"
)

// ShopAPI is the remote store as the services use it. *shopapi.Client
// implements it.
type ShopAPI interface {
	Login(ctx context.Context, username, password string) (shopapi.LoginResult, error)
	Logout(ctx context.Context, token string) error

	Cart(ctx context.Context, token, profileID string) (domain.Cart, error)
	SelectLine(ctx context.Context, token, lineID string, selected bool) error
	UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error
	DeleteLine(ctx context.Context, token, lineID string) error

	Products(ctx context.Context, token string) ([]domain.Product, error)
	Suppliers(ctx context.Context, token string) ([]domain.Supplier, error)
	ActiveFlashSales(ctx context.Context, token string) ([]domain.FlashSale, error)
}

var _ ShopAPI = (*shopapi.Client)(nil)

// EventPublisher publishes storefront events. *event.Producer implements it.
type EventPublisher interface {
	PublishLineSelected(ctx context.Context, data event.CartLineData) error
	PublishQuantityChanged(ctx context.Context, data event.CartLineData) error
	PublishLineRemoved(ctx context.Context, data event.CartLineData) error
	PublishAllSelected(ctx context.Context, data event.CartAllSelectedData) error
	PublishSessionStarted(ctx context.Context, data event.SessionData) error
	PublishSessionEnded(ctx context.Context, data event.SessionData) error
}

var _ EventPublisher = (*event.Producer)(nil)

// tokenRemote binds cart item mutations to one session token.
type tokenRemote struct {
	api   ShopAPI
	token string
}

func (r tokenRemote) SelectLine(ctx context.Context, lineID string, selected bool) error {
	return r.api.SelectLine(ctx, r.token, lineID, selected)
}

func (r tokenRemote) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	return r.api.UpdateQuantity(ctx, r.token, lineID, quantity)
}

func (r tokenRemote) DeleteLine(ctx context.Context, lineID string) error {
	return r.api.DeleteLine(ctx, r.token, lineID)
}
