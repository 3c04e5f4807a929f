package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/event"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/shopapi"
)

// --- Mock ShopAPI ---

type mockShopAPI struct {
	mock.Mock
}

func (m *mockShopAPI) Login(ctx context.Context, username, password string) (shopapi.LoginResult, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(shopapi.LoginResult), args.Error(1)
}

func (m *mockShopAPI) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockShopAPI) Cart(ctx context.Context, token, profileID string) (domain.Cart, error) {
	args := m.Called(ctx, token, profileID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockShopAPI) SelectLine(ctx context.Context, token, lineID string, selected bool) error {
	return m.Called(ctx, token, lineID, selected).Error(0)
}

func (m *mockShopAPI) UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error {
	return m.Called(ctx, token, lineID, quantity).Error(0)
}

func (m *mockShopAPI) DeleteLine(ctx context.Context, token, lineID string) error {
	return m.Called(ctx, token, lineID).Error(0)
}

func (m *mockShopAPI) Products(ctx context.Context, token string) ([]domain.Product, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockShopAPI) Suppliers(ctx context.Context, token string) ([]domain.Supplier, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Supplier), args.Error(1)
}

func (m *mockShopAPI) ActiveFlashSales(ctx context.Context, token string) ([]domain.FlashSale, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlashSale), args.Error(1)
}

// --- Mock ReferenceCache ---

type mockReferenceCache struct {
	mock.Mock
}

func (m *mockReferenceCache) Products(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockReferenceCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return m.Called(ctx, products).Error(0)
}

func (m *mockReferenceCache) Suppliers(ctx context.Context) ([]domain.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Supplier), args.Error(1)
}

func (m *mockReferenceCache) SetSuppliers(ctx context.Context, suppliers []domain.Supplier) error {
	return m.Called(ctx, suppliers).Error(0)
}

func (m *mockReferenceCache) FlashSales(ctx context.Context) ([]domain.FlashSale, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlashSale), args.Error(1)
}

func (m *mockReferenceCache) SetFlashSales(ctx context.Context, sales []domain.FlashSale) error {
	return m.Called(ctx, sales).Error(0)
}

func (m *mockReferenceCache) Invalidate(ctx context.Context, kinds ...repository.RefKind) error {
	return m.Called(ctx, kinds).Error(0)
}

// --- Mock SessionRepository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Save(ctx context.Context, sess *domain.Session) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishLineSelected(ctx context.Context, data event.CartLineData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEvents) PublishQuantityChanged(ctx context.Context, data event.CartLineData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEvents) PublishLineRemoved(ctx context.Context, data event.CartLineData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEvents) PublishAllSelected(ctx context.Context, data event.CartAllSelectedData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEvents) PublishSessionStarted(ctx context.Context, data event.SessionData) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockEvents) PublishSessionEnded(ctx context.Context, data event.SessionData) error {
	return m.Called(ctx, data).Error(0)
}

// --- Mock ViewForgetter ---

type mockForgetter struct {
	mock.Mock
}

func (m *mockForgetter) Forget(sessionID string) {
	m.Called(sessionID)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
