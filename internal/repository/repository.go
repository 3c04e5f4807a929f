package repository

import (
	"context"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
)

// SessionRepository defines the interface for session persistence operations.
type SessionRepository interface {
	// Get retrieves a session by its ID. A missing or expired session is
	// reported as apperrors.ErrNotFound.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// Save persists a session until its ExpiresAt.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes a session by its ID.
	Delete(ctx context.Context, sessionID string) error
}

// RefKind names one class of cached reference data.
type RefKind string

const (
	RefProducts   RefKind = "products"
	RefSuppliers  RefKind = "suppliers"
	RefFlashSales RefKind = "flash-sales"
)

// ReferenceCache holds catalog reference data shared by every session.
// Misses are reported as apperrors.ErrNotFound.
type ReferenceCache interface {
	Products(ctx context.Context) ([]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error

	Suppliers(ctx context.Context) ([]domain.Supplier, error)
	SetSuppliers(ctx context.Context, suppliers []domain.Supplier) error

	FlashSales(ctx context.Context) ([]domain.FlashSale, error)
	SetFlashSales(ctx context.Context, sales []domain.FlashSale) error

	// Invalidate drops the given kinds, or everything when none are given.
	Invalidate(ctx context.Context, kinds ...RefKind) error
}
