package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
)

const refKeyPrefix = "ref:"

var allKinds = []repository.RefKind{
	repository.RefProducts,
	repository.RefSuppliers,
	repository.RefFlashSales,
}

// ReferenceCache implements repository.ReferenceCache using Redis. Each kind
// is stored as one JSON blob.
type ReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReferenceCache creates a new Redis-backed reference cache. Flash sales
// use the same TTL as the catalog.
func NewReferenceCache(client *redis.Client, ttl time.Duration) *ReferenceCache {
	return &ReferenceCache{client: client, ttl: ttl}
}

func (c *ReferenceCache) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.get(ctx, repository.RefProducts, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReferenceCache) SetProducts(ctx context.Context, products []domain.Product) error {
	return c.set(ctx, repository.RefProducts, products)
}

func (c *ReferenceCache) Suppliers(ctx context.Context) ([]domain.Supplier, error) {
	var out []domain.Supplier
	if err := c.get(ctx, repository.RefSuppliers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReferenceCache) SetSuppliers(ctx context.Context, suppliers []domain.Supplier) error {
	return c.set(ctx, repository.RefSuppliers, suppliers)
}

func (c *ReferenceCache) FlashSales(ctx context.Context) ([]domain.FlashSale, error) {
	var out []domain.FlashSale
	if err := c.get(ctx, repository.RefFlashSales, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReferenceCache) SetFlashSales(ctx context.Context, sales []domain.FlashSale) error {
	return c.set(ctx, repository.RefFlashSales, sales)
}

// Invalidate deletes the given kinds, or all of them.
func (c *ReferenceCache) Invalidate(ctx context.Context, kinds ...repository.RefKind) error {
	if len(kinds) == 0 {
		kinds = allKinds
	}
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = refKeyPrefix + string(k)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del reference data: %w", err)
	}
	return nil
}

func (c *ReferenceCache) get(ctx context.Context, kind repository.RefKind, dst any) error {
	data, err := c.client.Get(ctx, refKeyPrefix+string(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.NotFound("cached reference data", string(kind))
		}
		return fmt.Errorf("redis get %s: %w", kind, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return nil
}

func (c *ReferenceCache) set(ctx context.Context, kind repository.RefKind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}

	if err := c.client.Set(ctx, refKeyPrefix+string(kind), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}
