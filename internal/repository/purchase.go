package repository

import (
	"context"

	"popballoons/internal/domain"
)

// PurchaseRepository records successful payments.
type PurchaseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, purchase *domain.Purchase) (int64, error)
	ListByAccount(ctx context.Context, account string) ([]domain.Purchase, error)
}
