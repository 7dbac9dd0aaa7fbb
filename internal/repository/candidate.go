package repository

import (
	"context"
	"errors"

	"popballoons/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")
)

// CandidateRepository defines persistence operations for Candidate profiles.
type CandidateRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, candidate *domain.Candidate) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Candidate, error)
	GetByWaxAccount(ctx context.Context, account string) (*domain.Candidate, error)
	UpdateEntitlements(ctx context.Context, id int64, subscribed, adFree bool) error
}
