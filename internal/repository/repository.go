package repository

import (
	"context"

	"netdrift/internal/domain"
)

// Intents is the data access contract for intent records
type Intents interface {
	Get(ctx context.Context, id string) (*domain.Intent, error)
	GetByFilter(ctx context.Context, query domain.IntentQuery) (*domain.Intent, error)
	GetMulti(ctx context.Context, skip, limit int, query domain.IntentQuery) ([]domain.Intent, error)
	Create(ctx context.Context, intent *domain.Intent) (*domain.Intent, error)
	Update(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error)
	Delete(ctx context.Context, id string) error
}

// Groups is the data access contract for intent groups
type Groups interface {
	Get(ctx context.Context, id string) (*domain.IntentGroup, error)
	GetByLabel(ctx context.Context, label string) (*domain.IntentGroup, error)
	GetMulti(ctx context.Context, skip, limit int) ([]domain.IntentGroup, error)
	Create(ctx context.Context, group *domain.IntentGroup) (*domain.IntentGroup, error)
	Delete(ctx context.Context, id string) error
}

// Diffs is the data access contract for drift records. Diffs are
// append-only: there is no update.
type Diffs interface {
	Get(ctx context.Context, id string) (*domain.IntentDiff, error)
	GetMulti(ctx context.Context, skip, limit int, intentID string) ([]domain.IntentDiff, error)
	Create(ctx context.Context, diff *domain.IntentDiff) (*domain.IntentDiff, error)
	Delete(ctx context.Context, id string) error
}
