package port

import (
	"context"

	"todotracker/internal/core/domain"
)

type TagRepository interface {
	// FindByName matches case-insensitively and returns domain.ErrNotFound
	// when no tag exists.
	FindByName(ctx context.Context, name string) (domain.Tag, error)
	// Create returns domain.ErrConflict when the name is already taken.
	Create(ctx context.Context, name string) (domain.Tag, error)
	Suggest(ctx context.Context, term string, limit int) ([]domain.Tag, error)
}

type TagResolver interface {
	Resolve(ctx context.Context, names []string) ([]domain.Tag, error)
	Suggest(ctx context.Context, search string) ([]string, error)
}
