package port

import (
	"context"

	"todotracker/internal/core/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UpdateStatus(ctx context.Context, id int, status domain.UserStatus) error
	UpdatePassword(ctx context.Context, id int, encryptedPassword string) error
	DeleteByID(ctx context.Context, id int) error
}

type UserService interface {
	ListPending(ctx context.Context) ([]domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	Approve(ctx context.Context, id int) (domain.User, error)
	ApproveByUsername(ctx context.Context, username string) (domain.User, error)
	Delete(ctx context.Context, id int) error
}
