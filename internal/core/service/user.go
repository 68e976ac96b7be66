package service

import (
	"context"
	"log/slog"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
)

type UserService struct {
	repo          port.UserRepository
	notifications port.NotificationDispatcher
}

func NewUserService(repo port.UserRepository, notifications port.NotificationDispatcher) *UserService {
	return &UserService{repo, notifications}
}

func (us *UserService) ListPending(ctx context.Context) ([]domain.User, error) {
	return us.repo.FindByStatus(ctx, domain.UserPending)
}

func (us *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	return us.repo.FindAll(ctx)
}

// Approve activates the account. Approving an active account is a no-op.
func (us *UserService) Approve(ctx context.Context, id int) (domain.User, error) {
	user, err := us.repo.FindByID(ctx, id)

	if err != nil {
		return domain.User{}, err
	}

	return us.activate(ctx, user)
}

func (us *UserService) ApproveByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := us.repo.FindByUsername(ctx, username)

	if err != nil {
		return domain.User{}, err
	}

	return us.activate(ctx, user)
}

func (us *UserService) activate(ctx context.Context, user domain.User) (domain.User, error) {
	if user.IsActive() {
		return user, nil
	}

	if err := us.repo.UpdateStatus(ctx, user.ID, domain.UserActive); err != nil {
		return domain.User{}, err
	}

	slog.Info("User#Approve", "username", user.Username)

	return us.repo.FindByID(ctx, user.ID)
}

// Delete removes the account and its push subscriptions. The user's todos
// stay behind and are skipped by the reminder sweep.
func (us *UserService) Delete(ctx context.Context, id int) error {
	user, err := us.repo.FindByID(ctx, id)

	if err != nil {
		return err
	}

	if err := us.notifications.RemoveAll(ctx, user.ID); err != nil {
		return err
	}

	if err := us.repo.DeleteByID(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("User#Delete", "username", user.Username)

	return nil
}
