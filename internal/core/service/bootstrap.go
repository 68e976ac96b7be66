package service

import (
	"context"
	"errors"
	"log/slog"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/port"
	"todotracker/internal/core/util"
)

// SeedAdmin makes sure an active administrator called username exists. It is
// safe to run on every start; an existing account is left as it is.
func SeedAdmin(ctx context.Context, repo port.UserRepository, username string, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := repo.FindByUsername(ctx, username)

	if err == nil {
		return nil
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	encrypted, err := util.GenerateEncrypt(password)

	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, domain.User{
		Username:          username,
		EncryptedPassword: encrypted,
		Role:              domain.RoleAdmin,
		Status:            domain.UserActive,
	})

	if errors.Is(err, domain.ErrConflict) {
		return nil
	}

	if err != nil {
		return err
	}

	slog.Info("Bootstrap#SeedAdmin", "username", username)

	return nil
}
