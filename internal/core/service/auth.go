package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/port"
	"todotracker/internal/core/util"
)

type AuthService struct {
	repo port.UserRepository
}

func NewAuthService(repo port.UserRepository) *AuthService {
	return &AuthService{repo}
}

// Registration creates the account as PENDING. It cannot log in until an
// administrator approves it.
func (us *AuthService) Registration(ctx context.Context, req *request.SignUpRequest) (*domain.User, error) {
	username := strings.TrimSpace(req.Username)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}

	_, err := us.repo.FindByUsername(ctx, username)

	if err == nil {
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	encrypted, err := util.GenerateEncrypt(req.Password)

	if err != nil {
		return nil, fmt.Errorf("error creating encrypted password: %w", err)
	}

	savedUser, err := us.repo.Create(ctx, domain.User{
		UUID:              uuid.New(),
		Username:          username,
		EncryptedPassword: encrypted,
		Role:              domain.RoleUser,
		Status:            domain.UserPending,
	})

	if err != nil {
		return nil, err
	}

	slog.Info("Auth#Registration", "username", savedUser.Username, "status", savedUser.Status)

	return &savedUser, nil
}

func (us *AuthService) Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error) {
	user, err := us.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}

	if err != nil {
		slog.Error("Auth#Authenticate", "find_by_username", err)
		return nil, err
	}

	if err := util.ComparePassword(req.Password, user.EncryptedPassword); err != nil {
		slog.Warn("Auth#Authenticate", "compare_password", err, "username", user.Username)
		return nil, domain.ErrUnauthorized
	}

	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}

	slog.Info("Auth#Authenticate", "username", user.Username)

	return &user, nil
}

func (us *AuthService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	user, err := us.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))

	if err != nil {
		return err
	}

	encrypted, err := util.GenerateEncrypt(req.NewPassword)

	if err != nil {
		return fmt.Errorf("error creating encrypted password: %w", err)
	}

	if err := us.repo.UpdatePassword(ctx, user.ID, encrypted); err != nil {
		return err
	}

	slog.Info("Auth#ResetPassword", "username", user.Username)

	return nil
}
