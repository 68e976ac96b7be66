package port

import (
	"context"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
)

type AuthService interface {
	Registration(ctx context.Context, req *request.SignUpRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error)
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}
