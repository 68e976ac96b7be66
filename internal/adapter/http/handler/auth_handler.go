package handler

import (
	"errors"
	"net/http"

	. "todotracker/internal/adapter/http/helper"
	. "todotracker/internal/adapter/http/validation"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	"todotracker/internal/core/util"
	"todotracker/pkg/auth"
	"todotracker/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc    port.AuthService
	jwt    *auth.JWT
	Logger *config.LokiLogger
}

func NewAuthHandler(svc port.AuthService, jwt *auth.JWT, logger *config.LokiLogger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		jwt:    jwt,
		Logger: logger,
	}
}

// Register creates a PENDING account that an admin has to approve before
// it can log in.
func (a *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.SignUpRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.Registration(ctx, &params)

	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			SendConflictError(c, "username", "Username already taken")
			return
		}

		SendDomainError(c, err, "registration")
		return
	}

	a.Logger.InfoWithTrace(ctx, "User registered", zap.String("username", user.Username))

	SendSuccess(c, http.StatusCreated, response.NewUserResponse(*user), "Registration received, waiting for approval")
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.LoginRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.Authenticate(ctx, &params)

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			SendForbiddenError(c, "Account is pending approval")
		case errors.Is(err, domain.ErrUnauthorized):
			SendUnauthorizedError(c, "Invalid username or password")
		default:
			SendDomainError(c, err, "auth")
		}
		return
	}

	token, err := a.jwt.CreateToken(user.ID, user.Username, string(user.Role))

	if err != nil {
		a.Logger.ErrorWithTrace(ctx, "Failed to generate access token", zap.Error(err))
		SendInternalError(c, "Failed to generate access token")
		return
	}

	SendSuccess(c, http.StatusOK, response.LoginResponse{
		Token:    token,
		Username: user.Username,
		Role:     string(user.Role),
	})
}

func (a *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.ResetPasswordRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := a.svc.ResetPassword(ctx, &params); err != nil {
		SendDomainError(c, err, "username")
		return
	}

	SendSuccess(c, http.StatusOK, nil, "Password updated")
}
