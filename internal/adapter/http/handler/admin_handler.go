package handler

import (
	"net/http"
	"strconv"

	. "todotracker/internal/adapter/http/helper"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	"todotracker/pkg/auth"
	"todotracker/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	svc    port.UserService
	Logger *config.LokiLogger
}

func NewAdminHandler(svc port.UserService, logger *config.LokiLogger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		Logger: logger,
	}
}

func (h *AdminHandler) PendingUsers(c *gin.Context) {
	users, err := h.svc.ListPending(c.Request.Context())

	if err != nil {
		SendDomainError(c, err, "users")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewUserListResponse(users))
}

func (h *AdminHandler) AllUsers(c *gin.Context) {
	users, err := h.svc.ListAll(c.Request.Context())

	if err != nil {
		SendDomainError(c, err, "users")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewUserListResponse(users))
}

func (h *AdminHandler) ApproveUser(c *gin.Context) {
	id, ok := userID(c)

	if !ok {
		return
	}

	user, err := h.svc.Approve(c.Request.Context(), id)

	if err != nil {
		SendDomainError(c, err, "id")
		return
	}

	h.audit(c, "User approved", user.Username)

	SendSuccess(c, http.StatusOK, response.NewUserResponse(user), "User approved successfully")
}

func (h *AdminHandler) ApproveByUsername(c *gin.Context) {
	user, err := h.svc.ApproveByUsername(c.Request.Context(), c.Param("username"))

	if err != nil {
		SendDomainError(c, err, "username")
		return
	}

	h.audit(c, "User approved", user.Username)

	SendSuccess(c, http.StatusOK, response.NewUserResponse(user), "User approved successfully")
}

// DeleteUser removes the account and its push subscriptions. Its todos stay
// in place under the username.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)

	if !ok {
		return
	}

	if id == c.GetInt(auth.ContextUserID) {
		SendBadRequestError(c, "id", "Admins cannot delete their own account")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		SendDomainError(c, err, "id")
		return
	}

	h.audit(c, "User deleted", strconv.Itoa(id))

	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) audit(c *gin.Context, msg string, target string) {
	h.Logger.InfoWithTrace(c.Request.Context(), msg,
		zap.String("admin", c.GetString(auth.ContextUsername)),
		zap.String("target", target))
}

func userID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))

	if err != nil || id <= 0 {
		SendBadRequestError(c, "id", "Invalid user id")
		return 0, false
	}

	return id, true
}
