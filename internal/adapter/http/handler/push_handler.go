package handler

import (
	"net/http"

	. "todotracker/internal/adapter/http/helper"
	. "todotracker/internal/adapter/http/validation"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/model/response"
	"todotracker/internal/core/port"
	"todotracker/internal/core/util"
	"todotracker/pkg/auth"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	notifications port.NotificationDispatcher
	publicKey     string
}

func NewPushHandler(notifications port.NotificationDispatcher, publicKey string) *PushHandler {
	return &PushHandler{
		notifications: notifications,
		publicKey:     publicKey,
	}
}

func (h *PushHandler) VapidPublicKey(c *gin.Context) {
	if h.publicKey == "" {
		SendError(c, http.StatusServiceUnavailable, "PUSH_DISABLED", []response.ValidationError{
			{Field: "push", Message: "Push notifications are not configured"},
		})
		return
	}

	SendSuccess(c, http.StatusOK, gin.H{"publicKey": h.publicKey})
}

func (h *PushHandler) Subscribe(c *gin.Context) {
	params, err := util.ParamsToMap[request.PushSubscriptionRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	sub, err := h.notifications.Subscribe(c.Request.Context(), c.GetInt(auth.ContextUserID), params)

	if err != nil {
		SendDomainError(c, err, "subscription")
		return
	}

	SendSuccess(c, http.StatusCreated, response.PushSubscriptionResponse{
		ID:        sub.ID,
		Endpoint:  sub.Endpoint,
		CreatedAt: sub.CreatedAt,
	})
}

func (h *PushHandler) Unsubscribe(c *gin.Context) {
	params, err := util.ParamsToMap[request.PushUnsubscribeRequest](c)

	if err != nil {
		SendBadRequestError(c, "request", "Invalid request parameters")
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	if err := h.notifications.Unsubscribe(c.Request.Context(), c.GetInt(auth.ContextUserID), params.Endpoint); err != nil {
		SendDomainError(c, err, "endpoint")
		return
	}

	SendSuccess(c, http.StatusOK, nil, "Unsubscribed")
}

func (h *PushHandler) Subscriptions(c *gin.Context) {
	subs, err := h.notifications.List(c.Request.Context(), c.GetInt(auth.ContextUserID))

	if err != nil {
		SendDomainError(c, err, "subscription")
		return
	}

	data := make([]response.PushSubscriptionResponse, 0, len(subs))

	for _, sub := range subs {
		data = append(data, response.PushSubscriptionResponse{
			ID:        sub.ID,
			Endpoint:  sub.Endpoint,
			CreatedAt: sub.CreatedAt,
		})
	}

	SendSuccess(c, http.StatusOK, data)
}

func (h *PushHandler) Status(c *gin.Context) {
	subs, err := h.notifications.List(c.Request.Context(), c.GetInt(auth.ContextUserID))

	if err != nil {
		SendDomainError(c, err, "subscription")
		return
	}

	SendSuccess(c, http.StatusOK, response.PushStatusResponse{
		Enabled:       h.notifications.Enabled(),
		Subscribed:    len(subs) > 0,
		Subscriptions: len(subs),
	})
}
