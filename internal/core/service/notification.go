package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
	"todotracker/internal/core/port"
	"todotracker/internal/core/telemetry"
)

const notificationIcon = "/logo192.png"

type notificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
}

// NotificationDispatcher fans a message out to every push subscription of a
// user. Without a transport it is inert.
type NotificationDispatcher struct {
	repo      port.PushSubscriptionRepository
	transport port.PushTransport
	metrics   *telemetry.AppMetrics
	logger    *zap.Logger
}

func NewNotificationDispatcher(repo port.PushSubscriptionRepository, transport port.PushTransport, metrics *telemetry.AppMetrics, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	if transport == nil {
		logger.Warn("Push notifications disabled: VAPID keys are not configured")
	}

	return &NotificationDispatcher{
		repo:      repo,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
	}
}

func (nd *NotificationDispatcher) Enabled() bool {
	return nd.transport != nil
}

// Dispatch never fails: delivery problems are logged per subscription and
// endpoints reported as gone are deleted.
func (nd *NotificationDispatcher) Dispatch(ctx context.Context, user domain.User, title string, body string) {
	if !nd.Enabled() {
		return
	}

	subs, err := nd.repo.FindByUserID(ctx, user.ID)

	if err != nil {
		nd.logger.Error("Failed to load push subscriptions",
			zap.Int("user_id", user.ID),
			zap.Error(err),
		)
		return
	}

	if len(subs) == 0 {
		nd.logger.Debug("No push subscriptions for user", zap.String("username", user.Username))
		return
	}

	payload, err := json.Marshal(notificationPayload{
		Title: title,
		Body:  body,
		Icon:  notificationIcon,
		Badge: notificationIcon,
	})

	if err != nil {
		nd.logger.Error("Failed to encode push payload", zap.Error(err))
		return
	}

	for _, sub := range subs {
		nd.deliver(ctx, user, sub, payload)
	}
}

func (nd *NotificationDispatcher) deliver(ctx context.Context, user domain.User, sub domain.PushSubscription, payload []byte) {
	status, err := nd.transport.Send(ctx, sub, payload)
	nd.metrics.RecordPushDelivery(ctx, status.String())

	switch status {
	case domain.DeliveryDelivered:
		nd.logger.Debug("Push notification delivered",
			zap.String("username", user.Username),
			zap.Int("subscription_id", sub.ID),
		)

	case domain.DeliveryPermanentFailure:
		nd.logger.Info("Removing expired push subscription",
			zap.String("username", user.Username),
			zap.Int("subscription_id", sub.ID),
			zap.Error(err),
		)

		if err := nd.repo.DeleteByID(ctx, sub.ID); err != nil {
			nd.logger.Error("Failed to remove push subscription",
				zap.Int("subscription_id", sub.ID),
				zap.Error(err),
			)
			return
		}

		nd.metrics.RecordSubscriptionPruned(ctx)

	default:
		nd.logger.Warn("Push notification failed",
			zap.String("username", user.Username),
			zap.Int("subscription_id", sub.ID),
			zap.Error(err),
		)
	}
}

// Subscribe stores the endpoint for the user. Repeating it for an endpoint
// that is already stored returns the existing subscription.
func (nd *NotificationDispatcher) Subscribe(ctx context.Context, userID int, req request.PushSubscriptionRequest) (domain.PushSubscription, error) {
	sub, err := nd.repo.Create(ctx, domain.PushSubscription{
		UserID:    userID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	})

	if err == nil {
		return sub, nil
	}

	if !errors.Is(err, domain.ErrConflict) {
		return domain.PushSubscription{}, err
	}

	subs, err := nd.repo.FindByUserID(ctx, userID)

	if err != nil {
		return domain.PushSubscription{}, err
	}

	for _, existing := range subs {
		if existing.Endpoint == req.Endpoint {
			return existing, nil
		}
	}

	return domain.PushSubscription{}, fmt.Errorf("push subscription for %s: %w", req.Endpoint, domain.ErrNotFound)
}

func (nd *NotificationDispatcher) Unsubscribe(ctx context.Context, userID int, endpoint string) error {
	removed, err := nd.repo.DeleteByUserAndEndpoint(ctx, userID, endpoint)

	if err != nil {
		return err
	}

	nd.logger.Debug("Push subscription removed",
		zap.Int("user_id", userID),
		zap.Int64("removed", removed),
	)

	return nil
}

func (nd *NotificationDispatcher) List(ctx context.Context, userID int) ([]domain.PushSubscription, error) {
	return nd.repo.FindByUserID(ctx, userID)
}

func (nd *NotificationDispatcher) HasActiveSubscription(ctx context.Context, userID int) (bool, error) {
	count, err := nd.repo.CountByUserID(ctx, userID)

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (nd *NotificationDispatcher) RemoveAll(ctx context.Context, userID int) error {
	_, err := nd.repo.DeleteByUserID(ctx, userID)
	return err
}
