package port

import (
	"context"

	"todotracker/internal/core/domain"
	"todotracker/internal/core/model/request"
)

type PushSubscriptionRepository interface {
	Create(ctx context.Context, sub domain.PushSubscription) (domain.PushSubscription, error)
	Exists(ctx context.Context, userID int, endpoint string) (bool, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.PushSubscription, error)
	CountByUserID(ctx context.Context, userID int) (int, error)
	DeleteByID(ctx context.Context, id int) error
	DeleteByUserAndEndpoint(ctx context.Context, userID int, endpoint string) (int64, error)
	DeleteByUserID(ctx context.Context, userID int) (int64, error)
}

// PushTransport hands an encrypted payload to a push service endpoint.
type PushTransport interface {
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (domain.DeliveryStatus, error)
}

type NotificationDispatcher interface {
	Enabled() bool
	Dispatch(ctx context.Context, user domain.User, title string, body string)
	Subscribe(ctx context.Context, userID int, req request.PushSubscriptionRequest) (domain.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID int, endpoint string) error
	List(ctx context.Context, userID int) ([]domain.PushSubscription, error)
	HasActiveSubscription(ctx context.Context, userID int) (bool, error)
	RemoveAll(ctx context.Context, userID int) error
}
