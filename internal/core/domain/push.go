package domain

import "time"

type PushSubscription struct {
	ID        int
	UserID    int
	Endpoint  string
	P256dhKey string
	AuthKey   string
	CreatedAt time.Time
}

// DeliveryStatus is the outcome of handing one payload to one endpoint.
type DeliveryStatus int

const (
	DeliveryDelivered DeliveryStatus = iota
	// The endpoint is gone (404/410) and the subscription should be pruned.
	DeliveryPermanentFailure
	DeliveryTransientFailure
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryDelivered:
		return "delivered"
	case DeliveryPermanentFailure:
		return "permanent_failure"
	case DeliveryTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}
