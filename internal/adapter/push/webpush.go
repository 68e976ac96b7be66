package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"todotracker/internal/core/domain"
)

const defaultTTL = 24 * 60 * 60

type Config struct {
	PublicKey  string
	PrivateKey string
	// Subject is the contact the push service can reach, a mailto: or https: URL.
	Subject    string
	TTL        int
	HTTPClient *http.Client
}

// WebPushTransport delivers VAPID-signed, encrypted payloads to browser push
// services.
type WebPushTransport struct {
	config Config
}

// NewWebPushTransport returns nil when the VAPID key pair is incomplete, which
// leaves the dispatcher inert.
func NewWebPushTransport(config Config) *WebPushTransport {
	if config.PublicKey == "" || config.PrivateKey == "" {
		return nil
	}

	if config.TTL <= 0 {
		config.TTL = defaultTTL
	}

	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &WebPushTransport{config: config}
}

func (t *WebPushTransport) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) (domain.DeliveryStatus, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      t.config.HTTPClient,
		Subscriber:      t.config.Subject,
		VAPIDPublicKey:  t.config.PublicKey,
		VAPIDPrivateKey: t.config.PrivateKey,
		TTL:             t.config.TTL,
	})

	if err != nil {
		return domain.DeliveryTransientFailure, err
	}

	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return Classify(resp.StatusCode)
}

// Classify maps a push service response code to a delivery status. 404 and
// 410 mean the subscription expired or was revoked.
func Classify(statusCode int) (domain.DeliveryStatus, error) {
	switch {
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return domain.DeliveryPermanentFailure, fmt.Errorf("push endpoint gone: status %d", statusCode)
	case statusCode >= http.StatusBadRequest:
		return domain.DeliveryTransientFailure, fmt.Errorf("push service returned status %d", statusCode)
	default:
		return domain.DeliveryDelivered, nil
	}
}
