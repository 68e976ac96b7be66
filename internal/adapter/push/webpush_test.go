package push_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"

	"todotracker/internal/adapter/push"
	"todotracker/internal/core/domain"
)

func browserSubscription(t *testing.T, endpoint string) domain.PushSubscription {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatal(err)
	}

	return domain.PushSubscription{
		ID:        1,
		Endpoint:  endpoint,
		P256dhKey: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		AuthKey:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func newTransport(t *testing.T) *push.WebPushTransport {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatal(err)
	}

	return push.NewWebPushTransport(push.Config{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subject:    "mailto:admin@example.com",
	})
}

func TestWebPushTransport_Send(t *testing.T) {
	RegisterTestingT(t)

	statuses := map[string]int{
		"/ok":    http.StatusCreated,
		"/gone":  http.StatusGone,
		"/busy":  http.StatusTooManyRequests,
		"/moved": http.StatusNotFound,
	}

	var authorization, encoding string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		encoding = r.Header.Get("Content-Encoding")
		w.WriteHeader(statuses[r.URL.Path])
	}))
	defer server.Close()

	transport := newTransport(t)
	payload := []byte(`{"title":"Todo Reminder","body":"Reminder: Pay rent"}`)

	cases := map[string]domain.DeliveryStatus{
		"/ok":    domain.DeliveryDelivered,
		"/gone":  domain.DeliveryPermanentFailure,
		"/moved": domain.DeliveryPermanentFailure,
		"/busy":  domain.DeliveryTransientFailure,
	}

	for path, expected := range cases {
		status, err := transport.Send(context.Background(), browserSubscription(t, server.URL+path), payload)

		assert.Equal(t, expected, status, path)

		if expected == domain.DeliveryDelivered {
			assert.NoError(t, err, path)
		} else {
			assert.Error(t, err, path)
		}
	}

	Expect(authorization).To(HavePrefix("vapid "))
	Expect(encoding).To(Equal("aes128gcm"))
}

func TestWebPushTransport_UnreachableEndpointIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	status, err := newTransport(t).Send(context.Background(), browserSubscription(t, endpoint), []byte("{}"))

	assert.Error(t, err)
	assert.Equal(t, domain.DeliveryTransientFailure, status)
}

func TestNewWebPushTransport_RequiresKeys(t *testing.T) {
	assert.Nil(t, push.NewWebPushTransport(push.Config{PublicKey: "only-public"}))
}

func TestClassify(t *testing.T) {
	status, err := push.Classify(http.StatusOK)
	assert.Equal(t, domain.DeliveryDelivered, status)
	assert.NoError(t, err)

	status, _ = push.Classify(http.StatusGone)
	assert.Equal(t, domain.DeliveryPermanentFailure, status)

	status, _ = push.Classify(http.StatusInternalServerError)
	assert.Equal(t, domain.DeliveryTransientFailure, status)
}
