package payments_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"shop/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v78"
)

const webhookSecret = "whsec_test"

// Stripeの署名方式どおりに t=...,v1=... を組み立てる
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedPayload() []byte {
	return []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "` + stripe.APIVersion + `",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_123",
				"object": "checkout.session",
				"payment_intent": "pi_9",
				"metadata": {"order_id": "42"}
			}
		}
	}`)
}

func TestVerifyWebhook_Valid(t *testing.T) {
	payload := completedPayload()
	header := signPayload(payload, webhookSecret, time.Now())

	ev, err := payments.VerifyWebhook(payload, header, webhookSecret)
	assert.NoError(t, err)
	assert.Equal(t, payments.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_123", ev.SessionID)
	assert.Equal(t, "pi_9", ev.PaymentRef)
	assert.Equal(t, "42", ev.OrderID)
}

func TestVerifyWebhook_WrongSecret(t *testing.T) {
	payload := completedPayload()
	header := signPayload(payload, "whsec_other", time.Now())

	_, err := payments.VerifyWebhook(payload, header, webhookSecret)
	assert.Error(t, err)
}

func TestVerifyWebhook_TamperedBody(t *testing.T) {
	payload := completedPayload()
	header := signPayload(payload, webhookSecret, time.Now())

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '

	_, err := payments.VerifyWebhook(tampered, header, webhookSecret)
	assert.Error(t, err)
}

func TestVerifyWebhook_StaleTimestamp(t *testing.T) {
	payload := completedPayload()
	header := signPayload(payload, webhookSecret, time.Now().Add(-time.Hour))

	_, err := payments.VerifyWebhook(payload, header, webhookSecret)
	assert.Error(t, err)
}

func TestVerifyWebhook_ExpiredEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"api_version": "` + stripe.APIVersion + `",
		"type": "checkout.session.expired",
		"data": {
			"object": {
				"id": "cs_456",
				"object": "checkout.session",
				"metadata": {"order_id": "7"}
			}
		}
	}`)
	header := signPayload(payload, webhookSecret, time.Now())

	ev, err := payments.VerifyWebhook(payload, header, webhookSecret)
	assert.NoError(t, err)
	assert.Equal(t, payments.EventCheckoutExpired, ev.Type)
	assert.Equal(t, "cs_456", ev.SessionID)
	assert.Equal(t, "", ev.PaymentRef)
	assert.Equal(t, "7", ev.OrderID)
}
