package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// webhookの種別（Stripe以外の呼び出し元はない前提）
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// 検証済みwebhookから取り出す、照合に必要な最小限の情報。
type WebhookEvent struct {
	Type       string
	SessionID  string
	PaymentRef string
	OrderID    string
}

// 署名を検証してイベントを取り出す。検証失敗なら何も返さない。
// rawBodyは加工前のリクエストボディでなければならない。
func VerifyWebhook(rawBody []byte, signatureHeader string, secret string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(rawBody, signatureHeader, secret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("webhook signature: %w", err)
	}

	out := WebhookEvent{Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return WebhookEvent{}, fmt.Errorf("webhook payload: %w", err)
		}
		out.SessionID = sess.ID
		if sess.PaymentIntent != nil {
			out.PaymentRef = sess.PaymentIntent.ID
		}
		if sess.Metadata != nil {
			out.OrderID = sess.Metadata["order_id"]
		}
	}

	return out, nil
}
