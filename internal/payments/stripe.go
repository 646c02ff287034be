package payments

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Stripe Checkoutを使ったProvider実装。
type StripeProvider struct {
	sessions stripeSessionAPI
}

type StripeProviderConfig struct {
	APIKey string

	//テスト差し替え用
	Sessions stripeSessionAPI
}

func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	if cfg.Sessions != nil {
		return &StripeProvider{sessions: cfg.Sessions}, nil
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}

	sc := client.New(apiKey, nil)
	return &StripeProvider{sessions: sc.CheckoutSessions}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	//webhook側で注文を引けるようにorder_idを必ず残す
	params.Metadata = map[string]string{
		"order_id": strconv.FormatInt(req.OrderID, 10),
	}

	currency := strings.ToLower(req.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(qty),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	params.LineItems = lineItems

	sess, err := p.sessions.New(params)
	if err != nil {
		return CheckoutSession{}, err
	}

	out := CheckoutSession{
		ID:          sess.ID,
		RedirectURL: sess.URL,
	}
	if sess.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(sess.ExpiresAt, 0)
	}
	return out, nil
}

func (p *StripeProvider) LookupCheckoutSession(ctx context.Context, sessionID string) (SessionLookup, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.sessions.Get(sessionID, params)
	if err != nil {
		return SessionLookup{}, err
	}

	out := SessionLookup{
		ID:      sess.ID,
		Paid:    sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired: sess.Status == stripe.CheckoutSessionStatusExpired,
	}
	if sess.PaymentIntent != nil {
		out.PaymentRef = sess.PaymentIntent.ID
	}
	return out, nil
}
