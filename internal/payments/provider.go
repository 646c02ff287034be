package payments

import (
	"context"
	"time"
)

// ホスト型決済セッションに載せる1明細。
type CheckoutLineItem struct {
	Name        string
	Quantity    int64
	AmountCents int64
}

// セッション作成に必要な入力。
type CheckoutSessionRequest struct {
	OrderID        int64
	CustomerEmail  string
	Currency       string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
	Items          []CheckoutLineItem
}

// プロバイダが返すセッション。
type CheckoutSession struct {
	ID          string
	RedirectURL string
	ExpiresAt   time.Time
}

// セッションの現況。クライアント起点のフォールバック照合で使う。
type SessionLookup struct {
	ID         string
	Paid       bool
	Expired    bool
	PaymentRef string
}

// ホスト型決済プロバイダの約束。
// 外部呼び出しはここだけで、DBトランザクションには参加できない。
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
	LookupCheckoutSession(ctx context.Context, sessionID string) (SessionLookup, error)
}
