package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	Email  string
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByCheckoutSessionID(ctx context.Context, sessionID string) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//statusと対応するタイムスタンプを同時に更新する
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, fields map[string]any) error

	//paid_atもcanceled_atも立っていないときだけPAIDにする。勝者だけtrue。
	MarkPaidIfUnpaid(ctx context.Context, orderID int64, paidAt time.Time, paymentRef string) (bool, error)

	//同じく条件付きのキャンセル。未払いかつ未キャンセルのときだけCANCELEDにする。
	CancelIfUnpaid(ctx context.Context, orderID int64, canceledAt time.Time) (bool, error)

	SetCheckoutSessionID(ctx context.Context, orderID int64, sessionID string) error
	SetReturnRequestedAt(ctx context.Context, orderID int64, at time.Time) error

	//補償削除（ホスト型セッション作成に失敗したとき）
	Delete(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
