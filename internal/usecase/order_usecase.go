package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 注文の状態遷移。すべて事前条件ガード付きで、
// 順序違いの呼び出しは並べ替えず拒否する。
type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

func findOrder(ctx context.Context, r repo.TxRepos, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

// 注文IDの所持＋メール一致で本人とみなす。
// 本物の認証ではない（セッション基盤は別物）。
func requireEmailMatch(o model.Order, email string) error {
	if !strings.EqualFold(strings.TrimSpace(email), o.CustomerEmail) {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

// 遷移の共通後処理：タイムライン追記＋監査ログ
func recordTransition(ctx context.Context, r repo.TxRepos, actor string, orderID int64, action model.AuditAction, before model.OrderStatus, after model.OrderStatus, now time.Time) error {
	if err := r.OrderEvents().Create(ctx, model.OrderEvent{
		OrderID:   orderID,
		Status:    after,
		CreatedAt: now,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   statusJSON(before),
		AfterJSON:    statusJSON(after),
		CreatedAt:    now,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 支払い確定の本体。ReconcilerのFinalizeと同じ経路を通る。
// paid_atの条件付きUPDATEが勝者を1人に決める。
// ホスト型はここで初めて在庫を引く（手動注文は作成時に引き済み）。
func markPaid(ctx context.Context, r repo.TxRepos, actor string, action model.AuditAction, o model.Order, paymentRef string, now time.Time) (bool, error) {
	won, err := r.Orders().MarkPaidIfUnpaid(ctx, o.ID, now, paymentRef)
	if err != nil {
		return false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !won {
		//すでに他の経路で支払い済み。何もしない。
		return false, nil
	}

	if o.PaymentProvider == model.PaymentProviderHosted {
		lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
		if err != nil {
			return false, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, l := range lines {
			var derr error
			if l.VariantID != nil {
				derr = r.Inventory().DecrementVariantStock(ctx, *l.VariantID, l.Quantity)
			} else {
				derr = r.Inventory().DecrementBaseStock(ctx, l.ProductID, l.Quantity)
			}
			if derr != nil {
				return false, NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//利用回数は支払いが確定した注文だけで数える
		if o.DiscountCode != "" {
			if err := r.Discounts().IncrementUsage(ctx, o.DiscountCode); err != nil {
				return false, NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
	}

	if err := recordTransition(ctx, r, actor, o.ID, action, o.Status, model.OrderStatusPaid, now); err != nil {
		return false, err
	}
	return true, nil
}

func (u *OrderUsecase) Pay(ctx context.Context, actor string, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if o.CanceledAt != nil {
			return NewHTTPError(http.StatusBadRequest, "order canceled")
		}
		if o.PaidAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already paid")
		}

		//ここまでのチェック後にwebhookが先に着地していても、
		//markPaid側の条件付きUPDATEが守ってくれる（負けたら黙って成功）。
		_, err = markPaid(ctx, r, actor, model.AuditActionUpdateOrderStatus, o, "", time.Now())
		return err
	})
}

func (u *OrderUsecase) PayByCustomer(ctx context.Context, orderID int64, email string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := requireEmailMatch(o, email); err != nil {
			return err
		}
		if o.CanceledAt != nil {
			return NewHTTPError(http.StatusBadRequest, "order canceled")
		}
		if o.PaidAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already paid")
		}

		_, err = markPaid(ctx, r, ActorCustomer(o.CustomerEmail), model.AuditActionUpdateOrderStatus, o, "", time.Now())
		return err
	})
}

func (u *OrderUsecase) Fulfill(ctx context.Context, actor string, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if o.CanceledAt != nil {
			return NewHTTPError(http.StatusBadRequest, "order canceled")
		}
		if o.PaidAt == nil {
			return NewHTTPError(http.StatusBadRequest, "not paid")
		}
		if o.FulfilledAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already fulfilled")
		}

		now := time.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusFulfilled, map[string]any{"fulfilled_at": now}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return recordTransition(ctx, r, actor, orderID, model.AuditActionUpdateOrderStatus, o.Status, model.OrderStatusFulfilled, now)
	})
}

func (u *OrderUsecase) Ship(ctx context.Context, actor string, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if o.CanceledAt != nil {
			return NewHTTPError(http.StatusBadRequest, "order canceled")
		}
		if o.FulfilledAt == nil {
			return NewHTTPError(http.StatusBadRequest, "not fulfilled")
		}
		if o.ShippedAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already shipped")
		}

		now := time.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusShipped, map[string]any{"shipped_at": now}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return recordTransition(ctx, r, actor, orderID, model.AuditActionUpdateOrderStatus, o.Status, model.OrderStatusShipped, now)
	})
}

// キャンセルは出荷準備前だけ。確保済みの在庫は戻す。
func (u *OrderUsecase) cancel(ctx context.Context, r repo.TxRepos, actor string, o model.Order) error {
	if o.CanceledAt != nil {
		return NewHTTPError(http.StatusBadRequest, "already canceled")
	}
	if o.FulfilledAt != nil {
		return NewHTTPError(http.StatusBadRequest, "already fulfilled")
	}

	//在庫が確保済みの注文だけ戻す：
	//手動注文は作成時に、ホスト型は支払い確定時に引いている
	committed := o.PaymentProvider == model.PaymentProviderManual || o.PaidAt != nil
	if committed {
		lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, l := range lines {
			var ierr error
			if l.VariantID != nil {
				ierr = r.Inventory().IncreaseVariantStock(ctx, *l.VariantID, l.Quantity)
			} else {
				ierr = r.Inventory().IncreaseBaseStock(ctx, l.ProductID, l.Quantity)
			}
			if ierr != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
	}

	now := time.Now()
	if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusCanceled, map[string]any{"canceled_at": now}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return recordTransition(ctx, r, actor, o.ID, model.AuditActionUpdateOrderStatus, o.Status, model.OrderStatusCanceled, now)
}

func (u *OrderUsecase) Cancel(ctx context.Context, actor string, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		return u.cancel(ctx, r, actor, o)
	})
}

func (u *OrderUsecase) CancelByCustomer(ctx context.Context, orderID int64, email string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := requireEmailMatch(o, email); err != nil {
			return err
		}
		return u.cancel(ctx, r, ActorCustomer(o.CustomerEmail), o)
	})
}

func (u *OrderUsecase) CompleteByCustomer(ctx context.Context, orderID int64, email string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := requireEmailMatch(o, email); err != nil {
			return err
		}
		if o.ShippedAt == nil {
			return NewHTTPError(http.StatusBadRequest, "not shipped")
		}
		if o.CompletedAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already completed")
		}

		now := time.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCompleted, map[string]any{"completed_at": now}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return recordTransition(ctx, r, ActorCustomer(o.CustomerEmail), orderID, model.AuditActionUpdateOrderStatus, o.Status, model.OrderStatusCompleted, now)
	})
}

// 返品申請。メインの状態遷移とは独立したフラグで、出荷後に一度だけ。
func (u *OrderUsecase) RequestReturn(ctx context.Context, orderID int64, email string, reason string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if err := requireEmailMatch(o, email); err != nil {
			return err
		}
		if o.ShippedAt == nil {
			return NewHTTPError(http.StatusBadRequest, "not shipped")
		}
		if o.CompletedAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already completed")
		}
		if o.ReturnRequestedAt != nil {
			return NewHTTPError(http.StatusBadRequest, "already requested")
		}

		now := time.Now()
		if err := r.Orders().SetReturnRequestedAt(ctx, orderID, now); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		afterJSON := `{"return_requested":true`
		if strings.TrimSpace(reason) != "" {
			b, _ := jsonString(strings.TrimSpace(reason))
			afterJSON += `,"reason":` + b
		}
		afterJSON += `}`

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        ActorCustomer(o.CustomerEmail),
			Action:       model.AuditActionReturnRequest,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"return_requested":false}`,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

type TrackLineOutput struct {
	ProductID      int64  `json:"product_id"`
	VariantID      *int64 `json:"variant_id"`
	Title          string `json:"title"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type TrackEventOutput struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

type TrackOutput struct {
	ID                    int64              `json:"id"`
	Status                string             `json:"status"`
	SubtotalCents         int64              `json:"subtotal_cents"`
	DiscountCents         int64              `json:"discount_cents"`
	ShippingCents         int64              `json:"shipping_cents"`
	ShippingDiscountCents int64              `json:"shipping_discount_cents"`
	TotalCents            int64              `json:"total_cents"`
	EstimatedDeliveryAt   *time.Time         `json:"estimated_delivery_at"`
	PaidAt                *time.Time         `json:"paid_at"`
	FulfilledAt           *time.Time         `json:"fulfilled_at"`
	ShippedAt             *time.Time         `json:"shipped_at"`
	CanceledAt            *time.Time         `json:"canceled_at"`
	CompletedAt           *time.Time         `json:"completed_at"`
	ReturnRequestedAt     *time.Time         `json:"return_requested_at"`
	Lines                 []TrackLineOutput  `json:"lines"`
	Events                []TrackEventOutput `json:"events"`
}

// 公開の追跡スナップショット。顧客情報や決済参照は出さない。
func (u *OrderUsecase) Track(ctx context.Context, orderID int64) (TrackOutput, error) {
	var out TrackOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}

		lines, err := r.OrderLines().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		events, err := r.OrderEvents().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = TrackOutput{
			ID:                    o.ID,
			Status:                string(o.Status),
			SubtotalCents:         o.SubtotalCents,
			DiscountCents:         o.DiscountCents,
			ShippingCents:         o.ShippingCents,
			ShippingDiscountCents: o.ShippingDiscountCents,
			TotalCents:            o.TotalCents,
			EstimatedDeliveryAt:   o.EstimatedDeliveryAt,
			PaidAt:                o.PaidAt,
			FulfilledAt:           o.FulfilledAt,
			ShippedAt:             o.ShippedAt,
			CanceledAt:            o.CanceledAt,
			CompletedAt:           o.CompletedAt,
			ReturnRequestedAt:     o.ReturnRequestedAt,
		}
		for _, l := range lines {
			out.Lines = append(out.Lines, TrackLineOutput{
				ProductID:      l.ProductID,
				VariantID:      l.VariantID,
				Title:          l.TitleSnapshot,
				Quantity:       l.Quantity,
				UnitPriceCents: l.UnitPriceCents,
			})
		}
		for _, ev := range events {
			out.Events = append(out.Events, TrackEventOutput{
				Status: string(ev.Status),
				At:     ev.CreatedAt,
			})
		}
		return nil
	})

	if err != nil {
		return TrackOutput{}, err
	}
	return out, nil
}

// 完全なタイムライン（管理者用）
func (u *OrderUsecase) ListEvents(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	var events []model.OrderEvent

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := findOrder(ctx, r, orderID); err != nil {
			return err
		}
		evs, err := r.OrderEvents().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		events = evs
		return nil
	})

	if err != nil {
		return nil, err
	}
	return events, nil
}

// 管理者用の注文一覧
func (u *OrderUsecase) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page < 1 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return nil, 0, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var orders []model.Order
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		orders, total, err = r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
