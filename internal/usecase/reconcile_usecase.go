package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/payments"
	repo "shop/internal/repository"

	"github.com/labstack/gommon/log"
)

// プロバイダ通知の照合。通知は0回・1回・複数回、順不同で届く前提。
// 重複防御も順不同防御も、paid_at/canceled_atの条件付きUPDATEに任せる。
type ReconcileUsecase struct {
	tx       repo.TransactionManager
	provider payments.Provider //nilなら未設定（フォールバック照合は501）
}

func NewReconcileUsecase(tx repo.TransactionManager, provider payments.Provider) *ReconcileUsecase {
	return &ReconcileUsecase{tx: tx, provider: provider}
}

// セッション参照で注文を引く。無ければorder_idヒントで引き直す。
func findBySessionRef(ctx context.Context, r repo.TxRepos, sessionRef string, orderIDHint string) (model.Order, bool, error) {
	if strings.TrimSpace(sessionRef) != "" {
		o, err := r.Orders().FindByCheckoutSessionID(ctx, sessionRef)
		if err == nil {
			return o, true, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, false, err
		}
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(orderIDHint), 10, 64); err == nil && id > 0 {
		o, err := r.Orders().FindByID(ctx, id)
		if err == nil {
			return o, true, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, false, err
		}
	}

	return model.Order{}, false, nil
}

// 決済確定。何度呼ばれても在庫減算と遷移は一度だけ。
func (u *ReconcileUsecase) Finalize(ctx context.Context, sessionRef string, orderIDHint string, paymentRef string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, found, err := findBySessionRef(ctx, r, sessionRef, orderIDHint)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !found {
			//対象なし。作成直後の補償削除と競合したときもここに来る。
			log.Warnf("reconcile: no order for session %q (hint %q)", sessionRef, orderIDHint)
			return nil
		}

		if o.PaidAt != nil {
			//再送された通知。成功で返すが何も変えない。
			return nil
		}
		if o.CanceledAt != nil {
			//キャンセル済みの注文を遅延通知で復活させない
			log.Warnf("reconcile: session %q arrived after cancel (order %d)", sessionRef, o.ID)
			return nil
		}

		_, err = markPaid(ctx, r, ActorWebhook, model.AuditActionFinalizePayment, o, paymentRef, time.Now())
		return err
	})
}

// 期限切れセッション。未払いのホスト型注文をキャンセルするだけで、
// 在庫は最初から確保していないので触らない。
func (u *ReconcileUsecase) Expire(ctx context.Context, sessionRef string, orderIDHint string) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, found, err := findBySessionRef(ctx, r, sessionRef, orderIDHint)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !found {
			log.Warnf("reconcile: no order for expired session %q", sessionRef)
			return nil
		}

		if o.PaidAt != nil || o.CanceledAt != nil {
			return nil
		}

		//読み取り後にFinalizeが勝っているかもしれないので、
		//キャンセルも条件付きUPDATEで行う。負けたら何もしない。
		now := time.Now()
		won, err := r.Orders().CancelIfUnpaid(ctx, o.ID, now)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !won {
			return nil
		}
		return recordTransition(ctx, r, ActorWebhook, o.ID, model.AuditActionExpireSession, o.Status, model.OrderStatusCanceled, now)
	})
}

// クライアント起点のフォールバック照合。
// 申告は信用せず、プロバイダに現況を問い合わせてから確定する。
func (u *ReconcileUsecase) ConfirmBySession(ctx context.Context, sessionRef string) error {
	if u.provider == nil {
		return NewHTTPError(http.StatusNotImplemented, "payment provider not configured")
	}
	if strings.TrimSpace(sessionRef) == "" {
		return NewHTTPError(http.StatusBadRequest, "session_id required")
	}

	lookup, err := u.provider.LookupCheckoutSession(ctx, sessionRef)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	if lookup.Paid {
		return u.Finalize(ctx, sessionRef, "", lookup.PaymentRef)
	}
	if lookup.Expired {
		return u.Expire(ctx, sessionRef, "")
	}
	return NewHTTPError(http.StatusBadRequest, "session not paid")
}
