package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"shop/internal/domain/model"
	"shop/internal/payments"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReconcileUC(r *txReposStub, provider payments.Provider) *usecase.ReconcileUsecase {
	return usecase.NewReconcileUsecase(&stubTxManager{repos: r}, provider)
}

func pendingHostedOrder() model.Order {
	return model.Order{
		ID:                42,
		Status:            model.OrderStatusPendingPayment,
		PaymentProvider:   model.PaymentProviderHosted,
		CheckoutSessionID: "cs_123",
		DiscountCode:      "SAVE10",
	}
}

func TestFinalize_FirstDeliveryCommitsOnce(t *testing.T) {
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	vid := int64(7)
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(pendingHostedOrder(), nil)
	r.orders.On("MarkPaidIfUnpaid", mock.Anything, int64(42), mock.Anything, "pi_9").Return(true, nil)
	r.orderLines.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderLine{
		{OrderID: 42, ProductID: 10, Quantity: 2},
		{OrderID: 42, ProductID: 11, VariantID: &vid, Quantity: 1},
	}, nil)
	r.inventory.On("DecrementBaseStock", mock.Anything, int64(10), int64(2)).Return(nil)
	r.inventory.On("DecrementVariantStock", mock.Anything, vid, int64(1)).Return(nil)
	r.discounts.On("IncrementUsage", mock.Anything, "SAVE10").Return(nil)
	r.events.On("Create", mock.Anything, mock.MatchedBy(func(ev model.OrderEvent) bool {
		return ev.OrderID == 42 && ev.Status == model.OrderStatusPaid
	})).Return(nil)
	r.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Actor == "webhook" && l.Action == model.AuditActionFinalizePayment && l.ResourceID == 42
	})).Return(nil)

	err := uc.Finalize(context.Background(), "cs_123", "", "pi_9")
	assert.NoError(t, err)

	r.inventory.AssertExpectations(t)
	r.discounts.AssertExpectations(t)
	r.events.AssertExpectations(t)
}

func TestFinalize_DuplicateDeliveryIsNoop(t *testing.T) {
	//同じ通知が再送されたケース。成功で返すが何も変えない。
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	paid := pendingHostedOrder()
	paid.Status = model.OrderStatusPaid
	paid.PaidAt = ts("2026-06-01T10:00:00Z")
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(paid, nil)

	err := uc.Finalize(context.Background(), "cs_123", "", "pi_9")
	assert.NoError(t, err)

	r.orders.AssertNotCalled(t, "MarkPaidIfUnpaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	r.inventory.AssertNotCalled(t, "DecrementBaseStock", mock.Anything, mock.Anything, mock.Anything)
	r.discounts.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestFinalize_UnknownSessionIsNoop(t *testing.T) {
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_unknown").Return(model.Order{}, repo.ErrNotFound)

	err := uc.Finalize(context.Background(), "cs_unknown", "", "pi_9")
	assert.NoError(t, err)

	r.orders.AssertNotCalled(t, "MarkPaidIfUnpaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalize_FallsBackToOrderIDHint(t *testing.T) {
	//セッションIDの保存前にwebhookが届いたケース
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	o := pendingHostedOrder()
	o.CheckoutSessionID = ""
	o.DiscountCode = ""
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(model.Order{}, repo.ErrNotFound)
	r.orders.On("FindByID", mock.Anything, int64(42)).Return(o, nil)
	r.orders.On("MarkPaidIfUnpaid", mock.Anything, int64(42), mock.Anything, "pi_9").Return(true, nil)
	r.orderLines.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderLine{}, nil)
	r.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	r.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.Finalize(context.Background(), "cs_123", "42", "pi_9")
	assert.NoError(t, err)

	r.orders.AssertExpectations(t)
}

func TestFinalize_RaceLoserDoesNotDecrement(t *testing.T) {
	//読み取り時点では未払いでも、UPDATEに負けたら在庫を触らない
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(pendingHostedOrder(), nil)
	r.orders.On("MarkPaidIfUnpaid", mock.Anything, int64(42), mock.Anything, "pi_9").Return(false, nil)

	err := uc.Finalize(context.Background(), "cs_123", "", "pi_9")
	assert.NoError(t, err)

	r.inventory.AssertNotCalled(t, "DecrementBaseStock", mock.Anything, mock.Anything, mock.Anything)
	r.inventory.AssertNotCalled(t, "DecrementVariantStock", mock.Anything, mock.Anything, mock.Anything)
	r.discounts.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestFinalize_CanceledOrderStaysCanceled(t *testing.T) {
	//キャンセル済みの注文に遅延webhookが届いても復活させない
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	canceled := pendingHostedOrder()
	canceled.Status = model.OrderStatusCanceled
	canceled.CanceledAt = ts("2026-06-01T09:00:00Z")
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(canceled, nil)

	err := uc.Finalize(context.Background(), "cs_123", "", "pi_9")
	assert.NoError(t, err)

	r.orders.AssertNotCalled(t, "MarkPaidIfUnpaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	r.inventory.AssertNotCalled(t, "DecrementBaseStock", mock.Anything, mock.Anything, mock.Anything)
	r.inventory.AssertNotCalled(t, "DecrementVariantStock", mock.Anything, mock.Anything, mock.Anything)
	r.discounts.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestExpire_CancelsUnpaidOrder(t *testing.T) {
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(pendingHostedOrder(), nil)
	r.orders.On("CancelIfUnpaid", mock.Anything, int64(42), mock.Anything).Return(true, nil)
	r.events.On("Create", mock.Anything, mock.MatchedBy(func(ev model.OrderEvent) bool {
		return ev.Status == model.OrderStatusCanceled
	})).Return(nil)
	r.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionExpireSession
	})).Return(nil)

	err := uc.Expire(context.Background(), "cs_123", "")
	assert.NoError(t, err)

	//在庫は最初から確保していないので触らない
	r.inventory.AssertNotCalled(t, "IncreaseBaseStock", mock.Anything, mock.Anything, mock.Anything)
	r.orders.AssertExpectations(t)
}

func TestExpire_LosesRaceToFinalize(t *testing.T) {
	//読み取り時点では未払いでも、条件付きUPDATEに負けたら
	//（＝先にFinalizeが確定したら）支払い済みを潰さない
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(pendingHostedOrder(), nil)
	r.orders.On("CancelIfUnpaid", mock.Anything, int64(42), mock.Anything).Return(false, nil)

	err := uc.Expire(context.Background(), "cs_123", "")
	assert.NoError(t, err)

	r.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	r.audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExpire_PaidOrderUntouched(t *testing.T) {
	//支払い済みに期限切れ通知が遅れて届いても何もしない
	r := newTxReposStub()
	uc := newReconcileUC(r, nil)

	paid := pendingHostedOrder()
	paid.Status = model.OrderStatusPaid
	paid.PaidAt = ts("2026-06-01T10:00:00Z")
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(paid, nil)

	err := uc.Expire(context.Background(), "cs_123", "")
	assert.NoError(t, err)

	r.orders.AssertNotCalled(t, "CancelIfUnpaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmBySession_NoProvider(t *testing.T) {
	uc := newReconcileUC(newTxReposStub(), nil)

	err := uc.ConfirmBySession(context.Background(), "cs_123")

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotImplemented, he.Status)
}

func TestConfirmBySession_PaidSessionFinalizes(t *testing.T) {
	r := newTxReposStub()
	provider := new(ProviderMock)
	uc := newReconcileUC(r, provider)

	provider.On("LookupCheckoutSession", mock.Anything, "cs_123").
		Return(payments.SessionLookup{ID: "cs_123", Paid: true, PaymentRef: "pi_9"}, nil)

	o := pendingHostedOrder()
	o.DiscountCode = ""
	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(o, nil)
	r.orders.On("MarkPaidIfUnpaid", mock.Anything, int64(42), mock.Anything, "pi_9").Return(true, nil)
	r.orderLines.On("ListByOrderID", mock.Anything, int64(42)).Return([]model.OrderLine{}, nil)
	r.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	r.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.ConfirmBySession(context.Background(), "cs_123")
	assert.NoError(t, err)

	provider.AssertExpectations(t)
}

func TestConfirmBySession_UnpaidSessionRejected(t *testing.T) {
	//クライアントの申告は信用しない。プロバイダが未払いと言えば400。
	r := newTxReposStub()
	provider := new(ProviderMock)
	uc := newReconcileUC(r, provider)

	provider.On("LookupCheckoutSession", mock.Anything, "cs_123").
		Return(payments.SessionLookup{ID: "cs_123"}, nil)

	err := uc.ConfirmBySession(context.Background(), "cs_123")
	assertErrContains(t, err, "session not paid")

	r.orders.AssertNotCalled(t, "MarkPaidIfUnpaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmBySession_ExpiredSessionCancels(t *testing.T) {
	r := newTxReposStub()
	provider := new(ProviderMock)
	uc := newReconcileUC(r, provider)

	provider.On("LookupCheckoutSession", mock.Anything, "cs_123").
		Return(payments.SessionLookup{ID: "cs_123", Expired: true}, nil)

	r.orders.On("FindByCheckoutSessionID", mock.Anything, "cs_123").Return(pendingHostedOrder(), nil)
	r.orders.On("CancelIfUnpaid", mock.Anything, int64(42), mock.Anything).Return(true, nil)
	r.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	r.audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	err := uc.ConfirmBySession(context.Background(), "cs_123")
	assert.NoError(t, err)

	r.orders.AssertExpectations(t)
}
