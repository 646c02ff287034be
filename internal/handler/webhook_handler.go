package handler

import (
	"io"
	"net/http"

	"shop/internal/payments"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	reconcile     *usecase.ReconcileUsecase
	webhookSecret string
}

func NewWebhookHandler(reconcile *usecase.ReconcileUsecase, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{reconcile: reconcile, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/stripe", h.handle)
}

// 署名検証は加工前のボディでやる。Bindを通してはいけない。
func (h *WebhookHandler) handle(c echo.Context) error {
	if h.webhookSecret == "" {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "webhook not configured"})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ev, err := payments.VerifyWebhook(body, c.Request().Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		//署名が合わないものは何も変えずに400
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	}

	ctx := c.Request().Context()
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		if err := h.reconcile.Finalize(ctx, ev.SessionID, ev.OrderID, ev.PaymentRef); err != nil {
			return writeError(c, err)
		}
	case payments.EventCheckoutExpired:
		if err := h.reconcile.Expire(ctx, ev.SessionID, ev.OrderID); err != nil {
			return writeError(c, err)
		}
	default:
		//関心のないイベントは受領だけ返す
	}

	return c.JSON(http.StatusOK, map[string]string{"received": "true"})
}
