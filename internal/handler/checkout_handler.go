package handler

import (
	"net/http"

	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

type CheckoutHandler struct {
	checkout  *usecase.CheckoutUsecase
	reconcile *usecase.ReconcileUsecase
}

func NewCheckoutHandler(checkout *usecase.CheckoutUsecase, reconcile *usecase.ReconcileUsecase) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, reconcile: reconcile}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/orders", h.createOrder)
	e.POST("/checkout/session", h.createSession)
	e.POST("/checkout/confirm", h.confirm)
}

type CreateOrderRequest struct {
	CartToken    string                  `json:"cart_token"`
	Items        []usecase.LineItemInput `json:"items"`
	Customer     usecase.CustomerInput   `json:"customer"`
	DiscountCode string                  `json:"discount_code"`
	ShippingCode string                  `json:"shipping_code"`
}

// 手動注文（同期）。成功なら内訳を返す。
func (h *CheckoutHandler) createOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.checkout.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		CartToken:    req.CartToken,
		Items:        req.Items,
		Customer:     req.Customer,
		DiscountCode: req.DiscountCode,
		ShippingCode: req.ShippingCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// ホスト型決済セッション作成。
func (h *CheckoutHandler) createSession(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.checkout.CreateHostedSession(c.Request().Context(), usecase.CreateOrderInput{
		CartToken:    req.CartToken,
		Items:        req.Items,
		Customer:     req.Customer,
		DiscountCode: req.DiscountCode,
		ShippingCode: req.ShippingCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type ConfirmRequest struct {
	SessionID string `json:"session_id"`
}

// webhookが落ちたとき用の、クライアント起点のフォールバック照合。
// Finalizeは冪等なのでwebhookと二重に走っても害はない。
func (h *CheckoutHandler) confirm(c echo.Context) error {
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id required"})
	}

	if err := h.reconcile.ConfirmBySession(c.Request().Context(), req.SessionID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
